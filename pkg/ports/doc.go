/*
Package ports defines the driven ports (interfaces) for the lookup engine.

These interfaces decouple the core from external implementations, allowing
the same transducers to be served with different cache backends and exposed
through different transports.

# Key Interfaces

  - Morphology: the lookup surface adapters program against (HTTP, MCP, CLI).
  - AnalysisCache: memoises analysis result sets keyed by transducer and input.
*/
package ports
