/*
Package hfstol reads HFST optimized-lookup transducers (.hfstol files)
and applies them: surface wordforms in, morphological analyses out, and
the reverse.

It implements the optimized-lookup binary format natively, so loading a
model needs no hfst installation and no cgo. One parsed transducer runs
both directions: analysis consumes the input tape, generation consumes
the output tape.

# Key Features

  - Native format support: HFST3 container, weighted and unweighted
    streams, flag diacritics, multicharacter symbols.
  - Bounded search: wall-clock cutoff plus path and step budgets keep
    lookups on cyclic transducers from running away.
  - Transducer pairs: an analyser/generator pair standardizes analyses
    by regenerating them, the shape language models actually ship in.
  - Pluggable caching and lifecycle hooks for serving workloads.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	)

	func main() {
		fst, err := hfstol.Load("crk-descriptive-analyzer.hfstol")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		analyses, err := fst.Analyse(ctx, "atim")
		if err != nil {
			log.Fatal(err)
		}
		for _, a := range analyses {
			fmt.Println(a.Text(), a.Weight)
		}

		// The same transducer runs backwards:
		forms, err := fst.Generate(ctx, "atim+N+A+Pl")
		if err != nil {
			log.Fatal(err)
		}
		for _, w := range forms {
			fmt.Println(w.Text())
		}
	}
*/
package hfstol
