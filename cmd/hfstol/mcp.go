package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/logging"
	mcpadapter "github.com/UAlbertaALTLab/hfst-altlab/pkg/adapters/mcp"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/ports"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp <analyser.hfstol> [generator.hfstol]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Serves the transducers as MCP tools, so AI agents can analyse
wordforms and generate surface forms. With a second transducer the
analyse tool also reports the standardized spelling each analysis
regenerates to.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		level := slog.LevelInfo
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = slog.LevelDebug
		}
		logger := logging.New(level)
		slog.SetDefault(logger)

		morphology, info, err := loadMorphology(cmd, args, logger)
		if err != nil {
			log.Fatalf("Error loading transducers: %v", err)
		}

		srv := mcpadapter.NewServer(
			func() ports.Morphology { return morphology },
			mcpadapter.WithServiceInfo(info),
		)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			slog.Info("Starting hfstol MCP server (stdio)")

			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}

		case "sse":
			slog.Info("Starting hfstol MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && err != http.ErrServerClosed {
				slog.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
			slog.Info("MCP server stopped gracefully")

		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only used for SSE transport)")
	addBudgetFlags(mcpCmd)
}

// transducerDescription is the per-model entry of the service info
// resource.
type transducerDescription struct {
	Role        string `json:"role"`
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint"`
	Weighted    bool   `json:"weighted"`
	States      int    `json:"states"`
}

func loadMorphology(cmd *cobra.Command, args []string, logger *slog.Logger) (ports.Morphology, []transducerDescription, error) {
	opts := budgetOptions(cmd, logger)

	analyser, err := hfstol.Load(args[0], opts...)
	if err != nil {
		return nil, nil, err
	}
	info := []transducerDescription{describeForMCP("analyser", analyser)}

	if len(args) == 1 {
		return analyser, info, nil
	}

	generator, err := hfstol.Load(args[1], opts...)
	if err != nil {
		return nil, nil, err
	}
	info = append(info, describeForMCP("generator", generator))
	return hfstol.NewPair(analyser, generator), info, nil
}

func describeForMCP(role string, t *hfstol.Transducer) transducerDescription {
	return transducerDescription{
		Role:        role,
		Source:      t.Source(),
		Fingerprint: t.Fingerprint(),
		Weighted:    t.Weighted(),
		States:      t.StateCount(),
	}
}
