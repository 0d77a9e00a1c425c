package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/presentation/graph"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/presentation/tui"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/validator"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <transducer.hfstol>",
	Short: "Summarize a transducer file without running lookups",
	Long: `Parses a transducer and reports its container metadata, table
geometry, property flags and alphabet, along with warnings where the
structure contradicts what the header declares. The mermaid output
draws the state graph instead, for small transducers.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := hfstol.Load(args[0], hfstol.WithLogger(commandLogger(cmd)))
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("output")
		if format == "mermaid" {
			diagram, err := graph.GenerateMermaid(t.Automaton())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), diagram)
			return nil
		}

		report := buildReport(t)
		switch format {
		case "json":
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		case "yaml":
			data, err := yaml.Marshal(report)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
		case "pretty":
			md := report.markdown()
			rendered, err := tui.NewRenderer()(md)
			if err != nil {
				// Plain markdown still reads fine on a dumb terminal.
				rendered = md
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
		default:
			return fmt.Errorf("unknown output format %q (want pretty, json, yaml or mermaid)", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("output", "o", "pretty", "Output format: pretty, json, yaml or mermaid")
}

type containerReport struct {
	Type    string `json:"type" yaml:"type"`
	Version string `json:"version,omitempty" yaml:"version,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
}

type propertiesReport struct {
	Deterministic       bool `json:"deterministic" yaml:"deterministic"`
	InputDeduced        bool `json:"input_deduced" yaml:"input_deduced"`
	Minimized           bool `json:"minimized" yaml:"minimized"`
	Cyclic              bool `json:"cyclic" yaml:"cyclic"`
	InfinitelyAmbiguous bool `json:"infinitely_ambiguous" yaml:"infinitely_ambiguous"`
}

type inspectReport struct {
	Source         string           `json:"source" yaml:"source"`
	Fingerprint    string           `json:"fingerprint" yaml:"fingerprint"`
	Container      *containerReport `json:"container,omitempty" yaml:"container,omitempty"`
	Weighted       bool             `json:"weighted" yaml:"weighted"`
	States         int              `json:"states" yaml:"states"`
	Transitions    int              `json:"declared_transitions" yaml:"declared_transitions"`
	Symbols        int              `json:"symbols" yaml:"symbols"`
	InputSymbols   int              `json:"input_symbols" yaml:"input_symbols"`
	FlagFeatures   int              `json:"flag_features" yaml:"flag_features"`
	FlagDiacritics []string         `json:"flag_diacritics,omitempty" yaml:"flag_diacritics,omitempty"`
	Properties     propertiesReport `json:"properties" yaml:"properties"`
	Warnings       []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func buildReport(t *hfstol.Transducer) inspectReport {
	header := t.Header()
	table := t.Symbols()

	report := inspectReport{
		Source:       t.Source(),
		Fingerprint:  t.Fingerprint(),
		Weighted:     header.Weighted,
		States:       t.StateCount(),
		Transitions:  header.DeclaredTransitions,
		Symbols:      table.Len(),
		InputSymbols: table.InputCount(),
		FlagFeatures: table.FeatureCount(),
		Properties: propertiesReport{
			Deterministic:       header.Deterministic,
			InputDeduced:        header.InputDeduced,
			Minimized:           header.Minimized,
			Cyclic:              header.Cyclic,
			InfinitelyAmbiguous: header.InfinitelyAmbiguous(),
		},
	}
	if header.Container.Present {
		report.Container = &containerReport{
			Type:    header.Container.Type,
			Version: header.Container.Version,
			Name:    header.Container.Name,
		}
	}
	for code := 0; code < table.Len(); code++ {
		if sym, ok := table.Symbol(fst.SymbolCode(code)); ok && sym.Class == fst.ClassFlag {
			report.FlagDiacritics = append(report.FlagDiacritics, sym.Text)
		}
	}
	report.Warnings = validator.Check(t.Automaton())
	return report
}

func (r inspectReport) markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", r.Source)

	if r.Container != nil {
		fmt.Fprintf(&b, "hfst3 container, type `%s`", r.Container.Type)
		if r.Container.Version != "" {
			fmt.Fprintf(&b, ", version %s", r.Container.Version)
		}
		if r.Container.Name != "" {
			fmt.Fprintf(&b, ", named %q", r.Container.Name)
		}
		b.WriteString(".\n\n")
	} else {
		b.WriteString("Bare optimized-lookup stream, no hfst3 container.\n\n")
	}

	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| weighted | %t |\n", r.Weighted)
	fmt.Fprintf(&b, "| states | %d |\n", r.States)
	fmt.Fprintf(&b, "| declared transitions | %d |\n", r.Transitions)
	fmt.Fprintf(&b, "| symbols | %d (%d input) |\n", r.Symbols, r.InputSymbols)
	fmt.Fprintf(&b, "| deterministic | %t |\n", r.Properties.Deterministic)
	fmt.Fprintf(&b, "| minimized | %t |\n", r.Properties.Minimized)
	fmt.Fprintf(&b, "| cyclic | %t |\n", r.Properties.Cyclic)
	fmt.Fprintf(&b, "| infinitely ambiguous | %t |\n", r.Properties.InfinitelyAmbiguous)
	fmt.Fprintf(&b, "| fingerprint | `%s` |\n", r.Fingerprint)

	if len(r.FlagDiacritics) > 0 {
		fmt.Fprintf(&b, "\n## Flag diacritics (%d features)\n\n", r.FlagFeatures)
		for _, f := range r.FlagDiacritics {
			fmt.Fprintf(&b, "- `%s`\n", f)
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
