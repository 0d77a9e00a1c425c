// Package graph renders automata as Mermaid diagrams for inspection.
package graph

import (
	"fmt"
	"strings"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// MaxStates bounds rendering. Past it the diagram stops being readable
// and Mermaid renderers choke on the edge count.
const MaxStates = 250

// GenerateMermaid produces a Mermaid flowchart (graph TD) of the state
// arena. It applies semantic styling:
// - Start state: ((Circle))
// - Final states: ([Stadium]), carrying the final weight when weighted
// - Consuming arcs: solid arrows labeled in:out
// - Zero-width arcs (epsilon or flag on the input side): dotted arrows
func GenerateMermaid(a *fst.Automaton) (string, error) {
	if a.Len() > MaxStates {
		return "", fmt.Errorf("automaton has %d states; refusing to draw more than %d", a.Len(), MaxStates)
	}

	table := a.Symbols()
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i := 0; i < a.Len(); i++ {
		id := fst.StateID(i)

		// Node Shape based on role
		opener, closer := "[", "]"
		label := fmt.Sprintf("s%d", i)
		if weight, final := a.IsFinal(id); final {
			opener, closer = "([", "])"
			if a.Weighted() {
				label = fmt.Sprintf("s%d / %.2f", i, weight)
			}
		}
		if id == a.Start() {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    s%d%s\"%s\"%s\n", i, opener, label, closer))

		for _, tr := range a.Transitions(id) {
			// Escape double quotes in symbol text for Mermaid labels
			lbl := strings.ReplaceAll(arcLabel(table, tr, a.Weighted()), "\"", "'")
			arrow := fmt.Sprintf("-- \"%s\" -->", lbl)
			if zeroWidth(table, tr.In) {
				arrow = fmt.Sprintf("-. \"%s\" .->", lbl)
			}
			sb.WriteString(fmt.Sprintf("    s%d %s s%d\n", i, arrow, tr.Target))
		}
	}

	return sb.String(), nil
}

func arcLabel(table *fst.SymbolTable, tr fst.Transition, weighted bool) string {
	lbl := symbolLabel(table, tr.In) + ":" + symbolLabel(table, tr.Out)
	if weighted && tr.Weight != 0 {
		lbl = fmt.Sprintf("%s / %.2f", lbl, tr.Weight)
	}
	return lbl
}

// symbolLabel spells a code for an arc label. Epsilon draws as ε so the
// arc stays legible.
func symbolLabel(table *fst.SymbolTable, code fst.SymbolCode) string {
	sym, ok := table.Symbol(code)
	if !ok {
		return fmt.Sprintf("#%d", code)
	}
	if sym.Class == fst.ClassEpsilon {
		return "ε"
	}
	return sym.Text
}

func zeroWidth(table *fst.SymbolTable, code fst.SymbolCode) bool {
	sym, ok := table.Symbol(code)
	return ok && sym.Class != fst.ClassOrdinary
}
