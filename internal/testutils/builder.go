// Package testutils assembles small transducers and serialises them in
// the on-disk layout, so tests drive the same load path real files take.
package testutils

import (
	"fmt"

	"github.com/UAlbertaALTLab/hfst-altlab/internal/format"
	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

type arc struct {
	from, to int
	in, out  string
	weight   float32
}

type node struct {
	final  bool
	weight float32
}

// Builder collects states and arcs. Symbols are given as strings; the
// empty string is epsilon and @X.FEATURE.VALUE@ strings become flag
// diacritics, exactly as they would in a stream's alphabet.
type Builder struct {
	weighted bool
	cyclic   bool
	epsCycle bool
	name     string
	nodes    []node
	arcs     []arc
}

// NewBuilder returns a builder holding only the start state, handle 0.
func NewBuilder() *Builder {
	return &Builder{nodes: []node{{}}}
}

// Weighted marks the automaton as carrying tropical weights.
func (b *Builder) Weighted() *Builder {
	b.weighted = true
	return b
}

// Named sets the container name property.
func (b *Builder) Named(name string) *Builder {
	b.name = name
	return b
}

// MarkEpsilonCycles sets the header flags that announce input-side
// epsilon cycles, the infinitely-ambiguous case.
func (b *Builder) MarkEpsilonCycles() *Builder {
	b.cyclic = true
	b.epsCycle = true
	return b
}

// State adds a state and returns its handle.
func (b *Builder) State() int {
	b.nodes = append(b.nodes, node{})
	return len(b.nodes) - 1
}

// Final marks s as accepting.
func (b *Builder) Final(s int) *Builder {
	b.nodes[s].final = true
	return b
}

// FinalWeight marks s as accepting with a final weight.
func (b *Builder) FinalWeight(s int, w float32) *Builder {
	b.nodes[s].final = true
	b.nodes[s].weight = w
	return b
}

// Arc adds an unweighted arc.
func (b *Builder) Arc(from int, in, out string, to int) *Builder {
	return b.WeightedArc(from, in, out, to, 0)
}

// WeightedArc adds an arc with a weight.
func (b *Builder) WeightedArc(from int, in, out string, to int, w float32) *Builder {
	b.arcs = append(b.arcs, arc{from: from, to: to, in: in, out: out, weight: w})
	return b
}

// Automaton assembles the arena. The input partition is derived from
// arc usage: epsilon first, then every consumable input-side symbol in
// first-use order, then flags and output-only symbols.
func (b *Builder) Automaton() (*fst.Automaton, error) {
	seen := make(map[string]bool)
	var inputs, rest []string
	note := func(list *[]string, text string) {
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		*list = append(*list, text)
	}
	for _, a := range b.arcs {
		if !isFlagText(a.in) {
			note(&inputs, a.in)
		}
	}
	for _, a := range b.arcs {
		note(&rest, a.in)
		note(&rest, a.out)
	}

	table := fst.NewSymbolTable(1 + len(inputs))
	codes := map[string]fst.SymbolCode{"": fst.Epsilon}
	intern := func(text string) {
		sym := table.Intern(text)
		if _, ok := codes[text]; !ok {
			codes[text] = sym.Code
		}
	}
	intern("@_EPSILON_SYMBOL_@")
	for _, text := range inputs {
		intern(text)
	}
	for _, text := range rest {
		intern(text)
	}

	states := make([]fst.State, len(b.nodes))
	for i, nd := range b.nodes {
		states[i] = fst.State{Final: nd.final, FinalWeight: nd.weight}
	}
	for _, a := range b.arcs {
		if a.from < 0 || a.from >= len(states) || a.to < 0 || a.to >= len(states) {
			return nil, fmt.Errorf("arc %s:%s joins unknown states %d and %d", a.in, a.out, a.from, a.to)
		}
		states[a.from].Transitions = append(states[a.from].Transitions, fst.Transition{
			In:     codes[a.in],
			Out:    codes[a.out],
			Target: fst.StateID(a.to),
			Weight: a.weight,
		})
	}

	header := fst.Header{
		Weighted:           b.weighted,
		Cyclic:             b.cyclic,
		InputEpsilonCycles: b.epsCycle,
		Container:          fst.ContainerInfo{Name: b.name},
	}
	if b.epsCycle && !b.weighted {
		header.UnweightedInputEpsilonCycles = true
	}
	for _, a := range b.arcs {
		if a.in == "" || isFlagText(a.in) {
			header.InputEpsilonTransitions = true
		}
		if a.in == "" && a.out == "" {
			header.EpsilonEpsilonTransitions = true
		}
	}
	return fst.NewAutomaton(states, table, header)
}

// Image serialises the automaton into stream bytes.
func (b *Builder) Image() ([]byte, error) {
	auto, err := b.Automaton()
	if err != nil {
		return nil, err
	}
	return format.Write(auto)
}

func isFlagText(s string) bool {
	_, ok := fst.ParseFlag(s)
	return ok
}
