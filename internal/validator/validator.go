// Package validator lints a parsed automaton against the properties its
// header declares. Only understatement is reported: a header claiming
// less than the structure shows misleads tools that trust the flags,
// while a conservative over-declaration costs nothing.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// Check walks the arena and returns one message per finding. An empty
// slice means header and structure agree and every flag requirement is
// satisfiable.
func Check(a *fst.Automaton) []string {
	var problems []string
	problems = append(problems, checkDeclaredProperties(a)...)
	problems = append(problems, checkDeadEnds(a)...)
	problems = append(problems, checkFlags(a)...)
	return problems
}

func checkDeclaredProperties(a *fst.Automaton) []string {
	header := a.Header()
	table := a.Symbols()

	var epsEps, inputEps bool
	for s := 0; s < a.Len(); s++ {
		for _, tr := range a.Transitions(fst.StateID(s)) {
			if zeroWidth(table, tr.In) {
				inputEps = true
				if zeroWidth(table, tr.Out) {
					epsEps = true
				}
			}
		}
	}

	var problems []string
	if inputEps && !header.InputEpsilonTransitions {
		problems = append(problems, "input-side epsilon or flag transitions exist but the header does not declare them")
	}
	if epsEps && !header.EpsilonEpsilonTransitions {
		problems = append(problems, "epsilon:epsilon transitions exist but the header does not declare them")
	}
	if hasCycle(a, false) && !header.Cyclic {
		problems = append(problems, "the automaton is cyclic but the header does not declare it")
	}
	if hasCycle(a, true) && !header.InfinitelyAmbiguous() {
		problems = append(problems, "a cycle of zero-width transitions exists but the header does not declare input epsilon cycles; some inputs carry unboundedly many paths")
	}
	return problems
}

// hasCycle runs an iterative three-color DFS from the start state.
// zeroOnly restricts the walk to epsilon and flag input arcs, which is
// the infinitely-ambiguous case.
func hasCycle(a *fst.Automaton, zeroOnly bool) bool {
	table := a.Symbols()
	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, a.Len())

	type frame struct {
		state fst.StateID
		next  int
	}
	var stack []frame

	for s := 0; s < a.Len(); s++ {
		if color[s] != white {
			continue
		}
		stack = append(stack[:0], frame{state: fst.StateID(s)})
		color[s] = grey
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			arcs := a.Transitions(f.state)
			advanced := false
			for f.next < len(arcs) {
				tr := arcs[f.next]
				f.next++
				if zeroOnly && !zeroWidth(table, tr.In) {
					continue
				}
				switch color[tr.Target] {
				case grey:
					return true
				case white:
					color[tr.Target] = grey
					stack = append(stack, frame{state: tr.Target})
					advanced = true
				}
				if advanced {
					break
				}
			}
			if !advanced {
				color[f.state] = black
				stack = stack[:len(stack)-1]
			}
		}
	}
	return false
}

func checkDeadEnds(a *fst.Automaton) []string {
	var dead []string
	for s := 0; s < a.Len(); s++ {
		id := fst.StateID(s)
		if _, final := a.IsFinal(id); !final && len(a.Transitions(id)) == 0 {
			dead = append(dead, fmt.Sprintf("s%d", s))
		}
	}
	if len(dead) == 0 {
		return nil
	}
	return []string{fmt.Sprintf("dead-end states (not final, no way out): %s", strings.Join(dead, ", "))}
}

// checkFlags reports require/unify operations over features no arc ever
// sets: every path through such a flag is pruned, so the arcs behind it
// are unreachable in practice.
func checkFlags(a *fst.Automaton) []string {
	table := a.Symbols()

	setFeatures := make(map[string]bool)
	setValues := make(map[string]bool)
	type requirement struct {
		text, feature, value string
	}
	required := make(map[requirement]bool)

	note := func(code fst.SymbolCode) {
		sym, ok := table.Symbol(code)
		if !ok || sym.Class != fst.ClassFlag {
			return
		}
		f := sym.Flag
		switch f.Op {
		case fst.FlagPositive, fst.FlagNegative, fst.FlagUnify:
			setFeatures[f.Feature] = true
			setValues[f.Feature+"\x00"+f.Value] = true
		case fst.FlagRequire:
			required[requirement{text: sym.Text, feature: f.Feature, value: f.Value}] = true
		}
	}
	for s := 0; s < a.Len(); s++ {
		for _, tr := range a.Transitions(fst.StateID(s)) {
			note(tr.In)
			note(tr.Out)
		}
	}

	var problems []string
	for req := range required {
		switch {
		case req.value == "" && !setFeatures[req.feature]:
			problems = append(problems, fmt.Sprintf("%s requires feature %s, which no flag on any arc sets", req.text, req.feature))
		case req.value != "" && !setValues[req.feature+"\x00"+req.value]:
			problems = append(problems, fmt.Sprintf("%s requires %s=%s, which no flag on any arc sets", req.text, req.feature, req.value))
		}
	}
	sort.Strings(problems)
	return problems
}

func zeroWidth(table *fst.SymbolTable, code fst.SymbolCode) bool {
	sym, ok := table.Symbol(code)
	return ok && sym.Class != fst.ClassOrdinary
}
