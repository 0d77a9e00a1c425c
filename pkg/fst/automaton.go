package fst

import "fmt"

// StateID indexes the state arena. The start state is always 0.
type StateID uint32

// Transition is one arc of the automaton. Weight stays zero everywhere
// in unweighted transducers.
type Transition struct {
	In     SymbolCode
	Out    SymbolCode
	Target StateID
	Weight float32
}

// State is one row of the arena. Transition order carries no meaning;
// decoded streams arrive grouped by input code with the epsilon and
// flag run first, but consumers must not rely on it.
type State struct {
	Final       bool
	FinalWeight float32
	Transitions []Transition
}

// Header carries the table geometry and property flags a transducer
// stream declares, plus whatever its container reported about it.
type Header struct {
	InputSymbols        int
	Symbols             int
	IndexTableSize      int
	TransitionTableSize int
	DeclaredStates      int
	DeclaredTransitions int

	Weighted      bool
	Deterministic bool
	InputDeduced  bool
	Minimized     bool
	Cyclic        bool

	EpsilonEpsilonTransitions    bool
	InputEpsilonTransitions      bool
	InputEpsilonCycles           bool
	UnweightedInputEpsilonCycles bool

	Container ContainerInfo
}

// ContainerInfo is the property block of an hfst3 container, decoded
// from its key/value section. Bare streams leave it zeroed.
type ContainerInfo struct {
	Present bool   `mapstructure:"-"`
	Type    string `mapstructure:"type"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// InfinitelyAmbiguous reports whether some input can carry unboundedly
// many analyses, which is what input-side epsilon cycles mean.
func (h Header) InfinitelyAmbiguous() bool {
	return h.InputEpsilonCycles || h.UnweightedInputEpsilonCycles
}

// Automaton is the in-memory form of one optimized transducer: a state
// arena over a shared symbol table. It is immutable after construction
// and safe for concurrent readers.
type Automaton struct {
	states []State
	table  *SymbolTable
	header Header
}

// NewAutomaton wires states, alphabet and header together. Every
// transition must stay inside the arena and the alphabet.
func NewAutomaton(states []State, table *SymbolTable, header Header) (*Automaton, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("empty state arena: %w", ErrBadFormat)
	}
	for i := range states {
		for _, tr := range states[i].Transitions {
			if int(tr.Target) >= len(states) {
				return nil, fmt.Errorf("state %d: target %d outside arena of %d states: %w", i, tr.Target, len(states), ErrBadFormat)
			}
			if int(tr.In) >= table.Len() || int(tr.Out) >= table.Len() {
				return nil, fmt.Errorf("state %d: pair %d:%d outside alphabet of %d symbols: %w", i, tr.In, tr.Out, table.Len(), ErrBadFormat)
			}
		}
	}
	return &Automaton{states: states, table: table, header: header}, nil
}

// Start returns the initial state.
func (a *Automaton) Start() StateID { return 0 }

// Len returns the number of states in the arena.
func (a *Automaton) Len() int { return len(a.states) }

// IsFinal reports whether id accepts, and with which final weight.
func (a *Automaton) IsFinal(id StateID) (float32, bool) {
	s := &a.states[id]
	return s.FinalWeight, s.Final
}

// Transitions returns the outgoing arcs of id. The slice is shared with
// the arena; callers must not modify it.
func (a *Automaton) Transitions(id StateID) []Transition {
	return a.states[id].Transitions
}

// Symbols returns the alphabet.
func (a *Automaton) Symbols() *SymbolTable { return a.table }

// Header returns the declared geometry and properties.
func (a *Automaton) Header() Header { return a.header }

// Weighted reports whether the stream carried tropical weights.
func (a *Automaton) Weighted() bool { return a.header.Weighted }
