package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// Read parses one optimized transducer from data. source only labels
// errors. The stream must hold exactly one transducer; trailing bytes
// are rejected.
func Read(source string, data []byte) (*fst.Automaton, error) {
	if len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b {
		return nil, &fst.CompressedInputError{Source: source}
	}
	auto, err := parse(data)
	if err != nil {
		return nil, &fst.FormatError{Source: source, Err: err}
	}
	return auto, nil
}

func parse(data []byte) (*fst.Automaton, error) {
	cur := &cursor{data: data}

	var container fst.ContainerInfo
	if bytes.HasPrefix(data, []byte(containerMagic)) {
		cur.off = len(containerMagic)
		raw, err := cur.need(3)
		if err != nil {
			return nil, fmt.Errorf("container header: %w", err)
		}
		blockLen := int(binary.LittleEndian.Uint16(raw))
		if raw[2] != 0 {
			return nil, fmt.Errorf("container header: %w", fst.ErrBadFormat)
		}
		block, err := cur.need(blockLen)
		if err != nil {
			return nil, fmt.Errorf("container properties: %w", fst.ErrTruncated)
		}
		info, err := decodeContainerProps(block)
		if err != nil {
			return nil, err
		}
		switch info.Type {
		case TypeUnweighted, TypeWeighted:
		default:
			return nil, fmt.Errorf("transducer type %q: %w", info.Type, fst.ErrUnsupportedType)
		}
		container = info
	}

	raw, err := cur.need(headerSize)
	if err != nil {
		return nil, fmt.Errorf("table header: %w", err)
	}
	header := decodeHeader(raw)
	header.Container = container

	if container.Present && header.Weighted != (container.Type == TypeWeighted) {
		return nil, fmt.Errorf("container type %s disagrees with the weight flag: %w", container.Type, fst.ErrBadFormat)
	}
	switch {
	case header.Symbols == 0:
		return nil, fmt.Errorf("empty alphabet: %w", fst.ErrBadFormat)
	case header.InputSymbols > header.Symbols:
		return nil, fmt.Errorf("%d input symbols in an alphabet of %d: %w", header.InputSymbols, header.Symbols, fst.ErrBadFormat)
	case header.IndexTableSize == 0:
		return nil, fmt.Errorf("empty index table: %w", fst.ErrBadFormat)
	case header.IndexTableSize >= int(targetTableOffset):
		return nil, fmt.Errorf("index table size %d out of range: %w", header.IndexTableSize, fst.ErrBadFormat)
	}

	table := fst.NewSymbolTable(header.InputSymbols)
	for i := 0; i < header.Symbols; i++ {
		text, err := cur.cstring()
		if err != nil {
			return nil, fmt.Errorf("alphabet entry %d: %w", i, err)
		}
		table.Intern(text)
	}

	tsize := transitionSize
	if header.Weighted {
		tsize = weightedTransitionSize
	}
	idx, err := cur.need(header.IndexTableSize * indexEntrySize)
	if err != nil {
		return nil, fmt.Errorf("index table: %w", fst.ErrTruncated)
	}
	trans, err := cur.need(header.TransitionTableSize * tsize)
	if err != nil {
		return nil, fmt.Errorf("transition table: %w", fst.ErrTruncated)
	}
	if cur.rest() != 0 {
		return nil, fmt.Errorf("%d trailing bytes, expected exactly one transducer: %w", cur.rest(), fst.ErrBadFormat)
	}

	p := &parser{
		header: header,
		table:  table,
		idx:    idx,
		trans:  trans,
		tsize:  tsize,
		ids:    make(map[stateRef]fst.StateID),
	}
	states, err := p.build()
	if err != nil {
		return nil, err
	}
	return fst.NewAutomaton(states, table, header)
}

type cursor struct {
	data []byte
	off  int
}

func (c *cursor) need(n int) ([]byte, error) {
	if n < 0 || c.off+n > len(c.data) {
		return nil, fst.ErrTruncated
	}
	b := c.data[c.off : c.off+n]
	c.off += n
	return b, nil
}

func (c *cursor) cstring() (string, error) {
	i := bytes.IndexByte(c.data[c.off:], 0)
	if i < 0 {
		return "", fst.ErrTruncated
	}
	s := string(c.data[c.off : c.off+i])
	c.off += i + 1
	return s, nil
}

func (c *cursor) rest() int { return len(c.data) - c.off }

// stateRef addresses a state the way the tables do: an index table base,
// or a transition table position for resident states.
type stateRef struct {
	resident bool
	pos      uint32
}

// parser walks the tables from the start state, assigning dense IDs to
// every reachable address and rebuilding the arena.
type parser struct {
	header fst.Header
	table  *fst.SymbolTable
	idx    []byte
	trans  []byte
	tsize  int

	states []fst.State
	ids    map[stateRef]fst.StateID
	queue  []stateRef
}

func (p *parser) build() ([]fst.State, error) {
	p.id(stateRef{}) // the start state is index base 0
	for len(p.queue) > 0 {
		ref := p.queue[0]
		p.queue = p.queue[1:]
		var (
			st  fst.State
			err error
		)
		if ref.resident {
			st, err = p.decodeResident(ref.pos)
		} else {
			st, err = p.decodeIndexed(ref.pos)
		}
		if err != nil {
			return nil, err
		}
		p.states[p.ids[ref]] = st
	}
	return p.states, nil
}

func (p *parser) id(ref stateRef) fst.StateID {
	if id, ok := p.ids[ref]; ok {
		return id
	}
	id := fst.StateID(len(p.states))
	p.ids[ref] = id
	p.states = append(p.states, fst.State{})
	p.queue = append(p.queue, ref)
	return id
}

func (p *parser) indexEntry(i int) (uint16, uint32) {
	off := i * indexEntrySize
	return binary.LittleEndian.Uint16(p.idx[off:]), binary.LittleEndian.Uint32(p.idx[off+2:])
}

func (p *parser) transitionEntry(i int) (in, out uint16, target uint32, weight float32) {
	off := i * p.tsize
	in = binary.LittleEndian.Uint16(p.trans[off:])
	out = binary.LittleEndian.Uint16(p.trans[off+2:])
	target = binary.LittleEndian.Uint32(p.trans[off+4:])
	if p.tsize == weightedTransitionSize {
		weight = math.Float32frombits(binary.LittleEndian.Uint32(p.trans[off+8:]))
	}
	return
}

func (p *parser) ref(target uint32) (stateRef, error) {
	if target >= targetTableOffset {
		pos := target - targetTableOffset
		if int(pos) >= p.header.TransitionTableSize {
			return stateRef{}, fmt.Errorf("target %d outside the transition table: %w", pos, fst.ErrBadFormat)
		}
		return stateRef{resident: true, pos: pos}, nil
	}
	if int(target) >= p.header.IndexTableSize {
		return stateRef{}, fmt.Errorf("target %d outside the index table: %w", target, fst.ErrBadFormat)
	}
	return stateRef{pos: target}, nil
}

func (p *parser) decodeIndexed(base uint32) (fst.State, error) {
	var st fst.State
	sym, target := p.indexEntry(int(base))
	if sym == noSymbol && target != noTableIndex {
		st.Final = true
		if p.header.Weighted {
			st.FinalWeight = math.Float32frombits(target)
		}
	}
	for c := 0; c < p.header.InputSymbols; c++ {
		slot := int(base) + 1 + c
		if slot >= p.header.IndexTableSize {
			break
		}
		sym, target := p.indexEntry(slot)
		if sym != uint16(c) || target == noTableIndex {
			continue
		}
		if target < targetTableOffset {
			return fst.State{}, fmt.Errorf("index slot for code %d points back into the index table: %w", c, fst.ErrBadFormat)
		}
		run, err := p.collectRun(int(target-targetTableOffset), fst.SymbolCode(c))
		if err != nil {
			return fst.State{}, err
		}
		st.Transitions = append(st.Transitions, run...)
	}
	return st, nil
}

func (p *parser) decodeResident(pos uint32) (fst.State, error) {
	var st fst.State
	in, out, _, weight := p.transitionEntry(int(pos))
	if in == noSymbol && out == noSymbol {
		st.Final = true
		if p.header.Weighted {
			st.FinalWeight = weight
		}
	}

	// A resident state owns at most a zero run and one ordinary run.
	start := int(pos) + 1
	if start >= p.header.TransitionTableSize {
		return st, nil
	}
	zero, err := p.collectRun(start, fst.Epsilon)
	if err != nil {
		return fst.State{}, err
	}
	st.Transitions = zero
	next := start + len(zero)
	if next >= p.header.TransitionTableSize {
		return st, nil
	}
	if in, _, _, _ := p.transitionEntry(next); in != noSymbol {
		run, err := p.collectRun(next, fst.SymbolCode(in))
		if err != nil {
			return fst.State{}, err
		}
		st.Transitions = append(st.Transitions, run...)
	}
	return st, nil
}

// collectRun gathers the maximal stretch of entries from start that
// belong to slot. The zero slot owns epsilon and flag diacritic inputs;
// every other slot owns exactly its own code.
func (p *parser) collectRun(start int, slot fst.SymbolCode) ([]fst.Transition, error) {
	var run []fst.Transition
	for i := start; i < p.header.TransitionTableSize; i++ {
		in, out, target, weight := p.transitionEntry(i)
		if in == noSymbol || !p.matchesSlot(in, slot) {
			break
		}
		ref, err := p.ref(target)
		if err != nil {
			return nil, err
		}
		run = append(run, fst.Transition{
			In:     fst.SymbolCode(in),
			Out:    fst.SymbolCode(out),
			Target: p.id(ref),
			Weight: weight,
		})
	}
	return run, nil
}

func (p *parser) matchesSlot(in uint16, slot fst.SymbolCode) bool {
	if slot == fst.Epsilon {
		sym, ok := p.table.Symbol(fst.SymbolCode(in))
		return ok && sym.Class != fst.ClassOrdinary
	}
	return fst.SymbolCode(in) == slot
}
