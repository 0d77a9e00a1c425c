package format

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// Write serialises the automaton as a container-wrapped stream in the
// canonical layout described in the package comment: every state gets a
// full index block, arcs are grouped into runs by input code with the
// zero run first, and each state's group ends with a guard entry.
func Write(a *fst.Automaton) ([]byte, error) {
	table := a.Symbols()
	inputCount := table.InputCount()
	n := a.Len()

	indexSize := n * (1 + inputCount)
	if uint64(indexSize) >= uint64(targetTableOffset) {
		return nil, fmt.Errorf("automaton needs %d index entries, too large to address", indexSize)
	}

	type group struct {
		arcs []fst.Transition
	}
	layout := make([][]group, n)
	starts := make([]map[fst.SymbolCode]int, n)
	arcCount := 0
	transSize := 0
	for s := 0; s < n; s++ {
		arcs := a.Transitions(fst.StateID(s))
		if len(arcs) == 0 {
			continue
		}
		var zero []fst.Transition
		byCode := make(map[fst.SymbolCode][]fst.Transition)
		var codes []fst.SymbolCode
		for _, tr := range arcs {
			if !a.Weighted() && tr.Weight != 0 {
				return nil, fmt.Errorf("state %d: weighted arc in an unweighted automaton", s)
			}
			sym, ok := table.Symbol(tr.In)
			if ok && sym.Class != fst.ClassOrdinary {
				zero = append(zero, tr)
				continue
			}
			if int(tr.In) >= inputCount {
				return nil, fmt.Errorf("state %d: input code %d outside the input partition of %d", s, tr.In, inputCount)
			}
			if _, seen := byCode[tr.In]; !seen {
				codes = append(codes, tr.In)
			}
			byCode[tr.In] = append(byCode[tr.In], tr)
		}
		sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })

		starts[s] = make(map[fst.SymbolCode]int, len(codes)+1)
		add := func(code fst.SymbolCode, arcs []fst.Transition) {
			layout[s] = append(layout[s], group{arcs: arcs})
			starts[s][code] = transSize
			transSize += len(arcs)
			arcCount += len(arcs)
		}
		if len(zero) > 0 {
			add(fst.Epsilon, zero)
		}
		for _, c := range codes {
			add(c, byCode[c])
		}
		transSize++ // guard entry closing the state's block
	}

	header := a.Header()
	header.InputSymbols = inputCount
	header.Symbols = table.Len()
	header.IndexTableSize = indexSize
	header.TransitionTableSize = transSize
	header.DeclaredStates = n
	header.DeclaredTransitions = arcCount

	info := header.Container
	info.Present = true
	info.Type = TypeUnweighted
	if header.Weighted {
		info.Type = TypeWeighted
	}
	if info.Version == "" {
		info.Version = writerVersion
	}
	header.Container = info

	props := encodeContainerProps(info)
	if len(props) > 0xFFFF {
		return nil, fmt.Errorf("container properties of %d bytes do not fit the header", len(props))
	}

	tsize := transitionSize
	if header.Weighted {
		tsize = weightedTransitionSize
	}

	out := make([]byte, 0, len(containerMagic)+3+len(props)+headerSize+indexSize*indexEntrySize+transSize*tsize)
	out = append(out, containerMagic...)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(props)))
	out = append(out, 0)
	out = append(out, props...)
	out = append(out, encodeHeader(header)...)
	for c := 0; c < table.Len(); c++ {
		sym, _ := table.Symbol(fst.SymbolCode(c))
		out = append(out, sym.Text...)
		out = append(out, 0)
	}

	base := func(s fst.StateID) uint32 { return uint32(int(s) * (1 + inputCount)) }

	idx := make([]byte, indexSize*indexEntrySize)
	writeIndex := func(i int, sym uint16, target uint32) {
		off := i * indexEntrySize
		binary.LittleEndian.PutUint16(idx[off:], sym)
		binary.LittleEndian.PutUint32(idx[off+2:], target)
	}
	for s := 0; s < n; s++ {
		b := int(base(fst.StateID(s)))
		w, final := a.IsFinal(fst.StateID(s))
		finality := noTableIndex
		if final {
			if header.Weighted {
				finality = math.Float32bits(w)
			} else {
				if w != 0 {
					return nil, fmt.Errorf("state %d: final weight in an unweighted automaton", s)
				}
				finality = 1
			}
		}
		writeIndex(b, noSymbol, finality)
		for c := 0; c < inputCount; c++ {
			if start, ok := starts[s][fst.SymbolCode(c)]; ok {
				writeIndex(b+1+c, uint16(c), targetTableOffset+uint32(start))
			} else {
				writeIndex(b+1+c, noSymbol, noTableIndex)
			}
		}
	}
	out = append(out, idx...)

	tt := make([]byte, transSize*tsize)
	pos := 0
	writeTrans := func(in, outSym uint16, target uint32, weight float32) {
		off := pos * tsize
		binary.LittleEndian.PutUint16(tt[off:], in)
		binary.LittleEndian.PutUint16(tt[off+2:], outSym)
		binary.LittleEndian.PutUint32(tt[off+4:], target)
		if tsize == weightedTransitionSize {
			binary.LittleEndian.PutUint32(tt[off+8:], math.Float32bits(weight))
		}
		pos++
	}
	for s := 0; s < n; s++ {
		if len(layout[s]) == 0 {
			continue
		}
		for _, g := range layout[s] {
			for _, tr := range g.arcs {
				writeTrans(uint16(tr.In), uint16(tr.Out), base(tr.Target), tr.Weight)
			}
		}
		writeTrans(noSymbol, noSymbol, noTableIndex, 0)
	}
	out = append(out, tt...)
	return out, nil
}
