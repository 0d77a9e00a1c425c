package testutils

// Entry pairs one surface form with one analysis, given as the symbol
// sequence of the analysis side. A nonzero weight makes the whole
// lexicon weighted.
type Entry struct {
	Surface  string
	Analysis []string
	Weight   float32
}

// Analyser builds the surface-to-analysis transducer for entries:
// surface runes on the input side, analysis symbols on the output side,
// one unshared chain per entry.
func Analyser(entries []Entry) *Builder {
	b := NewBuilder()
	if anyWeighted(entries) {
		b.Weighted()
	}
	for _, e := range entries {
		b.path(runesOf(e.Surface), e.Analysis, e.Weight)
	}
	return b
}

// Generator builds the analysis-to-surface transducer for entries, the
// mirror image of Analyser.
func Generator(entries []Entry) *Builder {
	b := NewBuilder()
	if anyWeighted(entries) {
		b.Weighted()
	}
	for _, e := range entries {
		b.path(e.Analysis, runesOf(e.Surface), e.Weight)
	}
	return b
}

// CreeLexicon is the miniature Plains Cree lexicon the examples use:
// one surface form with a noun and a verb reading, plus a plural.
func CreeLexicon() []Entry {
	return []Entry{
		{Surface: "atim", Analysis: []string{"atim", "+N", "+A", "+Sg"}},
		{Surface: "atimwak", Analysis: []string{"atim", "+N", "+A", "+Pl"}},
		{Surface: "atim", Analysis: []string{"atimêw", "+V", "+TA", "+Imp", "+Imm", "+2Sg", "+3SgO"}},
	}
}

func (b *Builder) path(ins, outs []string, weight float32) {
	steps := max(len(ins), len(outs))
	cur := 0
	for i := 0; i < steps; i++ {
		var in, out string
		if i < len(ins) {
			in = ins[i]
		}
		if i < len(outs) {
			out = outs[i]
		}
		next := b.State()
		w := float32(0)
		if i == 0 {
			w = weight
		}
		b.WeightedArc(cur, in, out, next, w)
		cur = next
	}
	b.Final(cur)
}

func anyWeighted(entries []Entry) bool {
	for _, e := range entries {
		if e.Weight != 0 {
			return true
		}
	}
	return false
}

func runesOf(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
