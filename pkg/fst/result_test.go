package fst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

func TestAnalysisTextElidesFlags(t *testing.T) {
	a := fst.Analysis{Symbols: []string{"@U.ORDER.PREFIX@", "a", "t", "i", "m", "+N", "+A", "+Sg"}}
	assert.Equal(t, "atim+N+A+Sg", a.Text())
}

func TestAnalysisKeySeparatesSimilarPaths(t *testing.T) {
	plain := fst.Analysis{Symbols: []string{"a", "t", "+N"}}
	flagged := fst.Analysis{Symbols: []string{"a", "t", "@P.CASE.GEN@", "+N"}}

	assert.Equal(t, plain.Text(), flagged.Text())
	assert.NotEqual(t, plain.Key(), flagged.Key())
}

func TestSegmented(t *testing.T) {
	tests := []struct {
		name     string
		symbols  []string
		prefixes []string
		lemma    string
		suffixes []string
	}{
		{
			name:     "noun reading",
			symbols:  []string{"a", "t", "i", "m", "+N", "+A", "+Sg"},
			lemma:    "atim",
			suffixes: []string{"+N", "+A", "+Sg"},
		},
		{
			name:     "preverb prefixes",
			symbols:  []string{"PV/e+", "w", "â", "p", "i", "+V", "+AI"},
			prefixes: []string{"PV/e+"},
			lemma:    "wâpi",
			suffixes: []string{"+V", "+AI"},
		},
		{
			name:    "bare lemma",
			symbols: []string{"a", "t", "i", "m"},
			lemma:   "atim",
		},
		{
			name:     "flags are invisible",
			symbols:  []string{"@U.ORDER.X@", "a", "t", "@D.ORDER.Y@", "+N"},
			lemma:    "at",
			suffixes: []string{"+N"},
		},
		{
			name:     "all tags",
			symbols:  []string{"+Err", "+Frag"},
			lemma:    "",
			suffixes: []string{"+Err", "+Frag"},
		},
		{
			name:    "lone plus is lemma material",
			symbols: []string{"+"},
			lemma:   "+",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fst.Analysis{Symbols: tt.symbols}.Segmented()
			assert.Equal(t, tt.lemma, got.Lemma)
			if len(tt.prefixes) == 0 {
				assert.Empty(t, got.Prefixes)
			} else {
				assert.Equal(t, tt.prefixes, got.Prefixes)
			}
			if len(tt.suffixes) == 0 {
				assert.Empty(t, got.Suffixes)
			} else {
				assert.Equal(t, tt.suffixes, got.Suffixes)
			}
		})
	}
}

func TestSortAnalyses(t *testing.T) {
	list := []fst.Analysis{
		{Symbols: []string{"b"}, Weight: 2},
		{Symbols: []string{"a", "+N"}, Weight: 1},
		{Symbols: []string{"a", "+A"}, Weight: 1},
	}
	fst.SortAnalyses(list)

	assert.Equal(t, "a+A", list[0].Text())
	assert.Equal(t, "a+N", list[1].Text())
	assert.Equal(t, "b", list[2].Text())
}

func TestSortWordformsIsDeterministic(t *testing.T) {
	a := []fst.Wordform{
		{Symbols: []string{"x"}, Weight: 0.5},
		{Symbols: []string{"y"}, Weight: 0.25},
		{Symbols: []string{"z"}, Weight: 0.25},
	}
	b := []fst.Wordform{a[2], a[0], a[1]}

	fst.SortWordforms(a)
	fst.SortWordforms(b)
	assert.Equal(t, a, b)

	assert.Equal(t, "y", a[0].Text())
	assert.Equal(t, "z", a[1].Text())
	assert.Equal(t, "x", a[2].Text())
}
