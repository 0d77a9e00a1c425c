package fst

import (
	"sort"
	"strings"
)

// Analysis is one accepted path of an analyser lookup: the emitted
// symbol sequence, flag diacritics included, plus the path weight.
type Analysis struct {
	Symbols []string `json:"symbols"`

	// Weight is the accumulated path weight. Unweighted streams report
	// 0 here by convention; treat the value as meaningless for them
	// rather than relying on the constant.
	Weight float64 `json:"weight"`

	// Standardized is the agreed surface form for this reading when a
	// generator was consulted, empty otherwise.
	Standardized string `json:"standardized,omitempty"`
}

// Text collapses the path into the conventional tagged string, eliding
// flag diacritics.
func (a Analysis) Text() string { return collapse(a.Symbols) }

// Key identifies the path for deduplication: the full symbol sequence,
// flag diacritics included.
func (a Analysis) Key() string { return strings.Join(a.Symbols, "\x00") }

// Segmented is an analysis split around its lemma.
type Segmented struct {
	Prefixes []string `json:"prefixes,omitempty"`
	Lemma    string   `json:"lemma"`
	Suffixes []string `json:"suffixes,omitempty"`
}

// Segmented splits the analysis into leading tags, lemma and trailing
// tags. Tags ending in '+' before the lemma are prefixes; tags starting
// with '+' after it are suffixes; everything between joins into the
// lemma.
func (a Analysis) Segmented() Segmented {
	syms := make([]string, 0, len(a.Symbols))
	for _, s := range a.Symbols {
		if s != "" && !isFlagText(s) {
			syms = append(syms, s)
		}
	}
	i := 0
	for i < len(syms) && isPrefixTag(syms[i]) {
		i++
	}
	j := len(syms)
	for j > i && isSuffixTag(syms[j-1]) {
		j--
	}
	return Segmented{
		Prefixes: append([]string(nil), syms[:i]...),
		Lemma:    strings.Join(syms[i:j], ""),
		Suffixes: append([]string(nil), syms[j:]...),
	}
}

func isPrefixTag(s string) bool { return len(s) > 1 && strings.HasSuffix(s, "+") }
func isSuffixTag(s string) bool { return len(s) > 1 && strings.HasPrefix(s, "+") }

// Wordform is one accepted path of a generator lookup.
type Wordform struct {
	Symbols []string `json:"symbols"`
	Weight  float64  `json:"weight"`
}

// Text collapses the generated symbols into the surface string.
func (w Wordform) Text() string { return collapse(w.Symbols) }

// Key identifies the path for deduplication.
func (w Wordform) Key() string { return strings.Join(w.Symbols, "\x00") }

func collapse(symbols []string) string {
	var b strings.Builder
	for _, s := range symbols {
		if isFlagText(s) {
			continue
		}
		b.WriteString(s)
	}
	return b.String()
}

// SortAnalyses orders by weight, then collapsed text, then raw symbol
// sequence, so equal inputs always produce the same listing.
func SortAnalyses(list []Analysis) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Weight != list[j].Weight {
			return list[i].Weight < list[j].Weight
		}
		ti, tj := list[i].Text(), list[j].Text()
		if ti != tj {
			return ti < tj
		}
		return list[i].Key() < list[j].Key()
	})
}

// SortWordforms is SortAnalyses for generator output.
func SortWordforms(list []Wordform) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Weight != list[j].Weight {
			return list[i].Weight < list[j].Weight
		}
		ti, tj := list[i].Text(), list[j].Text()
		if ti != tj {
			return ti < tj
		}
		return list[i].Key() < list[j].Key()
	})
}
