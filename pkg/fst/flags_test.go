package fst_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

// internFlags builds a table whose alphabet is epsilon plus the given
// diacritics, returning it with the parsed flags keyed by their text.
func internFlags(t *testing.T, texts ...string) (*fst.SymbolTable, map[string]fst.Flag) {
	t.Helper()
	table := fst.NewSymbolTable(1)
	table.Intern("@_EPSILON_SYMBOL_@")
	flags := make(map[string]fst.Flag, len(texts))
	for _, text := range texts {
		if _, seen := flags[text]; seen {
			continue
		}
		sym := table.Intern(text)
		require.Equal(t, fst.ClassFlag, sym.Class, "expected %q to parse as a flag", text)
		flags[text] = sym.Flag
	}
	return table, flags
}

func TestFlagStateSequences(t *testing.T) {
	tests := []struct {
		name string
		seq  []string
		ok   bool
	}{
		{"require unset fails", []string{"@R.CASE@"}, false},
		{"require exact unset fails", []string{"@R.CASE.GEN@"}, false},
		{"positive then require value", []string{"@P.CASE.GEN@", "@R.CASE.GEN@"}, true},
		{"positive then require other value", []string{"@P.CASE.GEN@", "@R.CASE.ACC@"}, false},
		{"positive then require any", []string{"@P.CASE.GEN@", "@R.CASE@"}, true},
		{"disallow unset passes", []string{"@D.CASE@"}, true},
		{"disallow set fails", []string{"@P.CASE.GEN@", "@D.CASE@"}, false},
		{"disallow matching value fails", []string{"@P.CASE.GEN@", "@D.CASE.GEN@"}, false},
		{"disallow other value passes", []string{"@P.CASE.GEN@", "@D.CASE.ACC@"}, true},
		{"negative counts as set", []string{"@N.CASE.GEN@", "@R.CASE@"}, true},
		{"negative fails exact require", []string{"@N.CASE.GEN@", "@R.CASE.GEN@"}, false},
		{"negative passes matching disallow", []string{"@N.CASE.GEN@", "@D.CASE.GEN@"}, true},
		{"clear then disallow", []string{"@P.CASE.GEN@", "@C.CASE@", "@D.CASE@"}, true},
		{"clear then require fails", []string{"@P.CASE.GEN@", "@C.CASE@", "@R.CASE@"}, false},
		{"clear unset is a no-op", []string{"@C.CASE@", "@D.CASE@"}, true},
		{"unify sets when unset", []string{"@U.CASE.GEN@", "@R.CASE.GEN@"}, true},
		{"unify agrees", []string{"@P.CASE.GEN@", "@U.CASE.GEN@"}, true},
		{"unify conflicts", []string{"@P.CASE.GEN@", "@U.CASE.ACC@"}, false},
		{"unify overwrites negation", []string{"@N.CASE.GEN@", "@U.CASE.ACC@", "@R.CASE.ACC@"}, true},
		{"unify against matching negation fails", []string{"@N.CASE.GEN@", "@U.CASE.GEN@"}, false},
		{"features are independent", []string{"@P.CASE.GEN@", "@D.NUM@"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, flags := internFlags(t, tt.seq...)
			state := table.NewFlagState()
			ok := true
			for _, text := range tt.seq {
				state, ok = state.Apply(flags[text])
				if !ok {
					break
				}
			}
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestFlagStateBranchesAreIndependent(t *testing.T) {
	table, flags := internFlags(t, "@P.CASE.GEN@", "@R.CASE@")
	base := table.NewFlagState()

	branch, ok := base.Apply(flags["@P.CASE.GEN@"])
	require.True(t, ok)

	// The sibling branch must not see the setting made above.
	_, ok = base.Apply(flags["@R.CASE@"])
	assert.False(t, ok)
	_, ok = branch.Apply(flags["@R.CASE@"])
	assert.True(t, ok)
}

func TestFlagStateEqual(t *testing.T) {
	table, flags := internFlags(t, "@P.CASE.GEN@", "@N.CASE.GEN@", "@C.CASE@")
	base := table.NewFlagState()

	a, ok := base.Apply(flags["@P.CASE.GEN@"])
	require.True(t, ok)
	b, ok := base.Apply(flags["@P.CASE.GEN@"])
	require.True(t, ok)
	n, ok := base.Apply(flags["@N.CASE.GEN@"])
	require.True(t, ok)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(n), "positive and negative settings differ")
	assert.False(t, a.Equal(base))

	cleared, ok := a.Apply(flags["@C.CASE@"])
	require.True(t, ok)
	assert.True(t, cleared.Equal(base))
}
