package fst

import "strings"

// SymbolCode identifies one alphabet entry. Codes are positional: the
// n-th string of the stream's alphabet gets code n.
type SymbolCode uint16

// Epsilon is code 0 in every optimized transducer alphabet.
const Epsilon SymbolCode = 0

// NoSymbol marks unused slots in the on-disk tables. It never appears in
// a parsed automaton.
const NoSymbol SymbolCode = 0xFFFF

// epsilonText is the name alphabets conventionally spell code 0 with.
const epsilonText = "@_EPSILON_SYMBOL_@"

// SymbolClass separates the three kinds of alphabet entries.
type SymbolClass uint8

const (
	ClassOrdinary SymbolClass = iota
	ClassEpsilon
	ClassFlag
)

func (c SymbolClass) String() string {
	switch c {
	case ClassEpsilon:
		return "epsilon"
	case ClassFlag:
		return "flag"
	default:
		return "ordinary"
	}
}

// Symbol is one parsed alphabet entry. Flag is populated when Class is
// ClassFlag.
type Symbol struct {
	Code  SymbolCode
	Text  string
	Class SymbolClass
	Flag  Flag
}

// FlagOp enumerates the flag diacritic operators.
type FlagOp byte

const (
	FlagPositive FlagOp = 'P' // set feature to value
	FlagNegative FlagOp = 'N' // set feature to the negation of value
	FlagRequire  FlagOp = 'R' // require feature, or a specific value of it
	FlagDisallow FlagOp = 'D' // reject feature, or a specific value of it
	FlagClear    FlagOp = 'C' // unset feature
	FlagUnify    FlagOp = 'U' // set when unset, require otherwise
)

// Flag is a parsed flag diacritic such as @P.CASE.GEN@ or @C.CASE@. The
// dense feature and value indices are assigned by the symbol table that
// interned it; a Flag only works against states from the same table.
type Flag struct {
	Op      FlagOp
	Feature string
	Value   string

	feature int
	value   int16
}

// ParseFlag recognises the @OPERATOR.FEATURE.VALUE@ notation, with the
// value part optional for R, D and C. Strings that do not follow the
// notation are ordinary symbols, not errors.
func ParseFlag(text string) (Flag, bool) {
	if len(text) < 5 || text[0] != '@' || text[len(text)-1] != '@' || text[2] != '.' {
		return Flag{}, false
	}
	op := FlagOp(text[1])
	switch op {
	case FlagPositive, FlagNegative, FlagRequire, FlagDisallow, FlagClear, FlagUnify:
	default:
		return Flag{}, false
	}
	feature, value, _ := strings.Cut(text[3:len(text)-1], ".")
	if feature == "" {
		return Flag{}, false
	}
	switch op {
	case FlagPositive, FlagNegative, FlagUnify:
		if value == "" {
			return Flag{}, false
		}
	}
	return Flag{Op: op, Feature: feature, Value: value}, true
}

func isFlagText(s string) bool {
	_, ok := ParseFlag(s)
	return ok
}
