package fst

// FlagState is the vector of feature settings carried along one lookup
// path. Slot zero value means unset; positive entries are values set
// directly, negative entries values set through @N...@.
type FlagState []int16

// Clone returns an independent copy.
func (s FlagState) Clone() FlagState {
	if len(s) == 0 {
		return nil
	}
	c := make(FlagState, len(s))
	copy(c, s)
	return c
}

// Equal reports whether two states agree on every feature.
func (s FlagState) Equal(o FlagState) bool {
	if len(s) != len(o) {
		return false
	}
	for i, v := range s {
		if o[i] != v {
			return false
		}
	}
	return true
}

// Apply evaluates one flag diacritic against the state. It returns the
// state after the operation and whether the path may continue. Read-only
// operations hand back the receiver unchanged; mutating ones copy first,
// so sibling branches never see each other's settings.
func (s FlagState) Apply(f Flag) (FlagState, bool) {
	cur := s[f.feature]
	switch f.Op {
	case FlagPositive:
		next := s.Clone()
		next[f.feature] = f.value
		return next, true
	case FlagNegative:
		next := s.Clone()
		next[f.feature] = -f.value
		return next, true
	case FlagClear:
		if cur == 0 {
			return s, true
		}
		next := s.Clone()
		next[f.feature] = 0
		return next, true
	case FlagRequire:
		if f.value == 0 {
			return s, cur != 0
		}
		return s, cur == f.value
	case FlagDisallow:
		if f.value == 0 {
			return s, cur == 0
		}
		return s, cur != f.value
	case FlagUnify:
		if cur == 0 {
			next := s.Clone()
			next[f.feature] = f.value
			return next, true
		}
		if cur == f.value {
			return s, true
		}
		// A negative setting unifies with any value except the one it
		// negates.
		if cur < 0 && -cur != f.value {
			next := s.Clone()
			next[f.feature] = f.value
			return next, true
		}
		return s, false
	}
	return s, false
}
