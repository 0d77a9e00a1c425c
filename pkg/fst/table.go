package fst

import "unicode/utf8"

// SymbolTable holds the alphabet of one transducer: the positional
// symbol list from the stream, the derived flag feature registry, and
// the longest-match tokenizer tries.
type SymbolTable struct {
	symbols    []Symbol
	byText     map[string]SymbolCode
	features   map[string]int
	values     map[string]int16
	inputCount int

	inputTrie *trieNode
	fullTrie  *trieNode
}

// NewSymbolTable returns an empty table. Codes below inputCount index
// the input side of the automaton; Intern assigns codes in call order.
func NewSymbolTable(inputCount int) *SymbolTable {
	return &SymbolTable{
		byText:     make(map[string]SymbolCode),
		features:   make(map[string]int),
		values:     make(map[string]int16),
		inputCount: inputCount,
		inputTrie:  &trieNode{},
		fullTrie:   &trieNode{},
	}
}

// Intern appends text to the alphabet and returns its symbol. Codes are
// positional and never reused; when the same text occurs twice the
// earlier code keeps the text lookup.
func (t *SymbolTable) Intern(text string) Symbol {
	code := SymbolCode(len(t.symbols))
	sym := Symbol{Code: code, Text: text, Class: ClassOrdinary}
	if code == Epsilon || text == epsilonText || text == "" {
		sym.Class = ClassEpsilon
	} else if flag, ok := ParseFlag(text); ok {
		flag.feature = t.featureIndex(flag.Feature)
		if flag.Value != "" {
			flag.value = t.valueIndex(flag.Value)
		}
		sym.Class = ClassFlag
		sym.Flag = flag
	}
	t.symbols = append(t.symbols, sym)
	if _, seen := t.byText[text]; !seen {
		t.byText[text] = code
	}
	if sym.Class == ClassOrdinary {
		t.fullTrie.insert(text, code)
		if int(code) < t.inputCount {
			t.inputTrie.insert(text, code)
		}
	}
	return sym
}

func (t *SymbolTable) featureIndex(name string) int {
	if i, ok := t.features[name]; ok {
		return i
	}
	i := len(t.features)
	t.features[name] = i
	return i
}

func (t *SymbolTable) valueIndex(name string) int16 {
	if v, ok := t.values[name]; ok {
		return v
	}
	v := int16(len(t.values) + 1)
	t.values[name] = v
	return v
}

// Len returns the alphabet size.
func (t *SymbolTable) Len() int { return len(t.symbols) }

// InputCount returns how many leading codes belong to the input side.
func (t *SymbolTable) InputCount() int { return t.inputCount }

// Symbol returns the entry for code.
func (t *SymbolTable) Symbol(code SymbolCode) (Symbol, bool) {
	if int(code) >= len(t.symbols) {
		return Symbol{}, false
	}
	return t.symbols[int(code)], true
}

// Text returns the printable string for code. Epsilon and out-of-range
// codes print as the empty string.
func (t *SymbolTable) Text(code SymbolCode) string {
	if int(code) >= len(t.symbols) {
		return ""
	}
	s := t.symbols[int(code)]
	if s.Class == ClassEpsilon {
		return ""
	}
	return s.Text
}

// ByText returns the first symbol interned with exactly text.
func (t *SymbolTable) ByText(text string) (Symbol, bool) {
	code, ok := t.byText[text]
	if !ok {
		return Symbol{}, false
	}
	return t.symbols[int(code)], true
}

// FeatureCount returns how many distinct flag features the alphabet
// declares.
func (t *SymbolTable) FeatureCount() int { return len(t.features) }

// NewFlagState returns a fresh all-unset state sized for this alphabet.
// Alphabets without flag diacritics get a nil state, which every flag
// operation treats as empty.
func (t *SymbolTable) NewFlagState() FlagState {
	if len(t.features) == 0 {
		return nil
	}
	return make(FlagState, len(t.features))
}

// TokenizeInput segments text into input-side symbol codes using
// longest match. ok is false when some position matches no symbol.
func (t *SymbolTable) TokenizeInput(text string) ([]SymbolCode, bool) {
	return tokenize(t.inputTrie, text)
}

// TokenizeAll segments text against the whole alphabet, which is what
// generation needs: tag symbols normally live on the output side only.
func (t *SymbolTable) TokenizeAll(text string) ([]SymbolCode, bool) {
	return tokenize(t.fullTrie, text)
}

func tokenize(root *trieNode, text string) ([]SymbolCode, bool) {
	var out []SymbolCode
	for i := 0; i < len(text); {
		code, n, ok := root.match(text[i:])
		if !ok {
			return nil, false
		}
		out = append(out, code)
		i += n
	}
	return out, true
}

// trieNode backs the longest-match tokenizers. Epsilon and flag entries
// never enter a trie, so every match is a real consumable symbol.
type trieNode struct {
	children map[rune]*trieNode
	code     SymbolCode
	terminal bool
}

func (n *trieNode) insert(text string, code SymbolCode) {
	cur := n
	for _, r := range text {
		if cur.children == nil {
			cur.children = make(map[rune]*trieNode)
		}
		next := cur.children[r]
		if next == nil {
			next = &trieNode{}
			cur.children[r] = next
		}
		cur = next
	}
	if !cur.terminal {
		cur.terminal = true
		cur.code = code
	}
}

// match returns the code of the longest symbol prefixing s and how many
// bytes it spans.
func (n *trieNode) match(s string) (SymbolCode, int, bool) {
	var (
		code  SymbolCode
		size  int
		found bool
	)
	cur := n
	for i, r := range s {
		next := cur.children[r]
		if next == nil {
			break
		}
		cur = next
		if cur.terminal {
			code, size, found = cur.code, i+utf8.RuneLen(r), true
		}
	}
	return code, size, found
}
