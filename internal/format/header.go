package format

import (
	"encoding/binary"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/UAlbertaALTLab/hfst-altlab/pkg/fst"
)

const (
	containerMagic = "HFST\x00"

	// TypeUnweighted and TypeWeighted are the container names of the two
	// optimized-lookup variants.
	TypeUnweighted = "HFST_OL"
	TypeWeighted   = "HFST_OLW"

	// writerVersion is the container version stamped on streams this
	// package produces.
	writerVersion = "3.15.2"
)

const (
	headerSize = 56

	indexEntrySize         = 6
	transitionSize         = 8
	weightedTransitionSize = 12

	noSymbol     = uint16(0xFFFF)
	noTableIndex = uint32(0xFFFFFFFF)

	// targetTableOffset separates the two address spaces: targets at or
	// above it point into the transition table.
	targetTableOffset = uint32(1) << 31
)

// decodeHeader parses the fixed 56-byte table header.
func decodeHeader(b []byte) fst.Header {
	flag := func(i int) bool {
		return binary.LittleEndian.Uint32(b[20+4*i:]) != 0
	}
	return fst.Header{
		InputSymbols:        int(binary.LittleEndian.Uint16(b[0:])),
		Symbols:             int(binary.LittleEndian.Uint16(b[2:])),
		IndexTableSize:      int(binary.LittleEndian.Uint32(b[4:])),
		TransitionTableSize: int(binary.LittleEndian.Uint32(b[8:])),
		DeclaredStates:      int(binary.LittleEndian.Uint32(b[12:])),
		DeclaredTransitions: int(binary.LittleEndian.Uint32(b[16:])),

		Weighted:      flag(0),
		Deterministic: flag(1),
		InputDeduced:  flag(2),
		Minimized:     flag(3),
		Cyclic:        flag(4),

		EpsilonEpsilonTransitions:    flag(5),
		InputEpsilonTransitions:      flag(6),
		InputEpsilonCycles:           flag(7),
		UnweightedInputEpsilonCycles: flag(8),
	}
}

// encodeHeader is the inverse of decodeHeader.
func encodeHeader(h fst.Header) []byte {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint16(b[0:], uint16(h.InputSymbols))
	binary.LittleEndian.PutUint16(b[2:], uint16(h.Symbols))
	binary.LittleEndian.PutUint32(b[4:], uint32(h.IndexTableSize))
	binary.LittleEndian.PutUint32(b[8:], uint32(h.TransitionTableSize))
	binary.LittleEndian.PutUint32(b[12:], uint32(h.DeclaredStates))
	binary.LittleEndian.PutUint32(b[16:], uint32(h.DeclaredTransitions))

	flags := []bool{
		h.Weighted, h.Deterministic, h.InputDeduced, h.Minimized, h.Cyclic,
		h.EpsilonEpsilonTransitions, h.InputEpsilonTransitions,
		h.InputEpsilonCycles, h.UnweightedInputEpsilonCycles,
	}
	for i, f := range flags {
		if f {
			binary.LittleEndian.PutUint32(b[20+4*i:], 1)
		}
	}
	return b
}

// decodeContainerProps turns the NUL-separated key/value block of an
// hfst3 container into typed info.
func decodeContainerProps(block []byte) (fst.ContainerInfo, error) {
	props := make(map[string]string)
	for len(block) > 0 {
		key, rest, err := cutString(block)
		if err != nil {
			return fst.ContainerInfo{}, fmt.Errorf("container property block: %w", fst.ErrBadFormat)
		}
		value, rest2, err := cutString(rest)
		if err != nil {
			return fst.ContainerInfo{}, fmt.Errorf("container property %q has no value: %w", key, fst.ErrBadFormat)
		}
		props[key] = value
		block = rest2
	}

	var info fst.ContainerInfo
	if err := mapstructure.Decode(props, &info); err != nil {
		return fst.ContainerInfo{}, fmt.Errorf("container properties: %w", err)
	}
	info.Present = true
	if info.Type == "" {
		return fst.ContainerInfo{}, fmt.Errorf("container declares no transducer type: %w", fst.ErrBadFormat)
	}
	return info, nil
}

// encodeContainerProps is the inverse of decodeContainerProps.
func encodeContainerProps(info fst.ContainerInfo) []byte {
	var block []byte
	put := func(key, value string) {
		block = append(block, key...)
		block = append(block, 0)
		block = append(block, value...)
		block = append(block, 0)
	}
	put("type", info.Type)
	put("version", info.Version)
	if info.Name != "" {
		put("name", info.Name)
	}
	return block
}

func cutString(b []byte) (string, []byte, error) {
	for i, c := range b {
		if c == 0 {
			return string(b[:i]), b[i+1:], nil
		}
	}
	return "", nil, fst.ErrTruncated
}
