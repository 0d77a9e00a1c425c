package fst

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the stream reader and the lookup engine.
var (
	// ErrBadFormat reports a stream that does not parse as an optimized
	// transducer. The message is the one users of the original lookup
	// tooling grew to expect.
	ErrBadFormat = errors.New("wrong or corrupt file?")

	// ErrTruncated reports a stream that ended before the tables it
	// declared were read in full.
	ErrTruncated = errors.New("unexpected end of transducer stream")

	// ErrUnsupportedType reports a container whose transducer is not in
	// the optimized-lookup format.
	ErrUnsupportedType = errors.New("unsupported transducer type")

	// ErrCompressedInput reports a compressed stream where a transducer
	// was expected.
	ErrCompressedInput = errors.New("compressed input")

	// ErrCutoff reports a lookup stopped by a search budget before the
	// automaton was fully explored. Results found up to that point are
	// still returned.
	ErrCutoff = errors.New("lookup cutoff reached")
)

// FormatError wraps a parse failure with the source it came from.
type FormatError struct {
	Source string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("transducer: %v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// CompressedInputError reports a gzip stream where a transducer was
// expected. Foma ships its binaries gzip-compressed; they have to be
// decompressed before this engine can read them.
type CompressedInputError struct {
	Source string
}

func (e *CompressedInputError) Error() string {
	if e.Source == "" {
		return "input is gzip-compressed, decompress it first"
	}
	return fmt.Sprintf("%s: input is gzip-compressed, decompress it first", e.Source)
}

func (e *CompressedInputError) Unwrap() error { return ErrCompressedInput }
