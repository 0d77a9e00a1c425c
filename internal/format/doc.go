// Package format reads and writes optimized-lookup transducer streams.
//
// A stream is, in order:
//
//   - an optional hfst3 container: the bytes "HFST\x00", a little-endian
//     uint16 property block length, one zero byte, then the property
//     block itself as NUL-separated key/value strings. The "type"
//     property is mandatory and must name HFST_OL (unweighted) or
//     HFST_OLW (weighted);
//   - a 56-byte table header: uint16 input symbol count, uint16 symbol
//     count, uint32 index table size, uint32 transition table size,
//     uint32 state count, uint32 transition count, then nine uint32
//     property flags: weighted, deterministic, input-deduced, minimized,
//     cyclic, epsilon-epsilon transitions, input-epsilon transitions,
//     input-epsilon cycles, unweighted input-epsilon cycles;
//   - the alphabet: one NUL-terminated UTF-8 string per symbol, code 0
//     being epsilon;
//   - the transition index table, 6 bytes per entry: uint16 input code,
//     uint32 target;
//   - the transition table, 8 bytes per entry, or 12 when weighted:
//     uint16 input code, uint16 output code, uint32 target, float32
//     weight.
//
// All integers and floats are little-endian. 0xFFFF marks an unused
// symbol slot and 0xFFFFFFFF an unused target.
//
// States are addressed two ways. An address below 1<<31 is a block in
// the index table: the entry at the address itself holds finality (input
// 0xFFFF; target 0xFFFFFFFF when non-final, otherwise the final weight's
// float bits in a weighted stream), and the entry at address+1+c belongs
// to input code c. A used slot repeats its code in the input field and
// its target, offset by 1<<31, is the first entry of that code's run in
// the transition table. An address of 1<<31 or above, minus that offset,
// is a position in the transition table: finality is read from the entry
// at the position (input and output both 0xFFFF mark a final state, the
// weight field carrying the final weight) and the state's arcs start at
// the next entry.
//
// A run is a maximal stretch of transition entries sharing an input
// code; the run a zero slot points at may mix epsilon and flag diacritic
// inputs. The writer lays every state out as an index block, groups its
// arcs by input code with the zero run first, and terminates each
// state's group with an all-0xFFFF guard entry, so every run a reader
// can reach is explicitly delimited.
package format
