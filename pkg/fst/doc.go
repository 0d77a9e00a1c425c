// Package fst holds the domain model shared by the stream reader and the
// lookup engine: alphabet symbols and their classes, flag diacritic
// evaluation, the immutable state arena, and the result types lookups
// produce.
package fst
