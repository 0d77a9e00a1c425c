package hfstol_test

import (
	"context"
	"fmt"
	"log"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
	"github.com/UAlbertaALTLab/hfst-altlab/internal/testutils"
)

// ExampleNewPair demonstrates the paired workflow language models ship
// in: a descriptive analyser plus a normative generator. Regenerating
// each reading through the generator yields its standardized spelling.
func ExampleNewPair() {
	entries := testutils.CreeLexicon()
	aImage, err := testutils.Analyser(entries).Image()
	if err != nil {
		log.Fatal(err)
	}
	gImage, err := testutils.Generator(entries).Image()
	if err != nil {
		log.Fatal(err)
	}

	analyser, err := hfstol.LoadBytes("crk-analyser", aImage)
	if err != nil {
		log.Fatal(err)
	}
	generator, err := hfstol.LoadBytes("crk-generator", gImage)
	if err != nil {
		log.Fatal(err)
	}

	pair := hfstol.NewPair(analyser, generator)
	analyses, err := pair.Analyse(context.Background(), "atim")
	if err != nil {
		log.Fatal(err)
	}
	for _, a := range analyses {
		fmt.Printf("%s standardizes to %s\n", a.Text(), a.Standardized)
	}
	// Output:
	// atim+N+A+Sg standardizes to atim
	// atimêw+V+TA+Imp+Imm+2Sg+3SgO standardizes to atim
}
