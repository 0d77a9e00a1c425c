package validator

import (
	"strings"
	"testing"

	"github.com/UAlbertaALTLab/hfst-altlab/internal/testutils"
)

func TestCheckCleanAutomaton(t *testing.T) {
	// start -a:a-> end, everything declared truthfully
	b := testutils.NewBuilder()
	end := b.State()
	b.Arc(0, "a", "a", end).Final(end)

	auto, err := b.Automaton()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	if problems := Check(auto); len(problems) != 0 {
		t.Errorf("clean automaton should have no problems, got: %v", problems)
	}
}

func TestCheckDeclaredProperties(t *testing.T) {
	// Scenario A: cyclic structure, header silent
	b := testutils.NewBuilder()
	b.Arc(0, "a", "a", 0)

	auto, err := b.Automaton()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	problems := Check(auto)
	if len(problems) != 1 || !strings.Contains(problems[0], "cyclic") {
		t.Errorf("expected one cyclicity problem, got: %v", problems)
	}

	// Scenario B: zero-width cycle, header silent on both counts
	b = testutils.NewBuilder()
	b.Arc(0, "", "x", 0)

	auto, err = b.Automaton()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	problems = Check(auto)
	if len(problems) != 2 {
		t.Fatalf("expected cyclicity and epsilon-cycle problems, got: %v", problems)
	}
	joined := strings.Join(problems, "\n")
	if !strings.Contains(joined, "cyclic") || !strings.Contains(joined, "zero-width") {
		t.Errorf("unexpected problem set: %v", problems)
	}

	// Scenario C: the same structure with honest header flags
	b = testutils.NewBuilder().MarkEpsilonCycles()
	b.Arc(0, "", "x", 0)

	auto, err = b.Automaton()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	if problems := Check(auto); len(problems) != 0 {
		t.Errorf("declared epsilon cycle should pass, got: %v", problems)
	}
}

func TestCheckDeadEnds(t *testing.T) {
	b := testutils.NewBuilder()
	sink := b.State()
	end := b.State()
	b.Arc(0, "a", "a", sink)
	b.Arc(0, "b", "b", end).Final(end)

	auto, err := b.Automaton()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	problems := Check(auto)
	if len(problems) != 1 || !strings.Contains(problems[0], "dead-end") || !strings.Contains(problems[0], "s1") {
		t.Errorf("expected a dead-end problem naming s1, got: %v", problems)
	}
}

func TestCheckFlagRequirements(t *testing.T) {
	// Scenario A: require over a feature nothing sets
	b := testutils.NewBuilder()
	end := b.State()
	b.Arc(0, "@R.CASE@", "@R.CASE@", end).Final(end)

	auto, err := b.Automaton()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	problems := Check(auto)
	if len(problems) != 1 || !strings.Contains(problems[0], "requires feature CASE") {
		t.Errorf("expected an unsatisfiable @R.CASE@ problem, got: %v", problems)
	}

	// Scenario B: require over a value nothing sets
	b = testutils.NewBuilder()
	mid := b.State()
	end = b.State()
	b.Arc(0, "@P.CASE.GEN@", "@P.CASE.GEN@", mid)
	b.Arc(mid, "@R.CASE.DAT@", "@R.CASE.DAT@", end).Final(end)

	auto, err = b.Automaton()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	problems = Check(auto)
	if len(problems) != 1 || !strings.Contains(problems[0], "requires CASE=DAT") {
		t.Errorf("expected an unsatisfiable @R.CASE.DAT@ problem, got: %v", problems)
	}

	// Scenario C: the matching setter silences it
	b = testutils.NewBuilder()
	mid = b.State()
	end = b.State()
	b.Arc(0, "@P.CASE.DAT@", "@P.CASE.DAT@", mid)
	b.Arc(mid, "@R.CASE.DAT@", "@R.CASE.DAT@", end).Final(end)

	auto, err = b.Automaton()
	if err != nil {
		t.Fatalf("building fixture: %v", err)
	}
	if problems := Check(auto); len(problems) != 0 {
		t.Errorf("satisfied requirement should pass, got: %v", problems)
	}
}
