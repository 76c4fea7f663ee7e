package orders

import (
	"testing"

	"github.com/google/uuid"
)

func TestCheckConsistency_MatchingPackage(t *testing.T) {
	idx, ids := buildTestIndex()
	m := CheckConsistency([]string{"COMP999"}, idx, []uuid.UUID{ids["comp999"]}, nil)
	if m != nil {
		t.Errorf("expected no mismatch, got %+v", m)
	}
}

func TestCheckConsistency_WrongPackageID(t *testing.T) {
	idx, ids := buildTestIndex()
	m := CheckConsistency([]string{"COMP999"}, idx, []uuid.UUID{ids["exec1"]}, nil)
	if m == nil {
		t.Fatal("expected package mismatch")
	}
	if m.Kind != "package" {
		t.Errorf("expected kind package, got %s", m.Kind)
	}
	if len(m.MissingIDs) != 1 || m.MissingIDs[0] != ids["comp999"] {
		t.Errorf("expected COMP999 id missing from explicit list, got %v", m.MissingIDs)
	}
	if len(m.MissingCodes) != 1 || m.MissingCodes[0] != "EXEC1" {
		t.Errorf("expected EXEC1 code missing from tokens, got %v", m.MissingCodes)
	}
}

func TestCheckConsistency_EmptySideSkipsCheck(t *testing.T) {
	idx, ids := buildTestIndex()

	// Tokens only, no explicit ids: nothing to compare.
	if m := CheckConsistency([]string{"COMP999"}, idx, nil, nil); m != nil {
		t.Errorf("expected nil with no explicit ids, got %+v", m)
	}
	// Explicit ids only, no package code in tokens: nothing to compare.
	if m := CheckConsistency([]string{"CBC"}, idx, []uuid.UUID{ids["comp999"]}, nil); m != nil {
		t.Errorf("expected nil with no package tokens, got %+v", m)
	}
}

func TestCheckConsistency_TestMismatch(t *testing.T) {
	idx, ids := buildTestIndex()
	m := CheckConsistency([]string{"CBC"}, idx, nil, []uuid.UUID{ids["uric"]})
	if m == nil {
		t.Fatal("expected test mismatch")
	}
	if m.Kind != "test" {
		t.Errorf("expected kind test, got %s", m.Kind)
	}
}

func TestCheckConsistency_PackageCheckedBeforeTest(t *testing.T) {
	idx, ids := buildTestIndex()
	m := CheckConsistency(
		[]string{"COMP999", "CBC"},
		idx,
		[]uuid.UUID{ids["exec1"]},
		[]uuid.UUID{ids["uric"]},
	)
	if m == nil || m.Kind != "package" {
		t.Errorf("expected the package mismatch reported first, got %+v", m)
	}
}

func TestCheckConsistency_IgnoresNameFallback(t *testing.T) {
	idx, ids := buildTestIndex()
	// "Comprehensive Panel" resolves by name in the resolver but must not
	// count as a token-derived package here.
	m := CheckConsistency([]string{"Comprehensive Panel"}, idx, []uuid.UUID{ids["exec1"]}, nil)
	if m != nil {
		t.Errorf("name tokens must not participate in the code-exact check, got %+v", m)
	}
}

func TestCheckConsistency_ExtraExplicitID(t *testing.T) {
	idx, ids := buildTestIndex()
	m := CheckConsistency([]string{"COMP999"}, idx, []uuid.UUID{ids["comp999"], ids["exec1"]}, nil)
	if m == nil {
		t.Fatal("expected mismatch for extra explicit id")
	}
	if len(m.MissingCodes) != 1 || m.MissingCodes[0] != "EXEC1" {
		t.Errorf("expected EXEC1 reported missing from tokens, got %v", m.MissingCodes)
	}
	if len(m.MissingIDs) != 0 {
		t.Errorf("expected no token ids missing, got %v", m.MissingIDs)
	}
}

func TestCheckConsistency_MissingIDsFollowTokenOrder(t *testing.T) {
	idx, ids := buildTestIndex()

	tokens := []string{"EXEC2", "COMP999", "EXEC1"}
	want := []uuid.UUID{ids["exec2"], ids["comp999"]}
	for i := 0; i < 10; i++ {
		m := CheckConsistency(tokens, idx, []uuid.UUID{ids["exec1"]}, nil)
		if m == nil {
			t.Fatal("expected package mismatch")
		}
		if len(m.MissingIDs) != len(want) {
			t.Fatalf("expected %d missing ids, got %v", len(want), m.MissingIDs)
		}
		for j, id := range want {
			if m.MissingIDs[j] != id {
				t.Fatalf("missing ids out of token order: got %v, want %v", m.MissingIDs, want)
			}
		}
	}
}
