package orders

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicbase/labd/internal/domain/catalog"
)

func TestExpandMatches_PackageRoundTrip(t *testing.T) {
	idx, _ := buildTestIndex()
	res := ResolveTokens([]string{"COMP999"}, idx, true)

	out := ExpandMatches(res.Matches, idx)
	if strings.Join(out, ",") != "CBC,FBS" {
		t.Errorf("expected member codes in stored order, got %v", out)
	}
}

func TestExpandMatches_PassthroughTokens(t *testing.T) {
	idx, _ := buildTestIndex()
	res := ResolveTokens([]string{"COMP999", "URIC", "Chest X-ray"}, idx, true)

	out := ExpandMatches(res.Matches, idx)
	if strings.Join(out, ",") != "CBC,FBS,URIC,Chest X-ray" {
		t.Errorf("unexpected expansion: %v", out)
	}
}

func TestExpandMatches_EmptyMembershipFallsBack(t *testing.T) {
	// A package with no stored items keeps its original token so the order
	// line is not silently dropped.
	pkg := &catalog.LabPackage{ID: uuid.New(), Code: "HOLLOW", DisplayName: "Hollow"}
	idx := catalog.BuildIndex(nil, []*catalog.LabPackage{pkg}, nil)

	res := ResolveTokens([]string{"hollow"}, idx, true)
	out := ExpandMatches(res.Matches, idx)
	if len(out) != 1 || out[0] != "hollow" {
		t.Errorf("expected original token passthrough, got %v", out)
	}
}

func TestExpandMatches_NoDuplicateFromRepeatedPackage(t *testing.T) {
	idx, _ := buildTestIndex()
	res := ResolveTokens([]string{"COMP999", "COMP999"}, idx, true)

	// Matches carry both tokens but the dedup happens at the selection
	// level; expansion of the deduped selection yields each member once.
	out := ExpandSelection(res.PackageIDs, res.TestIDs, idx)
	if strings.Join(out, ",") != "CBC,FBS" {
		t.Errorf("expected each member once, got %v", out)
	}
}

func TestExpandSelection_IDFallback(t *testing.T) {
	idx, ids := buildTestIndex()
	out := ExpandSelection([]uuid.UUID{ids["comp999"]}, []uuid.UUID{ids["uric"]}, idx)
	if strings.Join(out, ",") != "CBC,FBS,URIC" {
		t.Errorf("unexpected selection expansion: %v", out)
	}
}

func TestExpandSelection_UnknownIDsSkipped(t *testing.T) {
	idx, _ := buildTestIndex()
	out := ExpandSelection([]uuid.UUID{uuid.New()}, []uuid.UUID{uuid.New()}, idx)
	if len(out) != 0 {
		t.Errorf("expected nothing for unknown ids, got %v", out)
	}
}
