package orders

import (
	"strings"

	"github.com/google/uuid"

	"github.com/clinicbase/labd/internal/domain/catalog"
)

// ExpandMatches flattens resolved matches into the canonical requested-tests
// code list. Package matches are replaced by their member test codes in
// stored item order; everything else passes through as the original token
// (trimmed). A package whose membership yields no resolvable codes falls
// back to its original token so an order line is never silently dropped
// when catalog item data is incomplete.
func ExpandMatches(matches []TokenMatch, idx *catalog.Index) []string {
	var out []string
	for _, m := range matches {
		if m.Kind != MatchPackage {
			out = append(out, strings.TrimSpace(m.Token))
			continue
		}
		var codes []string
		for _, testID := range idx.MemberTestIDs[m.ID] {
			if code, ok := idx.TestCodeByID[testID]; ok {
				codes = append(codes, code)
			}
		}
		if len(codes) == 0 {
			out = append(out, strings.TrimSpace(m.Token))
			continue
		}
		out = append(out, codes...)
	}
	return out
}

// ExpandSelection derives codes directly from explicit id lists. It is the
// fallback for callers that have picker selections but no resolvable token
// string: package members first (per package, in stored order), then the
// standalone test codes.
func ExpandSelection(packageIDs, testIDs []uuid.UUID, idx *catalog.Index) []string {
	var out []string
	for _, pkgID := range packageIDs {
		for _, testID := range idx.MemberTestIDs[pkgID] {
			if code, ok := idx.TestCodeByID[testID]; ok {
				out = append(out, code)
			}
		}
	}
	for _, testID := range testIDs {
		if code, ok := idx.TestCodeByID[testID]; ok {
			out = append(out, code)
		}
	}
	return out
}
