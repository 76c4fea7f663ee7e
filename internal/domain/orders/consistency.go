package orders

import (
	"github.com/google/uuid"

	"github.com/clinicbase/labd/internal/domain/catalog"
)

// CheckConsistency cross-checks the token-derived id sets against the
// explicitly supplied id lists. The check is code-exact: name fallback is
// deliberately ignored so the two encodings are compared on the least
// ambiguous common ground. Packages are checked before tests and the first
// mismatch found is returned; nil means the encodings agree (or one side is
// empty, in which case there is nothing to compare).
//
// Callers must treat a non-nil result as a hard validation failure. Merging
// the two sources silently could drop or add a billable item.
func CheckConsistency(tokens []string, idx *catalog.Index, packageIDs, testIDs []uuid.UUID) *Mismatch {
	// Token-derived ids keep token order so the mismatch payload is
	// identical across runs for the same request.
	var tokenPkgIDs, tokenTestIDs []uuid.UUID
	seenPkg := make(map[uuid.UUID]bool)
	seenTest := make(map[uuid.UUID]bool)
	tokenPkgCodes := make(map[string]bool)
	tokenTestCodes := make(map[string]bool)

	for _, tok := range tokens {
		norm := catalog.Normalize(tok)
		if norm == "" {
			continue
		}
		if id, ok := idx.PackageIDByCode[norm]; ok {
			if !seenPkg[id] {
				seenPkg[id] = true
				tokenPkgIDs = append(tokenPkgIDs, id)
			}
			tokenPkgCodes[norm] = true
			continue
		}
		if id, ok := idx.TestIDByCode[norm]; ok {
			if !seenTest[id] {
				seenTest[id] = true
				tokenTestIDs = append(tokenTestIDs, id)
			}
			tokenTestCodes[norm] = true
		}
	}

	if m := diff("package", tokenPkgIDs, tokenPkgCodes, packageIDs, idx.PackageCodeByID); m != nil {
		return m
	}
	return diff("test", tokenTestIDs, tokenTestCodes, testIDs, idx.TestCodeByID)
}

func diff(kind string, tokenIDs []uuid.UUID, tokenCodes map[string]bool, explicit []uuid.UUID, codeByID map[uuid.UUID]string) *Mismatch {
	if len(explicit) == 0 || len(tokenIDs) == 0 {
		return nil
	}

	explicitSet := make(map[uuid.UUID]bool, len(explicit))
	for _, id := range explicit {
		explicitSet[id] = true
	}

	var missingIDs []uuid.UUID
	for _, id := range tokenIDs {
		if !explicitSet[id] {
			missingIDs = append(missingIDs, id)
		}
	}

	var missingCodes []string
	for _, id := range explicit {
		code, ok := codeByID[id]
		if !ok {
			// Unknown ids are reported by the not-found check; here the
			// id itself stands in for its missing code.
			missingCodes = append(missingCodes, id.String())
			continue
		}
		if !tokenCodes[code] {
			missingCodes = append(missingCodes, code)
		}
	}

	if len(missingIDs) == 0 && len(missingCodes) == 0 {
		return nil
	}
	return &Mismatch{Kind: kind, MissingCodes: missingCodes, MissingIDs: missingIDs}
}
