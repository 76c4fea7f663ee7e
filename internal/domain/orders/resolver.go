package orders

import (
	"strings"

	"github.com/google/uuid"

	"github.com/clinicbase/labd/internal/domain/catalog"
)

// SplitTokens breaks a raw requested-tests string into its ordered tokens.
// Separators are commas; surrounding whitespace is not stripped here so the
// resolver can report the token exactly as entered.
func SplitTokens(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

// ResolveTokens turns an ordered token list into package/test references.
// Per token the strategies run in a fixed order: exact package code, exact
// test code, then (when allowNameFallback) exact package display name. A
// name shared by several packages is recorded as ambiguous and resolution
// continues with the remaining tokens. Tokens that match nothing come back
// as MatchUnknown.
func ResolveTokens(tokens []string, idx *catalog.Index, allowNameFallback bool) Resolution {
	res := Resolution{}
	seenPkg := make(map[uuid.UUID]bool)
	seenTest := make(map[uuid.UUID]bool)

	for _, tok := range tokens {
		norm := catalog.Normalize(tok)
		if norm == "" {
			continue
		}

		if id, ok := idx.PackageIDByCode[norm]; ok {
			res.Matches = append(res.Matches, TokenMatch{Token: tok, Normalized: norm, Kind: MatchPackage, ID: id, Source: SourceCode})
			if !seenPkg[id] {
				seenPkg[id] = true
				res.PackageIDs = append(res.PackageIDs, id)
			}
			continue
		}

		if id, ok := idx.TestIDByCode[norm]; ok {
			res.Matches = append(res.Matches, TokenMatch{Token: tok, Normalized: norm, Kind: MatchTest, ID: id, Source: SourceCode})
			if !seenTest[id] {
				seenTest[id] = true
				res.TestIDs = append(res.TestIDs, id)
			}
			continue
		}

		if ids := idx.PackageIDsByName[norm]; allowNameFallback && len(ids) > 0 {
			if len(ids) > 1 {
				res.Ambiguous = append(res.Ambiguous, AmbiguousName{Token: tok, Matches: len(ids)})
				continue
			}
			id := ids[0]
			res.Matches = append(res.Matches, TokenMatch{Token: tok, Normalized: norm, Kind: MatchPackage, ID: id, Source: SourceName})
			if !seenPkg[id] {
				seenPkg[id] = true
				res.PackageIDs = append(res.PackageIDs, id)
			}
			continue
		}

		res.Matches = append(res.Matches, TokenMatch{Token: tok, Normalized: norm, Kind: MatchUnknown})
	}

	return res
}
