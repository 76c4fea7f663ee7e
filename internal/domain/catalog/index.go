package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Index is a read-only set of lookup maps over the lab catalog, rebuilt
// from fresh rows on every request. It holds no references to shared state
// and is safe to discard after use; no caching is assumed anywhere.
type Index struct {
	TestByID        map[uuid.UUID]*LabTest
	PackageByID     map[uuid.UUID]*LabPackage
	TestIDByCode    map[string]uuid.UUID
	PackageIDByCode map[string]uuid.UUID
	// PackageIDsByName is one-to-many: distinct packages may share a
	// display name, which the token resolver reports as ambiguous.
	PackageIDsByName map[string][]uuid.UUID
	TestCodeByID     map[uuid.UUID]string
	PackageCodeByID  map[uuid.UUID]string
	// MemberTestIDs preserves the stored item order per package.
	MemberTestIDs map[uuid.UUID][]uuid.UUID

	// Warnings records catalog integrity issues found while building,
	// currently duplicate codes shadowed by first-writer-wins.
	Warnings []string
}

// Normalize is the canonical code/name normalization: uppercase + trim.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// BuildIndex derives the lookup maps from raw catalog rows. Rows missing an
// id or code are skipped without error so partially populated catalogs still
// index. On duplicate normalized codes the first writer wins; later rows are
// shadowed and reported in Warnings.
func BuildIndex(tests []*LabTest, packages []*LabPackage, items []*PackageItem) *Index {
	idx := &Index{
		TestByID:         make(map[uuid.UUID]*LabTest, len(tests)),
		PackageByID:      make(map[uuid.UUID]*LabPackage, len(packages)),
		TestIDByCode:     make(map[string]uuid.UUID, len(tests)),
		PackageIDByCode:  make(map[string]uuid.UUID, len(packages)),
		PackageIDsByName: make(map[string][]uuid.UUID),
		TestCodeByID:     make(map[uuid.UUID]string, len(tests)),
		PackageCodeByID:  make(map[uuid.UUID]string, len(packages)),
		MemberTestIDs:    make(map[uuid.UUID][]uuid.UUID),
	}

	for _, t := range tests {
		code := Normalize(t.Code)
		if t.ID == uuid.Nil || code == "" {
			continue
		}
		idx.TestByID[t.ID] = t
		idx.TestCodeByID[t.ID] = code
		if existing, ok := idx.TestIDByCode[code]; ok {
			idx.Warnings = append(idx.Warnings,
				fmt.Sprintf("duplicate test code %s: %s shadowed by %s", code, t.ID, existing))
			continue
		}
		idx.TestIDByCode[code] = t.ID
	}

	for _, p := range packages {
		code := Normalize(p.Code)
		if p.ID == uuid.Nil || code == "" {
			continue
		}
		idx.PackageByID[p.ID] = p
		idx.PackageCodeByID[p.ID] = code
		if name := Normalize(p.DisplayName); name != "" {
			idx.PackageIDsByName[name] = append(idx.PackageIDsByName[name], p.ID)
		}
		if existing, ok := idx.PackageIDByCode[code]; ok {
			idx.Warnings = append(idx.Warnings,
				fmt.Sprintf("duplicate package code %s: %s shadowed by %s", code, p.ID, existing))
			continue
		}
		idx.PackageIDByCode[code] = p.ID
	}

	for _, it := range items {
		pkgID := it.PackageID
		if pkgID == uuid.Nil && it.PackageCode != nil {
			pkgID = idx.PackageIDByCode[Normalize(*it.PackageCode)]
		}
		testID := it.TestID
		if testID == uuid.Nil && it.TestCode != nil {
			testID = idx.TestIDByCode[Normalize(*it.TestCode)]
		}
		if pkgID == uuid.Nil || testID == uuid.Nil {
			continue
		}
		idx.MemberTestIDs[pkgID] = append(idx.MemberTestIDs[pkgID], testID)
	}

	return idx
}
