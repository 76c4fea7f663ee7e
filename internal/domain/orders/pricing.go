package orders

import (
	"math"

	"github.com/google/uuid"

	"github.com/clinicbase/labd/internal/domain/catalog"
)

// DiscountRate is the clinic discount applied to the discountable base
// (senior/PWD rate). Set once at startup from configuration; 20% matches
// the statutory default.
var DiscountRate = 0.20

// Quote is the computed pricing breakdown for an order selection.
type Quote struct {
	PackageTotal   float64 `json:"package_total"`
	TestTotal      float64 `json:"test_total"`
	ManualAdd      float64 `json:"manual_add"`
	DiscountBase   float64 `json:"discount_base"`
	DiscountAmount float64 `json:"discount_amount"`
	FinalTotal     float64 `json:"final_total"`
}

// roundPeso rounds to the nearest whole currency unit, half up.
func roundPeso(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Price computes order totals from the resolved selection. Rules:
//
//   - each distinct selected package is billed once at its bundle price;
//   - tests covered by any selected package are never billed again
//     individually;
//   - only the remaining standalone tests plus the manual add-on are
//     discountable; bundle prices are final.
//
// Negative manual add-ons are clamped to zero. Pure function, no I/O.
func Price(packageIDs, testIDs []uuid.UUID, idx *catalog.Index, discountEnabled bool, manualAdd float64) Quote {
	if manualAdd < 0 {
		manualAdd = 0
	}

	var packageTotal float64
	memberSet := make(map[uuid.UUID]bool)
	seenPkg := make(map[uuid.UUID]bool)
	for _, pkgID := range packageIDs {
		if seenPkg[pkgID] {
			continue
		}
		seenPkg[pkgID] = true
		if p, ok := idx.PackageByID[pkgID]; ok {
			packageTotal += p.PackagePrice
		}
		for _, testID := range idx.MemberTestIDs[pkgID] {
			memberSet[testID] = true
		}
	}

	var testTotal float64
	seenTest := make(map[uuid.UUID]bool)
	for _, testID := range testIDs {
		if seenTest[testID] || memberSet[testID] {
			continue
		}
		seenTest[testID] = true
		if t, ok := idx.TestByID[testID]; ok {
			testTotal += t.DefaultPrice
		}
	}

	discountBase := testTotal + manualAdd
	var discountAmount float64
	if discountEnabled {
		discountAmount = roundPeso(discountBase * DiscountRate)
	}

	return Quote{
		PackageTotal:   packageTotal,
		TestTotal:      testTotal,
		ManualAdd:      manualAdd,
		DiscountBase:   discountBase,
		DiscountAmount: discountAmount,
		FinalTotal:     roundPeso(packageTotal + testTotal + manualAdd - discountAmount),
	}
}
