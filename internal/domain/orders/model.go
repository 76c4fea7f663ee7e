package orders

import (
	"time"

	"github.com/google/uuid"
)

// LabOrder maps to the lab_order table. RequestedTests holds the canonical
// expanded free-text representation (comma-separated test codes plus any
// passthrough tokens); the resolved selection itself is never persisted,
// only its effects: the expanded string and the computed totals. Totals and
// items are always written together in one statement so a reader never sees
// stale totals paired with a new item set.
type LabOrder struct {
	ID              uuid.UUID `db:"id" json:"id"`
	PatientID       uuid.UUID `db:"patient_id" json:"patient_id"`
	VisitDate       time.Time `db:"visit_date" json:"visit_date"`
	RequestedTests  string    `db:"requested_tests" json:"requested_tests"`
	Status          string    `db:"status" json:"status"`
	PackageTotal    float64   `db:"package_total" json:"package_total"`
	TestTotal       float64   `db:"test_total" json:"test_total"`
	ManualAdd       float64   `db:"manual_add" json:"manual_add"`
	DiscountEnabled bool      `db:"discount_enabled" json:"discount_enabled"`
	DiscountAmount  float64   `db:"discount_amount" json:"discount_amount"`
	FinalTotal      float64   `db:"final_total" json:"final_total"`
	Notes           *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// OrderRequest is the payload for creating or editing a lab order. The
// requested-tests string comes from manual entry; the id lists come from the
// structured picker. When both are present they must agree.
type OrderRequest struct {
	PatientID       uuid.UUID   `json:"patient_id"`
	VisitDate       time.Time   `json:"visit_date"`
	RequestedTests  string      `json:"requested_tests"`
	PackageIDs      []uuid.UUID `json:"package_ids"`
	TestIDs         []uuid.UUID `json:"test_ids"`
	DiscountEnabled bool        `json:"discount_enabled"`
	ManualAdd       float64     `json:"manual_add"`
	Notes           *string     `json:"notes,omitempty"`
}

// MatchKind classifies what a token resolved to.
type MatchKind string

const (
	MatchPackage MatchKind = "package"
	MatchTest    MatchKind = "test"
	// MatchUnknown is a routing signal, not an error: the caller decides
	// whether unknown tokens pass through as free-text line items.
	MatchUnknown MatchKind = "unknown"
)

// MatchSource records which resolution strategy matched.
type MatchSource string

const (
	SourceCode MatchSource = "code"
	SourceName MatchSource = "name"
)

// TokenMatch is the resolution result for a single order token.
type TokenMatch struct {
	Token      string      `json:"token"`
	Normalized string      `json:"normalized"`
	Kind       MatchKind   `json:"kind"`
	ID         uuid.UUID   `json:"id,omitempty"`
	Source     MatchSource `json:"source,omitempty"`
}

// AmbiguousName records a name-fallback token that matched more than one
// package display name.
type AmbiguousName struct {
	Token   string `json:"token"`
	Matches int    `json:"matches"`
}

// Resolution is the full outcome of resolving an ordered token list.
// Matches mirrors the input token order; PackageIDs and TestIDs are
// deduplicated in first-seen order. Resolution never fails as control flow:
// every problem is data.
type Resolution struct {
	Matches    []TokenMatch    `json:"matches"`
	PackageIDs []uuid.UUID     `json:"package_ids"`
	TestIDs    []uuid.UUID     `json:"test_ids"`
	Ambiguous  []AmbiguousName `json:"ambiguous,omitempty"`
}

// Mismatch reports a divergence between the token-derived id set and an
// explicitly supplied id list for one kind (package or test).
type Mismatch struct {
	Kind         string      `json:"kind"`
	MissingCodes []string    `json:"missing_codes"`
	MissingIDs   []uuid.UUID `json:"missing_ids"`
}

// OrderIssues batches everything wrong with an order request so the caller
// can surface all of it in a single 4xx response.
type OrderIssues struct {
	Ambiguous  []AmbiguousName `json:"ambiguous_names,omitempty"`
	Mismatch   *Mismatch       `json:"mismatch,omitempty"`
	UnknownIDs []uuid.UUID     `json:"unknown_ids,omitempty"`
}

// Any reports whether the request must be rejected.
func (i *OrderIssues) Any() bool {
	return len(i.Ambiguous) > 0 || i.Mismatch != nil || len(i.UnknownIDs) > 0
}
