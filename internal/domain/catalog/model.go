package catalog

import (
	"time"

	"github.com/google/uuid"
)

// LabTest maps to the lab_test table. Identity is ID; Code is a short
// human-entered alias, unique case-insensitively across the catalog.
type LabTest struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	DefaultPrice float64   `db:"default_price" json:"default_price"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// LabPackage maps to the lab_package table. A package is a priced bundle
// of tests; its price need not equal the sum of member test prices.
type LabPackage struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	DisplayName  string    `db:"display_name" json:"display_name"`
	PackagePrice float64   `db:"package_price" json:"package_price"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PackageItem maps to the lab_package_item junction table. PackageCode and
// TestCode are transitional denormalized columns: rows imported from older
// spreadsheets may carry codes without ids, and the index builder resolves
// them against the code maps.
type PackageItem struct {
	PackageID   uuid.UUID `db:"package_id" json:"package_id"`
	TestID      uuid.UUID `db:"test_id" json:"test_id"`
	PackageCode *string   `db:"package_code" json:"package_code,omitempty"`
	TestCode    *string   `db:"test_code" json:"test_code,omitempty"`
	Position    int       `db:"position" json:"position"`
}
