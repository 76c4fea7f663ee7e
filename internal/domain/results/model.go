package results

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RangeMeta maps to the lab_reference_range table: one reference-range rule
// for an analyte key. Several rows may share an AnalyteKey (sex- or
// age-banded variants); one is chosen per patient at report time.
type RangeMeta struct {
	ID         uuid.UUID `db:"id" json:"id"`
	AnalyteKey string    `db:"analyte_key" json:"analyte_key"`
	Label      string    `db:"label" json:"label"`
	Section    string    `db:"section" json:"section"`
	Unit       string    `db:"unit" json:"unit"`
	// Type is numeric, text, categorical, scale or empty (infer from value).
	Type     string   `db:"type" json:"type"`
	Decimals *int     `db:"decimals" json:"decimals,omitempty"`
	Sex      string   `db:"sex" json:"sex"` // M, F or empty
	Low      *float64 `db:"low" json:"low,omitempty"`
	High     *float64 `db:"high" json:"high,omitempty"`
	// NormalValues is a comma-separated allow-list for categorical results.
	NormalValues string    `db:"normal_values" json:"normal_values"`
	AgeMin       *int      `db:"age_min" json:"age_min,omitempty"`
	AgeMax       *int      `db:"age_max" json:"age_max,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// normalList splits the allow-list into normalized entries.
func (m *RangeMeta) normalList() []string {
	if strings.TrimSpace(m.NormalValues) == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(m.NormalValues, ",") {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ResultValue is one key/value cell of a wide results row. The slice form
// preserves the column order of the source sheet, which the assembler keeps
// for items within a section.
type ResultValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ResultRow maps to the lab_result_row table: one wide row per visit, with
// analyte values and demographic fields mixed in, stored as an ordered
// key/value list (jsonb).
type ResultRow struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	OrderID   *uuid.UUID    `db:"order_id" json:"order_id,omitempty"`
	PatientID uuid.UUID     `db:"patient_id" json:"patient_id"`
	Values    []ResultValue `db:"values" json:"values"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// Get returns the raw value for a key, empty when absent.
func (r *ResultRow) Get(key string) string {
	for _, v := range r.Values {
		if v.Key == key {
			return v.Value
		}
	}
	return ""
}

// ReportItem is one rendered analyte line.
type ReportItem struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Unit     string `json:"unit,omitempty"`
	RefRange string `json:"ref_range,omitempty"`
	// Flag is "", "L", "H" or "A".
	Flag string `json:"flag,omitempty"`
}

// ReportSection groups items under a clinical section heading.
type ReportSection struct {
	Name  string       `json:"name"`
	Items []ReportItem `json:"items"`
}

// PatientInfo is the report header block pulled from the row's demographic
// keys.
type PatientInfo struct {
	Name       string `json:"name,omitempty"`
	Age        *int   `json:"age,omitempty"`
	Sex        string `json:"sex,omitempty"`
	Birthday   string `json:"birthday,omitempty"`
	Address    string `json:"address,omitempty"`
	DateOfTest string `json:"date_of_test,omitempty"`
	Barcode    string `json:"barcode,omitempty"`
}

// Report is the assembled, flagged clinical report. It is rebuilt from the
// row and range table on every request and never mutated in place.
type Report struct {
	Patient  PatientInfo     `json:"patient"`
	Sections []ReportSection `json:"sections"`
}
