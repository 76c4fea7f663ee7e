package results

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func sampleRow() *ResultRow {
	return &ResultRow{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		Values: []ResultValue{
			{Key: "patient_name", Value: "Juan Dela Cruz"},
			{Key: "age", Value: "30"},
			{Key: "sex", Value: "Male"},
			{Key: "date_of_test", Value: "2026-08-30"},
			{Key: "barcode", Value: "BC-00042"},
			{Key: "hema_hgb", Value: "13.2"},
			{Key: "hema_wbc", Value: "12.1"},
			{Key: "chem_fbs", Value: "#REF!"},
			{Key: "chem_uric_acid", Value: "5.5"},
			{Key: "sero_hbsag", Value: "Reactive"},
			{Key: "ua_color", Value: "-"},
			{Key: "_row_hash", Value: "abc123"},
		},
	}
}

func sampleRanges() []*RangeMeta {
	return []*RangeMeta{
		{AnalyteKey: "hema_hgb", Sex: "M", Type: "numeric", Low: fptr(14), High: fptr(18), Unit: "g/dL", Decimals: iptr(1)},
		{AnalyteKey: "hema_hgb", Sex: "F", Type: "numeric", Low: fptr(12), High: fptr(16), Unit: "g/dL", Decimals: iptr(1)},
		{AnalyteKey: "hema_wbc", Type: "numeric", Low: fptr(4.5), High: fptr(11), Unit: "x10^9/L"},
		{AnalyteKey: "chem_uric_acid", Type: "numeric", Low: fptr(3.5), High: fptr(7.2), Unit: "mg/dL"},
		{AnalyteKey: "sero_hbsag", Type: "categorical", NormalValues: "Non-Reactive"},
	}
}

func findSection(t *testing.T, r *Report, name string) *ReportSection {
	t.Helper()
	for i := range r.Sections {
		if r.Sections[i].Name == name {
			return &r.Sections[i]
		}
	}
	t.Fatalf("section %q not found, have %v", name, sectionNames(r))
	return nil
}

func sectionNames(r *Report) []string {
	names := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		names = append(names, s.Name)
	}
	return names
}

func TestAssembleReport(t *testing.T) {
	report := AssembleReport(sampleRow(), sampleRanges())

	if report.Patient.Name != "Juan Dela Cruz" {
		t.Errorf("patient name = %q", report.Patient.Name)
	}
	if report.Patient.Sex != "M" {
		t.Errorf("patient sex = %q", report.Patient.Sex)
	}
	if report.Patient.Age == nil || *report.Patient.Age != 30 {
		t.Errorf("patient age = %v", report.Patient.Age)
	}
	if report.Patient.Barcode != "BC-00042" {
		t.Errorf("barcode = %q", report.Patient.Barcode)
	}

	want := []string{"Chemistry", "Hematology", "Serology"}
	got := sectionNames(report)
	if len(got) != len(want) {
		t.Fatalf("sections = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sections = %v, want alphabetical %v", got, want)
		}
	}

	hema := findSection(t, report, "Hematology")
	if len(hema.Items) != 2 {
		t.Fatalf("hematology items = %d, want 2", len(hema.Items))
	}
	// Items keep the row's column order inside each section.
	hgb := hema.Items[0]
	if hgb.Key != "hema_hgb" {
		t.Fatalf("first hematology item = %q", hgb.Key)
	}
	if hgb.Flag != "L" {
		t.Errorf("13.2 against male 14-18: flag = %q, want L", hgb.Flag)
	}
	if hgb.Value != "13.2" {
		t.Errorf("formatted value = %q", hgb.Value)
	}
	if hgb.Unit != "g/dL" {
		t.Errorf("unit = %q", hgb.Unit)
	}
	if hgb.RefRange != "14 - 18" {
		t.Errorf("ref range = %q", hgb.RefRange)
	}
	if wbc := hema.Items[1]; wbc.Flag != "H" {
		t.Errorf("12.1 against 4.5-11: flag = %q, want H", wbc.Flag)
	}

	chem := findSection(t, report, "Chemistry")
	if len(chem.Items) != 1 || chem.Items[0].Key != "chem_uric_acid" {
		t.Fatalf("chemistry items = %+v, want only uric acid (#REF! cell dropped)", chem.Items)
	}
	if chem.Items[0].Flag != "" {
		t.Errorf("5.5 in 3.5-7.2 flagged %q", chem.Items[0].Flag)
	}

	sero := findSection(t, report, "Serology")
	if sero.Items[0].Flag != "A" {
		t.Errorf("Reactive against Non-Reactive allow-list: flag = %q, want A", sero.Items[0].Flag)
	}
}

func TestAssembleReport_ExcludesDemographicsAndInternal(t *testing.T) {
	report := AssembleReport(sampleRow(), sampleRanges())
	for _, sec := range report.Sections {
		for _, item := range sec.Items {
			switch item.Key {
			case "patient_name", "age", "sex", "date_of_test", "barcode", "_row_hash":
				t.Errorf("demographic/internal key %q leaked into report", item.Key)
			case "chem_fbs", "ua_color":
				t.Errorf("absent value %q leaked into report", item.Key)
			}
		}
	}
}

func TestAssembleReport_UnknownAnalyteDefaults(t *testing.T) {
	row := &ResultRow{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		Values: []ResultValue{
			{Key: "mystery_marker", Value: "42"},
		},
	}
	report := AssembleReport(row, nil)

	sec := findSection(t, report, "Others")
	item := sec.Items[0]
	if item.Label != "Mystery Marker" {
		t.Errorf("label = %q, want Mystery Marker", item.Label)
	}
	if item.Flag != "" || item.RefRange != "" || item.Unit != "" {
		t.Errorf("unknown analyte must render plain, got %+v", item)
	}
}

func TestAssembleReport_Idempotent(t *testing.T) {
	row := sampleRow()
	ranges := sampleRanges()

	first, err := json.Marshal(AssembleReport(row, ranges))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(AssembleReport(row, ranges))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("report not byte-identical across runs:\n%s\n%s", first, second)
	}
}

func TestLabelFor(t *testing.T) {
	cases := map[string]string{
		"hema_wbc":       "Hema WBC",
		"chem_uric_acid": "Chem Uric Acid",
		"fbs":            "FBS",
		"ua_ph":          "Ua PH",
	}
	for key, want := range cases {
		if got := LabelFor(nil, key); got != want {
			t.Errorf("LabelFor(%q) = %q, want %q", key, got, want)
		}
	}
	if got := LabelFor(&RangeMeta{Label: "Hemoglobin"}, "hema_hgb"); got != "Hemoglobin" {
		t.Errorf("explicit label ignored, got %q", got)
	}
}

func TestSectionFor(t *testing.T) {
	cases := map[string]string{
		"hema_hgb":  "Hematology",
		"chem_fbs":  "Chemistry",
		"ua_color":  "Urinalysis",
		"fa_ova":    "Fecalysis",
		"sero_rpr":  "Serology",
		"bloodtype": "Others",
	}
	for key, want := range cases {
		if got := SectionFor(nil, key); got != want {
			t.Errorf("SectionFor(%q) = %q, want %q", key, got, want)
		}
	}
	if got := SectionFor(&RangeMeta{Section: "Immunology"}, "sero_rpr"); got != "Immunology" {
		t.Errorf("explicit section ignored, got %q", got)
	}
}
