package results

import (
	"sort"
	"strconv"
	"strings"
)

// excludedKeys are demographic/visit fields of the wide row that never
// iterate as analytes. Keys with a leading underscore are internal and also
// skipped.
var excludedKeys = map[string]bool{
	"patient_id":   true,
	"patient_name": true,
	"name":         true,
	"age":          true,
	"sex":          true,
	"birthday":     true,
	"contact":      true,
	"address":      true,
	"date_of_test": true,
	"barcode":      true,
	"notes":        true,
}

// sectionByPrefix maps analyte key prefixes to default section names, used
// when a range rule carries no explicit section.
var sectionByPrefix = []struct {
	prefix  string
	section string
}{
	{"hema_", "Hematology"},
	{"chem_", "Chemistry"},
	{"ua_", "Urinalysis"},
	{"fa_", "Fecalysis"},
	{"sero_", "Serology"},
}

const defaultSection = "Others"

// clinicalAbbrevs stay upper-cased in derived labels.
var clinicalAbbrevs = map[string]bool{
	"WBC": true, "RBC": true, "HGB": true, "HCT": true, "MCV": true,
	"MCH": true, "MCHC": true, "RDW": true, "PLT": true, "ESR": true,
	"ALT": true, "AST": true, "ALP": true, "BUN": true, "FBS": true,
	"RBS": true, "HDL": true, "LDL": true, "VLDL": true, "SGPT": true,
	"SGOT": true, "TSH": true, "FT3": true, "FT4": true, "T3": true,
	"T4": true, "HBSAG": true, "HAV": true, "HCV": true, "RPR": true,
	"PH": true, "PUS": true, "OGTT": true, "HBA1C": true, "CBC": true,
}

// SectionFor resolves an item's section: the rule's explicit section wins,
// else the key prefix convention, else the catch-all.
func SectionFor(m *RangeMeta, key string) string {
	if m != nil && strings.TrimSpace(m.Section) != "" {
		return strings.TrimSpace(m.Section)
	}
	lower := strings.ToLower(key)
	for _, p := range sectionByPrefix {
		if strings.HasPrefix(lower, p.prefix) {
			return p.section
		}
	}
	return defaultSection
}

// LabelFor resolves an item's display label: the rule's explicit label
// wins, else the key is title-cased with underscores as spaces, keeping
// known clinical abbreviations in caps.
func LabelFor(m *RangeMeta, key string) string {
	if m != nil && strings.TrimSpace(m.Label) != "" {
		return strings.TrimSpace(m.Label)
	}
	words := strings.Split(strings.ToLower(key), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		if clinicalAbbrevs[strings.ToUpper(w)] {
			words[i] = strings.ToUpper(w)
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// AssembleReport builds the sectioned, flagged clinical report from one
// wide results row and the full reference-range table. Pure and
// idempotent: identical inputs produce identical output.
func AssembleReport(row *ResultRow, ranges []*RangeMeta) *Report {
	byKey := make(map[string][]*RangeMeta)
	for _, m := range ranges {
		byKey[m.AnalyteKey] = append(byKey[m.AnalyteKey], m)
	}

	patient := patientInfo(row)
	sex := NormalizeSex(row.Get("sex"))

	sections := make(map[string]*ReportSection)
	var order []string

	for _, cell := range row.Values {
		key := cell.Key
		if excludedKeys[strings.ToLower(key)] || strings.HasPrefix(key, "_") {
			continue
		}
		if IsAbsent(cell.Value) {
			continue
		}

		meta := SelectRange(byKey[key], sex, patient.Age)
		name := SectionFor(meta, key)
		sec, ok := sections[name]
		if !ok {
			sec = &ReportSection{Name: name}
			sections[name] = sec
			order = append(order, name)
		}

		item := ReportItem{
			Key:      key,
			Label:    LabelFor(meta, key),
			Value:    FormatValue(meta, cell.Value),
			Flag:     Flag(meta, cell.Value),
			RefRange: RefText(meta),
		}
		if meta != nil {
			item.Unit = meta.Unit
		}
		sec.Items = append(sec.Items, item)
	}

	sort.Strings(order)
	report := &Report{Patient: patient}
	for _, name := range order {
		report.Sections = append(report.Sections, *sections[name])
	}
	return report
}

func patientInfo(row *ResultRow) PatientInfo {
	info := PatientInfo{
		Name:       firstNonEmpty(row.Get("patient_name"), row.Get("name")),
		Sex:        NormalizeSex(row.Get("sex")),
		Birthday:   row.Get("birthday"),
		Address:    row.Get("address"),
		DateOfTest: row.Get("date_of_test"),
		Barcode:    row.Get("barcode"),
	}
	if raw := strings.TrimSpace(row.Get("age")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			info.Age = &n
		}
	}
	return info
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
