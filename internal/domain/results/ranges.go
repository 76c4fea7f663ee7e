package results

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeSex maps raw demographic input to M, F or empty (unknown).
func NormalizeSex(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M", "MALE":
		return "M"
	case "F", "FEMALE":
		return "F"
	}
	return ""
}

// bandContains reports whether the patient age falls in the half-open band
// [AgeMin, AgeMax). A missing bound is unbounded on that side; a missing
// patient age means no age filter applies.
func bandContains(m *RangeMeta, age *int) bool {
	if age == nil {
		return true
	}
	if m.AgeMin != nil && *age < *m.AgeMin {
		return false
	}
	if m.AgeMax != nil && *age >= *m.AgeMax {
		return false
	}
	return true
}

// hasAgeBand reports whether the rule constrains age at all.
func hasAgeBand(m *RangeMeta) bool {
	return m.AgeMin != nil || m.AgeMax != nil
}

// SelectRange picks the reference-range variant for a patient from all
// candidates sharing one analyte key, in priority order: sex+age match,
// sex-specific unbanded rule, age-band match ignoring sex, unconstrained
// fallback, then the first candidate in original order. A sex-specific
// rule whose age band excludes the patient never wins over an
// unconstrained row. The result is deterministic for a fixed candidate
// order.
func SelectRange(candidates []*RangeMeta, sex string, age *int) *RangeMeta {
	if len(candidates) == 0 {
		return nil
	}
	for _, m := range candidates {
		if m.Sex != "" && m.Sex == sex && bandContains(m, age) {
			return m
		}
	}
	for _, m := range candidates {
		if m.Sex != "" && m.Sex == sex && !hasAgeBand(m) {
			return m
		}
	}
	for _, m := range candidates {
		if age != nil && hasAgeBand(m) && bandContains(m, age) {
			return m
		}
	}
	for _, m := range candidates {
		if m.Sex == "" && !hasAgeBand(m) {
			return m
		}
	}
	return candidates[0]
}

// IsAbsent reports whether a raw cell value should be omitted from the
// report entirely. Spreadsheet error artifacts (#REF!, #VALUE!, stray
// "VALUE!" fragments) count as absent, as do blanks and dashes.
func IsAbsent(raw string) bool {
	v := strings.ToUpper(strings.TrimSpace(raw))
	if v == "" || v == "-" {
		return true
	}
	if strings.HasPrefix(v, "#") {
		return true
	}
	return strings.Contains(v, "VALUE!")
}

// FormatValue fixes numeric values to the range's declared precision.
// Non-numeric raw values pass through unformatted.
func FormatValue(m *RangeMeta, raw string) string {
	raw = strings.TrimSpace(raw)
	if m == nil || m.Decimals == nil {
		return raw
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	return strconv.FormatFloat(n, 'f', *m.Decimals, 64)
}

// Flag computes the abnormality marker for a value against its selected
// range: L below Low, H above High (values exactly on a bound are normal),
// A for values outside a declared normal-value allow-list. A rule with
// neither bounds nor an allow-list never flags.
func Flag(m *RangeMeta, raw string) string {
	if m == nil {
		return ""
	}
	raw = strings.TrimSpace(raw)

	n, parseErr := strconv.ParseFloat(raw, 64)
	numeric := m.Type == "numeric" || (m.Type == "" && parseErr == nil)
	if numeric && parseErr == nil {
		if m.Low != nil && n < *m.Low {
			return "L"
		}
		if m.High != nil && n > *m.High {
			return "H"
		}
		return ""
	}

	if normals := m.normalList(); len(normals) > 0 {
		upper := strings.ToUpper(raw)
		for _, ok := range normals {
			if upper == ok {
				return ""
			}
		}
		return "A"
	}
	return ""
}

// RefText renders the selected range for display: a numeric interval with
// unit-free bounds, or the allow-list for categorical rules.
func RefText(m *RangeMeta) string {
	if m == nil {
		return ""
	}
	switch {
	case m.Low != nil && m.High != nil:
		return fmt.Sprintf("%s - %s", trimFloat(*m.Low), trimFloat(*m.High))
	case m.Low != nil:
		return fmt.Sprintf(">= %s", trimFloat(*m.Low))
	case m.High != nil:
		return fmt.Sprintf("<= %s", trimFloat(*m.High))
	case strings.TrimSpace(m.NormalValues) != "":
		return strings.TrimSpace(m.NormalValues)
	}
	return ""
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
