package results

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var validRangeTypes = map[string]bool{
	"": true, "numeric": true, "text": true, "categorical": true, "scale": true,
}

type Service struct {
	ranges RangeRepository
	rows   RowRepository
}

func NewService(ranges RangeRepository, rows RowRepository) *Service {
	return &Service{ranges: ranges, rows: rows}
}

func (s *Service) CreateRange(ctx context.Context, m *RangeMeta) error {
	if strings.TrimSpace(m.AnalyteKey) == "" {
		return fmt.Errorf("analyte_key is required")
	}
	if !validRangeTypes[m.Type] {
		return fmt.Errorf("invalid range type: %s", m.Type)
	}
	if m.Sex != "" && m.Sex != "M" && m.Sex != "F" {
		return fmt.Errorf("sex must be M, F or empty")
	}
	if m.AgeMin != nil && m.AgeMax != nil && *m.AgeMin >= *m.AgeMax {
		return fmt.Errorf("age_min must be below age_max")
	}
	return s.ranges.Create(ctx, m)
}

func (s *Service) GetRange(ctx context.Context, id uuid.UUID) (*RangeMeta, error) {
	return s.ranges.GetByID(ctx, id)
}

func (s *Service) UpdateRange(ctx context.Context, m *RangeMeta) error {
	if !validRangeTypes[m.Type] {
		return fmt.Errorf("invalid range type: %s", m.Type)
	}
	if m.Sex != "" && m.Sex != "M" && m.Sex != "F" {
		return fmt.Errorf("sex must be M, F or empty")
	}
	return s.ranges.Update(ctx, m)
}

func (s *Service) DeleteRange(ctx context.Context, id uuid.UUID) error {
	return s.ranges.Delete(ctx, id)
}

func (s *Service) ListRanges(ctx context.Context, limit, offset int) ([]*RangeMeta, int, error) {
	return s.ranges.List(ctx, limit, offset)
}

// SaveRow stores a wide results row imported from an analyzer or sheet,
// creating or replacing the row for its order.
func (s *Service) SaveRow(ctx context.Context, r *ResultRow) error {
	if r.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if len(r.Values) == 0 {
		return fmt.Errorf("values are required")
	}
	if r.OrderID != nil {
		if existing, err := s.rows.GetByOrderID(ctx, *r.OrderID); err == nil {
			r.ID = existing.ID
			return s.rows.Update(ctx, r)
		}
	}
	return s.rows.Create(ctx, r)
}

func (s *Service) GetRow(ctx context.Context, id uuid.UUID) (*ResultRow, error) {
	return s.rows.GetByID(ctx, id)
}

func (s *Service) DeleteRow(ctx context.Context, id uuid.UUID) error {
	return s.rows.Delete(ctx, id)
}

// Report assembles the clinical report for a stored row against the
// current reference-range table.
func (s *Service) Report(ctx context.Context, rowID uuid.UUID) (*Report, error) {
	row, err := s.rows.GetByID(ctx, rowID)
	if err != nil {
		return nil, err
	}
	ranges, err := s.ranges.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference ranges: %w", err)
	}
	return AssembleReport(row, ranges), nil
}

// ReportByOrder assembles the report for the row attached to a lab order.
func (s *Service) ReportByOrder(ctx context.Context, orderID uuid.UUID) (*Report, error) {
	row, err := s.rows.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	ranges, err := s.ranges.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reference ranges: %w", err)
	}
	return AssembleReport(row, ranges), nil
}
