package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicbase/labd/internal/domain/catalog"
	"github.com/clinicbase/labd/internal/platform/db"
)

// CatalogSource provides a fresh catalog index per request.
type CatalogSource interface {
	Index(ctx context.Context) (*catalog.Index, error)
}

var validOrderStatuses = map[string]bool{
	"pending": true, "completed": true, "released": true, "cancelled": true,
}

type Service struct {
	orders  OrderRepository
	catalog CatalogSource
}

func NewService(orders OrderRepository, catalog CatalogSource) *Service {
	return &Service{orders: orders, catalog: catalog}
}

// Draft is a fully resolved, priced order ready to persist. It exists only
// for the duration of one create/edit request.
type Draft struct {
	RequestedTests string
	Resolution     Resolution
	Quote          Quote
}

// Prepare resolves, validates, expands and prices an order request against
// a fresh catalog index. Validation problems come back batched in
// OrderIssues, not as the error: the error is reserved for catalog loading
// failures.
func (s *Service) Prepare(ctx context.Context, req *OrderRequest) (*Draft, *OrderIssues, error) {
	idx, err := s.catalog.Index(ctx)
	if err != nil {
		return nil, nil, err
	}
	draft, issues := prepare(req, idx)
	if issues.Any() {
		return nil, issues, nil
	}
	return draft, nil, nil
}

func prepare(req *OrderRequest, idx *catalog.Index) (*Draft, *OrderIssues) {
	issues := &OrderIssues{}

	// Explicit ids must exist in the catalog at all.
	for _, id := range req.PackageIDs {
		if _, ok := idx.PackageByID[id]; !ok {
			issues.UnknownIDs = append(issues.UnknownIDs, id)
		}
	}
	for _, id := range req.TestIDs {
		if _, ok := idx.TestByID[id]; !ok {
			issues.UnknownIDs = append(issues.UnknownIDs, id)
		}
	}

	tokens := SplitTokens(req.RequestedTests)
	res := ResolveTokens(tokens, idx, true)
	issues.Ambiguous = res.Ambiguous
	issues.Mismatch = CheckConsistency(tokens, idx, req.PackageIDs, req.TestIDs)
	if issues.Any() {
		return nil, issues
	}

	// The token-derived selection drives expansion; explicit ids fill in
	// when the tokens resolved nothing (picker-only callers).
	packageIDs, testIDs := res.PackageIDs, res.TestIDs
	expanded := ExpandMatches(res.Matches, idx)
	if len(expanded) == 0 {
		packageIDs, testIDs = dedupe(req.PackageIDs), dedupe(req.TestIDs)
		expanded = ExpandSelection(packageIDs, testIDs, idx)
	}

	quote := Price(packageIDs, testIDs, idx, req.DiscountEnabled, req.ManualAdd)
	return &Draft{
		RequestedTests: strings.Join(expanded, ", "),
		Resolution:     res,
		Quote:          quote,
	}, issues
}

// inTx runs fn inside a transaction on the request's tenant-scoped
// connection, so a read-modify-write replaces line items and totals as
// one unit. Without a scoped connection fn runs on the bare context.
func inTx(ctx context.Context, fn func(context.Context) error) error {
	if db.ConnFromContext(ctx) == nil {
		return fn(ctx)
	}
	txCtx, tx, err := db.WithTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	var out []uuid.UUID
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// CreateOrder validates the request and persists a new order carrying the
// draft's expanded string and totals.
func (s *Service) CreateOrder(ctx context.Context, req *OrderRequest) (*LabOrder, *OrderIssues, error) {
	if req.PatientID == uuid.Nil {
		return nil, nil, fmt.Errorf("patient_id is required")
	}
	draft, issues, err := s.Prepare(ctx, req)
	if err != nil || issues != nil {
		return nil, issues, err
	}

	o := &LabOrder{
		PatientID:       req.PatientID,
		VisitDate:       req.VisitDate,
		RequestedTests:  draft.RequestedTests,
		Status:          "pending",
		PackageTotal:    draft.Quote.PackageTotal,
		TestTotal:       draft.Quote.TestTotal,
		ManualAdd:       draft.Quote.ManualAdd,
		DiscountEnabled: req.DiscountEnabled,
		DiscountAmount:  draft.Quote.DiscountAmount,
		FinalTotal:      draft.Quote.FinalTotal,
		Notes:           req.Notes,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, nil, err
	}
	return o, nil, nil
}

// UpdateOrder re-resolves the request against the current catalog and
// replaces the order's line items and totals together.
func (s *Service) UpdateOrder(ctx context.Context, id uuid.UUID, req *OrderRequest) (*LabOrder, *OrderIssues, error) {
	draft, issues, err := s.Prepare(ctx, req)
	if err != nil || issues != nil {
		return nil, issues, err
	}

	var o *LabOrder
	err = inTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if req.PatientID != uuid.Nil {
			o.PatientID = req.PatientID
		}
		if !req.VisitDate.IsZero() {
			o.VisitDate = req.VisitDate
		}
		o.RequestedTests = draft.RequestedTests
		o.PackageTotal = draft.Quote.PackageTotal
		o.TestTotal = draft.Quote.TestTotal
		o.ManualAdd = draft.Quote.ManualAdd
		o.DiscountEnabled = req.DiscountEnabled
		o.DiscountAmount = draft.Quote.DiscountAmount
		o.FinalTotal = draft.Quote.FinalTotal
		o.Notes = req.Notes
		return s.orders.Update(ctx, o)
	})
	if err != nil {
		return nil, nil, err
	}
	return o, nil, nil
}

func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return s.orders.Delete(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, limit, offset int) ([]*LabOrder, int, error) {
	return s.orders.List(ctx, limit, offset)
}

func (s *Service) ListOrdersByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabOrder, int, error) {
	return s.orders.ListByPatient(ctx, patientID, limit, offset)
}

// SetStatus advances the order workflow.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*LabOrder, error) {
	if !validOrderStatuses[status] {
		return nil, fmt.Errorf("invalid order status: %s", status)
	}
	var o *LabOrder
	err := inTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		o.Status = status
		return s.orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}
