package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbase/labd/internal/domain/catalog"
)

// -- Mocks --

type mockOrderRepo struct {
	orders map[uuid.UUID]*LabOrder
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[uuid.UUID]*LabOrder)}
}

func (m *mockOrderRepo) Create(_ context.Context, o *LabOrder) error {
	o.ID = uuid.New()
	o.CreatedAt = time.Now()
	o.UpdatedAt = time.Now()
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*LabOrder, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return o, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *LabOrder) error {
	m.orders[o.ID] = o
	return nil
}

func (m *mockOrderRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.orders, id)
	return nil
}

func (m *mockOrderRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*LabOrder, int, error) {
	var result []*LabOrder
	for _, o := range m.orders {
		if o.PatientID == patientID {
			result = append(result, o)
		}
	}
	return result, len(result), nil
}

func (m *mockOrderRepo) List(_ context.Context, limit, offset int) ([]*LabOrder, int, error) {
	var result []*LabOrder
	for _, o := range m.orders {
		result = append(result, o)
	}
	return result, len(result), nil
}

type staticCatalog struct {
	idx *catalog.Index
}

func (s staticCatalog) Index(_ context.Context) (*catalog.Index, error) {
	return s.idx, nil
}

func newOrderService() (*Service, map[string]uuid.UUID) {
	idx, ids := buildTestIndex()
	return NewService(newMockOrderRepo(), staticCatalog{idx: idx}), ids
}

// -- Tests --

func TestCreateOrder(t *testing.T) {
	svc, _ := newOrderService()
	req := &OrderRequest{
		PatientID:       uuid.New(),
		VisitDate:       time.Now(),
		RequestedTests:  "COMP999, URIC",
		DiscountEnabled: true,
	}
	o, issues, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if issues != nil {
		t.Fatalf("unexpected issues: %+v", issues)
	}
	if o.RequestedTests != "CBC, FBS, URIC" {
		t.Errorf("expected expanded canonical string, got %q", o.RequestedTests)
	}
	if o.FinalTotal != 1039 {
		t.Errorf("expected 1039, got %v", o.FinalTotal)
	}
	if o.Status != "pending" {
		t.Errorf("expected pending status, got %s", o.Status)
	}
}

func TestCreateOrder_PatientIDRequired(t *testing.T) {
	svc, _ := newOrderService()
	_, _, err := svc.CreateOrder(context.Background(), &OrderRequest{RequestedTests: "CBC"})
	if err == nil {
		t.Error("expected error for missing patient id")
	}
}

func TestCreateOrder_MismatchRejected(t *testing.T) {
	svc, ids := newOrderService()
	req := &OrderRequest{
		PatientID:      uuid.New(),
		RequestedTests: "COMP999",
		PackageIDs:     []uuid.UUID{ids["exec1"]},
	}
	o, issues, err := svc.CreateOrder(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o != nil {
		t.Error("expected no order created on mismatch")
	}
	if issues == nil || issues.Mismatch == nil || issues.Mismatch.Kind != "package" {
		t.Fatalf("expected package mismatch, got %+v", issues)
	}
}

func TestCreateOrder_MatchingExplicitIDs(t *testing.T) {
	svc, ids := newOrderService()
	req := &OrderRequest{
		PatientID:      uuid.New(),
		RequestedTests: "COMP999",
		PackageIDs:     []uuid.UUID{ids["comp999"]},
	}
	_, issues, err := svc.CreateOrder(context.Background(), req)
	if err != nil || issues != nil {
		t.Fatalf("expected clean create, got issues=%+v err=%v", issues, err)
	}
}

func TestCreateOrder_AmbiguousNameRejected(t *testing.T) {
	svc, _ := newOrderService()
	req := &OrderRequest{
		PatientID:      uuid.New(),
		RequestedTests: "Executive Panel",
	}
	o, issues, _ := svc.CreateOrder(context.Background(), req)
	if o != nil {
		t.Error("expected no partial order on ambiguity")
	}
	if issues == nil || len(issues.Ambiguous) != 1 {
		t.Fatalf("expected ambiguity issue, got %+v", issues)
	}
}

func TestCreateOrder_UnknownExplicitID(t *testing.T) {
	svc, _ := newOrderService()
	ghost := uuid.New()
	req := &OrderRequest{
		PatientID:      uuid.New(),
		RequestedTests: "CBC",
		TestIDs:        []uuid.UUID{ghost},
	}
	_, issues, _ := svc.CreateOrder(context.Background(), req)
	if issues == nil || len(issues.UnknownIDs) != 1 || issues.UnknownIDs[0] != ghost {
		t.Fatalf("expected unknown id reported, got %+v", issues)
	}
}

func TestCreateOrder_PickerOnlyFallback(t *testing.T) {
	svc, ids := newOrderService()
	req := &OrderRequest{
		PatientID:  uuid.New(),
		PackageIDs: []uuid.UUID{ids["comp999"]},
		TestIDs:    []uuid.UUID{ids["uric"]},
	}
	o, issues, err := svc.CreateOrder(context.Background(), req)
	if err != nil || issues != nil {
		t.Fatalf("unexpected rejection: issues=%+v err=%v", issues, err)
	}
	if o.RequestedTests != "CBC, FBS, URIC" {
		t.Errorf("expected id-derived expansion, got %q", o.RequestedTests)
	}
}

func TestCreateOrder_UnknownTokenPassesThrough(t *testing.T) {
	svc, _ := newOrderService()
	req := &OrderRequest{
		PatientID:      uuid.New(),
		RequestedTests: "CBC, Chest X-ray",
	}
	o, issues, err := svc.CreateOrder(context.Background(), req)
	if err != nil || issues != nil {
		t.Fatalf("unknown tokens are not errors: issues=%+v err=%v", issues, err)
	}
	if o.RequestedTests != "CBC, Chest X-ray" {
		t.Errorf("expected passthrough, got %q", o.RequestedTests)
	}
}

func TestUpdateOrder_ReplacesItemsAndTotalsTogether(t *testing.T) {
	svc, _ := newOrderService()
	req := &OrderRequest{PatientID: uuid.New(), RequestedTests: "COMP999", DiscountEnabled: false}
	o, _, _ := svc.CreateOrder(context.Background(), req)

	updated, issues, err := svc.UpdateOrder(context.Background(), o.ID, &OrderRequest{
		PatientID:      o.PatientID,
		RequestedTests: "URIC",
	})
	if err != nil || issues != nil {
		t.Fatalf("unexpected rejection: issues=%+v err=%v", issues, err)
	}
	if updated.RequestedTests != "URIC" {
		t.Errorf("expected new item set, got %q", updated.RequestedTests)
	}
	if updated.FinalTotal != 50 {
		t.Errorf("expected recomputed total 50, got %v", updated.FinalTotal)
	}
}

func TestSetStatus(t *testing.T) {
	svc, _ := newOrderService()
	o, _, _ := svc.CreateOrder(context.Background(), &OrderRequest{PatientID: uuid.New(), RequestedTests: "CBC"})

	updated, err := svc.SetStatus(context.Background(), o.ID, "completed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != "completed" {
		t.Errorf("expected completed, got %s", updated.Status)
	}
}

func TestSetStatus_Invalid(t *testing.T) {
	svc, _ := newOrderService()
	o, _, _ := svc.CreateOrder(context.Background(), &OrderRequest{PatientID: uuid.New(), RequestedTests: "CBC"})

	if _, err := svc.SetStatus(context.Background(), o.ID, "bogus"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestInTx_PassthroughWithoutConnection(t *testing.T) {
	base := context.Background()
	called := false
	err := inTx(base, func(ctx context.Context) error {
		called = true
		if ctx != base {
			t.Error("expected the original context when no connection is scoped")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected fn to run")
	}
}
