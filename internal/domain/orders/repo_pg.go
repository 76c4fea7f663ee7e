package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbase/labd/internal/platform/db"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type orderRepoPG struct{ pool *pgxpool.Pool }

func NewOrderRepoPG(pool *pgxpool.Pool) OrderRepository {
	return &orderRepoPG{pool: pool}
}

// conn prefers the request's transaction, then its tenant-scoped
// connection, and only then the bare pool.
func (r *orderRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const orderCols = `id, patient_id, visit_date, requested_tests, status,
	package_total, test_total, manual_add, discount_enabled, discount_amount, final_total,
	notes, created_at, updated_at`

func (r *orderRepoPG) scanRow(row pgx.Row) (*LabOrder, error) {
	var o LabOrder
	err := row.Scan(&o.ID, &o.PatientID, &o.VisitDate, &o.RequestedTests, &o.Status,
		&o.PackageTotal, &o.TestTotal, &o.ManualAdd, &o.DiscountEnabled, &o.DiscountAmount, &o.FinalTotal,
		&o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return &o, err
}

func (r *orderRepoPG) Create(ctx context.Context, o *LabOrder) error {
	o.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_order (id, patient_id, visit_date, requested_tests, status,
			package_total, test_total, manual_add, discount_enabled, discount_amount, final_total, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		o.ID, o.PatientID, o.VisitDate, o.RequestedTests, o.Status,
		o.PackageTotal, o.TestTotal, o.ManualAdd, o.DiscountEnabled, o.DiscountAmount, o.FinalTotal, o.Notes)
	return err
}

func (r *orderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabOrder, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+orderCols+` FROM lab_order WHERE id = $1`, id))
}

// Update replaces the requested-tests string and every computed figure in a
// single statement so totals and items stay consistent for readers.
func (r *orderRepoPG) Update(ctx context.Context, o *LabOrder) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_order SET patient_id=$2, visit_date=$3, requested_tests=$4, status=$5,
			package_total=$6, test_total=$7, manual_add=$8, discount_enabled=$9,
			discount_amount=$10, final_total=$11, notes=$12, updated_at=NOW()
		WHERE id = $1`,
		o.ID, o.PatientID, o.VisitDate, o.RequestedTests, o.Status,
		o.PackageTotal, o.TestTotal, o.ManualAdd, o.DiscountEnabled,
		o.DiscountAmount, o.FinalTotal, o.Notes)
	return err
}

func (r *orderRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_order WHERE id = $1`, id)
	return err
}

func (r *orderRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*LabOrder, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_order WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+orderCols+` FROM lab_order WHERE patient_id = $1
		ORDER BY visit_date DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabOrder
	for rows.Next() {
		o, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}

func (r *orderRepoPG) List(ctx context.Context, limit, offset int) ([]*LabOrder, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_order`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+orderCols+` FROM lab_order
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabOrder
	for rows.Next() {
		o, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, o)
	}
	return items, total, rows.Err()
}
