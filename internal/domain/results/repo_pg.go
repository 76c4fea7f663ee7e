package results

import (
	"context"
	"encoding/json"

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

type rangeRepoPG struct{ pool *pgxpool.Pool }

func NewRangeRepoPG(pool *pgxpool.Pool) RangeRepository {
	return &rangeRepoPG{pool: pool}
}

// conn prefers the request's transaction, then its tenant-scoped
// connection, and only then the bare pool.
func (r *rangeRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const rangeCols = `id, analyte_key, label, section, unit, type, decimals, sex,
	low, high, normal_values, age_min, age_max, created_at, updated_at`

func (r *rangeRepoPG) scanRow(row pgx.Row) (*RangeMeta, error) {
	var m RangeMeta
	err := row.Scan(&m.ID, &m.AnalyteKey, &m.Label, &m.Section, &m.Unit, &m.Type, &m.Decimals, &m.Sex,
		&m.Low, &m.High, &m.NormalValues, &m.AgeMin, &m.AgeMax, &m.CreatedAt, &m.UpdatedAt)
	return &m, err
}

func (r *rangeRepoPG) Create(ctx context.Context, m *RangeMeta) error {
	m.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_reference_range (id, analyte_key, label, section, unit, type, decimals, sex,
			low, high, normal_values, age_min, age_max)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		m.ID, m.AnalyteKey, m.Label, m.Section, m.Unit, m.Type, m.Decimals, m.Sex,
		m.Low, m.High, m.NormalValues, m.AgeMin, m.AgeMax)
	return err
}

func (r *rangeRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*RangeMeta, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+rangeCols+` FROM lab_reference_range WHERE id = $1`, id))
}

func (r *rangeRepoPG) Update(ctx context.Context, m *RangeMeta) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_reference_range SET analyte_key=$2, label=$3, section=$4, unit=$5, type=$6,
			decimals=$7, sex=$8, low=$9, high=$10, normal_values=$11, age_min=$12, age_max=$13,
			updated_at=NOW()
		WHERE id = $1`,
		m.ID, m.AnalyteKey, m.Label, m.Section, m.Unit, m.Type,
		m.Decimals, m.Sex, m.Low, m.High, m.NormalValues, m.AgeMin, m.AgeMax)
	return err
}

func (r *rangeRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_reference_range WHERE id = $1`, id)
	return err
}

func (r *rangeRepoPG) List(ctx context.Context, limit, offset int) ([]*RangeMeta, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_reference_range`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rangeCols+` FROM lab_reference_range
		ORDER BY analyte_key, created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*RangeMeta
	for rows.Next() {
		m, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, m)
	}
	return items, total, rows.Err()
}

func (r *rangeRepoPG) ListAll(ctx context.Context) ([]*RangeMeta, error) {
	// created_at order keeps "first row for a key" deterministic for the
	// tie-break's final fallback.
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+rangeCols+` FROM lab_reference_range ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*RangeMeta
	for rows.Next() {
		m, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

type rowRepoPG struct{ pool *pgxpool.Pool }

func NewRowRepoPG(pool *pgxpool.Pool) RowRepository {
	return &rowRepoPG{pool: pool}
}

func (r *rowRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const rowCols = `id, order_id, patient_id, row_values, created_at, updated_at`

func (r *rowRepoPG) scanRow(row pgx.Row) (*ResultRow, error) {
	var rr ResultRow
	var raw []byte
	if err := row.Scan(&rr.ID, &rr.OrderID, &rr.PatientID, &raw, &rr.CreatedAt, &rr.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &rr.Values); err != nil {
		return nil, err
	}
	return &rr, nil
}

func (r *rowRepoPG) Create(ctx context.Context, rr *ResultRow) error {
	rr.ID = uuid.New()
	raw, err := json.Marshal(rr.Values)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_result_row (id, order_id, patient_id, row_values)
		VALUES ($1,$2,$3,$4)`,
		rr.ID, rr.OrderID, rr.PatientID, raw)
	return err
}

func (r *rowRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ResultRow, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+rowCols+` FROM lab_result_row WHERE id = $1`, id))
}

func (r *rowRepoPG) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*ResultRow, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+rowCols+` FROM lab_result_row WHERE order_id = $1`, orderID))
}

func (r *rowRepoPG) Update(ctx context.Context, rr *ResultRow) error {
	raw, err := json.Marshal(rr.Values)
	if err != nil {
		return err
	}
	_, err = r.conn(ctx).Exec(ctx, `
		UPDATE lab_result_row SET order_id=$2, patient_id=$3, row_values=$4, updated_at=NOW()
		WHERE id = $1`,
		rr.ID, rr.OrderID, rr.PatientID, raw)
	return err
}

func (r *rowRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_result_row WHERE id = $1`, id)
	return err
}
