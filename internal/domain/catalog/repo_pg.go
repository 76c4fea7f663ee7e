package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbase/labd/internal/platform/db"
)

// querier is satisfied by the pool, a tenant-scoped connection, and an
// open transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type testRepoPG struct{ pool *pgxpool.Pool }

func NewTestRepoPG(pool *pgxpool.Pool) TestRepository {
	return &testRepoPG{pool: pool}
}

// conn prefers the request's transaction, then its tenant-scoped
// connection, and only then the bare pool. Queries off the scoped
// connection would escape the tenant's search_path.
func (r *testRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const testCols = `id, code, display_name, default_price, is_active, created_at, updated_at`

func (r *testRepoPG) scanRow(row pgx.Row) (*LabTest, error) {
	var t LabTest
	err := row.Scan(&t.ID, &t.Code, &t.DisplayName, &t.DefaultPrice, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *testRepoPG) Create(ctx context.Context, t *LabTest) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_test (id, code, display_name, default_price, is_active)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.Code, t.DisplayName, t.DefaultPrice, t.IsActive)
	return err
}

func (r *testRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+testCols+` FROM lab_test WHERE id = $1`, id))
}

func (r *testRepoPG) Update(ctx context.Context, t *LabTest) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_test SET code=$2, display_name=$3, default_price=$4, is_active=$5, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Code, t.DisplayName, t.DefaultPrice, t.IsActive)
	return err
}

func (r *testRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_test WHERE id = $1`, id)
	return err
}

func (r *testRepoPG) List(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_test`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+testCols+` FROM lab_test ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabTest
	for rows.Next() {
		t, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *testRepoPG) ListAll(ctx context.Context) ([]*LabTest, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+testCols+` FROM lab_test ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LabTest
	for rows.Next() {
		t, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

type packageRepoPG struct{ pool *pgxpool.Pool }

func NewPackageRepoPG(pool *pgxpool.Pool) PackageRepository {
	return &packageRepoPG{pool: pool}
}

func (r *packageRepoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const packageCols = `id, code, display_name, package_price, created_at, updated_at`

func (r *packageRepoPG) scanRow(row pgx.Row) (*LabPackage, error) {
	var p LabPackage
	err := row.Scan(&p.ID, &p.Code, &p.DisplayName, &p.PackagePrice, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func (r *packageRepoPG) Create(ctx context.Context, p *LabPackage) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_package (id, code, display_name, package_price)
		VALUES ($1,$2,$3,$4)`,
		p.ID, p.Code, p.DisplayName, p.PackagePrice)
	return err
}

func (r *packageRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*LabPackage, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+packageCols+` FROM lab_package WHERE id = $1`, id))
}

func (r *packageRepoPG) Update(ctx context.Context, p *LabPackage) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_package SET code=$2, display_name=$3, package_price=$4, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Code, p.DisplayName, p.PackagePrice)
	return err
}

func (r *packageRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_package WHERE id = $1`, id)
	return err
}

func (r *packageRepoPG) List(ctx context.Context, limit, offset int) ([]*LabPackage, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_package`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+packageCols+` FROM lab_package ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*LabPackage
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *packageRepoPG) ListAll(ctx context.Context) ([]*LabPackage, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+packageCols+` FROM lab_package ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LabPackage
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const itemCols = `package_id, test_id, package_code, test_code, position`

func (r *packageRepoPG) scanItem(row pgx.Row) (*PackageItem, error) {
	var it PackageItem
	err := row.Scan(&it.PackageID, &it.TestID, &it.PackageCode, &it.TestCode, &it.Position)
	return &it, err
}

func (r *packageRepoPG) AddItem(ctx context.Context, item *PackageItem) error {
	if item.Position == 0 {
		// Append after the current last member.
		_ = r.conn(ctx).QueryRow(ctx,
			`SELECT COALESCE(MAX(position), 0) + 1 FROM lab_package_item WHERE package_id = $1`,
			item.PackageID).Scan(&item.Position)
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_package_item (package_id, test_id, package_code, test_code, position)
		VALUES ($1,$2,$3,$4,$5)`,
		item.PackageID, item.TestID, item.PackageCode, item.TestCode, item.Position)
	return err
}

func (r *packageRepoPG) RemoveItem(ctx context.Context, packageID, testID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM lab_package_item WHERE package_id = $1 AND test_id = $2`, packageID, testID)
	return err
}

func (r *packageRepoPG) GetItems(ctx context.Context, packageID uuid.UUID) ([]*PackageItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM lab_package_item WHERE package_id = $1 ORDER BY position`, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PackageItem
	for rows.Next() {
		it, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *packageRepoPG) ListAllItems(ctx context.Context) ([]*PackageItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM lab_package_item ORDER BY package_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PackageItem
	for rows.Next() {
		it, err := r.scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
