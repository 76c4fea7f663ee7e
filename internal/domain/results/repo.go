package results

import (
	"context"

	"github.com/google/uuid"
)

type RangeRepository interface {
	Create(ctx context.Context, m *RangeMeta) error
	GetByID(ctx context.Context, id uuid.UUID) (*RangeMeta, error)
	Update(ctx context.Context, m *RangeMeta) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*RangeMeta, int, error)
	ListAll(ctx context.Context) ([]*RangeMeta, error)
}

type RowRepository interface {
	Create(ctx context.Context, r *ResultRow) error
	GetByID(ctx context.Context, id uuid.UUID) (*ResultRow, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*ResultRow, error)
	Update(ctx context.Context, r *ResultRow) error
	Delete(ctx context.Context, id uuid.UUID) error
}
