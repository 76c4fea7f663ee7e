package catalog

import (
	"context"

	"github.com/google/uuid"
)

type TestRepository interface {
	Create(ctx context.Context, t *LabTest) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabTest, error)
	Update(ctx context.Context, t *LabTest) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*LabTest, int, error)
	ListAll(ctx context.Context) ([]*LabTest, error)
}

type PackageRepository interface {
	Create(ctx context.Context, p *LabPackage) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabPackage, error)
	Update(ctx context.Context, p *LabPackage) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*LabPackage, int, error)
	ListAll(ctx context.Context) ([]*LabPackage, error)
	// Items
	AddItem(ctx context.Context, item *PackageItem) error
	RemoveItem(ctx context.Context, packageID, testID uuid.UUID) error
	GetItems(ctx context.Context, packageID uuid.UUID) ([]*PackageItem, error)
	ListAllItems(ctx context.Context) ([]*PackageItem, error)
}
