package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	tests    TestRepository
	packages PackageRepository
}

func NewService(tests TestRepository, packages PackageRepository) *Service {
	return &Service{tests: tests, packages: packages}
}

func (s *Service) CreateTest(ctx context.Context, t *LabTest) error {
	if strings.TrimSpace(t.Code) == "" {
		return fmt.Errorf("code is required")
	}
	if strings.TrimSpace(t.DisplayName) == "" {
		return fmt.Errorf("display_name is required")
	}
	if t.DefaultPrice < 0 {
		return fmt.Errorf("default_price must not be negative")
	}
	t.Code = Normalize(t.Code)
	return s.tests.Create(ctx, t)
}

func (s *Service) GetTest(ctx context.Context, id uuid.UUID) (*LabTest, error) {
	return s.tests.GetByID(ctx, id)
}

func (s *Service) UpdateTest(ctx context.Context, t *LabTest) error {
	if strings.TrimSpace(t.Code) == "" {
		return fmt.Errorf("code is required")
	}
	if t.DefaultPrice < 0 {
		return fmt.Errorf("default_price must not be negative")
	}
	t.Code = Normalize(t.Code)
	return s.tests.Update(ctx, t)
}

func (s *Service) DeleteTest(ctx context.Context, id uuid.UUID) error {
	return s.tests.Delete(ctx, id)
}

func (s *Service) ListTests(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	return s.tests.List(ctx, limit, offset)
}

func (s *Service) CreatePackage(ctx context.Context, p *LabPackage) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("code is required")
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("display_name is required")
	}
	if p.PackagePrice < 0 {
		return fmt.Errorf("package_price must not be negative")
	}
	p.Code = Normalize(p.Code)
	return s.packages.Create(ctx, p)
}

func (s *Service) GetPackage(ctx context.Context, id uuid.UUID) (*LabPackage, error) {
	return s.packages.GetByID(ctx, id)
}

func (s *Service) UpdatePackage(ctx context.Context, p *LabPackage) error {
	if strings.TrimSpace(p.Code) == "" {
		return fmt.Errorf("code is required")
	}
	if p.PackagePrice < 0 {
		return fmt.Errorf("package_price must not be negative")
	}
	p.Code = Normalize(p.Code)
	return s.packages.Update(ctx, p)
}

func (s *Service) DeletePackage(ctx context.Context, id uuid.UUID) error {
	return s.packages.Delete(ctx, id)
}

func (s *Service) ListPackages(ctx context.Context, limit, offset int) ([]*LabPackage, int, error) {
	return s.packages.List(ctx, limit, offset)
}

func (s *Service) AddPackageItem(ctx context.Context, item *PackageItem) error {
	if item.PackageID == uuid.Nil {
		return fmt.Errorf("package_id is required")
	}
	if item.TestID == uuid.Nil {
		return fmt.Errorf("test_id is required")
	}
	if _, err := s.tests.GetByID(ctx, item.TestID); err != nil {
		return fmt.Errorf("test %s not found", item.TestID)
	}
	return s.packages.AddItem(ctx, item)
}

func (s *Service) RemovePackageItem(ctx context.Context, packageID, testID uuid.UUID) error {
	return s.packages.RemoveItem(ctx, packageID, testID)
}

func (s *Service) GetPackageItems(ctx context.Context, packageID uuid.UUID) ([]*PackageItem, error) {
	return s.packages.GetItems(ctx, packageID)
}

// Index loads the full catalog and builds a fresh Index. Callers hold the
// returned value for the duration of one request only.
func (s *Service) Index(ctx context.Context) (*Index, error) {
	tests, err := s.tests.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tests: %w", err)
	}
	packages, err := s.packages.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	items, err := s.packages.ListAllItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load package items: %w", err)
	}
	return BuildIndex(tests, packages, items), nil
}
