package dormly

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// AssetCategories is the shared asset-kind catalog. It is read-mostly:
// List serves clients, Create exists for seeding and admin tooling.
type AssetCategories interface {
	List(ctx context.Context) ([]*AssetCategory, error)
	Create(ctx context.Context, record *AssetCategory) (*AssetCategory, error)
}

type assetCategories struct {
	db *bun.DB
}

var _ AssetCategories = (*assetCategories)(nil)

func NewAssetCategoriesRepository(db *bun.DB) AssetCategories {
	return &assetCategories{db: db}
}

func (a *assetCategories) List(ctx context.Context) ([]*AssetCategory, error) {
	var records []*AssetCategory
	err := a.db.NewSelect().
		Model(&records).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *assetCategories) Create(ctx context.Context, record *AssetCategory) (*AssetCategory, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := a.db.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}
