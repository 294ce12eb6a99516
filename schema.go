package dormly

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenDB opens a sqlite-backed bun handle. DSNs like
// "file::memory:?cache=shared" give an in-process database for tests and
// local runs.
func OpenDB(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	// in-memory sqlite loses the database when the last conn closes
	sqldb.SetMaxIdleConns(1000)
	sqldb.SetConnMaxLifetime(0)

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func allModels() []any {
	return []any{
		(*User)(nil),
		(*PendingUser)(nil),
		(*OtpCode)(nil),
		(*PasswordResetToken)(nil),
		(*Room)(nil),
		(*Asset)(nil),
		(*AssetCategory)(nil),
	}
}

// defaultAssetCategories populates the shared catalog on first boot so the
// asset-categories listing is never empty on a fresh database.
var defaultAssetCategories = []string{"Appliances", "Electronics", "Furniture"}

// SeedAssetCategories inserts the default catalog entries. It is a no-op
// when the table already has rows, so repeated boots do not duplicate them.
func SeedAssetCategories(ctx context.Context, db *bun.DB) error {
	count, err := db.NewSelect().Model((*AssetCategory)(nil)).Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	records := make([]*AssetCategory, 0, len(defaultAssetCategories))
	for _, name := range defaultAssetCategories {
		records = append(records, &AssetCategory{Name: name})
	}

	_, err = db.NewInsert().Model(&records).Exec(ctx)
	return err
}

// CreateSchema creates all tables if they do not exist. The unique email
// constraints declared on the models are the backstop for the
// one-live-row-per-email invariants.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range allModels() {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ResetSchema drops and recreates all tables. Test helper; never call it
// against data you care about.
func ResetSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range allModels() {
		if err := db.ResetModel(ctx, model); err != nil {
			return err
		}
	}
	return nil
}
