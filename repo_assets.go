package dormly

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Assets is per-user asset storage. Mutations are scoped by owner id, and
// creating or moving an asset requires the target room to belong to the
// same user.
type Assets interface {
	GetByID(ctx context.Context, userID, assetID int64) (*Asset, error)
	ListByUser(ctx context.Context, userID int64) ([]*Asset, error)
	ListByRoom(ctx context.Context, userID, roomID int64) ([]*Asset, error)
	Create(ctx context.Context, record *Asset) (*Asset, error)
	Update(ctx context.Context, record *Asset) (*Asset, error)
	Delete(ctx context.Context, userID, assetID int64) error
}

type assets struct {
	db *bun.DB
}

var _ Assets = (*assets)(nil)

func NewAssetsRepository(db *bun.DB) Assets {
	return &assets{db: db}
}

func (a *assets) GetByID(ctx context.Context, userID, assetID int64) (*Asset, error) {
	record := &Asset{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", assetID).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *assets) ListByUser(ctx context.Context, userID int64) ([]*Asset, error) {
	var records []*Asset
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *assets) ListByRoom(ctx context.Context, userID, roomID int64) ([]*Asset, error) {
	var records []*Asset
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.room_id = ?", roomID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *assets) Create(ctx context.Context, record *Asset) (*Asset, error) {
	if err := a.ensureRoomOwned(ctx, record.UserID, record.RoomID); err != nil {
		return nil, err
	}

	now := time.Now()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	_, err := a.db.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *assets) Update(ctx context.Context, record *Asset) (*Asset, error) {
	if err := a.ensureRoomOwned(ctx, record.UserID, record.RoomID); err != nil {
		return nil, err
	}

	record.UpdatedAt = time.Now()

	res, err := a.db.NewUpdate().
		Model(record).
		Column(
			"room_id", "name", "category", "photo_url",
			"length_cm", "width_cm", "height_cm",
			"clearance_front_cm", "clearance_sides_cm", "clearance_back_cm",
			"must_be_near_wall", "must_be_near_window", "must_be_near_outlet",
			"can_rotate", "condition", "purchase_date", "purchase_price",
			"notes", "updated_at",
		).
		Where("id = ?", record.ID).
		Where("user_id = ?", record.UserID).
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, errNoRowsUpdated
	}

	return record, nil
}

func (a *assets) Delete(ctx context.Context, userID, assetID int64) error {
	res, err := a.db.NewDelete().
		Model((*Asset)(nil)).
		Where("id = ?", assetID).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errNoRowsUpdated
	}

	return nil
}

func (a *assets) ensureRoomOwned(ctx context.Context, userID, roomID int64) error {
	exists, err := a.db.NewSelect().
		Model((*Room)(nil)).
		Where("id = ?", roomID).
		Where("user_id = ?", userID).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return errNoRowsUpdated
	}
	return nil
}
