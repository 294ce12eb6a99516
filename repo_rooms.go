package dormly

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Rooms is per-user room storage. Every lookup and mutation is scoped by
// owner id, so one user can never read or touch another user's rooms.
type Rooms interface {
	GetByID(ctx context.Context, userID, roomID int64) (*Room, error)
	ListByUser(ctx context.Context, userID int64) ([]*Room, error)
	Create(ctx context.Context, record *Room) (*Room, error)
	Update(ctx context.Context, record *Room) (*Room, error)
	Delete(ctx context.Context, userID, roomID int64) error
}

type rooms struct {
	db *bun.DB
}

var _ Rooms = (*rooms)(nil)

func NewRoomsRepository(db *bun.DB) Rooms {
	return &rooms{db: db}
}

func (a *rooms) GetByID(ctx context.Context, userID, roomID int64) (*Room, error) {
	record := &Room{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", roomID).
		Where("?TableAlias.user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *rooms) ListByUser(ctx context.Context, userID int64) ([]*Room, error) {
	var records []*Room
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

func (a *rooms) Create(ctx context.Context, record *Room) (*Room, error) {
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

func (a *rooms) Update(ctx context.Context, record *Room) (*Room, error) {
	record.UpdatedAt = time.Now()

	res, err := a.db.NewUpdate().
		Model(record).
		Column("name", "length_cm", "width_cm", "height_cm", "window_count", "door_count", "notes", "updated_at").
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

// Delete removes the room along with every asset assigned to it.
func (a *rooms) Delete(ctx context.Context, userID, roomID int64) error {
	if _, err := a.db.NewDelete().
		Model((*Asset)(nil)).
		Where("room_id = ?", roomID).
		Where("user_id = ?", userID).
		Exec(ctx); err != nil {
		return err
	}

	res, err := a.db.NewDelete().
		Model((*Room)(nil)).
		Where("id = ?", roomID).
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
