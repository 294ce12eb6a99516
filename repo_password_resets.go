package dormly

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// PasswordResets is durable storage for single-use reset tokens. One live
// token per email; verification marks the row used instead of deleting it
// so a replayed token fails loudly.
type PasswordResets interface {
	GetUnused(ctx context.Context, email, token string) (*PasswordResetToken, error)
	GetUnusedTx(ctx context.Context, tx bun.IDB, email, token string) (*PasswordResetToken, error)
	Create(ctx context.Context, record *PasswordResetToken) (*PasswordResetToken, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *PasswordResetToken) (*PasswordResetToken, error)
	MarkUsed(ctx context.Context, id int64) error
	MarkUsedTx(ctx context.Context, tx bun.IDB, id int64) error
	DeleteByEmail(ctx context.Context, email string) error
	DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error
	DeleteExpiredOrUsed(ctx context.Context, email string, now time.Time) error
	DeleteExpiredOrUsedTx(ctx context.Context, tx bun.IDB, email string, now time.Time) error
	CountByEmail(ctx context.Context, email string) (int, error)
}

type passwordResets struct {
	db *bun.DB
}

var _ PasswordResets = (*passwordResets)(nil)

func NewPasswordResetsRepository(db *bun.DB) PasswordResets {
	return &passwordResets{db: db}
}

func (a *passwordResets) GetUnused(ctx context.Context, email, token string) (*PasswordResetToken, error) {
	return a.GetUnusedTx(ctx, a.db, email, token)
}

func (a *passwordResets) GetUnusedTx(ctx context.Context, tx bun.IDB, email, token string) (*PasswordResetToken, error) {
	record := &PasswordResetToken{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.is_used = ?", false).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *passwordResets) Create(ctx context.Context, record *PasswordResetToken) (*PasswordResetToken, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *passwordResets) CreateTx(ctx context.Context, tx bun.IDB, record *PasswordResetToken) (*PasswordResetToken, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := tx.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *passwordResets) MarkUsed(ctx context.Context, id int64) error {
	return a.MarkUsedTx(ctx, a.db, id)
}

func (a *passwordResets) MarkUsedTx(ctx context.Context, tx bun.IDB, id int64) error {
	res, err := tx.NewUpdate().
		Model((*PasswordResetToken)(nil)).
		Set("is_used = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errNoRowsUpdated
	}

	return nil
}

func (a *passwordResets) DeleteByEmail(ctx context.Context, email string) error {
	return a.DeleteByEmailTx(ctx, a.db, email)
}

func (a *passwordResets) DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error {
	_, err := tx.NewDelete().
		Model((*PasswordResetToken)(nil)).
		Where("email = ?", email).
		Exec(ctx)
	return err
}

func (a *passwordResets) DeleteExpiredOrUsed(ctx context.Context, email string, now time.Time) error {
	return a.DeleteExpiredOrUsedTx(ctx, a.db, email, now)
}

func (a *passwordResets) DeleteExpiredOrUsedTx(ctx context.Context, tx bun.IDB, email string, now time.Time) error {
	_, err := tx.NewDelete().
		Model((*PasswordResetToken)(nil)).
		Where("email = ?", email).
		WhereGroup(" AND ", func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.Where("expires_at < ?", now).WhereOr("is_used = ?", true)
		}).
		Exec(ctx)
	return err
}

func (a *passwordResets) CountByEmail(ctx context.Context, email string) (int, error) {
	return a.db.NewSelect().
		Model((*PasswordResetToken)(nil)).
		Where("email = ?", email).
		Count(ctx)
}
