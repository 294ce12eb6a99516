package dormly

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// PendingUsers is durable storage for unconfirmed sign-ups. Deleting a
// pending row cascades to its OTP rows, keeping the challenge table free
// of orphans.
type PendingUsers interface {
	GetByEmail(ctx context.Context, email string) (*PendingUser, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*PendingUser, error)
	Create(ctx context.Context, record *PendingUser) (*PendingUser, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *PendingUser) (*PendingUser, error)
	DeleteByEmail(ctx context.Context, email string) error
	DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error
}

type pendingUsers struct {
	db *bun.DB
}

var _ PendingUsers = (*pendingUsers)(nil)

func NewPendingUsersRepository(db *bun.DB) PendingUsers {
	return &pendingUsers{db: db}
}

func (a *pendingUsers) GetByEmail(ctx context.Context, email string) (*PendingUser, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *pendingUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*PendingUser, error) {
	record := &PendingUser{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *pendingUsers) Create(ctx context.Context, record *PendingUser) (*PendingUser, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *pendingUsers) CreateTx(ctx context.Context, tx bun.IDB, record *PendingUser) (*PendingUser, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := tx.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *pendingUsers) DeleteByEmail(ctx context.Context, email string) error {
	return a.DeleteByEmailTx(ctx, a.db, email)
}

func (a *pendingUsers) DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error {
	// cascade: challenges are owned by the pending registration
	if _, err := tx.NewDelete().
		Model((*OtpCode)(nil)).
		Where("email = ?", email).
		Exec(ctx); err != nil {
		return err
	}

	_, err := tx.NewDelete().
		Model((*PendingUser)(nil)).
		Where("email = ?", email).
		Exec(ctx)
	return err
}
