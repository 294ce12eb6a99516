package dormly

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// OtpCodes is durable storage for one-time codes. At most one live row per
// email; callers replace rather than update existing challenges.
type OtpCodes interface {
	GetUnverifiedByEmail(ctx context.Context, email string) (*OtpCode, error)
	GetUnverifiedByEmailTx(ctx context.Context, tx bun.IDB, email string) (*OtpCode, error)
	Create(ctx context.Context, record *OtpCode) (*OtpCode, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *OtpCode) (*OtpCode, error)
	Update(ctx context.Context, record *OtpCode) error
	UpdateTx(ctx context.Context, tx bun.IDB, record *OtpCode) error
	DeleteByEmail(ctx context.Context, email string) error
	DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error
	CountByEmail(ctx context.Context, email string) (int, error)
}

type otpCodes struct {
	db *bun.DB
}

var _ OtpCodes = (*otpCodes)(nil)

func NewOtpCodesRepository(db *bun.DB) OtpCodes {
	return &otpCodes{db: db}
}

func (a *otpCodes) GetUnverifiedByEmail(ctx context.Context, email string) (*OtpCode, error) {
	return a.GetUnverifiedByEmailTx(ctx, a.db, email)
}

// GetUnverifiedByEmailTx excludes already verified challenges: a second
// verify after success reports not-found rather than succeeding twice.
func (a *otpCodes) GetUnverifiedByEmailTx(ctx context.Context, tx bun.IDB, email string) (*OtpCode, error) {
	record := &OtpCode{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Where("?TableAlias.is_verified = ?", false).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *otpCodes) Create(ctx context.Context, record *OtpCode) (*OtpCode, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *otpCodes) CreateTx(ctx context.Context, tx bun.IDB, record *OtpCode) (*OtpCode, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := tx.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *otpCodes) Update(ctx context.Context, record *OtpCode) error {
	return a.UpdateTx(ctx, a.db, record)
}

func (a *otpCodes) UpdateTx(ctx context.Context, tx bun.IDB, record *OtpCode) error {
	_, err := tx.NewUpdate().
		Model(record).
		Column("attempts", "is_verified").
		Where("id = ?", record.ID).
		Exec(ctx)
	return err
}

func (a *otpCodes) DeleteByEmail(ctx context.Context, email string) error {
	return a.DeleteByEmailTx(ctx, a.db, email)
}

func (a *otpCodes) DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) error {
	_, err := tx.NewDelete().
		Model((*OtpCode)(nil)).
		Where("email = ?", email).
		Exec(ctx)
	return err
}

func (a *otpCodes) CountByEmail(ctx context.Context, email string) (int, error) {
	return a.db.NewSelect().
		Model((*OtpCode)(nil)).
		Where("email = ?", email).
		Count(ctx)
}
