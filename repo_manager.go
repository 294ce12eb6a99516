package dormly

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories plus the unit-of-work entry
// point. The database is the only synchronization point between requests;
// every multi-step mutation runs through RunInTx.
type RepositoryManager interface {
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	PendingUsers() PendingUsers
	OtpCodes() OtpCodes
	PasswordResets() PasswordResets
	Rooms() Rooms
	Assets() Assets
	AssetCategories() AssetCategories
	Validate() error
	MustValidate()
}

type mngr struct {
	db             *bun.DB
	users          Users
	pendingUsers   PendingUsers
	otpCodes       OtpCodes
	passwordResets PasswordResets
	rooms          Rooms
	assets         Assets
	categories     AssetCategories
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:             db,
		users:          NewUsersRepository(db),
		pendingUsers:   NewPendingUsersRepository(db),
		otpCodes:       NewOtpCodesRepository(db),
		passwordResets: NewPasswordResetsRepository(db),
		rooms:          NewRoomsRepository(db),
		assets:         NewAssetsRepository(db),
		categories:     NewAssetCategoriesRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.pendingUsers == nil {
		return errors.New("repository pendingUsers should be initialized")
	}

	if m.otpCodes == nil {
		return errors.New("repository otpCodes should be initialized")
	}

	if m.passwordResets == nil {
		return errors.New("repository passwordResets should be initialized")
	}

	if m.rooms == nil {
		return errors.New("repository rooms should be initialized")
	}

	if m.assets == nil {
		return errors.New("repository assets should be initialized")
	}

	if m.categories == nil {
		return errors.New("repository assetCategories should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users                     { return m.users }
func (m mngr) PendingUsers() PendingUsers       { return m.pendingUsers }
func (m mngr) OtpCodes() OtpCodes               { return m.otpCodes }
func (m mngr) PasswordResets() PasswordResets   { return m.passwordResets }
func (m mngr) Rooms() Rooms                     { return m.rooms }
func (m mngr) Assets() Assets                   { return m.assets }
func (m mngr) AssetCategories() AssetCategories { return m.categories }

// IsRecordNotFound reports whether err is the driver's empty-result error.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// errNoRowsUpdated marks updates that matched nothing; it satisfies
// IsRecordNotFound so callers treat it like a missing record.
var errNoRowsUpdated = sql.ErrNoRows
