package dormly

import (
	"time"

	"github.com/uptrace/bun"
)

// User is a confirmed account, the sole source of truth for login.
// Rows are only ever created by Activate after a successful OTP check.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email,omitempty"`
	Username      string    `bun:"username" json:"username,omitempty"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	Confirmed     bool      `bun:"is_confirmed" json:"is_confirmed,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// PendingUser is an unconfirmed sign-up awaiting OTP verification. At most
// one row per email exists at any time; a repeat registration replaces it.
type PendingUser struct {
	bun.BaseModel `bun:"table:pending_users,alias:pnd"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email,omitempty"`
	Username      string    `bun:"username,notnull" json:"username,omitempty"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
}

// Expired reports whether the registration window has closed.
func (p *PendingUser) Expired(now time.Time) bool {
	return p.ExpiresAt.Before(now)
}

// OtpCode is a one-time code bound to a pending registration by email.
// Generating a new code deletes any previous row for the same email.
type OtpCode struct {
	bun.BaseModel `bun:"table:otp_codes,alias:otp"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email,omitempty"`
	Code          string    `bun:"otp_code,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	Verified      bool      `bun:"is_verified" json:"is_verified,omitempty"`
	Attempts      int       `bun:"attempts" json:"attempts,omitempty"`
	MaxAttempts   int       `bun:"max_attempts" json:"max_attempts,omitempty"`
}

// Expired reports whether the code is past its TTL.
func (o *OtpCode) Expired(now time.Time) bool {
	return o.ExpiresAt.Before(now)
}

// RemainingAttempts returns how many wrong submissions are still allowed.
func (o *OtpCode) RemainingAttempts() int {
	if n := o.MaxAttempts - o.Attempts; n > 0 {
		return n
	}
	return 0
}

// PasswordResetToken is a single-use, time-boxed code authorizing one
// password change for a confirmed account. Superseded on each new request,
// marked used (not deleted) on successful verification.
type PasswordResetToken struct {
	bun.BaseModel `bun:"table:password_reset_tokens,alias:prt"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Email         string    `bun:"email,notnull,unique" json:"email,omitempty"`
	Token         string    `bun:"token,notnull" json:"-"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
	Used          bool      `bun:"is_used" json:"is_used,omitempty"`
}

// Expired reports whether the token is past its TTL.
func (t *PasswordResetToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// Room is a user-owned room that assets are placed in.
type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:rm"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	UserID        int64     `bun:"user_id,notnull" json:"user_id,omitempty"`
	Name          string    `bun:"name,notnull" json:"name,omitempty"`
	LengthCm      int       `bun:"length_cm" json:"length_cm,omitempty"`
	WidthCm       int       `bun:"width_cm" json:"width_cm,omitempty"`
	HeightCm      int       `bun:"height_cm" json:"height_cm,omitempty"`
	WindowCount   int       `bun:"window_count" json:"window_count,omitempty"`
	DoorCount     int       `bun:"door_count" json:"door_count,omitempty"`
	Notes         string    `bun:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Asset is a user-owned physical item assigned to one of the user's rooms.
type Asset struct {
	bun.BaseModel    `bun:"table:assets,alias:ast"`
	ID               int64      `bun:"id,pk,autoincrement" json:"id,omitempty"`
	RoomID           int64      `bun:"room_id,notnull" json:"room_id,omitempty"`
	UserID           int64      `bun:"user_id,notnull" json:"user_id,omitempty"`
	Name             string     `bun:"name,notnull" json:"name,omitempty"`
	Category         string     `bun:"category" json:"category,omitempty"`
	PhotoURL         string     `bun:"photo_url" json:"photo_url,omitempty"`
	LengthCm         int        `bun:"length_cm" json:"length_cm,omitempty"`
	WidthCm          int        `bun:"width_cm" json:"width_cm,omitempty"`
	HeightCm         int        `bun:"height_cm" json:"height_cm,omitempty"`
	ClearanceFrontCm int        `bun:"clearance_front_cm" json:"clearance_front_cm,omitempty"`
	ClearanceSidesCm int        `bun:"clearance_sides_cm" json:"clearance_sides_cm,omitempty"`
	ClearanceBackCm  int        `bun:"clearance_back_cm" json:"clearance_back_cm,omitempty"`
	MustBeNearWall   bool       `bun:"must_be_near_wall" json:"must_be_near_wall,omitempty"`
	MustBeNearWindow bool       `bun:"must_be_near_window" json:"must_be_near_window,omitempty"`
	MustBeNearOutlet bool       `bun:"must_be_near_outlet" json:"must_be_near_outlet,omitempty"`
	CanRotate        bool       `bun:"can_rotate" json:"can_rotate,omitempty"`
	Condition        string     `bun:"condition" json:"condition,omitempty"`
	PurchaseDate     *time.Time `bun:"purchase_date,nullzero" json:"purchase_date,omitempty"`
	PurchasePrice    float64    `bun:"purchase_price" json:"purchase_price,omitempty"`
	Notes            string     `bun:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// AssetCategory is an entry in the shared asset-kind catalog. Rows are not
// scoped to a user; clients read the list to label their assets.
type AssetCategory struct {
	bun.BaseModel `bun:"table:asset_categories,alias:cat"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name          string    `bun:"name,notnull,unique" json:"name,omitempty"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
