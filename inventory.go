package dormly

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// RoomInput is the mutable subset of a room accepted from clients.
type RoomInput struct {
	Name        string `json:"name"`
	LengthCm    int    `json:"length_cm"`
	WidthCm     int    `json:"width_cm"`
	HeightCm    int    `json:"height_cm"`
	WindowCount int    `json:"window_count"`
	DoorCount   int    `json:"door_count"`
	Notes       string `json:"notes"`
}

func (in RoomInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.LengthCm, validation.Min(0)),
		validation.Field(&in.WidthCm, validation.Min(0)),
		validation.Field(&in.HeightCm, validation.Min(0)),
		validation.Field(&in.WindowCount, validation.Min(0)),
		validation.Field(&in.DoorCount, validation.Min(0)),
	)
	return asValidationError(err)
}

// AssetInput is the mutable subset of an asset accepted from clients.
type AssetInput struct {
	RoomID           int64      `json:"room_id"`
	Name             string     `json:"name"`
	Category         string     `json:"category"`
	PhotoURL         string     `json:"photo_url"`
	LengthCm         int        `json:"length_cm"`
	WidthCm          int        `json:"width_cm"`
	HeightCm         int        `json:"height_cm"`
	ClearanceFrontCm int        `json:"clearance_front_cm"`
	ClearanceSidesCm int        `json:"clearance_sides_cm"`
	ClearanceBackCm  int        `json:"clearance_back_cm"`
	MustBeNearWall   bool       `json:"must_be_near_wall"`
	MustBeNearWindow bool       `json:"must_be_near_window"`
	MustBeNearOutlet bool       `json:"must_be_near_outlet"`
	CanRotate        bool       `json:"can_rotate"`
	Condition        string     `json:"condition"`
	PurchaseDate     *time.Time `json:"purchase_date"`
	PurchasePrice    float64    `json:"purchase_price"`
	Notes            string     `json:"notes"`
}

func (in AssetInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.RoomID, validation.Required),
		validation.Field(&in.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&in.LengthCm, validation.Min(0)),
		validation.Field(&in.WidthCm, validation.Min(0)),
		validation.Field(&in.HeightCm, validation.Min(0)),
		validation.Field(&in.ClearanceFrontCm, validation.Min(0)),
		validation.Field(&in.ClearanceSidesCm, validation.Min(0)),
		validation.Field(&in.ClearanceBackCm, validation.Min(0)),
		validation.Field(&in.PurchasePrice, validation.Min(0.0)),
	)
	return asValidationError(err)
}

// Inventory exposes the per-user room and asset catalogs. Every operation
// takes the owning user id; there is no path that crosses user boundaries.
type Inventory struct {
	repo   RepositoryManager
	logger Logger
}

func NewInventory(repo RepositoryManager, logger Logger) *Inventory {
	if logger == nil {
		logger = defLogger{}
	}
	return &Inventory{repo: repo, logger: logger}
}

func (s *Inventory) ListRooms(ctx context.Context, userID int64) ([]*Room, error) {
	out, err := s.repo.Rooms().ListByUser(ctx, userID)
	if err != nil {
		return nil, wrapInternal(err, "failed to list rooms")
	}
	return out, nil
}

func (s *Inventory) GetRoom(ctx context.Context, userID, roomID int64) (*Room, error) {
	room, err := s.repo.Rooms().GetByID(ctx, userID, roomID)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, wrapInternal(err, "failed to load room")
	}
	return room, nil
}

func (s *Inventory) CreateRoom(ctx context.Context, userID int64, in RoomInput) (*Room, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	room := roomFromInput(userID, 0, in)
	out, err := s.repo.Rooms().Create(ctx, room)
	if err != nil {
		return nil, wrapInternal(err, "failed to create room")
	}
	return out, nil
}

func (s *Inventory) UpdateRoom(ctx context.Context, userID, roomID int64, in RoomInput) (*Room, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	room := roomFromInput(userID, roomID, in)
	out, err := s.repo.Rooms().Update(ctx, room)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, wrapInternal(err, "failed to update room")
	}
	return out, nil
}

// DeleteRoom removes the room and everything assigned to it.
func (s *Inventory) DeleteRoom(ctx context.Context, userID, roomID int64) error {
	if err := s.repo.Rooms().Delete(ctx, userID, roomID); err != nil {
		if IsRecordNotFound(err) {
			return ErrRoomNotFound
		}
		return wrapInternal(err, "failed to delete room")
	}
	return nil
}

func (s *Inventory) ListAssets(ctx context.Context, userID int64) ([]*Asset, error) {
	out, err := s.repo.Assets().ListByUser(ctx, userID)
	if err != nil {
		return nil, wrapInternal(err, "failed to list assets")
	}
	return out, nil
}

// ListAssetCategories returns the shared asset-kind catalog, sorted by
// name. The catalog is global, so no user id is involved.
func (s *Inventory) ListAssetCategories(ctx context.Context) ([]*AssetCategory, error) {
	out, err := s.repo.AssetCategories().List(ctx)
	if err != nil {
		return nil, wrapInternal(err, "failed to list asset categories")
	}
	return out, nil
}

func (s *Inventory) ListRoomAssets(ctx context.Context, userID, roomID int64) ([]*Asset, error) {
	if _, err := s.GetRoom(ctx, userID, roomID); err != nil {
		return nil, err
	}
	out, err := s.repo.Assets().ListByRoom(ctx, userID, roomID)
	if err != nil {
		return nil, wrapInternal(err, "failed to list room assets")
	}
	return out, nil
}

func (s *Inventory) GetAsset(ctx context.Context, userID, assetID int64) (*Asset, error) {
	asset, err := s.repo.Assets().GetByID(ctx, userID, assetID)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrAssetNotFound
		}
		return nil, wrapInternal(err, "failed to load asset")
	}
	return asset, nil
}

func (s *Inventory) CreateAsset(ctx context.Context, userID int64, in AssetInput) (*Asset, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	asset := assetFromInput(userID, 0, in)
	out, err := s.repo.Assets().Create(ctx, asset)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, wrapInternal(err, "failed to create asset")
	}
	return out, nil
}

func (s *Inventory) UpdateAsset(ctx context.Context, userID, assetID int64, in AssetInput) (*Asset, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	asset := assetFromInput(userID, assetID, in)
	out, err := s.repo.Assets().Update(ctx, asset)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, ErrAssetNotFound
		}
		return nil, wrapInternal(err, "failed to update asset")
	}
	return out, nil
}

func (s *Inventory) DeleteAsset(ctx context.Context, userID, assetID int64) error {
	if err := s.repo.Assets().Delete(ctx, userID, assetID); err != nil {
		if IsRecordNotFound(err) {
			return ErrAssetNotFound
		}
		return wrapInternal(err, "failed to delete asset")
	}
	return nil
}

func roomFromInput(userID, roomID int64, in RoomInput) *Room {
	return &Room{
		ID:          roomID,
		UserID:      userID,
		Name:        in.Name,
		LengthCm:    in.LengthCm,
		WidthCm:     in.WidthCm,
		HeightCm:    in.HeightCm,
		WindowCount: in.WindowCount,
		DoorCount:   in.DoorCount,
		Notes:       in.Notes,
	}
}

func assetFromInput(userID, assetID int64, in AssetInput) *Asset {
	return &Asset{
		ID:               assetID,
		RoomID:           in.RoomID,
		UserID:           userID,
		Name:             in.Name,
		Category:         in.Category,
		PhotoURL:         in.PhotoURL,
		LengthCm:         in.LengthCm,
		WidthCm:          in.WidthCm,
		HeightCm:         in.HeightCm,
		ClearanceFrontCm: in.ClearanceFrontCm,
		ClearanceSidesCm: in.ClearanceSidesCm,
		ClearanceBackCm:  in.ClearanceBackCm,
		MustBeNearWall:   in.MustBeNearWall,
		MustBeNearWindow: in.MustBeNearWindow,
		MustBeNearOutlet: in.MustBeNearOutlet,
		CanRotate:        in.CanRotate,
		Condition:        in.Condition,
		PurchaseDate:     in.PurchaseDate,
		PurchasePrice:    in.PurchasePrice,
		Notes:            in.Notes,
	}
}
