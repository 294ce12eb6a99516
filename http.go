package dormly

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// LocalsUserID is the fiber locals key the bearer middleware stores the
// authenticated account id under.
const LocalsUserID = "user_id"

// APIControllerRoutes lets embedders remap the mount points without
// touching handler code.
type APIControllerRoutes struct {
	Register        string
	VerifyOtp       string
	ResendOtp       string
	Login           string
	ForgotPassword  string
	ResetPassword   string
	Me              string
	Rooms           string
	Assets          string
	AssetCategories string
}

// APIController exposes the identity lifecycle and the room/asset catalog
// as a JSON API. Handlers delegate to Registrar and Inventory and only
// translate transport concerns.
type APIController struct {
	Registrar *Registrar
	Inventory *Inventory
	Tokens    TokenService
	Logger    Logger
	BaseURL   string
	Routes    *APIControllerRoutes
}

func NewAPIController(registrar *Registrar, inventory *Inventory, tokens TokenService, baseURL string, logger Logger) *APIController {
	if logger == nil {
		logger = defLogger{}
	}
	return &APIController{
		Registrar: registrar,
		Inventory: inventory,
		Tokens:    tokens,
		Logger:    logger,
		BaseURL:   baseURL,
		Routes: &APIControllerRoutes{
			Register:        "/auth/register",
			VerifyOtp:       "/auth/verify-otp",
			ResendOtp:       "/auth/resend-otp",
			Login:           "/auth/login",
			ForgotPassword:  "/auth/forgot-password",
			ResetPassword:   "/auth/reset-password",
			Me:              "/auth/me",
			Rooms:           "/rooms",
			Assets:          "/assets",
			AssetCategories: "/asset-categories",
		},
	}
}

func (a *APIController) RegisterRoutes(app fiber.Router) {
	app.Post(a.Routes.Register, a.RegisterPost)
	app.Post(a.Routes.VerifyOtp, a.VerifyOtpPost)
	app.Post(a.Routes.ResendOtp, a.ResendOtpPost)
	app.Post(a.Routes.Login, a.LoginPost)
	app.Post(a.Routes.ForgotPassword, a.ForgotPasswordPost)
	app.Post(a.Routes.ResetPassword, a.ResetPasswordPost)

	auth := a.RequireAuth()
	app.Get(a.Routes.Me, auth, a.MeGet)

	app.Get(a.Routes.Rooms, auth, a.RoomsList)
	app.Post(a.Routes.Rooms, auth, a.RoomsCreate)
	app.Get(a.Routes.Rooms+"/:id", auth, a.RoomsGet)
	app.Put(a.Routes.Rooms+"/:id", auth, a.RoomsUpdate)
	app.Delete(a.Routes.Rooms+"/:id", auth, a.RoomsDelete)
	app.Get(a.Routes.Rooms+"/:id/assets", auth, a.RoomAssetsList)

	app.Get(a.Routes.AssetCategories, auth, a.AssetCategoriesList)

	app.Get(a.Routes.Assets, auth, a.AssetsList)
	app.Post(a.Routes.Assets, auth, a.AssetsCreate)
	app.Get(a.Routes.Assets+"/:id", auth, a.AssetsGet)
	app.Put(a.Routes.Assets+"/:id", auth, a.AssetsUpdate)
	app.Delete(a.Routes.Assets+"/:id", auth, a.AssetsDelete)
}

// RequireAuth validates the bearer token and stores the account id in the
// request locals. Every failure renders the same generic 401.
func (a *APIController) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return a.renderError(c, ErrTokenInvalid)
		}

		userID, err := a.Tokens.Validate(token)
		if err != nil {
			return a.renderError(c, ErrTokenInvalid)
		}

		c.Locals(LocalsUserID, userID)
		return c.Next()
	}
}

func (a *APIController) RegisterPost(c *fiber.Ctx) error {
	var in RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	out, err := a.Registrar.Register(c.Context(), in, a.BaseURL)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(out)
}

type emailOtpBody struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

func (a *APIController) VerifyOtpPost(c *fiber.Ctx) error {
	var in emailOtpBody
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	if err := a.Registrar.VerifyOtp(c.Context(), in.Email, in.Otp); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"message": MsgOtpVerified})
}

func (a *APIController) ResendOtpPost(c *fiber.Ctx) error {
	var in emailOtpBody
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	if err := a.Registrar.ResendOtp(c.Context(), in.Email, a.BaseURL); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"message": MsgOtpResent})
}

func (a *APIController) LoginPost(c *fiber.Ctx) error {
	var in LoginInput
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	out, err := a.Registrar.Login(c.Context(), in)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(out)
}

func (a *APIController) ForgotPasswordPost(c *fiber.Ctx) error {
	var in emailOtpBody
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	if err := a.Registrar.SendPasswordResetOtp(c.Context(), in.Email); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"message": MsgPasswordResetSent})
}

func (a *APIController) ResetPasswordPost(c *fiber.Ctx) error {
	var in ResetPasswordInput
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	if err := a.Registrar.ResetPassword(c.Context(), in); err != nil {
		return a.renderError(c, err)
	}

	return c.JSON(fiber.Map{"message": MsgPasswordResetDone})
}

func (a *APIController) MeGet(c *fiber.Ctx) error {
	out, err := a.Registrar.CurrentUser(c.Context(), a.userID(c))
	if err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(out)
}

func (a *APIController) RoomsList(c *fiber.Ctx) error {
	out, err := a.Inventory.ListRooms(c.Context(), a.userID(c))
	if err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(out)
}

func (a *APIController) RoomsCreate(c *fiber.Ctx) error {
	var in RoomInput
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	out, err := a.Inventory.CreateRoom(c.Context(), a.userID(c), in)
	if err != nil {
		return a.renderError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(out)
}

func (a *APIController) RoomsGet(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return a.renderError(c, err)
	}

	out, err := a.Inventory.GetRoom(c.Context(), a.userID(c), id)
	if err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(out)
}

func (a *APIController) RoomsUpdate(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return a.renderError(c, err)
	}

	var in RoomInput
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	out, err := a.Inventory.UpdateRoom(c.Context(), a.userID(c), id, in)
	if err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(out)
}

func (a *APIController) RoomsDelete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return a.renderError(c, err)
	}

	if err := a.Inventory.DeleteRoom(c.Context(), a.userID(c), id); err != nil {
		return a.renderError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (a *APIController) RoomAssetsList(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return a.renderError(c, err)
	}

	out, err := a.Inventory.ListRoomAssets(c.Context(), a.userID(c), id)
	if err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(out)
}

func (a *APIController) AssetCategoriesList(c *fiber.Ctx) error {
	out, err := a.Inventory.ListAssetCategories(c.Context())
	if err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(out)
}

func (a *APIController) AssetsList(c *fiber.Ctx) error {
	out, err := a.Inventory.ListAssets(c.Context(), a.userID(c))
	if err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(out)
}

func (a *APIController) AssetsCreate(c *fiber.Ctx) error {
	var in AssetInput
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	out, err := a.Inventory.CreateAsset(c.Context(), a.userID(c), in)
	if err != nil {
		return a.renderError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(out)
}

func (a *APIController) AssetsGet(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return a.renderError(c, err)
	}

	out, err := a.Inventory.GetAsset(c.Context(), a.userID(c), id)
	if err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(out)
}

func (a *APIController) AssetsUpdate(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return a.renderError(c, err)
	}

	var in AssetInput
	if err := c.BodyParser(&in); err != nil {
		return a.renderError(c, badBody(err))
	}

	out, err := a.Inventory.UpdateAsset(c.Context(), a.userID(c), id, in)
	if err != nil {
		return a.renderError(c, err)
	}
	return c.JSON(out)
}

func (a *APIController) AssetsDelete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return a.renderError(c, err)
	}

	if err := a.Inventory.DeleteAsset(c.Context(), a.userID(c), id); err != nil {
		return a.renderError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (a *APIController) userID(c *fiber.Ctx) int64 {
	id, _ := c.Locals(LocalsUserID).(int64)
	return id
}

func (a *APIController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred")
	}

	status := richErr.Code
	if status == 0 {
		status = categoryStatus(richErr.Category)
	}
	if status >= http.StatusInternalServerError {
		a.Logger.Error(
			"request failed",
			"path", c.Path(),
			"category", richErr.Category,
			"error", richErr.Message,
		)
	}

	body := fiber.Map{"error": richErr.Message}
	if len(richErr.Metadata) > 0 {
		body["details"] = richErr.Metadata
	}

	return c.Status(status).JSON(body)
}

func badBody(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "Invalid request body")
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, goerrors.New("Invalid identifier", goerrors.CategoryBadInput)
	}
	return id, nil
}

func categoryStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
