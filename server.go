package dormly

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
)

// Server wires config, storage, services and the HTTP surface into one
// runnable unit. Embedders that only want the services can use the exported
// fields and skip Listen.
type Server struct {
	Config    Config
	DB        *bun.DB
	Repo      RepositoryManager
	Registrar *Registrar
	Inventory *Inventory
	Tokens    TokenService
	Mailer    Mailer
	App       *fiber.App
	Logger    Logger
}

// NewServer builds the full service graph from config. The mailer can be
// overridden for tests via WithMailer before Listen.
func NewServer(cfg Config, opts ...ServerOption) (*Server, error) {
	s := &Server{
		Config: cfg,
		Logger: defLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	db, err := OpenDB(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s.DB = db

	if err := CreateSchema(context.Background(), db); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	if err := SeedAssetCategories(context.Background(), db); err != nil {
		return nil, fmt.Errorf("seed asset categories: %w", err)
	}

	s.Repo = NewRepositoryManager(db)

	validator, err := NewInputValidator(cfg.Validation)
	if err != nil {
		return nil, fmt.Errorf("build validator: %w", err)
	}

	hasher := NewHasher(cfg.Hashing)
	s.Tokens = NewTokenService(cfg.Token, s.Logger)

	if s.Mailer == nil {
		s.Mailer = NewSMTPMailer(cfg.Mailer, s.Logger)
	}

	otp := NewOtpService(s.Repo, cfg.Otp, s.Logger)
	reset := NewPasswordResetService(s.Repo, cfg.Reset, s.Logger)

	s.Registrar = NewRegistrar(s.Repo, validator, hasher, otp, reset, s.Mailer, s.Tokens, cfg.Otp, s.Logger)
	s.Inventory = NewInventory(s.Repo, s.Logger)

	s.App = fiber.New(fiber.Config{
		AppName:               "dormly",
		DisableStartupMessage: true,
	})

	controller := NewAPIController(s.Registrar, s.Inventory, s.Tokens, cfg.BaseURL, s.Logger)
	controller.RegisterRoutes(s.App)

	return s, nil
}

type ServerOption func(*Server)

// WithLogger replaces the default stderr logger.
func WithLogger(logger Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.Logger = logger
		}
	}
}

// WithMailer replaces the SMTP mailer, e.g. with a capture fake in tests.
func WithMailer(mailer Mailer) ServerOption {
	return func(s *Server) {
		s.Mailer = mailer
	}
}

// Listen blocks serving HTTP on the configured address.
func (s *Server) Listen() error {
	s.Logger.Info("listening", "addr", s.Config.ListenAddr)
	return s.App.Listen(s.Config.ListenAddr)
}

// Shutdown stops the HTTP server and closes the database.
func (s *Server) Shutdown() error {
	if err := s.App.Shutdown(); err != nil {
		return err
	}
	return s.DB.Close()
}
