package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gorm.io/gorm"

	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/db"
	"inkwell/internal/logger"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// seedOptions describes the admin account to create or promote.
type seedOptions struct {
	Email    string
	Name     string
	Password string
	Promote  bool
}

func main() {
	var opts seedOptions
	flag.StringVar(&opts.Email, "email", "", "admin email (required)")
	flag.StringVar(&opts.Name, "name", "Admin", "display name for a new admin")
	flag.StringVar(&opts.Password, "password", "", "password for a new admin")
	flag.BoolVar(&opts.Promote, "promote", false, "promote an existing account instead of creating one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	dsn := cfg.MySQLDSN
	if cfg.DBDriver == "postgres" {
		dsn = cfg.PostgresDSN
	}
	gormDB, err := db.Open(cfg.DBDriver, dsn)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gormDB, false, log); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	repo := repository.NewUserRepository(gormDB)
	hasher := auth.NewPasswordHasher(1, auth.BcryptCost)

	user, err := seedAdmin(context.Background(), repo, hasher, opts)
	if err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
	log.Info("admin ready", "id", user.ID.String(), "email", user.Email, "promoted", opts.Promote)
}

// seedAdmin creates a new admin account, or with Promote set, raises an
// existing account to admin.
func seedAdmin(ctx context.Context, repo repository.UserRepository, hasher *auth.PasswordHasher, opts seedOptions) (*model.User, error) {
	email := strings.TrimSpace(opts.Email)
	if email == "" {
		return nil, errors.New("-email is required")
	}

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("look up %s: %w", email, err)
	}

	if opts.Promote {
		if existing == nil {
			return nil, fmt.Errorf("no account with email %s", email)
		}
		existing.Role = model.RoleAdmin
		if err := repo.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("promote %s: %w", email, err)
		}
		return existing, nil
	}

	if existing != nil {
		return nil, fmt.Errorf("an account with email %s already exists; use -promote", email)
	}
	if opts.Password == "" {
		return nil, errors.New("-password is required when creating an admin")
	}

	hash, err := hasher.Hash(ctx, opts.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:         strings.TrimSpace(opts.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create %s: %w", email, err)
	}
	return user, nil
}
