package db

import (
	"database/sql"
	"fmt"
	"log/slog"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"inkwell/internal/model"
)

// Open returns a connected GORM DB instance for the given driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "mysql":
		return NewMySQL(dsn)
	case "postgres":
		return NewPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// NewMySQL returns a connected GORM DB instance.
func NewMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// NewMySQLWithConn wraps an existing connection pool, skipping the server
// version probe.
func NewMySQLWithConn(conn *sql.DB) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      conn,
		SkipInitializeWithVersion: true,
	}), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect mysql: %w", err)
	}
	return db, nil
}

// NewPostgres returns a connected GORM DB instance.
func NewPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	}
}

// Migrate creates or updates the schema. When reset is true the tables are
// dropped first.
func Migrate(db *gorm.DB, reset bool, log *slog.Logger) error {
	if reset {
		log.Warn("RESET_DB=true detected, dropping all tables")
		for _, table := range []interface{}{&model.Blog{}, &model.User{}} {
			if err := db.Migrator().DropTable(table); err != nil {
				log.Warn("failed to drop table (may not exist)", "error", err)
			}
		}
	}

	if err := db.AutoMigrate(&model.User{}, &model.Blog{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
