package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spaceblog/internal/config"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func NewPostgresConnection(cfg *config.Config) (*pgxpool.Pool, error) {
	dsn := cfg.GetDSN()
	pool, err := pgxpool.New(context.Background(), dsn)

	if err != nil {
		return nil, err
	}

	err = pool.Ping(context.Background())
	if err != nil {
		return nil, err
	}

	return pool, nil
}

// RunMigrations накатывает все миграции из cfg.MigrationsPath.
// Отдельное *sql.DB-подключение через pgx/stdlib, закрывается по завершении.
func RunMigrations(cfg *config.Config) error {
	sqlDB, err := sql.Open("pgx", cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("ошибка подключения для миграций: %w", err)
	}
	defer sqlDB.Close()

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("ошибка инициализации драйвера миграций: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+cfg.MigrationsPath,
		cfg.DbName,
		driver,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания мигратора: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка применения миграций: %w", err)
	}

	return nil
}
