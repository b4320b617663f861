// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"errors"
	"fmt"

	mongodrv "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/gorm"

	"auth_backend/internal/app/config"
	authadapters "auth_backend/internal/feature/auth/adapters"
	"auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/clock"
	infradb "auth_backend/internal/platform/db"
	infrahandler "auth_backend/internal/platform/http/handler"
	inframongo "auth_backend/internal/platform/mongo"
)

// Store bundles the repositories of the configured backend.
type Store struct {
	Users    usecase.UserRepository
	Sessions usecase.SessionRepository

	// Ping reports whether the backend is reachable.
	Ping infrahandler.Check
	// Migrate creates tables or indexes.
	Migrate func(ctx context.Context) error
	// Close releases the connection.
	Close func(ctx context.Context) error
}

// OpenStore connects to the backend selected by cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg config.Config, clk clock.Clock) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite, config.StorePostgres:
		db, err := infradb.Open(ctx, cfg.StoreDriver, cfg.DatabaseDSN, cfg.DBConnectTimeout)
		if err != nil {
			return nil, err
		}
		return newSQLStore(db, clk), nil
	case config.StoreMongo:
		client, db, err := inframongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return newMongoStore(client, db, clk), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func newSQLStore(db *gorm.DB, clk clock.Clock) *Store {
	return &Store{
		Users:    authadapters.NewUserGorm(db),
		Sessions: authadapters.NewSessionGorm(db, clk),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Migrate: func(context.Context) error {
			return authadapters.AutoMigrate(db)
		},
		Close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func newMongoStore(client *mongodrv.Client, db *mongodrv.Database, clk clock.Clock) *Store {
	users := authadapters.NewUserMongo(db)
	sessions := authadapters.NewSessionMongo(db, clk)
	return &Store{
		Users:    users,
		Sessions: sessions,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Migrate: func(ctx context.Context) error {
			return errors.Join(users.EnsureIndexes(ctx), sessions.EnsureIndexes(ctx))
		},
		Close: func(ctx context.Context) error {
			return client.Disconnect(ctx)
		},
	}
}
