package cmd

import (
	"context"
	"fmt"

	"hardware-manager/core/client"
	"hardware-manager/core/config"
	"hardware-manager/core/database"
	"hardware-manager/core/logger"
	"hardware-manager/core/session"
	"hardware-manager/core/storage"
	"hardware-manager/feature/account"
	"hardware-manager/feature/integrity"
	"hardware-manager/feature/inventory"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// runtime holds the collaborators shared by every command.
type runtime struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	session *session.Session
	remote  *client.Client
	storage storage.Client
}

// bootstrap loads configuration and wires the session, remote client and storage.
// The database and object storage are optional: without a database the session
// lives in memory, without storage snapshots are disabled.
func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logg}

	var store session.Store
	if db, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Session database unavailable, the login will not persist", zap.Error(err))
		store = session.NewMemoryStore()
	} else {
		rt.db = db
		if gs, err := session.NewGormStore(db); err != nil {
			logg.Warn("Session table unavailable, the login will not persist", zap.Error(err))
			store = session.NewMemoryStore()
		} else {
			store = gs
		}
	}

	rt.session = session.New(store, logg)
	if err := rt.session.Restore(ctx); err != nil {
		logg.Warn("Failed to restore stored session", zap.Error(err))
	}

	rt.remote = client.New(cfg.Remote, rt.session, logg)

	if sc, err := storage.NewClient(cfg.Storage); err != nil {
		logg.Debug("Snapshot storage disabled", zap.Error(err))
	} else {
		rt.storage = sc
	}

	rt.logger = logger.WithUser(logg, rt.session.Username())
	return rt, nil
}

func (rt *runtime) close() {
	_ = rt.logger.Sync()
}

func (rt *runtime) inventory() *inventory.Service {
	return inventory.NewService(rt.remote, rt.session, rt.storage, rt.cfg.Storage.Bucket, rt.cfg.Storage.Region, rt.logger)
}

// loadedInventory returns an inventory service with hardware sets and projects fetched.
func (rt *runtime) loadedInventory(ctx context.Context) (*inventory.Service, error) {
	svc := rt.inventory()
	if err := svc.Load(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func (rt *runtime) account() *account.Service {
	return account.NewService(rt.remote, rt.session, rt.logger)
}

func (rt *runtime) integrity() *integrity.Service {
	return integrity.NewService(rt.remote, rt.storage, rt.cfg.Storage, rt.db, rt.logger)
}
