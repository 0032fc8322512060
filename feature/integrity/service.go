package integrity

import (
	"context"
	"errors"

	"hardware-manager/core/storage"
	"hardware-manager/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errStorageDisabled = errors.New("snapshot storage is not configured")

// Service handles integrity checks.
type Service struct {
	api    checks.HardwareLister
	client storage.Client
	bucket string
	region string
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new integrity service. client and db may be nil when the
// corresponding backend is not configured.
func NewService(api checks.HardwareLister, client storage.Client, cfg storage.Config, db *gorm.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:    api,
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
		db:     db,
		logger: logger.Named("integrity"),
	}
}

// CheckRemote probes the remote inventory service.
func (s *Service) CheckRemote(ctx context.Context) (*checks.RemoteReport, error) {
	return checks.CheckRemote(ctx, s.api)
}

// CheckStructure returns the snapshot folders missing from the bucket.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, errStorageDisabled
	}
	return checks.CheckStructure(ctx, s.client, s.bucket)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	if s.client == nil {
		return errStorageDisabled
	}
	return checks.FixStructure(ctx, s.client, s.bucket, s.region, s.logger, missing)
}

// CheckSession verifies the session table schema.
func (s *Service) CheckSession() (*checks.SchemaReport, error) {
	return checks.CheckSessionSchema(s.db)
}
