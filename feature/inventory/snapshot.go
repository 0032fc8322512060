package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"hardware-manager/core/models"
	"hardware-manager/core/reconcile"
	"hardware-manager/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// SnapshotFolder is the top-level folder snapshots are written under.
const SnapshotFolder = "snapshots"

// Snapshot is the exported reconciled view.
type Snapshot struct {
	User     string                `json:"user"`
	TakenAt  time.Time             `json:"taken_at"`
	Hardware []models.HardwareSet  `json:"hardware"`
	Projects []models.Project      `json:"projects"`
	Audit    reconcile.AuditReport `json:"audit"`
}

// SnapshotInfo describes a stored snapshot object.
type SnapshotInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

func snapshotPrefix(user string) string {
	return path.Join(SnapshotFolder, user) + "/"
}

// ExportSnapshot writes the current view to object storage.
func (s *Service) ExportSnapshot(ctx context.Context) (*SnapshotInfo, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	user, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	snap := Snapshot{
		User:     user,
		TakenAt:  time.Now().UTC(),
		Hardware: s.state.Hardware(),
		Projects: s.state.Projects(),
		Audit:    s.state.Audit(),
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if err := storage.EnsureBucket(ctx, s.store, s.bucket, s.region); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s%d.json", snapshotPrefix(user), snap.TakenAt.UnixNano())
	info, err := s.store.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	s.logger.Info("Snapshot exported", zap.String("key", key), zap.Int("bytes", len(data)))
	return &SnapshotInfo{Key: key, Size: int64(len(data)), LastModified: info.LastModified}, nil
}

// ListSnapshots lists the operator's snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context) ([]SnapshotInfo, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	user, err := s.requireSession()
	if err != nil {
		return nil, err
	}

	opts := minio.ListObjectsOptions{Prefix: snapshotPrefix(user), Recursive: true}
	out := []SnapshotInfo{}
	for obj := range s.store.ListObjects(ctx, s.bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		out = append(out, SnapshotInfo{Key: obj.Key, Size: obj.Size, LastModified: obj.LastModified})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key > out[j].Key })
	return out, nil
}

// snapshotKey resolves key against the operator's folder. A bare file name is
// accepted; full keys must live under the operator's prefix.
func snapshotKey(user, key string) (string, error) {
	prefix := snapshotPrefix(user)
	if !strings.Contains(key, "/") {
		key = prefix + key
	}
	if !strings.HasPrefix(key, prefix) || path.Clean(key) != key {
		return "", fmt.Errorf("%w: %s", ErrForeignSnapshot, key)
	}
	return key, nil
}

// GetSnapshot downloads and decodes one of the operator's snapshots.
func (s *Service) GetSnapshot(ctx context.Context, key string) (*Snapshot, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	user, err := s.requireSession()
	if err != nil {
		return nil, err
	}
	key, err = snapshotKey(user, key)
	if err != nil {
		return nil, err
	}

	obj, err := s.store.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download snapshot: %w", err)
	}
	defer obj.Close()

	var snap Snapshot
	if err := json.NewDecoder(obj).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// DeleteSnapshot removes one of the operator's snapshots.
func (s *Service) DeleteSnapshot(ctx context.Context, key string) error {
	if s.store == nil {
		return ErrStorageDisabled
	}
	user, err := s.requireSession()
	if err != nil {
		return err
	}
	key, err = snapshotKey(user, key)
	if err != nil {
		return err
	}

	if err := s.store.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	s.logger.Info("Snapshot deleted", zap.String("key", key))
	return nil
}
