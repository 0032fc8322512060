// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client so inventory snapshots can be written to AWS S3 or a
// self-hosted MinIO instance.
//
// # Client Interface
//
// The Client interface abstracts the underlying storage provider, making it easier
// to mock storage interactions for unit testing (see core/storage/mocks).
//
// # Operations
//
//   - BucketExists / MakeBucket: verify or create the snapshot bucket (EnsureBucket).
//   - PutObject: upload a snapshot document.
//   - GetObject: read a snapshot back.
//   - ListObjects: list snapshots under a prefix.
//   - RemoveObject: delete a snapshot.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
