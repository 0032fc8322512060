package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// DefaultSlot is the slot used when a workstation holds a single session.
const DefaultSlot = "default"

// ErrNoSession is returned by Store.Load when nothing is stored.
var ErrNoSession = errors.New("no stored session")

// Columns lists the columns of the sessions table.
var Columns = []string{"slot", "username", "token", "updated_at"}

// Record is a persisted session.
type Record struct {
	Slot      string `gorm:"primaryKey;size:64"`
	Username  string `gorm:"size:255;not null"`
	Token     string `gorm:"size:2048;not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for Record.
func (Record) TableName() string {
	return "sessions"
}

// Store persists the session token.
type Store interface {
	// Load returns the stored session or ErrNoSession.
	Load(ctx context.Context) (*Record, error)
	// Save replaces the stored session.
	Save(ctx context.Context, rec *Record) error
	// Clear removes the stored session.
	Clear(ctx context.Context) error
}

// GormStore stores the session in the sessions table.
type GormStore struct {
	db   *gorm.DB
	slot string
}

// NewGormStore creates a store and migrates the sessions table.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sessions table: %w", err)
	}
	return &GormStore{db: db, slot: DefaultSlot}, nil
}

// Load returns the stored session or ErrNoSession.
func (s *GormStore) Load(ctx context.Context) (*Record, error) {
	var rec Record
	err := s.db.WithContext(ctx).Where("slot = ?", s.slot).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &rec, nil
}

// Save replaces the stored session.
func (s *GormStore) Save(ctx context.Context, rec *Record) error {
	rec.Slot = s.slot
	rec.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the stored session.
func (s *GormStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("slot = ?", s.slot).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// MemoryStore keeps the session in process memory. It is used when no database is
// reachable, so the token does not survive a restart.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored session or ErrNoSession.
func (s *MemoryStore) Load(_ context.Context) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec == nil {
		return nil, ErrNoSession
	}
	rec := *s.rec
	return &rec, nil
}

// Save replaces the stored session.
func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	cp.Slot = DefaultSlot
	cp.UpdatedAt = time.Now()
	s.rec = &cp
	return nil
}

// Clear removes the stored session.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.rec = nil
	s.mu.Unlock()
	return nil
}
