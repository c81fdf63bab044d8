// Package inmemory provides an in-memory vault store used by tests and
// demo mode.
package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heirloomhq/heirloom/pkg/passport"
	"github.com/heirloomhq/heirloom/pkg/vault"
)

// Store implements vault.Store backed by maps.
type Store struct {
	mu        sync.RWMutex
	passports map[string]*passport.Passport
	info      map[string]vault.Info
	memories  map[string][]passport.Memory
}

// NewStore creates an empty in-memory vault store.
func NewStore() *Store {
	return &Store{
		passports: make(map[string]*passport.Passport),
		info:      make(map[string]vault.Info),
		memories:  make(map[string][]passport.Memory),
	}
}

// CreatePassport stores the document under a fresh id.
func (s *Store) CreatePassport(_ context.Context, doc *passport.Passport) (string, error) {
	if doc == nil {
		return "", errors.New("cannot store nil passport")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	copied := *doc
	s.passports[id] = &copied
	s.info[id] = vault.Info{
		PassportID:  id,
		FamilyName:  doc.Heritage.FamilyName,
		Contributor: doc.Heritage.PrimaryContributor.Name,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	return id, nil
}

// UpdatePassport replaces an existing document body.
func (s *Store) UpdatePassport(_ context.Context, passportID string, doc *passport.Passport) error {
	if doc == nil {
		return errors.New("cannot store nil passport")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.passports[passportID]; !ok {
		return vault.NotFoundError{ID: passportID}
	}
	copied := *doc
	s.passports[passportID] = &copied

	info := s.info[passportID]
	info.FamilyName = doc.Heritage.FamilyName
	info.Contributor = doc.Heritage.PrimaryContributor.Name
	s.info[passportID] = info
	return nil
}

// ListPassports returns summary info for all stored passports.
func (s *Store) ListPassports(_ context.Context) ([]vault.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]vault.Info, 0, len(s.info))
	for _, info := range s.info {
		out = append(out, info)
	}
	return out, nil
}

// FindPassportByContributor returns the first passport whose contributor
// matches name exactly, or "".
func (s *Store) FindPassportByContributor(_ context.Context, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, info := range s.info {
		if info.Contributor == name {
			return id, nil
		}
	}
	return "", nil
}

// CreateMemory appends a memory under an existing passport.
func (s *Store) CreateMemory(_ context.Context, passportID string, mem passport.Memory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.passports[passportID]; !ok {
		return vault.NotFoundError{ID: passportID}
	}
	for _, existing := range s.memories[passportID] {
		if existing.MemoryID == mem.MemoryID {
			// same insert-or-ignore behavior as the sqlite driver
			return nil
		}
	}
	s.memories[passportID] = append(s.memories[passportID], mem)
	return nil
}

// ListMemories returns all memories stored under a passport.
func (s *Store) ListMemories(_ context.Context, passportID string) ([]passport.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.passports[passportID]; !ok {
		return nil, vault.NotFoundError{ID: passportID}
	}
	out := make([]passport.Memory, len(s.memories[passportID]))
	copy(out, s.memories[passportID])
	return out, nil
}

// ExportPassport returns the stored document.
func (s *Store) ExportPassport(_ context.Context, passportID string) (*passport.Passport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.passports[passportID]
	if !ok {
		return nil, vault.NotFoundError{ID: passportID}
	}
	copied := *doc
	return &copied, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
