// Package store keeps uploaded documents in memory so they can be rebuilt by
// ID without a second upload.
package store

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is a cached upload. Entries returned by the store are copies; the
// document bytes are shared and must not be modified.
type Entry struct {
	ID          string    `json:"doc_id"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	AccessedAt  time.Time `json:"accessed_at"`

	data []byte
}

// Data returns the stored document bytes.
func (e Entry) Data() []byte { return e.data }

// Store is a thread-safe in-memory document cache with TTL eviction.
// Identical content maps to a single entry.
type Store struct {
	mu     sync.Mutex
	byID   map[string]*Entry
	byHash map[string]string
	ttl    time.Duration
	now    func() time.Time
}

func New(ttl time.Duration) *Store {
	return &Store{
		byID:   make(map[string]*Entry),
		byHash: make(map[string]string),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Put stores data and returns its entry. If the same content is already
// stored, the existing entry is refreshed and returned with dup set.
func (s *Store) Put(filename string, data []byte) (e Entry, dup bool) {
	hash := ContentHashHex(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	if id, ok := s.byHash[hash]; ok {
		existing := s.byID[id]
		existing.AccessedAt = now
		return *existing, true
	}

	entry := &Entry{
		ID:          uuid.NewString(),
		Filename:    filename,
		ContentHash: hash,
		Size:        len(data),
		CreatedAt:   now,
		AccessedAt:  now,
		data:        data,
	}
	s.byID[entry.ID] = entry
	s.byHash[hash] = entry.ID
	return *entry, false
}

// Get returns the entry for id and refreshes its TTL. Expired entries are
// reported as missing even before Cleanup runs.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return Entry{}, false
	}
	now := s.now()
	if s.expired(e, now) {
		s.deleteLocked(e)
		return Entry{}, false
	}
	e.AccessedAt = now
	return *e, true
}

// Delete removes id if present.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byID[id]; ok {
		s.deleteLocked(e)
	}
}

// Len returns the number of stored entries, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Cleanup removes expired entries and returns how many were evicted.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, e := range s.byID {
		if s.expired(e, now) {
			s.deleteLocked(e)
			n++
		}
	}
	return n
}

func (s *Store) expired(e *Entry, now time.Time) bool {
	return now.Sub(e.AccessedAt) > s.ttl
}

func (s *Store) deleteLocked(e *Entry) {
	delete(s.byID, e.ID)
	delete(s.byHash, e.ContentHash)
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
