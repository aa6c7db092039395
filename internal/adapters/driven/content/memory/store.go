// Package memory provides in-memory content and progress stores, used in
// tests and for seeding local demos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/studyloop/studyloop-cli/internal/core/domain"
	"github.com/studyloop/studyloop-cli/internal/core/ports/driven"
)

// Ensure Store implements both collaborator contracts.
var (
	_ driven.ContentStore  = (*Store)(nil)
	_ driven.ProgressStore = (*Store)(nil)
)

// Store holds content units and per-user progress in memory.
type Store struct {
	mu        sync.RWMutex
	units     []domain.ContentUnit
	completed map[string]map[string]bool
	enrolled  map[string]map[string]bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		completed: make(map[string]map[string]bool),
		enrolled:  make(map[string]map[string]bool),
	}
}

// AddUnit registers a content unit.
func (s *Store) AddUnit(unit domain.ContentUnit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units = append(s.units, unit)
}

// SetCompleted marks units as completed for a user.
func (s *Store) SetCompleted(userID string, unitIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completed[userID] == nil {
		s.completed[userID] = make(map[string]bool)
	}
	for _, id := range unitIDs {
		s.completed[userID][id] = true
	}
}

// SetEnrolled marks units as enrolled for a user.
func (s *Store) SetEnrolled(userID string, unitIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enrolled[userID] == nil {
		s.enrolled[userID] = make(map[string]bool)
	}
	for _, id := range unitIDs {
		s.enrolled[userID][id] = true
	}
}

// ListPublishedUnits returns published units in creation order.
func (s *Store) ListPublishedUnits(_ context.Context) ([]domain.ContentUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	units := make([]domain.ContentUnit, 0, len(s.units))
	for _, u := range s.units {
		if u.Published {
			units = append(units, u)
		}
	}
	sort.SliceStable(units, func(i, j int) bool {
		return units[i].CreatedAt.Before(units[j].CreatedAt)
	})
	return units, nil
}

// GetUnit returns one unit by ID, or domain.ErrNotFound.
func (s *Store) GetUnit(_ context.Context, id string) (*domain.ContentUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.units {
		if u.ID == id {
			unit := u
			return &unit, nil
		}
	}
	return nil, domain.ErrNotFound
}

// CompletedUnitIDs returns the IDs of units the user has completed.
func (s *Store) CompletedUnitIDs(_ context.Context, userID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.completed[userID]))
	for id := range s.completed[userID] {
		out[id] = true
	}
	return out, nil
}

// EnrolledUnitIDs returns the IDs of units the user is enrolled in.
func (s *Store) EnrolledUnitIDs(_ context.Context, userID string) (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.enrolled[userID]))
	for id := range s.enrolled[userID] {
		out[id] = true
	}
	return out, nil
}

// ActiveUserIDs returns every user with any recorded progress or
// enrolment, sorted for determinism.
func (s *Store) ActiveUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for id := range s.completed {
		seen[id] = true
	}
	for id := range s.enrolled {
		seen[id] = true
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
