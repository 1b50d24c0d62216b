// Package selection holds the assignee, sprint and group attached to every
// submission. Assignee and group survive restarts; the sprint is derived
// from the calendar each time catalogs load.
package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"voicetask/internal/domain"
	"voicetask/internal/ports"
)

// Preference keys.
const (
	AssigneeKey = "automata-selected-user"
	GroupKey    = "automata-selected-group"
)

var (
	ErrUnknownAssignee = errors.New("unknown assignee")
	ErrUnknownSprint   = errors.New("unknown sprint")
	ErrUnknownGroup    = errors.New("unknown group")

	// ErrNotSaved reports a choice that applies now but was not persisted.
	ErrNotSaved = errors.New("selection not saved")
)

// Store is safe for concurrent use.
type Store struct {
	prefs   ports.Preferences
	catalog ports.CatalogSource
	roster  []domain.Assignee
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.RWMutex
	sprints  []domain.Sprint
	groups   []domain.Group
	assignee *domain.Assignee
	sprint   *domain.Sprint
	group    *domain.Group
}

func NewStore(prefs ports.Preferences, catalog ports.CatalogSource, roster []domain.Assignee, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		prefs:   prefs,
		catalog: catalog,
		roster:  roster,
		now:     time.Now,
		logger:  logger,
	}
}

// Restore loads the persisted assignee and group. Entries that cannot be
// read are logged and skipped; entries that cannot be decoded are removed.
func (s *Store) Restore(ctx context.Context) {
	var assignee domain.Assignee
	restoredAssignee := s.restore(ctx, AssigneeKey, &assignee)
	var group domain.Group
	restoredGroup := s.restore(ctx, GroupKey, &group)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignee, s.group = nil, nil
	if restoredAssignee {
		s.assignee = &assignee
	}
	if restoredGroup {
		s.group = &group
	}
}

func (s *Store) restore(ctx context.Context, key string, out any) bool {
	if s.prefs == nil {
		return false
	}
	raw, ok, err := s.prefs.Get(ctx, key)
	if err != nil {
		s.logger.Warn("failed to read selection", "key", key, "error", err)
		return false
	}
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		s.logger.Warn("dropping unreadable selection", "key", key, "error", err)
		if err := s.prefs.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to drop selection", "key", key, "error", err)
		}
		return false
	}
	return true
}

// LoadCatalogs fetches the sprint and group catalogs and auto-selects the
// sprint covering the current week. Both fetches are attempted even when
// one fails; the first error is returned.
func (s *Store) LoadCatalogs(ctx context.Context) error {
	sprints, sprintErr := s.catalog.Sprints(ctx)
	groups, groupErr := s.catalog.Groups(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if sprintErr == nil {
		s.sprints = sprints
		s.sprint = nil
		if sprint, ok := SprintForWeek(sprints, CurrentWeek(s.now())); ok {
			s.sprint = &sprint
		}
	}
	if groupErr == nil {
		s.groups = groups
	}

	if sprintErr != nil {
		return fmt.Errorf("load sprints: %w", sprintErr)
	}
	if groupErr != nil {
		return fmt.Errorf("load groups: %w", groupErr)
	}
	return nil
}

func (s *Store) Roster() []domain.Assignee {
	return append([]domain.Assignee(nil), s.roster...)
}

func (s *Store) Sprints() []domain.Sprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Sprint(nil), s.sprints...)
}

func (s *Store) Groups() []domain.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Group(nil), s.groups...)
}

// SelectAssignee picks an assignee from the roster and persists it.
func (s *Store) SelectAssignee(ctx context.Context, id string) error {
	var picked *domain.Assignee
	for i := range s.roster {
		if s.roster[i].ID == id {
			assignee := s.roster[i]
			picked = &assignee
			break
		}
	}
	if picked == nil {
		return fmt.Errorf("%w: %s", ErrUnknownAssignee, id)
	}

	s.mu.Lock()
	s.assignee = picked
	s.mu.Unlock()

	return s.persist(ctx, AssigneeKey, picked)
}

// SelectSprint overrides the auto-selected sprint for this session only.
func (s *Store) SelectSprint(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sprints {
		if s.sprints[i].ID == id {
			sprint := s.sprints[i]
			s.sprint = &sprint
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownSprint, id)
}

// SelectGroup picks a group from the loaded catalog and persists it.
func (s *Store) SelectGroup(ctx context.Context, id string) error {
	s.mu.Lock()
	var picked *domain.Group
	for i := range s.groups {
		if s.groups[i].ID == id {
			group := s.groups[i]
			picked = &group
			break
		}
	}
	if picked == nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownGroup, id)
	}
	s.group = picked
	s.mu.Unlock()

	return s.persist(ctx, GroupKey, picked)
}

// persist failures leave the in-memory choice in place and wrap ErrNotSaved.
func (s *Store) persist(ctx context.Context, key string, value any) error {
	if s.prefs == nil {
		return nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrNotSaved, key, err)
	}
	if err := s.prefs.Put(ctx, key, string(encoded)); err != nil {
		s.logger.Error("failed to save selection", "key", key, "error", err)
		return fmt.Errorf("%w: %v", ErrNotSaved, err)
	}
	return nil
}

// Current returns copies of the active choices.
func (s *Store) Current() domain.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var selection domain.Selection
	if s.assignee != nil {
		assignee := *s.assignee
		selection.Assignee = &assignee
	}
	if s.sprint != nil {
		sprint := *s.sprint
		selection.Sprint = &sprint
	}
	if s.group != nil {
		group := *s.group
		selection.Group = &group
	}
	return selection
}
