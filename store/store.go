// Package store holds the client-side cache of issues.
//
// Every mutation builds a complete new Snapshot and publishes it with a
// single atomic pointer swap, so a reader either sees the state before a
// change or after it, never in between. Writers serialize on a mutex that
// is never held across a network call.
package store

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"civicsync/ledger"
	"civicsync/models"
)

// Snapshot is an immutable version of the store contents.
type Snapshot struct {
	version uint64
	order   []string
	byID    map[string]models.Issue
}

var empty = &Snapshot{byID: map[string]models.Issue{}}

// Version increases by one with every published change.
func (s *Snapshot) Version() uint64 { return s.version }

// Len is the number of issues in the snapshot.
func (s *Snapshot) Len() int { return len(s.order) }

// Get returns a copy of the issue with the given id.
func (s *Snapshot) Get(id string) (models.Issue, bool) {
	issue, ok := s.byID[id]
	if !ok {
		return models.Issue{}, false
	}
	return issue.Clone(), true
}

// Filter yields the issues passing f in store order.
func (s *Snapshot) Filter(f models.Filter) iter.Seq[models.Issue] {
	return func(yield func(models.Issue) bool) {
		for _, id := range s.order {
			issue := s.byID[id]
			if !f.Matches(issue.Status) {
				continue
			}
			if !yield(issue.Clone()) {
				return
			}
		}
	}
}

// HandlerID identifies a registered change handler.
type HandlerID uint64

// Handler is called once for every published snapshot, in version order.
// Handlers run without the store lock held, so they may register or remove
// handlers. A handler removed before a pending snapshot is delivered does
// not receive it.
type Handler func(*Snapshot)

type Store struct {
	mu       sync.Mutex
	current  atomic.Pointer[Snapshot]
	handlers map[HandlerID]Handler
	nextID   HandlerID
	logger   *slog.Logger

	pending    []*Snapshot
	delivering bool
}

// New returns an empty Store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		handlers: make(map[HandlerID]Handler),
		logger:   logger,
	}
	s.current.Store(empty)
	return s
}

// Snapshot returns the current version.
func (s *Store) Snapshot() *Snapshot { return s.current.Load() }

func (s *Store) Version() uint64 { return s.Snapshot().Version() }

func (s *Store) Len() int { return s.Snapshot().Len() }

func (s *Store) Get(id string) (models.Issue, bool) { return s.Snapshot().Get(id) }

// FilteredView returns a restartable sequence of the issues matching f.
// Each iteration reads the snapshot current at the time it starts.
func (s *Store) FilteredView(f models.Filter) iter.Seq[models.Issue] {
	return func(yield func(models.Issue) bool) {
		s.Snapshot().Filter(f)(yield)
	}
}

// ReplaceAll discards the current contents and installs issues in the
// given order. A repeated id keeps its first position and last value.
func (s *Store) ReplaceAll(issues []models.Issue) {
	s.mu.Lock()
	defer s.deliver()
	defer s.mu.Unlock()

	next := &Snapshot{
		order: make([]string, 0, len(issues)),
		byID:  make(map[string]models.Issue, len(issues)),
	}
	for _, issue := range issues {
		if _, seen := next.byID[issue.ID]; !seen {
			next.order = append(next.order, issue.ID)
		}
		next.byID[issue.ID] = issue.Clone()
	}
	s.publish(next)
	s.logger.Debug("store replaced", "issues", next.Len(), "version", next.version)
}

// PatchStatus sets the status of one issue. An id that is not loaded is
// dropped silently and a patch to the current status publishes nothing;
// both return false.
func (s *Store) PatchStatus(id string, status models.IssueStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}

	s.mu.Lock()
	defer s.deliver()
	defer s.mu.Unlock()

	cur := s.current.Load()
	issue, ok := cur.byID[id]
	if !ok {
		s.logger.Debug("status patch dropped", "id", id)
		return false, nil
	}
	if issue.Status == status {
		return false, nil
	}
	s.publish(cur.with(issue.WithStatus(status)))
	return true, nil
}

// Insert places a newly created issue at the front of the store, or
// replaces it in place when it is already loaded.
func (s *Store) Insert(issue models.Issue) {
	s.mu.Lock()
	defer s.deliver()
	defer s.mu.Unlock()

	cur := s.current.Load()
	if _, ok := cur.byID[issue.ID]; ok {
		s.publish(cur.with(issue.Clone()))
		return
	}
	next := cur.with(issue.Clone())
	next.order = append([]string{issue.ID}, cur.order...)
	s.publish(next)
}

// AddUpvote records userID's vote on the loaded issue with the given id,
// keeping every other field as currently stored. A vote already present
// publishes nothing. It returns the stored issue, or ErrNotFound when the
// id is not loaded.
func (s *Store) AddUpvote(id, userID string) (models.Issue, error) {
	s.mu.Lock()
	defer s.deliver()
	defer s.mu.Unlock()

	cur := s.current.Load()
	issue, ok := cur.byID[id]
	if !ok {
		return models.Issue{}, fmt.Errorf("upvote %s: %w", id, models.ErrNotFound)
	}
	voted, err := ledger.AddVote(issue, userID)
	if errors.Is(err, models.ErrAlreadyVoted) {
		return issue.Clone(), nil
	}
	if err != nil {
		return models.Issue{}, err
	}
	s.publish(cur.with(voted))
	return voted.Clone(), nil
}

// OnUpdate registers h for change notifications.
func (s *Store) OnUpdate(h Handler) HandlerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.handlers[s.nextID] = h
	return s.nextID
}

// OffUpdate removes a handler registered with OnUpdate.
func (s *Store) OffUpdate(id HandlerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, id)
}

// with copies the snapshot with issue set. The order slice is shared and
// must not be modified in place.
func (s *Snapshot) with(issue models.Issue) *Snapshot {
	byID := maps.Clone(s.byID)
	byID[issue.ID] = issue
	return &Snapshot{order: s.order, byID: byID}
}

// publish installs next and queues it for the handlers. It must be called
// with s.mu held; the caller runs deliver after releasing it.
func (s *Store) publish(next *Snapshot) {
	next.version = s.current.Load().version + 1
	s.current.Store(next)
	s.pending = append(s.pending, next)
}

// deliver hands queued snapshots to the handlers in version order. Only one
// goroutine delivers at a time; a writer that finds delivery in progress
// leaves its snapshot to that goroutine.
func (s *Store) deliver() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.delivering {
		return
	}
	s.delivering = true

	for len(s.pending) > 0 {
		next := s.pending[0]
		s.pending = s.pending[1:]
		handlers := s.sortedHandlers()

		s.mu.Unlock()
		for _, h := range handlers {
			h(next)
		}
		s.mu.Lock()
	}
	s.delivering = false
}

// sortedHandlers must be called with s.mu held.
func (s *Store) sortedHandlers() []Handler {
	ids := slices.Sorted(maps.Keys(s.handlers))
	handlers := make([]Handler, len(ids))
	for i, id := range ids {
		handlers[i] = s.handlers[id]
	}
	return handlers
}
