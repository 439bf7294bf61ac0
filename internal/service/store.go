package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campusdesk/complaint-console/internal/models"
	appErrors "github.com/campusdesk/complaint-console/pkg/errors"
)

// ResourceKey identifies an independently fetched complaint collection.
type ResourceKey string

// AdminComplaintsKey is the full triage list.
func AdminComplaintsKey() ResourceKey { return "admin:complaints" }

// StudentComplaintsKey is a student's own submissions.
func StudentComplaintsKey(studentID string) ResourceKey {
	return ResourceKey("student:" + studentID + ":complaints")
}

// PublicFeedKey is the shared public feed.
func PublicFeedKey() ResourceKey { return "public:feed" }

// Fetcher pulls the raw collection for one resource.
type Fetcher func(ctx context.Context) ([]models.Complaint, error)

// Snapshot is one settled view of a resource. Seq increases with every
// settlement; a later-settling fetch simply overwrites an earlier one
// (last-settled-wins, not last-started-wins).
type Snapshot struct {
	Key        ResourceKey
	Role       models.ViewerRole
	Complaints []Projection
	Stats      models.Stats
	Seq        uint64
	FetchedAt  time.Time
	FromCache  bool
}

type resource struct {
	role     models.ViewerRole
	fetch    Fetcher
	records  []models.Complaint
	snapshot Snapshot
	settled  bool
	fetching bool
	waiters  []chan error
	subs     map[int]chan Snapshot
}

// StoreParams groups Store constructor dependencies.
type StoreParams struct {
	Cache   *SnapshotCache
	Metrics *MetricsService
	Logger  *zap.Logger
}

// Store centralises fetch, cache and invalidation for every registered view.
// All mutation funnels through its mutex: the store plus the lifecycle
// controller are the only writers of the projected collections. Concurrent
// refreshes of the same resource join the outstanding fetch instead of
// issuing a second request.
type Store struct {
	mu        sync.Mutex
	resources map[ResourceKey]*resource
	cache     *SnapshotCache
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
	seq       uint64
	nextSub   int
	closed    bool
}

// NewStore constructs a Store.
func NewStore(params StoreParams) *Store {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		resources: make(map[ResourceKey]*resource),
		cache:     params.Cache,
		metrics:   params.Metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Register attaches a fetcher and viewer role to a resource key. When the
// shared cache holds a snapshot for the key it seeds the local state so a
// freshly started console renders immediately.
func (s *Store) Register(ctx context.Context, key ResourceKey, role models.ViewerRole, fetch Fetcher) {
	s.mu.Lock()
	if _, exists := s.resources[key]; exists {
		s.mu.Unlock()
		return
	}
	res := &resource{role: role, fetch: fetch, subs: make(map[int]chan Snapshot)}
	s.resources[key] = res
	s.mu.Unlock()

	if records, ok := s.cache.Get(ctx, key); ok {
		s.mu.Lock()
		if !res.settled {
			res.records = records
			s.publishLocked(key, res, true)
		}
		s.mu.Unlock()
	}
}

// Subscribe delivers snapshots for the key. The channel holds only the
// latest snapshot; a slow consumer sees the newest state, not a backlog.
// The returned function cancels the subscription.
func (s *Store) Subscribe(key ResourceKey) (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	res, ok := s.resources[key]
	if !ok || s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	res.subs[id] = ch
	if res.settled {
		ch <- res.snapshot
	}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		if sub, ok := res.subs[id]; ok {
			delete(res.subs, id)
			close(sub)
		}
		s.mu.Unlock()
	}
}

// Snapshot returns the latest settled snapshot for the key.
func (s *Store) Snapshot(key ResourceKey) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.resources[key]
	if !ok || !res.settled {
		return Snapshot{}, false
	}
	return res.snapshot, true
}

// Refresh runs one fetch-and-project cycle for the key. A call arriving
// while a fetch for the same key is outstanding joins it and returns its
// outcome.
func (s *Store) Refresh(ctx context.Context, key ResourceKey) error {
	s.mu.Lock()
	res, ok := s.resources[key]
	if !ok {
		s.mu.Unlock()
		return appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("unknown resource %s", key))
	}
	if res.fetching {
		done := make(chan error, 1)
		res.waiters = append(res.waiters, done)
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-done:
			return err
		}
	}
	res.fetching = true
	s.mu.Unlock()

	records, err := res.fetch(ctx)
	s.complete(ctx, key, res, records, err)
	return err
}

// Refreshing reports whether a fetch for the key is outstanding.
func (s *Store) Refreshing(key ResourceKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.resources[key]
	return ok && res.fetching
}

// Close marks the store torn down; late-settling fetches stop mutating state.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, res := range s.resources {
		for id, ch := range res.subs {
			delete(res.subs, id)
			close(ch)
		}
	}
}

func (s *Store) complete(ctx context.Context, key ResourceKey, res *resource, records []models.Complaint, err error) {
	s.mu.Lock()
	res.fetching = false
	for _, waiter := range res.waiters {
		waiter <- err
	}
	res.waiters = nil

	// Relevance guard: a completion landing after teardown must not touch
	// shared state.
	if s.closed {
		s.mu.Unlock()
		return
	}

	s.metrics.RecordCycle(string(key), err)
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("refresh cycle failed", zap.String("resource", string(key)), zap.Error(err))
		return
	}

	res.records = records
	s.publishLocked(key, res, false)
	s.mu.Unlock()

	if cacheErr := s.cache.Set(ctx, key, records); cacheErr != nil {
		s.logger.Debug("snapshot cache write-through failed", zap.String("resource", string(key)), zap.Error(cacheErr))
	}
}

// publishLocked recomputes the projection and stats for the resource and
// broadcasts the snapshot. Caller holds s.mu. Fetch, normalize, project and
// aggregate happen strictly in that order within one cycle.
func (s *Store) publishLocked(key ResourceKey, res *resource, fromCache bool) {
	s.seq++
	res.snapshot = Snapshot{
		Key:        key,
		Role:       res.role,
		Complaints: ProjectAll(res.records, res.role),
		Stats:      Aggregate(res.records),
		Seq:        s.seq,
		FetchedAt:  s.now(),
		FromCache:  fromCache,
	}
	res.settled = true

	if res.role != models.ViewerStudentPeer {
		s.metrics.SetStats(res.snapshot.Stats)
	}

	for _, ch := range res.subs {
		select {
		case ch <- res.snapshot:
		default:
			// Drop the stale snapshot the consumer has not read yet.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- res.snapshot:
			default:
			}
		}
	}
}

// PatchStatus applies an optimistic status change to every resource holding
// the id and returns the pre-patch records keyed by resource for rollback.
func (s *Store) PatchStatus(id string, status models.Status, at time.Time) map[ResourceKey]models.Complaint {
	s.mu.Lock()
	defer s.mu.Unlock()
	priors := make(map[ResourceKey]models.Complaint)
	if s.closed {
		return priors
	}
	for key, res := range s.resources {
		for i := range res.records {
			if res.records[i].ID != id {
				continue
			}
			priors[key] = res.records[i]
			res.records[i].Status = status
			res.records[i].UpdatedAt = at
			s.publishLocked(key, res, false)
			break
		}
	}
	return priors
}

// OverwriteRecord replaces the locally held record with the authoritative
// server copy wherever the id appears. Server state overwrites, never merges.
func (s *Store) OverwriteRecord(record models.Complaint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for key, res := range s.resources {
		for i := range res.records {
			if res.records[i].ID != record.ID {
				continue
			}
			res.records[i] = record
			s.publishLocked(key, res, false)
			break
		}
	}
}

// Restore rolls resources back to their pre-patch records.
func (s *Store) Restore(priors map[ResourceKey]models.Complaint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for key, prior := range priors {
		res, ok := s.resources[key]
		if !ok {
			continue
		}
		for i := range res.records {
			if res.records[i].ID != prior.ID {
				continue
			}
			res.records[i] = prior
			s.publishLocked(key, res, false)
			break
		}
	}
}
