package notification

import (
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/miracleos/notifyd/internal/hint"
	"github.com/miracleos/notifyd/internal/imagestore"
)

// Options wires a Store to its collaborators. Images, Persister, Exporter,
// Recorder and Emitter may be nil.
type Options struct {
	Images    ImageResolver
	Persister Persister
	Exporter  Exporter
	Recorder  Recorder
	Emitter   Emitter
	Logger    zerolog.Logger
	Clock     func() time.Time

	// DeferSync skips writing the restored state in Open. The caller must
	// call Sync once this process is the one that owns the files.
	DeferSync bool
}

// Store owns the open notifications. All mutations hold mu for the whole
// read-modify-write and mirror sequence, so concurrent callers serialize.
type Store struct {
	mu      sync.Mutex
	records map[uint32]*Record
	nextID  uint32

	images    ImageResolver
	persister Persister
	exporter  Exporter
	recorder  Recorder
	emitter   Emitter
	log       zerolog.Logger
	now       func() time.Time
}

// Open creates a Store and restores any persisted state. A missing or corrupt
// state file yields an empty store. Unless opts.DeferSync is set, the restored
// set is flushed back so the count and export files match it.
func Open(opts Options) *Store {
	s := &Store{
		records:   make(map[uint32]*Record),
		nextID:    1,
		images:    opts.Images,
		persister: opts.Persister,
		exporter:  opts.Exporter,
		recorder:  opts.Recorder,
		emitter:   opts.Emitter,
		log:       opts.Logger,
		now:       opts.Clock,
	}
	if s.now == nil {
		s.now = time.Now
	}

	var saved uint32
	if s.persister != nil {
		state, err := s.persister.Load()
		if err != nil {
			s.log.Warn().Err(err).Msg("could not restore notifications, starting empty")
			state = State{}
		}
		for id, rec := range state.Records {
			if rec == nil || id == 0 || id == CloseAll {
				continue
			}
			rec.ID = id
			s.records[id] = rec
		}
		saved = state.NextID
	}
	s.nextID = nextIDAfter(s.records)
	if saved != 0 && saved != CloseAll && saved > s.nextID {
		s.nextID = saved
	}

	if !opts.DeferSync {
		s.Sync()
	}

	s.log.Info().Int("open", len(s.records)).Uint32("next_id", s.nextID).Msg("notification store ready")
	return s
}

// Sync writes the current state to the persister and exporter.
func (s *Store) Sync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flush()
}

// nextIDAfter returns one more than the highest id, or 1 when empty.
func nextIDAfter(records map[uint32]*Record) uint32 {
	var highest uint32
	for id := range records {
		highest = max(highest, id)
	}
	next := highest + 1
	if next == 0 || next == CloseAll {
		return 1
	}
	return next
}

// Notify creates or replaces a notification and returns its id.
func (s *Store) Notify(req Request) uint32 {
	s.mu.Lock()

	var id uint32
	replacing := req.ReplacesID != 0 && req.ReplacesID != CloseAll
	if replacing {
		id = req.ReplacesID
	} else {
		id = s.allocate()
	}

	rec := &Record{
		ID:            id,
		AppName:       req.AppName,
		Summary:       req.Summary,
		Body:          req.Body,
		AppIcon:       hint.StripFileScheme(req.AppIcon),
		Actions:       req.Actions,
		Hints:         req.Hints.WithoutInlineImages(),
		ExpireTimeout: req.ExpireTimeout,
		CreatedAt:     s.now().Truncate(time.Microsecond),
	}
	if rec.Actions == nil {
		rec.Actions = []string{}
	}
	rec.Image = s.resolveImage(id, req)

	s.records[id] = rec
	s.log.Info().
		Uint32("id", id).
		Bool("replaced", replacing).
		Str("app", rec.AppName).
		Str("summary", rec.Summary).
		Str("image", rec.Image).
		Msg("notification received")

	s.flush()
	if s.recorder != nil {
		if err := s.recorder.Record(rec.Clone()); err != nil {
			s.log.Warn().Err(err).Uint32("id", id).Msg("failed to record history")
		}
	}

	s.mu.Unlock()
	return id
}

// allocate returns the counter value and advances it. Zero, the close-all
// sentinel and ids taken through explicit replace are skipped.
func (s *Store) allocate() uint32 {
	for {
		id := s.nextID
		s.nextID++
		if s.nextID == CloseAll {
			s.nextID = 1
		}
		if id == 0 || id == CloseAll {
			continue
		}
		if _, taken := s.records[id]; taken {
			continue
		}
		return id
	}
}

func (s *Store) resolveImage(id uint32, req Request) string {
	if s.images == nil {
		return ""
	}
	res := s.images.Resolve(req.Hints)
	if res.Err != nil {
		if !errors.Is(res.Err, imagestore.ErrNoImage) {
			s.log.Warn().Err(res.Err).Uint32("id", id).Msg("dropping notification image")
		}
		return ""
	}
	return res.Path
}

// Close removes a notification and reports whether it was open. CloseAll
// removes every notification. A NotificationClosed signal is emitted once per
// call either way.
func (s *Store) Close(id uint32) bool {
	s.mu.Lock()

	at := s.now()
	var removed bool
	if id == CloseAll {
		removed = len(s.records) > 0
		clear(s.records)
		s.log.Info().Msg("all notifications closed")
	} else {
		_, removed = s.records[id]
		delete(s.records, id)
		s.log.Info().Uint32("id", id).Bool("was_open", removed).Msg("notification closed")
	}

	s.flush()
	if s.recorder != nil {
		var err error
		if id == CloseAll {
			err = s.recorder.ClosedAll(ReasonClosedByCall, at)
		} else if removed {
			err = s.recorder.Closed(id, ReasonClosedByCall, at)
		}
		if err != nil {
			s.log.Warn().Err(err).Uint32("id", id).Msg("failed to record close")
		}
	}

	s.mu.Unlock()

	if s.emitter != nil {
		s.emitter.NotificationClosed(id, ReasonClosedByCall)
	}
	return removed
}

// flush writes state and export. Failures are logged; memory stays authoritative.
// Must be called with mu held.
func (s *Store) flush() {
	list := s.sortedLocked()
	if s.persister != nil {
		if err := s.persister.Save(list, s.nextID); err != nil {
			s.log.Error().Err(err).Msg("failed to persist notifications")
		}
	}
	if s.exporter != nil {
		if err := s.exporter.Export(list); err != nil {
			s.log.Error().Err(err).Msg("failed to export notifications")
		}
	}
}

func (s *Store) sortedLocked() []*Record {
	ids := slices.Sorted(maps.Keys(s.records))
	list := make([]*Record, 0, len(ids))
	for _, id := range ids {
		list = append(list, s.records[id])
	}
	return list
}

// Capabilities returns the advertised capability strings.
func (s *Store) Capabilities() []string {
	return slices.Clone(capabilities)
}

// ServerInfo returns the server identification.
func (s *Store) ServerInfo() ServerInfo {
	return serverInfo
}

// Get returns a copy of an open notification.
func (s *Store) Get(id uint32) (*Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// List returns copies of all open notifications ordered by id.
func (s *Store) List() []*Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.sortedLocked()
	for i, rec := range list {
		list[i] = rec.Clone()
	}
	return list
}

// Len returns the number of open notifications.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// NextID returns the id the next fresh notification would get, ignoring skips.
func (s *Store) NextID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}
