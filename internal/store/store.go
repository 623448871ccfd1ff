// Package store persists finished measurements in an embedded badger database.
//
// Records are grouped into sessions. Each opened Store is one run of the
// application and owns exactly one session, created lazily on the first Save.
// Session IDs increase monotonically across runs.
//
// Key layout:
//
//	s/<session id>          session metadata
//	r/<session id>/<seq>    one record, seq increasing within the session
//
// IDs and sequence numbers are big-endian so key order matches numeric order.
package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/philipparndt/armeasure/internal/measurement"
)

// ErrNotFound is returned when a query has no result
var ErrNotFound = errors.New("not found")

var (
	sessionPrefix = []byte("s/")
	recordPrefix  = []byte("r/")
)

// Session groups the records captured in one run
type Session struct {
	ID        uint64
	RunID     string
	CreatedAt time.Time
	Records   int
}

// Entry is a stored record together with its storage identity
type Entry struct {
	ID        string
	SessionID uint64
	Seq       uint64
	SavedAt   time.Time
	Record    measurement.Record
}

// Options configures Open
type Options struct {
	Dir      string // database directory, ignored when InMemory
	InMemory bool
	RunID    string // identifies this run; defaults to the open time in RFC3339
	Logger   *zap.Logger
	Now      func() time.Time
}

// Store is safe for concurrent use
type Store struct {
	db    *badger.DB
	log   *zap.Logger
	runID string
	now   func() time.Time

	mu      sync.Mutex
	current *Session
	lastSeq uint64
}

// Open opens (creating if needed) the database
func Open(opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RunID == "" {
		opts.RunID = opts.Now().UTC().Format(time.RFC3339Nano)
	}

	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New("store: database directory is required")
		}
		bopts = badger.DefaultOptions(opts.Dir)
	}
	bopts = bopts.WithLogger(badgerLogger{opts.Logger.Named("badger").Sugar()})

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrapf(err, "while opening database at %q", opts.Dir)
	}

	opts.Logger.Debug("opened measurement store",
		zap.String("dir", opts.Dir), zap.Bool("inMemory", opts.InMemory), zap.String("run", opts.RunID))

	return &Store{
		db:    db,
		log:   opts.Logger,
		runID: opts.RunID,
		now:   opts.Now,
	}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "while closing database")
}

// RunID returns the identifier of this run
func (s *Store) RunID() string { return s.runID }

// CurrentSession returns this run's session once something has been saved
func (s *Store) CurrentSession() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

func uint64Key(prefix []byte, ids ...uint64) []byte {
	key := make([]byte, len(prefix), len(prefix)+8*len(ids))
	copy(key, prefix)
	for _, id := range ids {
		key = binary.BigEndian.AppendUint64(key, id)
	}
	return key
}

func sessionKey(id uint64) []byte      { return uint64Key(sessionPrefix, id) }
func sessionRecords(id uint64) []byte  { return uint64Key(recordPrefix, id) }
func recordKey(sid, seq uint64) []byte { return uint64Key(recordPrefix, sid, seq) }

// lastKey returns the greatest key under prefix, or nil
func lastKey(txn *badger.Txn, prefix []byte) []byte {
	opt := badger.DefaultIteratorOptions
	opt.Reverse = true
	opt.PrefetchValues = false
	opt.Prefix = prefix
	itr := txn.NewIterator(opt)
	defer itr.Close()

	itr.Seek(append(bytes.Clone(prefix), bytes.Repeat([]byte{0xff}, 17)...))
	if !itr.ValidForPrefix(prefix) {
		return nil
	}
	return itr.Item().KeyCopy(nil)
}

// Save appends rec to this run's session, creating the session first if needed
func (s *Store) Save(ctx context.Context, rec measurement.Record) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	session := s.current
	created := false
	seq := s.lastSeq + 1

	entry := Entry{
		ID:      uuid.New().String(),
		Seq:     seq,
		SavedAt: now,
		Record:  rec,
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		if session == nil {
			var id uint64 = 1
			if key := lastKey(txn, sessionPrefix); key != nil {
				id = binary.BigEndian.Uint64(key[len(sessionPrefix):]) + 1
			}
			session = &Session{ID: id, RunID: s.runID, CreatedAt: now}
			val, err := encodeSession(*session)
			if err != nil {
				return err
			}
			if err := txn.Set(sessionKey(id), val); err != nil {
				return err
			}
			created = true
		}

		entry.SessionID = session.ID
		val, err := encodeEntry(entry)
		if err != nil {
			return err
		}
		return txn.Set(recordKey(session.ID, seq), val)
	})
	if err != nil {
		return Entry{}, errors.Wrap(err, "while saving measurement")
	}

	if created {
		s.current = session
		s.log.Info("created session", zap.Uint64("session", session.ID), zap.String("run", s.runID))
	}
	s.current.Records++
	s.lastSeq = seq

	s.log.Debug("saved measurement",
		zap.Uint64("session", entry.SessionID),
		zap.Uint64("seq", seq),
		zap.String("screenshot", rec.ScreenshotName),
		zap.Int("vertices", len(rec.WorldCoordinates)))
	return entry, nil
}

// lastEntry returns the entry with the greatest key under prefix
func (s *Store) lastEntry(prefix []byte) (Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		key := lastKey(txn, prefix)
		if key == nil {
			return ErrNotFound
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = decodeEntry(val)
			return err
		})
	})
	return entry, err
}

// Recent returns the last record appended to this run's session
func (s *Store) Recent(ctx context.Context) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	session, ok := s.CurrentSession()
	if !ok {
		return Entry{}, ErrNotFound
	}
	entry, err := s.lastEntry(sessionRecords(session.ID))
	if errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}
	return entry, errors.Wrap(err, "while reading recent measurement")
}

// Latest returns the newest record across all sessions
func (s *Store) Latest(ctx context.Context) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	entry, err := s.lastEntry(recordPrefix)
	if errors.Is(err, ErrNotFound) {
		return Entry{}, err
	}
	return entry, errors.Wrap(err, "while reading latest measurement")
}

// Sessions lists all sessions in creation order with their record counts
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var sessions []Session
	err := s.db.View(func(txn *badger.Txn) error {
		opt := badger.DefaultIteratorOptions
		opt.Prefix = sessionPrefix
		itr := txn.NewIterator(opt)
		defer itr.Close()

		for itr.Rewind(); itr.Valid(); itr.Next() {
			var session Session
			err := itr.Item().Value(func(val []byte) error {
				var err error
				session, err = decodeSession(val)
				return err
			})
			if err != nil {
				return err
			}
			session.Records = countKeys(txn, sessionRecords(session.ID))
			sessions = append(sessions, session)
		}
		return nil
	})
	return sessions, errors.Wrap(err, "while listing sessions")
}

func countKeys(txn *badger.Txn, prefix []byte) int {
	opt := badger.DefaultIteratorOptions
	opt.PrefetchValues = false
	opt.Prefix = prefix
	itr := txn.NewIterator(opt)
	defer itr.Close()

	count := 0
	for itr.Rewind(); itr.Valid(); itr.Next() {
		count++
	}
	return count
}

// Records returns the records of a session in the order they were saved
func (s *Store) Records(ctx context.Context, sessionID uint64) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(sessionKey(sessionID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}

		opt := badger.DefaultIteratorOptions
		opt.Prefix = sessionRecords(sessionID)
		itr := txn.NewIterator(opt)
		defer itr.Close()

		for itr.Rewind(); itr.Valid(); itr.Next() {
			err := itr.Item().Value(func(val []byte) error {
				entry, err := decodeEntry(val)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return entries, errors.Wrapf(err, "while reading session %d", sessionID)
}
