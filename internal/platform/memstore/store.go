// Package memstore keeps every repository in process memory. It backs
// STORAGE=memory for local development and the end-to-end tests, and
// honours the same uniqueness, cascade and transaction rules as the
// Postgres schema.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medrx/medrx/internal/domain/doctor"
	"github.com/medrx/medrx/internal/domain/identity"
	"github.com/medrx/medrx/internal/domain/prescribing"
	"github.com/medrx/medrx/internal/domain/scheduling"
)

type tables struct {
	users         map[uuid.UUID]identity.User
	emails        map[string]uuid.UUID
	doctors       map[uuid.UUID]doctor.Profile
	doctorByUser  map[uuid.UUID]uuid.UUID
	appointments  map[uuid.UUID]scheduling.Appointment
	prescriptions map[uuid.UUID]prescribing.Prescription
	rxByAppt      map[uuid.UUID]uuid.UUID
}

func newTables() tables {
	return tables{
		users:         make(map[uuid.UUID]identity.User),
		emails:        make(map[string]uuid.UUID),
		doctors:       make(map[uuid.UUID]doctor.Profile),
		doctorByUser:  make(map[uuid.UUID]uuid.UUID),
		appointments:  make(map[uuid.UUID]scheduling.Appointment),
		prescriptions: make(map[uuid.UUID]prescribing.Prescription),
		rxByAppt:      make(map[uuid.UUID]uuid.UUID),
	}
}

func (t tables) clone() tables {
	return tables{
		users:         cloneMap(t.users),
		emails:        cloneMap(t.emails),
		doctors:       cloneMap(t.doctors),
		doctorByUser:  cloneMap(t.doctorByUser),
		appointments:  cloneMap(t.appointments),
		prescriptions: cloneMap(t.prescriptions),
		rxByAppt:      cloneMap(t.rxByAppt),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store holds the committed tables. Rows are stored by value and
// copied on the way out.
type Store struct {
	// txMu serialises transactions and writes made outside of one, which
	// gives WithinTx the isolation of a row lock on every row. mu guards t,
	// the committed state.
	txMu sync.Mutex
	mu   sync.RWMutex
	t    tables
}

func New() *Store {
	return &Store{t: newTables()}
}

type txKey struct{}

// txState is the private working copy of one transaction. Readers outside
// the transaction keep seeing the committed tables until it commits.
type txState struct {
	store *Store
	mu    sync.Mutex
	work  tables
}

func (s *Store) txFrom(ctx context.Context) *txState {
	tx, ok := ctx.Value(txKey{}).(*txState)
	if !ok || tx.store != s {
		return nil
	}
	return tx
}

// WithinTx runs fn against a copy of every table and publishes the copy
// only when fn returns nil. An error or panic discards it. Nested calls
// join the outer transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	tx := &txState{store: s, work: s.t.clone()}
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	tx.mu.Lock()
	defer tx.mu.Unlock()
	s.mu.Lock()
	s.t = tx.work
	s.mu.Unlock()
	return nil
}

// write applies fn to the transaction's working copy, or to the committed
// tables under both locks when ctx carries no transaction.
func (s *Store) write(ctx context.Context, fn func(t *tables) error) error {
	if tx := s.txFrom(ctx); tx != nil {
		tx.mu.Lock()
		defer tx.mu.Unlock()
		return fn(&tx.work)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.t)
}

// read sees the transaction's own writes inside WithinTx and committed
// state everywhere else.
func (s *Store) read(ctx context.Context, fn func(t *tables)) {
	if tx := s.txFrom(ctx); tx != nil {
		tx.mu.Lock()
		defer tx.mu.Unlock()
		fn(&tx.work)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.t)
}

// cascadeAppointment removes an appointment and its prescription, matching
// ON DELETE CASCADE.
func (t *tables) cascadeAppointment(id uuid.UUID) {
	delete(t.appointments, id)
	if rxID, ok := t.rxByAppt[id]; ok {
		delete(t.prescriptions, rxID)
		delete(t.rxByAppt, id)
	}
}

// ordered sorts rows oldest first with id as tie-breaker, the same order
// the Postgres repositories use.
func ordered[T any](rows []T, key func(T) (time.Time, uuid.UUID)) {
	sort.Slice(rows, func(i, j int) bool {
		ti, idi := key(rows[i])
		tj, idj := key(rows[j])
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return idi.String() < idj.String()
	})
}

// page applies limit and offset. A non-positive limit returns everything
// from offset on.
func page[T any](rows []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
