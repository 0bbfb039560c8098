package session

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/IlikeChooros/go-uttt/pkg/engine"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("session not found")

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Sessions by id. Inputs to one session are handled one at a time.
type Store struct {
	mu       sync.Mutex
	config   engine.Config
	sessions map[string]*entry
}

func NewStore(config engine.Config) *Store {
	return &Store{config: config, sessions: make(map[string]*entry)}
}

// Creates a session and returns its id with the welcome text
func (st *Store) Create() (string, string, error) {
	var raw [8]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", "", errors.Wrap(err, "session id")
	}
	id := hex.EncodeToString(raw[:])

	s := New(st.config)
	text := s.Respond("")

	st.mu.Lock()
	st.sessions[id] = &entry{session: s}
	st.mu.Unlock()
	return id, text, nil
}

func (st *Store) get(id string) (*entry, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "id %q", id)
	}
	return e, nil
}

// Feeds 'input' to the session, returns its reply and the state after it
func (st *Store) Respond(id, input string) (string, State, error) {
	e, err := st.get(id)
	if err != nil {
		return "", 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	text := e.session.Respond(input)
	return text, e.session.State(), nil
}

func (st *Store) Snapshot(id string) (State, string, error) {
	e, err := st.get(id)
	if err != nil {
		return 0, "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.State(), e.session.Board().Compact(), nil
}

func (st *Store) Delete(id string) error {
	st.mu.Lock()
	e, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrNotFound, "id %q", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.Close()
	return nil
}

// Stops the background work of every session
func (st *Store) Close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, e := range st.sessions {
		e.mu.Lock()
		e.session.Close()
		e.mu.Unlock()
	}
}
