package client

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// Session is the persisted authentication snapshot.
type Session struct {
	LoggedIn bool      `json:"loggedIn"`
	User     *UserInfo `json:"user,omitempty"`
}

// SessionStore holds the process-wide session snapshot, optionally persisted
// to a JSON file so it survives restarts. Mutation ownership: only the
// recovery controller (on 401) and successful login/sync flows may call Set
// or Clear; everything else treats the store as read-only via Snapshot.
type SessionStore struct {
	mu   sync.Mutex
	path string
	cur  Session
}

// NewSessionStore creates a store backed by the given file path. An empty
// path keeps the session in memory only. An existing file is loaded
// best-effort; a corrupt file is treated as logged-out.
func NewSessionStore(path string) *SessionStore {
	s := &SessionStore{path: path}
	if path == "" {
		return s
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		log.Warn().Str("path", path).Err(err).Msg("discarding unreadable session file")
		return s
	}
	s.cur = sess
	return s
}

// Snapshot returns a copy of the current session.
func (s *SessionStore) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}

// LoggedIn reports whether a user session is established.
func (s *SessionStore) LoggedIn() bool {
	return s.Snapshot().LoggedIn
}

// Set records a successful login for the given user and persists it.
func (s *SessionStore) Set(user *UserInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = Session{LoggedIn: true, User: user}
	s.persistLocked()
}

// Clear wipes the session wholesale. Idempotent: clearing an already-empty
// store is a no-op.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cur.LoggedIn && s.cur.User == nil {
		return
	}
	s.cur = Session{}
	if s.path != "" {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			log.Warn().Str("path", s.path).Err(err).Msg("failed to remove session file")
		}
	}
}

func (s *SessionStore) persistLocked() {
	if s.path == "" {
		return
	}
	raw, err := json.Marshal(s.cur)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		log.Warn().Str("path", s.path).Err(err).Msg("failed to create session dir")
		return
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		log.Warn().Str("path", s.path).Err(err).Msg("failed to persist session")
	}
}

// --------------------------------------------------------------------
// Session recovery
// --------------------------------------------------------------------

// RecoveryHandler reacts to a detected 401. Implementations must never
// panic or block indefinitely, and must tolerate concurrent invocation from
// multiple simultaneously-failing requests.
type RecoveryHandler interface {
	HandleAuthFailure(ctx context.Context, intendedPath string)
}

// Navigator receives the computed login URL. In a browser shell this would
// drive the router; the CLI default just surfaces it to the user.
type Navigator func(loginURL string)

// SessionRecovery is the default RecoveryHandler: it clears the session
// store, tears down the server-side session best-effort, and navigates to
// the login route with the originally intended destination attached as a
// redirect query parameter.
type SessionRecovery struct {
	store    *SessionStore
	teardown func(ctx context.Context) error
	navigate Navigator
	loginURL string

	mu          sync.Mutex
	currentPath string
}

// NewSessionRecovery wires the recovery controller. teardown is the
// best-effort server-side logout call; pass one issued through a client
// WITHOUT a recovery handler, otherwise a 401 during teardown would recurse.
// navigate may be nil, in which case the login URL is only logged.
func NewSessionRecovery(store *SessionStore, loginURL string, teardown func(ctx context.Context) error, navigate Navigator) *SessionRecovery {
	return &SessionRecovery{store: store, teardown: teardown, navigate: navigate, loginURL: loginURL}
}

// SetCurrentPath records the active route, used as the redirect target when
// a failing call does not name an intended destination.
func (r *SessionRecovery) SetCurrentPath(p string) {
	r.mu.Lock()
	r.currentPath = p
	r.mu.Unlock()
}

// HandleAuthFailure implements RecoveryHandler. It is idempotent: a second
// invocation while state is already cleared re-runs the same steps as
// no-ops modulo the redundant teardown call. It never propagates a failure;
// the last resort is a hard navigation to the bare login URL.
func (r *SessionRecovery) HandleAuthFailure(ctx context.Context, intendedPath string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("session recovery failed, falling back to login page")
			r.fallbackNavigate()
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store.Clear()

	if r.teardown != nil {
		if err := r.teardown(ctx); err != nil {
			// Teardown failures are swallowed so recovery always completes,
			// but logged under their own event so they stay visible.
			log.Warn().Err(err).Msg("server-side session teardown failed during recovery")
		}
	}

	target := intendedPath
	if target == "" {
		target = r.currentPath
	}
	dest := r.loginURL
	if target != "" {
		dest += "?redirect=" + url.QueryEscape(target)
	}

	if r.navigate != nil {
		r.navigate(dest)
	} else {
		log.Info().Str("login_url", dest).Msg("session expired, re-authentication required")
	}
}

// fallbackNavigate is the last-resort recovery path and must never itself
// panic.
func (r *SessionRecovery) fallbackNavigate() {
	defer func() { _ = recover() }()
	if r.navigate != nil {
		r.navigate(r.loginURL)
	} else {
		log.Info().Str("login_url", r.loginURL).Msg("session expired, re-authentication required")
	}
}
