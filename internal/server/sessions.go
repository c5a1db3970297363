package server

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
)

// sessionRegistry owns the editing sessions opened by a client. Sessions
// are independent; the registry only maps ids to them.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*editor.Session
	opts     editor.Options
}

func newSessionRegistry(opts editor.Options) *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*editor.Session),
		opts:     opts,
	}
}

// open creates an Empty session and returns its id.
func (r *sessionRegistry) open() (string, *editor.Session) {
	id := uuid.NewString()
	sess := editor.NewSession(r.opts)

	r.mu.Lock()
	r.sessions[id] = sess
	r.mu.Unlock()
	return id, sess
}

func (r *sessionRegistry) get(id string) (*editor.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", id)
	}
	return sess, nil
}

// close cancels and forgets the session. It returns the source the session
// had loaded, or "" when it was empty.
func (r *sessionRegistry) close(id string) (string, error) {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("unknown session: %s", id)
	}
	var source string
	if info, err := sess.Source(); err == nil {
		source = info.Source
	}
	sess.Cancel()
	return source, nil
}

// uses reports whether any open session has source loaded.
func (r *sessionRegistry) uses(source string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sess := range r.sessions {
		if info, err := sess.Source(); err == nil && info.Source == source {
			return true
		}
	}
	return false
}

func (r *sessionRegistry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*editor.Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Cancel()
	}
}

func (r *sessionRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
