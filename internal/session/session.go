package session

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gorilla/sessions"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/models"
)

const sessionName = "taskapp_session"

type ctxKey string

const userKey ctxKey = "session_user"

// User is the authenticated identity cached in the session cookie.
type User struct {
	ID        int
	Username  string
	FirstName string
}

// Flash is a one-shot UI message with a category (success, error, warning, info).
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// Manager issues, validates, and clears the signed cookie session.
type Manager struct {
	store *sessions.CookieStore
}

// NewManager builds a cookie-backed session manager signed with secret.
func NewManager(secret string) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   24 * 3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &Manager{store: store}
}

// Login establishes a fresh session for user, replacing any prior session
// state in this browser context.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user models.User) error {
	sess := m.session(r)
	sess.Values = map[interface{}]interface{}{
		"user_id":    user.ID,
		"username":   user.Username,
		"first_name": user.FirstName,
	}
	return sess.Save(r, w)
}

// CurrentUser returns the signed-in user, or false when the request carries
// no valid session.
func (m *Manager) CurrentUser(r *http.Request) (User, bool) {
	sess := m.session(r)
	id, ok := sess.Values["user_id"].(int)
	if !ok {
		return User{}, false
	}
	username, _ := sess.Values["username"].(string)
	firstName, _ := sess.Values["first_name"].(string)
	return User{ID: id, Username: username, FirstName: firstName}, true
}

// Logout clears all session fields. Safe to call when no session exists.
// The cookie itself survives so a post-logout flash can still render.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	sess := m.session(r)
	sess.Values = map[interface{}]interface{}{}
	return sess.Save(r, w)
}

// AddFlash queues a one-shot message for the next rendered page.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, category, message string) {
	sess := m.session(r)
	sess.AddFlash(Flash{Category: category, Message: message})
	_ = sess.Save(r, w)
}

// Flashes drains and returns queued messages.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) []Flash {
	sess := m.session(r)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(r, w)
	out := make([]Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(Flash); ok {
			out = append(out, f)
		}
	}
	return out
}

// RequirePage guards HTML routes: unauthenticated requests are sent to the
// login page with a flash, carrying the original path in ?next=.
func (m *Manager) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.CurrentUser(r)
		if !ok {
			m.AddFlash(w, r, "warning", "Please log in to access this page")
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// RequireAPI guards JSON routes: unauthenticated requests get 401 with a
// JSON body instead of a redirect.
func (m *Manager) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.CurrentUser(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser returns a context carrying the session user.
func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the session user placed by RequirePage/RequireAPI.
func UserFromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(userKey).(User)
	return user, ok
}

// session returns the request's session, or a fresh one when the cookie is
// missing or fails signature validation (treated as unauthenticated).
func (m *Manager) session(r *http.Request) *sessions.Session {
	sess, _ := m.store.Get(r, sessionName)
	return sess
}
