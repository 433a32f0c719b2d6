package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/auth"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/metrics"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/repo"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/session"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/web"
)

// loginFailedMessage is shown for a wrong password and for an unknown
// username alike, so the two cases cannot be told apart.
const loginFailedMessage = "Invalid username or password"

// AuthHandler serves the landing page and the login/logout flow.
type AuthHandler struct {
	Users    *repo.UserRepo
	Sessions *session.Manager
}

// Index renders the landing page, or sends signed-in users to the dashboard.
func (h *AuthHandler) Index(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.Sessions.CurrentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	web.Render(w, "index.html", web.PageData{Flashes: h.Sessions.Flashes(w, r)})
}

// LoginForm renders the login page.
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	web.Render(w, "login.html", web.PageData{Flashes: h.Sessions.Flashes(w, r)})
}

// LoginSubmit checks the submitted credentials and establishes a session.
func (h *AuthHandler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderLoginError(w, r, "Please enter both username and password")
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.renderLoginError(w, r, "Please enter both username and password")
		return
	}

	user, err := h.Users.GetByUsername(r.Context(), username)
	if err != nil && err != sql.ErrNoRows {
		slog.Error("login lookup failed", "username", username, "error", err)
		h.renderLoginError(w, r, "An error occurred during login")
		return
	}

	if err == sql.ErrNoRows || !auth.CheckPassword(password, user.PasswordHash) {
		slog.Warn("failed login attempt", "username", username)
		metrics.IncLogin("failure")
		h.renderLoginError(w, r, loginFailedMessage)
		return
	}

	if err := h.Sessions.Login(w, r, *user); err != nil {
		slog.Error("session save failed", "username", username, "error", err)
		h.renderLoginError(w, r, "An error occurred during login")
		return
	}

	slog.Info("user logged in", "username", username, "user_id", user.ID)
	metrics.IncLogin("success")
	h.Sessions.AddFlash(w, r, "success", "Welcome back, "+user.FirstName+"!")

	next := r.URL.Query().Get("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		next = "/dashboard"
	}
	http.Redirect(w, r, next, http.StatusFound)
}

// Logout clears the session and returns to the landing page. Safe to call
// without a session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if user, ok := h.Sessions.CurrentUser(r); ok {
		slog.Info("user logged out", "username", user.Username)
	}
	if err := h.Sessions.Logout(w, r); err != nil {
		slog.Error("logout failed", "error", err)
	}
	h.Sessions.AddFlash(w, r, "info", "You have been logged out successfully")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) renderLoginError(w http.ResponseWriter, r *http.Request, message string) {
	flashes := append(h.Sessions.Flashes(w, r), session.Flash{Category: "error", Message: message})
	web.Render(w, "login.html", web.PageData{Flashes: flashes})
}
