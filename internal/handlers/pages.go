package handlers

import (
	"net/http"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/session"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/web"
)

// PageHandler renders the authenticated HTML pages.
type PageHandler struct {
	Sessions *session.Manager
}

// Dashboard renders the main dashboard for the signed-in user.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())
	web.Render(w, "dashboard.html", web.PageData{
		Flashes:   h.Sessions.Flashes(w, r),
		Username:  user.Username,
		FirstName: user.FirstName,
	})
}
