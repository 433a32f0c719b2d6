package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/auth"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/models"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/repo"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/session"
)

func loginRequest(form url.Values) *http.Request {
	r := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func userRows(t *testing.T, password string) *sqlmock.Rows {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return sqlmock.NewRows([]string{"id", "username", "password_hash", "first_name", "last_name"}).
		AddRow(1, "alice", hash, "Alice", "Smith")
}

func TestAuthHandler_LoginSubmit_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("alice").
		WillReturnRows(userRows(t, "demo123"))

	h := &AuthHandler{Users: repo.NewUserRepo(db), Sessions: session.NewManager("test-secret")}

	rr := httptest.NewRecorder()
	h.LoginSubmit(rr, loginRequest(url.Values{"username": {"alice"}, "password": {"demo123"}}))

	if rr.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("redirect: got %q, want /dashboard", loc)
	}
	if len(rr.Result().Cookies()) == 0 {
		t.Error("expected a session cookie to be set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_LoginSubmit_WrongPassword(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("alice").
		WillReturnRows(userRows(t, "demo123"))

	h := &AuthHandler{Users: repo.NewUserRepo(db), Sessions: session.NewManager("test-secret")}

	rr := httptest.NewRecorder()
	h.LoginSubmit(rr, loginRequest(url.Values{"username": {"alice"}, "password": {"wrong"}}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (re-rendered login)", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), loginFailedMessage) {
		t.Error("expected the generic invalid-credentials message")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_LoginSubmit_UnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, password_hash`).
		WithArgs("nobody").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "first_name", "last_name"}))

	h := &AuthHandler{Users: repo.NewUserRepo(db), Sessions: session.NewManager("test-secret")}

	rr := httptest.NewRecorder()
	h.LoginSubmit(rr, loginRequest(url.Values{"username": {"nobody"}, "password": {"whatever"}}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (re-rendered login)", rr.Code)
	}
	// Unknown user and wrong password must be indistinguishable.
	if !strings.Contains(rr.Body.String(), loginFailedMessage) {
		t.Error("expected the generic invalid-credentials message")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_LoginSubmit_MissingFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	h := &AuthHandler{Users: repo.NewUserRepo(db), Sessions: session.NewManager("test-secret")}

	rr := httptest.NewRecorder()
	h.LoginSubmit(rr, loginRequest(url.Values{"username": {"alice"}}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (re-rendered login)", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Please enter both username and password") {
		t.Error("expected the missing-fields message")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	m := session.NewManager("test-secret")
	h := &AuthHandler{Users: repo.NewUserRepo(db), Sessions: m}

	loginRR := httptest.NewRecorder()
	if err := m.Login(loginRR, httptest.NewRequest("POST", "/login", nil), models.User{ID: 1, Username: "alice"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	r := httptest.NewRequest("GET", "/logout", nil)
	for _, c := range loginRR.Result().Cookies() {
		r.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.Logout(rr, r)

	if rr.Code != http.StatusFound {
		t.Fatalf("status: got %d, want 302", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("redirect: got %q, want /", loc)
	}

	// The session must be unusable immediately after logout.
	after := httptest.NewRequest("GET", "/dashboard", nil)
	for _, c := range rr.Result().Cookies() {
		after.AddCookie(c)
	}
	if _, ok := m.CurrentUser(after); ok {
		t.Error("session still valid after logout")
	}
}

func TestAuthHandler_Index(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	m := session.NewManager("test-secret")
	h := &AuthHandler{Users: repo.NewUserRepo(db), Sessions: m}

	rr := httptest.NewRecorder()
	h.Index(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("unauthenticated index: got %d, want 200", rr.Code)
	}

	loginRR := httptest.NewRecorder()
	if err := m.Login(loginRR, httptest.NewRequest("POST", "/login", nil), models.User{ID: 1, Username: "alice"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	authed := httptest.NewRequest("GET", "/", nil)
	for _, c := range loginRR.Result().Cookies() {
		authed.AddCookie(c)
	}
	rr = httptest.NewRecorder()
	h.Index(rr, authed)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/dashboard" {
		t.Errorf("authenticated index: got %d %q, want 302 /dashboard", rr.Code, rr.Header().Get("Location"))
	}
}
