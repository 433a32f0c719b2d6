package main

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/AhmedMotwaly/taskapp-3tier/internal/auth"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/config"
	"github.com/AhmedMotwaly/taskapp-3tier/internal/models"
)

func testConfig() config.Config {
	return config.Config{
		Port:          "8080",
		SessionSecret: "test-secret",
		Env:           "dev",
	}
}

// testClient keeps cookies but never follows redirects, so tests can
// assert on Location headers directly.
func testClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestServerLoginThenListTasks(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	hash, err := auth.HashPassword("demo123")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	mock.ExpectQuery(`SELECT id, username, password_hash, first_name, last_name\s+FROM users\s+WHERE username = \$1`).
		WithArgs("demo_user").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "first_name", "last_name"}).
			AddRow(1, "demo_user", hash, "Demo", "User"))

	now := time.Now()
	mock.ExpectQuery(`SELECT t\.id, t\.user_id, t\.title(.|\s)+FROM tasks t\s+JOIN users u ON t\.user_id = u\.id\s+WHERE t\.user_id = \$1`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "title", "description", "status", "priority", "due_date",
			"created_at", "updated_at", "username", "first_name", "last_name",
		}).AddRow(7, 1, "Buy milk", "", models.StatusPending, models.PriorityMedium, nil, now, now, "demo_user", "Demo", "User"))

	srv := httptest.NewServer(newRouter(db, testConfig()))
	defer srv.Close()

	client := testClient(t)

	resp, err := client.PostForm(srv.URL+"/login", url.Values{
		"username": {"demo_user"},
		"password": {"demo123"},
	})
	if err != nil {
		t.Fatalf("posting login form: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 after login, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %q", loc)
	}

	resp, err = client.Get(srv.URL + "/api/tasks")
	if err != nil {
		t.Fatalf("listing tasks: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 listing tasks, got %d", resp.StatusCode)
	}

	var tasks []models.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		t.Fatalf("decoding tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestServerAPIRequiresSession(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	srv := httptest.NewServer(newRouter(db, testConfig()))
	defer srv.Close()

	resp, err := testClient(t).Get(srv.URL + "/api/tasks")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["error"] != "authentication required" {
		t.Errorf("unexpected error message: %q", body["error"])
	}
}

func TestServerDashboardRedirectsAnonymous(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	srv := httptest.NewServer(newRouter(db, testConfig()))
	defer srv.Close()

	resp, err := testClient(t).Get(srv.URL + "/dashboard")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("expected redirect to /login, got %q", loc)
	}
}

func TestServerHealth(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	srv := httptest.NewServer(newRouter(db, testConfig()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "healthy" || body["database"] != "connected" {
		t.Errorf("unexpected health body: %+v", body)
	}
}
