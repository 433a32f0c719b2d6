package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestHealthHandler_Healthy(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT 1`).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	h := &HealthHandler{DB: db}
	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out struct {
		Status         string  `json:"status"`
		Timestamp      string  `json:"timestamp"`
		Version        string  `json:"version"`
		Database       string  `json:"database"`
		ResponseTimeMs float64 `json:"response_time_ms"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "healthy" || out.Database != "connected" || out.Version != Version {
		t.Errorf("unexpected body: %+v", out)
	}
	if out.Timestamp == "" || out.ResponseTimeMs < 0 {
		t.Errorf("missing timestamp or latency: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestHealthHandler_StoreDown(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT 1`).
		WillReturnError(errTest("dial tcp 10.0.0.5:5432: connect: connection refused"))

	h := &HealthHandler{DB: db}
	rr := httptest.NewRecorder()
	h.Health(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d, want 503", rr.Code)
	}
	var out struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	body := rr.Body.String()
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Status != "unhealthy" || out.Database != "error" {
		t.Errorf("unexpected body: %+v", out)
	}
	// Raw store error text must not reach the client.
	if strings.Contains(body, "connection refused") {
		t.Error("health body leaked the store error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
