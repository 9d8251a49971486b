package runner_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trustle-io/taskscheduler/internal/domain"
	"github.com/trustle-io/taskscheduler/internal/runner"
)

func TestHTTPHandler_UsesTaskURLOverDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	handler := runner.NewHTTPHandler("http://unused.invalid", discardLogger())
	task := &domain.Task{ID: 1, Params: domain.Params{"url": srv.URL}}

	result, err := handler(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["status_code"] != http.StatusTeapot {
		t.Fatalf("expected status %d, got %v", http.StatusTeapot, result["status_code"])
	}
	if _, ok := result["elapsed_seconds"]; !ok {
		t.Fatalf("expected elapsed_seconds in result, got %+v", result)
	}
}

func TestHTTPHandler_FallsBackToDefaultURLWhenParamMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	handler := runner.NewHTTPHandler(srv.URL, discardLogger())
	task := &domain.Task{ID: 2, Params: domain.Params{}}

	result, err := handler(context.Background(), task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result["status_code"] != http.StatusOK {
		t.Fatalf("expected status 200, got %v", result["status_code"])
	}
}

func TestHTTPHandler_ReturnsErrorOnUnreachableURL(t *testing.T) {
	handler := runner.NewHTTPHandler("http://127.0.0.1:1", discardLogger())
	task := &domain.Task{ID: 3, Params: domain.Params{}}

	if _, err := handler(context.Background(), task); err == nil {
		t.Fatal("expected an error dialing a closed port")
	}
}
