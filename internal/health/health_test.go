package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
)

func get(t *testing.T, s *Server) (int, map[string]any) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest("GET", "/healthz", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.StatusCode, body
}

func TestHealthOK(t *testing.T) {
	s := New(Options{
		Version:  "v1.2.3",
		Sessions: func(context.Context) (int, error) { return 4, nil },
		Ping:     func(context.Context) error { return nil },
	})
	code, body := get(t, s)
	if code != 200 || body["status"] != "ok" || body["version"] != "v1.2.3" {
		t.Fatalf("code=%d body=%v", code, body)
	}
	if body["sessions"] != float64(4) || body["database"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestHealthDegraded(t *testing.T) {
	s := New(Options{Ping: func(context.Context) error { return errors.New("connection refused") }})
	code, body := get(t, s)
	if code != 503 || body["status"] != "degraded" || body["database"] != "connection refused" {
		t.Fatalf("code=%d body=%v", code, body)
	}
}

func TestHealthWithoutChecks(t *testing.T) {
	code, body := get(t, New(Options{}))
	if code != 200 || body["status"] != "ok" {
		t.Fatalf("code=%d body=%v", code, body)
	}
	if _, ok := body["sessions"]; ok {
		t.Fatal("sessions must be omitted without a counter")
	}
}

func TestUnknownRoute(t *testing.T) {
	resp, err := New(Options{}).App().Test(httptest.NewRequest("GET", "/nope", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}
