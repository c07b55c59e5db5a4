package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"smartparking/pkg/logger"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type fakePinger struct {
	err    error
	gotRP  *readpref.ReadPref
	called bool
}

func (f *fakePinger) Ping(ctx context.Context, rp *readpref.ReadPref) error {
	f.called = true
	f.gotRP = rp
	return f.err
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		pingErr    error
		wantStatus int
		wantBody   HealthResponse
	}{
		{"liveness", "/health", nil, http.StatusOK, HealthResponse{Status: StatusOK}},
		{"liveness ignores database", "/health", errors.New("down"), http.StatusOK, HealthResponse{Status: StatusOK}},
		{"ready", "/ready", nil, http.StatusOK, HealthResponse{Status: StatusReady, Checks: map[string]string{"database": StatusOK}}},
		{"not ready", "/ready", errors.New("no reachable servers"), http.StatusServiceUnavailable,
			HealthResponse{Status: StatusUnavailable, Checks: map[string]string{"database": StatusError}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakePinger{err: tt.pingErr}
			router := httprouter.New()
			NewHealthHandler(logger.Discard(), map[string]Check{"database": MongoCheck(db)}).RegisterRoutes(router)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}
			var got HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !reflect.DeepEqual(got, tt.wantBody) {
				t.Errorf("got %+v, want %+v", got, tt.wantBody)
			}
			if tt.path == "/health" && db.called {
				t.Error("liveness must not ping the database")
			}
		})
	}
}

func TestMongoCheck_PingsPrimary(t *testing.T) {
	db := &fakePinger{}
	if err := MongoCheck(db)(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db.gotRP == nil || db.gotRP.Mode() != readpref.PrimaryMode {
		t.Errorf("expected primary read preference, got %v", db.gotRP)
	}
}

func TestReady_ReportsEachCheck(t *testing.T) {
	router := httprouter.New()
	NewHealthHandler(logger.Discard(), map[string]Check{
		"database": func(context.Context) error { return nil },
		"broker":   func(context.Context) error { return errors.New("dial tcp: refused") },
	}).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var got HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{"database": StatusOK, "broker": StatusError}
	if !reflect.DeepEqual(got.Checks, want) {
		t.Errorf("checks = %v, want %v", got.Checks, want)
	}
}
