package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "smartparking/pkg/errors"
	"smartparking/pkg/logger"
	"smartparking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockReservationService struct {
	reserveFunc func(ctx context.Context, userID string, slotNumber int) (*model.Reservation, error)
	getByIDFunc func(ctx context.Context, id string) (*model.Reservation, error)
}

func (m *mockReservationService) Reserve(ctx context.Context, userID string, slotNumber int) (*model.Reservation, error) {
	return m.reserveFunc(ctx, userID, slotNumber)
}

func (m *mockReservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	return m.getByIDFunc(ctx, id)
}

func newRouter(svc *mockReservationService) *httprouter.Router {
	router := httprouter.New()
	NewReservationHandler(svc, logger.Discard()).RegisterRoutes(router)
	return router
}

func TestReserve_DecodesJSONAndForm(t *testing.T) {
	var gotUser string
	var gotSlot int
	svc := &mockReservationService{
		reserveFunc: func(ctx context.Context, userID string, slotNumber int) (*model.Reservation, error) {
			gotUser, gotSlot = userID, slotNumber
			return &model.Reservation{
				ID:         "64b7f0c2a1b2c3d4e5f60718",
				UserID:     userID,
				SlotNumber: slotNumber,
				ReservedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	router := newRouter(svc)

	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"json number", "application/json", `{"userId":"alice","slotNumber":7}`},
		{"json string", "application/json", `{"userId":"alice","slotNumber":"7"}`},
		{"form", "application/x-www-form-urlencoded", "userId=alice&slotNumber=7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/reserve-slot", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
			}
			if gotUser != "alice" || gotSlot != 7 {
				t.Errorf("service received (%q, %d)", gotUser, gotSlot)
			}

			var resp struct {
				Message     string            `json:"message"`
				Reservation model.Reservation `json:"reservation"`
			}
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Message != "Slot reserved successfully" {
				t.Errorf("unexpected message %q", resp.Message)
			}
			if resp.Reservation.ID != "64b7f0c2a1b2c3d4e5f60718" {
				t.Errorf("expected _id on the wire, got %+v", resp.Reservation)
			}
		})
	}
}

func TestReserve_ErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		serviceErr  error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "malformed json",
			body:        `{"userId":`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid request body",
		},
		{
			name:        "validation",
			body:        `{"userId":"alice"}`,
			serviceErr:  apperrors.InvalidInput("User ID and Slot Number are required"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "User ID and Slot Number are required",
		},
		{
			name:        "store failure hides cause",
			body:        `{"userId":"alice","slotNumber":7}`,
			serviceErr:  apperrors.Persistence("Error reserving slot", errors.New("connection refused")),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Error reserving slot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockReservationService{
				reserveFunc: func(ctx context.Context, userID string, slotNumber int) (*model.Reservation, error) {
					return nil, tt.serviceErr
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/reserve-slot", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, w.Code)
			}

			var resp map[string]any
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp["message"] != tt.wantMessage {
				t.Errorf("unexpected message %v", resp["message"])
			}
			if _, ok := resp["error"]; ok {
				t.Error("reservation errors must not expose the cause")
			}
		})
	}
}

func TestGetByID_Handler(t *testing.T) {
	svc := &mockReservationService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Reservation, error) {
			if id == "missing" {
				return nil, apperrors.NotFoundWithID("Reservation", id)
			}
			return &model.Reservation{ID: id, UserID: "alice", SlotNumber: 3}, nil
		},
	}
	router := newRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/abc", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
