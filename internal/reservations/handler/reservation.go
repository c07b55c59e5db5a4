package handler

import (
	"errors"
	"net/http"

	"smartparking/internal/reservations/service"
	apperrors "smartparking/pkg/errors"
	httputil "smartparking/pkg/http"
	"smartparking/pkg/logger"
	"smartparking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ReservationHandler struct {
	service service.ReservationService
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		log:     log,
	}
}

type reserveRequest struct {
	UserID     string           `json:"userId"`
	SlotNumber httputil.FlexInt `json:"slotNumber"`
}

type reserveResponse struct {
	Message     string             `json:"message"`
	Reservation *model.Reservation `json:"reservation"`
}

func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req reserveRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "Reserve", apperrors.InvalidInput("Invalid request body"))
		return
	}

	reservation, err := h.service.Reserve(r.Context(), req.UserID, int(req.SlotNumber))
	if err != nil {
		h.writeError(w, "Reserve", err)
		return
	}

	if err := httputil.WriteCreated(w, reserveResponse{
		Message:     "Slot reserved successfully",
		Reservation: reservation,
	}); err != nil {
		h.log.Error("failed to write created response", "handler", "Reserve", "operation", "WriteCreated", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservation, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// writeError never exposes the underlying cause for reservation failures.
func (h *ReservationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		h.log.Error("unexpected error type", "handler", handler, "error", err)
	}
	if writeErr := httputil.WriteErrorMessage(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteErrorMessage", "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/reserve-slot", h.Reserve)
	router.GET("/reservations/:id", h.GetByID)
}
