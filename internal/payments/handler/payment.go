package handler

import (
	"net/http"

	"smartparking/internal/payments/service"
	apperrors "smartparking/pkg/errors"
	httputil "smartparking/pkg/http"
	"smartparking/pkg/logger"
	"smartparking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const (
	confirmationPage         = "<h2>Payment Confirmed Successfully!</h2><p>You can now proceed with your reservation.</p>"
	confirmationFailedPlain  = "Error processing payment confirmation"
	msgInvalidRequestBody    = "Invalid request body"
	msgPaymentConfirmed      = "Payment confirmed!"
	msgPaymentInitiatedEmail = "Payment confirmed and email sent!"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

// Numeric fields accept numbers or numeric strings so form posts work.
type processPaymentRequest struct {
	UserID        string             `json:"userId"`
	SlotNumber    httputil.FlexInt   `json:"slotNumber"`
	PaymentMethod string             `json:"paymentMethod"`
	Amount        httputil.FlexFloat `json:"amount"`
	PaymentNumber string             `json:"paymentNumber"`
	Email         string             `json:"email"`
}

type generateCodeRequest struct {
	UserID        string             `json:"userId"`
	SlotNumber    httputil.FlexInt   `json:"slotNumber"`
	Amount        httputil.FlexFloat `json:"amount"`
	PaymentMethod string             `json:"paymentMethod"`
}

type confirmPaymentRequest struct {
	UserID     string           `json:"userId"`
	SlotNumber httputil.FlexInt `json:"slotNumber"`
	PaymentID  string           `json:"paymentId"`
}

func (c confirmPaymentRequest) toModel() *model.PaymentConfirmation {
	return &model.PaymentConfirmation{
		UserID:     c.UserID,
		SlotNumber: int(c.SlotNumber),
		PaymentID:  c.PaymentID,
	}
}

type paymentResponse struct {
	Message string         `json:"message"`
	Payment *model.Payment `json:"payment"`
}

type codeResponse struct {
	QRCode string `json:"qrCode"`
}

func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req processPaymentRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "ProcessPayment", apperrors.InvalidInput(msgInvalidRequestBody), true)
		return
	}

	payment, err := h.service.Initiate(r.Context(), &model.PaymentInitiation{
		UserID:        req.UserID,
		SlotNumber:    int(req.SlotNumber),
		PaymentMethod: req.PaymentMethod,
		Amount:        float64(req.Amount),
		PaymentNumber: req.PaymentNumber,
		Email:         req.Email,
	})
	if err != nil {
		h.writeError(w, "ProcessPayment", err, true)
		return
	}

	if err := httputil.WriteCreated(w, paymentResponse{
		Message: msgPaymentInitiatedEmail,
		Payment: payment,
	}); err != nil {
		h.log.Error("failed to write created response", "handler", "ProcessPayment", "operation", "WriteCreated", "error", err)
	}
}

func (h *PaymentHandler) GenerateQRCode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req generateCodeRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "GenerateQRCode", apperrors.InvalidInput(msgInvalidRequestBody), false)
		return
	}

	dataURL, err := h.service.GenerateCode(r.Context(), &model.PaymentCodeRequest{
		UserID:        req.UserID,
		SlotNumber:    int(req.SlotNumber),
		Amount:        float64(req.Amount),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.writeError(w, "GenerateQRCode", err, false)
		return
	}

	if err := httputil.WriteSuccess(w, codeResponse{QRCode: dataURL}); err != nil {
		h.log.Error("failed to write success response", "handler", "GenerateQRCode", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req confirmPaymentRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "ConfirmPayment", apperrors.InvalidInput(msgInvalidRequestBody), true)
		return
	}

	payment, err := h.service.Confirm(r.Context(), req.toModel())
	if err != nil {
		h.writeError(w, "ConfirmPayment", err, true)
		return
	}

	if err := httputil.WriteSuccess(w, paymentResponse{
		Message: msgPaymentConfirmed,
		Payment: payment,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "ConfirmPayment", "operation", "WriteSuccess", "error", err)
	}
}

// DummyConfirmation is the browser-facing confirmation link. It answers with
// an HTML snippet on success and plain text otherwise.
func (h *PaymentHandler) DummyConfirmation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req confirmPaymentRequest
	if err := httputil.DecodeQuery(r, &req); err != nil {
		h.writeText(w, "DummyConfirmation", http.StatusBadRequest, msgInvalidRequestBody)
		return
	}

	if _, err := h.service.Confirm(r.Context(), req.toModel()); err != nil {
		appErr := apperrors.AsAppError(err)
		body := appErr.Message
		if appErr.StatusCode() >= http.StatusInternalServerError {
			body = confirmationFailedPlain
		}
		h.writeText(w, "DummyConfirmation", appErr.StatusCode(), body)
		return
	}

	if err := httputil.WriteHTML(w, http.StatusOK, confirmationPage); err != nil {
		h.log.Error("failed to write HTML response", "handler", "DummyConfirmation", "operation", "WriteHTML", "error", err)
	}
}

func (h *PaymentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	payment, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err, false)
		return
	}

	if err := httputil.WriteSuccess(w, payment); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// writeError includes the underlying cause in the body when withCause is set.
func (h *PaymentHandler) writeError(w http.ResponseWriter, handler string, err error, withCause bool) {
	write, operation := httputil.WriteErrorMessage, "WriteErrorMessage"
	if withCause {
		write, operation = httputil.WriteError, "WriteError"
	}
	if writeErr := write(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", operation, "error", writeErr)
	}
}

func (h *PaymentHandler) writeText(w http.ResponseWriter, handler string, status int, body string) {
	if err := httputil.WriteText(w, status, body); err != nil {
		h.log.Error("failed to write text response", "handler", handler, "operation", "WriteText", "error", err)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/process-payment", h.ProcessPayment)
	router.POST("/generate-qrcode", h.GenerateQRCode)
	router.POST("/confirm-payment", h.ConfirmPayment)
	router.GET("/dummy-confirmation", h.DummyConfirmation)
	router.GET("/payments/:id", h.GetByID)
}
