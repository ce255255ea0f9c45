package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/commands"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/dto"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/application/services"
	"github.com/felixgeelhaar/rendezvous/internal/negotiation/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// DeliveryHistory reads back journaled delivery attempts.
type DeliveryHistory interface {
	History(ctx context.Context, negotiationID uuid.UUID) ([]services.DeliveryRecord, error)
}

// NegotiationHandler serves the negotiation endpoints.
type NegotiationHandler struct {
	negotiate *commands.NegotiateHandler
	finalize  *commands.FinalizeHandler
	history   DeliveryHistory
}

// NewNegotiationHandler creates the handler. history may be nil when the
// journal is disabled.
func NewNegotiationHandler(negotiate *commands.NegotiateHandler, finalize *commands.FinalizeHandler, history DeliveryHistory) *NegotiationHandler {
	return &NegotiationHandler{negotiate: negotiate, finalize: finalize, history: history}
}

type negotiateRequest struct {
	Participants        []domain.ParticipantInput `json:"participants"`
	RequireConfirmation bool                      `json:"require_confirmation"`
	ExcludeMalformed    bool                      `json:"exclude_malformed"`
	Notify              bool                      `json:"notify"`
	MeetingLink         string                    `json:"meeting_link"`
	CustomMessage       string                    `json:"custom_message"`
}

type finalizeRequest struct {
	Slot          commands.SlotInput        `json:"slot"`
	Participants  []domain.ParticipantInput `json:"participants"`
	Notify        bool                      `json:"notify"`
	MeetingLink   string                    `json:"meeting_link"`
	CustomMessage string                    `json:"custom_message"`
}

// Negotiate handles POST /api/v1/negotiations.
func (h *NegotiationHandler) Negotiate(w http.ResponseWriter, r *http.Request) {
	var req negotiateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.negotiate.Handle(r.Context(), commands.NegotiateCommand{
		Participants:        req.Participants,
		RequireConfirmation: req.RequireConfirmation,
		ExcludeMalformed:    req.ExcludeMalformed,
		Notify:              req.Notify,
		MeetingLink:         req.MeetingLink,
		CustomMessage:       req.CustomMessage,
	})
	if err != nil {
		writeError(w, classify(err))
		return
	}

	writeJSON(w, http.StatusOK, dto.NewOutcomeDTO(result.Outcome, result.Excluded, result.Delivery))
}

// Finalize handles POST /api/v1/negotiations/finalize.
func (h *NegotiationHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.finalize.Handle(r.Context(), commands.FinalizeCommand{
		Slot:          req.Slot,
		Participants:  req.Participants,
		Notify:        req.Notify,
		MeetingLink:   req.MeetingLink,
		CustomMessage: req.CustomMessage,
	})
	if err != nil {
		writeError(w, classify(err))
		return
	}

	writeJSON(w, http.StatusOK, dto.NewOutcomeDTO(result.Outcome, nil, result.Delivery))
}

// Deliveries handles GET /api/v1/negotiations/{negotiationID}/deliveries.
func (h *NegotiationHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeError(w, &APIError{Status: http.StatusNotFound, Code: "journal_disabled", Message: "Delivery journal is disabled"})
		return
	}

	id, err := uuid.Parse(r.PathValue("negotiationID"))
	if err != nil {
		writeError(w, &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: "Invalid negotiation ID"})
		return
	}

	records, err := h.history.History(r.Context(), id)
	if err != nil {
		writeError(w, &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Failed to read delivery history"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"negotiation_id": id,
		"deliveries":     dto.NewDeliveryDTOs(records),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, &APIError{Status: http.StatusBadRequest, Code: "bad_request", Message: "Invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

// classify maps the negotiation error taxonomy to HTTP responses.
func classify(err error) *APIError {
	var malformed *domain.MalformedInputError
	var verrs validator.ValidationErrors

	switch {
	case errors.As(err, &malformed):
		return &APIError{
			Status:        http.StatusBadRequest,
			Code:          "malformed_input",
			Message:       err.Error(),
			ParticipantID: malformed.ParticipantID,
			Field:         malformed.Field,
		}
	case errors.As(err, &verrs), errors.Is(err, domain.ErrMalformedInput), errors.Is(err, domain.ErrDuplicateParticipant):
		return &APIError{Status: http.StatusBadRequest, Code: "malformed_input", Message: err.Error()}
	case errors.Is(err, domain.ErrInsufficientParticipants):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "insufficient_participants", Message: err.Error()}
	case errors.Is(err, domain.ErrExternalServiceUnavailable):
		return &APIError{Status: http.StatusBadGateway, Code: "external_service_unavailable", Message: err.Error()}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "Internal server error"}
	}
}
