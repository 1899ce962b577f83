package http

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/LavaJover/shvark-kickstarter-service/internal/domain"
)

type successResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type errorPayload struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Status string       `json:"status"`
	Error  errorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, successResponse{Status: "success", Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message, requestID string) {
	writeJSON(w, status, errorResponse{Status: "error", Error: errorPayload{Code: code, Message: message, RequestID: requestID}})
}

var statusByError = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrCampaignNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrSupporterNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrSettlementNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrUnauthorized, http.StatusForbidden, "forbidden"},
	{domain.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{domain.ErrInvalidMemo, http.StatusBadRequest, "invalid_memo"},
	{domain.ErrUnknownToken, http.StatusBadRequest, "unknown_token"},
	{domain.ErrSettlementResolved, http.StatusConflict, "already_resolved"},
	{domain.ErrSettlementInFlight, http.StatusConflict, "in_flight"},
	{domain.ErrRefundsPending, http.StatusConflict, "in_flight"},
	{domain.ErrPriceUnavailable, http.StatusServiceUnavailable, "price_unavailable"},
	{domain.ErrAwaitingEvaluation, http.StatusConflict, "precondition_failed"},
	{domain.ErrCampaignNotSuccessful, http.StatusConflict, "precondition_failed"},
	{domain.ErrBeforeCliff, http.StatusConflict, "precondition_failed"},
	{domain.ErrNotUnfrozen, http.StatusConflict, "precondition_failed"},
}

func mapDomainError(err error) (int, string) {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}
