package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"Recharted/internal/collector"
	"Recharted/internal/logger"
	"Recharted/internal/model"
	"Recharted/internal/resolver"
)

type errorBody struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type predatesBody struct {
	Error                 string `json:"error"`
	Details               string `json:"details,omitempty"`
	Warning               string `json:"warning"`
	EarliestDataTimestamp string `json:"earliestDataTimestamp"`
	RequestID             string `json:"requestId,omitempty"`
}

type chartMetadata struct {
	Source     model.Source `json:"source"`
	Provider   string       `json:"provider"`
	DataPoints int          `json:"dataPoints"`
	IsRealData bool         `json:"isRealData"`
	FetchedAt  string       `json:"fetchedAt"`
}

type chartDataResponse struct {
	*model.PriceSeries
	Metadata chartMetadata `json:"metadata"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	body := errorBody{Error: msg, RequestID: logger.RequestID(r.Context())}
	if err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

func writePredates(w http.ResponseWriter, r *http.Request, e *resolver.PredatesHistoryError) {
	writeJSON(w, http.StatusUnprocessableEntity, predatesBody{
		Error:                 "Tweet predates available price history",
		Details:               e.Error(),
		Warning:               e.Warning(),
		EarliestDataTimestamp: model.FormatTimestamp(e.EarliestData),
		RequestID:             logger.RequestID(r.Context()),
	})
}

// statusFor maps provider errors to HTTP status codes.
func statusFor(err error) (int, string) {
	var predates *resolver.PredatesHistoryError
	switch {
	case errors.As(err, &predates):
		return http.StatusUnprocessableEntity, "Tweet predates available price history"
	case errors.Is(err, resolver.ErrInvalidSymbolKey):
		return http.StatusBadRequest, "Invalid symbol"
	case errors.Is(err, collector.ErrNotConfigured), errors.Is(err, collector.ErrUnauthorized):
		return http.StatusUnauthorized, "Price provider rejected the request"
	case errors.Is(err, collector.ErrNoData):
		return http.StatusNotFound, "No price data found"
	default:
		return http.StatusInternalServerError, "Failed to fetch price data"
	}
}
