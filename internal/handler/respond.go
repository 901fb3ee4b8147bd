package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tammydufil/moodlagosapi/internal/database"
	"github.com/tammydufil/moodlagosapi/internal/service"
)

func textOrNil(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func timeOrNil(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func numericOrNil(n pgtype.Numeric) *string {
	if !n.Valid {
		return nil
	}
	s := database.NumericToString(n)
	return &s
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrMissingFields),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrStatusUnchanged),
		errors.Is(err, service.ErrSameTable),
		errors.Is(err, service.ErrMissingDiscountFields),
		errors.Is(err, service.ErrNotMergedOrder),
		errors.Is(err, service.ErrEmptyCustomers),
		errors.Is(err, service.ErrSplitBillCompleted):
		return true
	}
	return false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, service.ErrNoMatchingItems),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrMergeNeedsTwoOrders):
		return true
	}
	return false
}

// respondServiceError translates service errors into the shared taxonomy:
// validation 400, missing rows 404, duplicate finalization 409, rest 500.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case isNotFoundError(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSaleAlreadyCompleted):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		log.Printf("ERROR: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
