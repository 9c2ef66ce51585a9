package rpc

import (
	"errors"
	"net/http"

	"clubchain/core"
	"clubchain/core/state"
	"clubchain/native/attendance"
	"clubchain/native/marketplace"
	"clubchain/native/membership"
)

// errorKind maps a ledger error to the stable string kind surfaced in the
// JSON-RPC error data, so clients can branch without string-matching
// messages.
func errorKind(err error) string {
	switch {
	case errors.Is(err, membership.ErrAlreadyRegistered),
		errors.Is(err, attendance.ErrSessionExists),
		errors.Is(err, marketplace.ErrAlreadyInitialized),
		errors.Is(err, state.ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		return "already_checked_in"
	case errors.Is(err, membership.ErrUnauthorized),
		errors.Is(err, attendance.ErrUnauthorized),
		errors.Is(err, marketplace.ErrUnauthorized),
		errors.Is(err, membership.ErrAdminNotAllowed):
		return "unauthorized"
	case errors.Is(err, attendance.ErrSessionNotActive):
		return "session_not_active"
	case errors.Is(err, attendance.ErrCheckInTimePassed):
		return "check_in_time_passed"
	case errors.Is(err, attendance.ErrInvalidTimeWindow):
		return "invalid_time_window"
	case errors.Is(err, attendance.ErrSessionAlreadyActive):
		return "session_already_active"
	case errors.Is(err, attendance.ErrInvalidDate),
		errors.Is(err, membership.ErrInvalidRole),
		errors.Is(err, marketplace.ErrInvalidPrice),
		errors.Is(err, marketplace.ErrInvalidQuantity),
		errors.Is(err, marketplace.ErrInvalidListing):
		return "invalid_input"
	case errors.Is(err, marketplace.ErrProductNotActive):
		return "product_not_active"
	case errors.Is(err, marketplace.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, marketplace.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, core.ErrAddressMismatch):
		return "address_mismatch"
	case errors.Is(err, membership.ErrMemberNotFound),
		errors.Is(err, attendance.ErrSessionNotFound),
		errors.Is(err, attendance.ErrRecordNotFound),
		errors.Is(err, marketplace.ErrNotFound),
		errors.Is(err, marketplace.ErrProductNotFound),
		errors.Is(err, marketplace.ErrPurchaseNotFound),
		errors.Is(err, state.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

func httpStatusFor(kind string) int {
	switch kind {
	case "not_found":
		return http.StatusNotFound
	case "unauthorized":
		return http.StatusForbidden
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// writeLedgerError renders a failed operation with its stable error kind.
func (s *Server) writeLedgerError(w http.ResponseWriter, id interface{}, method string, err error) {
	kind := errorKind(err)
	s.metrics.RecordFailure(method, kind)
	s.logger.Info("operation rejected", "method", method, "kind", kind, "error", err.Error())
	writeError(w, httpStatusFor(kind), id, codeServerError, err.Error(), map[string]string{"kind": kind})
}
