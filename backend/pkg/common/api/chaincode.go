package api

import (
	"net/http"
	"strings"
)

// chaincode error kinds, in match order. Longer codes come first so
// e.g. RECIPIENT_NOT_FOUND is not shadowed by NOT_FOUND.
var chainErrorStatus = []struct {
	code   string
	status int
}{
	{"ALREADY_INITIALIZED", http.StatusConflict},
	{"DUPLICATE_FINGERPRINT", http.StatusConflict},
	{"DUPLICATE_OWNER", http.StatusConflict},
	{"RECIPIENT_NOT_FOUND", http.StatusNotFound},
	{"INVALID_FEE_RATE", http.StatusBadRequest},
	{"INVALID_INPUT", http.StatusBadRequest},
	{"BELOW_MINIMUM", http.StatusBadRequest},
	{"SELF_PAYMENT", http.StatusUnprocessableEntity},
	{"INSUFFICIENT_FUNDS", http.StatusUnprocessableEntity},
	{"UNAUTHORIZED", http.StatusForbidden},
	{"NOT_FOUND", http.StatusNotFound},
}

// StatusForChainError maps a chaincode error to an HTTP status and stable
// error code. Chaincode errors arrive as strings carrying the kind as a
// prefix; anything unrecognized is an internal error.
func StatusForChainError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	msg := err.Error()
	for _, m := range chainErrorStatus {
		if strings.Contains(msg, m.code) {
			return m.status, strings.ToLower(m.code)
		}
	}
	return http.StatusInternalServerError, "chain_error"
}
