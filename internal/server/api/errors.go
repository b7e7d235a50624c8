package api

import (
	"errors"
	"net/http"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
)

// Error kinds carried in ErrorResponse.Kind
const (
	KindNotFound           = "not_found"
	KindConflict           = "conflict"
	KindStorageUnavailable = "storage_unavailable"
	KindConfiguration      = "configuration"
	KindBadRequest         = "bad_request"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// ErrorKind classifies err for the wire
func ErrorKind(err error) string {
	switch {
	case core.IsNotFound(err):
		return KindNotFound
	case core.IsStorageUnavailable(err):
		return KindStorageUnavailable
	case core.IsConflict(err):
		return KindConflict
	case core.IsConfiguration(err):
		return KindConfiguration
	default:
		return KindBadRequest
	}
}

// StatusCode maps an error to its HTTP status
func StatusCode(err error) int {
	switch {
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsStorageUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// KindError turns a wire error kind back into a classified error
func KindError(kind, msg string) error {
	cause := errors.New(msg)
	var sentinel error
	switch kind {
	case KindNotFound:
		sentinel = core.ErrNotFound
	case KindConflict:
		sentinel = core.ErrConflict
	case KindStorageUnavailable:
		sentinel = core.ErrStorageUnavailable
	case KindConfiguration:
		sentinel = core.ErrConfiguration
	default:
		return cause
	}
	return &core.OpError{Op: "remote", Kind: sentinel, Err: cause}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusCode(err), ErrorResponse{Error: err.Error(), Kind: ErrorKind(err)})
}
