package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeBadRequest       = "bad_request"
	ErrTypeMethodNotAllowed = "method_not_allowed"
)

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

// JSON writes v as the JSON body of a response.
func JSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		InternalServerError(w, errors.New("encoding response failed").Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func BadRequest(w http.ResponseWriter, err error) {
	Error(w, http.StatusBadRequest, err)
}

func NotFound(w http.ResponseWriter, err error) {
	Error(w, http.StatusNotFound, err)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusMethodNotAllowed, errors.New("method not allowed").
		WithType(ErrTypeMethodNotAllowed).
		WithTag("method", r.Method).
		WithTag("path", r.URL.Path))
}

func InternalServerError(w http.ResponseWriter, err error) {
	logs.Warn(err)
	Error(w, http.StatusInternalServerError, err)
}

// Error writes err as a JSON error response.
func Error(w http.ResponseWriter, status int, err error) {
	b, _ := json.Marshal(errorResponse{
		Error: err.Error(),
		Type:  errors.Type(err),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
