package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "reload-gateway/internal/core/errors"
)

type (
	// HttpResponse is the standard success envelope.
	HttpResponse struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data,omitempty"`
	}

	// ErrorResponse follows a Problem Details-like shape for errors.
	ErrorResponse struct {
		Title    string `json:"title"`
		Status   int    `json:"status"`
		Detail   string `json:"detail,omitempty"`
		Instance string `json:"instance,omitempty"`
	}

	Base struct{}
)

func (b *Base) RespondWithError(w http.ResponseWriter, r *http.Request, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.String(),
	})
}

func (b *Base) RespondWithSuccess(w http.ResponseWriter, code int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(HttpResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// RespondWithException renders an application exception, or a plain 500
// for any other error.
func (b *Base) RespondWithException(w http.ResponseWriter, r *http.Request, err error) {
	var exc *apperrors.Exception
	if errors.As(err, &exc) {
		b.RespondWithError(w, r, exc.Code, exc.Message, exc.Err)
		return
	}
	b.RespondWithError(w, r, http.StatusInternalServerError, "internal server error", err.Error())
}

func (b *Base) wrap(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			b.RespondWithException(w, r, err)
		}
	}
}
