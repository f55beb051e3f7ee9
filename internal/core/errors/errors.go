package errors

import "net/http"

type Exception struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     string `json:"error,omitempty"`
	cause   error
}

func (e *Exception) Error() string {
	return e.Message
}

// Unwrap exposes the domain error the exception was built from, so callers
// can still match it with errors.Is.
func (e *Exception) Unwrap() error {
	return e.cause
}

type UserFriendlyExceptionOption func(*Exception)

func WithCode(code int) UserFriendlyExceptionOption {
	return func(h *Exception) {
		h.Code = code
	}
}

func WithMessage(message string) UserFriendlyExceptionOption {
	return func(h *Exception) {
		h.Message = message
	}
}

func WithError(err error) UserFriendlyExceptionOption {
	return func(h *Exception) {
		h.Err = err.Error()
		h.cause = err
	}
}

func NotFound(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(http.StatusNotFound),
		WithMessage("no entities found with given parameters"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func BadRequest(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(http.StatusBadRequest),
		WithMessage("bad request"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func Unauthorized(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(http.StatusUnauthorized),
		WithMessage("unauthorized"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func Conflict(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(http.StatusConflict),
		WithMessage("conflict"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func ServiceUnavailable(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(http.StatusServiceUnavailable),
		WithMessage("service unavailable"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func Unexpected(opts ...UserFriendlyExceptionOption) *Exception {
	defaultOpts := []UserFriendlyExceptionOption{
		WithCode(http.StatusInternalServerError),
		WithMessage("internal server error"),
	}
	return UserFriendlyException(append(defaultOpts, opts...)...)
}

func UserFriendlyException(opts ...UserFriendlyExceptionOption) *Exception {
	h := &Exception{
		Code:    http.StatusInternalServerError,
		Message: "internal server error",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}
