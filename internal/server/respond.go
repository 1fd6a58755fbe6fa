package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"
	goahttp "goa.design/goa/v3/http"

	"lumenai/internal/logger"
	apperrors "lumenai/pkg/errors"
)

// handlerFunc is an HTTP handler that reports failures as errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    apperrors.ErrorCode    `json:"code"`
	Message string                 `json:"message"`
	Details []apperrors.FieldError `json:"details,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

// wrap adapts fn to http.HandlerFunc and renders any returned error.
func (s *Server) wrap(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), goahttp.AcceptTypeKey, r.Header.Get("Accept"))
		r = r.WithContext(ctx)
		if err := fn(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := goahttp.RequestDecoder(r).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("request body is required",
				apperrors.FieldError{Field: "body", Message: "request body is required"})
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.Validation("request body too large",
				apperrors.FieldError{Field: "body", Message: "request body too large"})
		}
		return apperrors.Validation("invalid request body",
			apperrors.FieldError{Field: "body", Message: err.Error()})
	}
	return nil
}

// encode writes v as the response body with the given status.
func encode(w http.ResponseWriter, r *http.Request, status int, v any) error {
	enc := goahttp.ResponseEncoder(r.Context(), w)
	w.WriteHeader(status)
	return enc.Encode(v)
}

func statusOf(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeBadRequest:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and the JSON error body. Internal details
// are logged and never sent to the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal("internal server error", err)
	}

	status := statusOf(appErr.Code)
	body := errorBody{Error: errorPayload{Code: appErr.Code, Message: appErr.Message, Details: appErr.Details}}
	if status == http.StatusInternalServerError {
		requestLog(r).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		body.Error = errorPayload{Code: apperrors.ErrCodeInternalError, Message: "internal server error"}
	}

	if encErr := encode(w, r, status, body); encErr != nil {
		requestLog(r).Warn("Failed to encode error response", zap.Error(encErr))
	}
}

// requestLog returns the logger accessLog stored for r, which carries the request id.
func requestLog(r *http.Request) *zap.Logger {
	return logger.FromContext(r.Context()).Named("http")
}

// pathID parses the numeric {id} path variable; malformed ids are reported as missing.
func (s *Server) pathID(r *http.Request, resource string) (uint, error) {
	raw := s.mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 0)
	if err != nil || id == 0 {
		return 0, apperrors.NotFound(resource)
	}
	return uint(id), nil
}
