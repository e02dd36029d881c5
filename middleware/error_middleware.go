package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog/log"

	"dost-atlas/utils/errors"
)

// ErrorMiddleware turns panics in handlers into a 500 JSON response.
func ErrorMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error().
						Interface("panic", rec).
						Str("method", r.Method).
						Str("path", r.URL.Path).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")
					WriteError(w, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError writes err as a {success:false, code, message} JSON response.
// Errors that are not APIErrors become 500s.
func WriteError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*errors.APIError)
	if !ok {
		apiErr = errors.Wrap(err, "UNKNOWN_ERROR", "Unexpected error", errors.ErrInternal.Status)
	}
	if apiErr.Status >= 500 {
		log.Error().Str("code", apiErr.Code).Str("details", apiErr.Details).Msg(apiErr.Message)
	}
	WriteJSON(w, apiErr.Status, apiErr)
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("response write failed")
	}
}
