package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "smartparking/pkg/errors"
	httputil "smartparking/pkg/http"
	"smartparking/pkg/logger"
)

// Recovery turns a handler panic into a 500 JSON response. When the handler
// had already started writing, the response is left as is.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				log.ErrorContext(r.Context(), "Panic recovered",
					"request_id", w.Header().Get(RequestIDHeader),
					"panic", fmt.Sprint(v),
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				if rec.status != 0 {
					return
				}
				_ = httputil.WriteErrorMessage(rec, apperrors.Internal("Internal server error", fmt.Errorf("panic: %v", v)))
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
