package middleware

import (
	"mime"
	"net/http"
	"slices"
	"strings"

	httputil "smartparking/pkg/http"
	"smartparking/pkg/logger"
)

// ContentTypeValidation answers 415 for write requests whose body is not one
// of the accepted media types. With no types given, JSON and urlencoded forms
// are accepted. Requests without a body are not checked.
func ContentTypeValidation(log *logger.Logger, accepted ...string) func(http.Handler) http.Handler {
	if len(accepted) == 0 {
		accepted = []string{httputil.ContentTypeJSON, httputil.ContentTypeForm}
	}
	rejection := "Content-Type must be " + strings.Join(accepted, " or ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if slices.Contains(accepted, mediaType) {
				next.ServeHTTP(w, r)
				return
			}

			log.Warn("Unsupported Content-Type",
				"request_id", RequestIDFromContext(r.Context()),
				"content_type", r.Header.Get("Content-Type"),
				"method", r.Method,
				"path", r.URL.Path,
			)
			_ = httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{Message: rejection})
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}
