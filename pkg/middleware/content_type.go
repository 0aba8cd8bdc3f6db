package middleware

import (
	"mime"
	"net/http"
	apperrors "rsvp/pkg/errors"
	"rsvp/pkg/logger"
)

const contentTypeJSON = "application/json"

// ContentTypeValidation rejects bodies that are not JSON. Requests without a
// body (a confirm call, for instance) pass through.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiresContentType(r) {
				mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if mediaType != contentTypeJSON {
					log.FromContext(r.Context()).Warn("Invalid Content-Type header",
						"content_type", mediaType,
						"path", r.URL.Path,
						"method", r.Method,
					)
					apperrors.WriteError(w, apperrors.New(
						apperrors.CodeUnsupportedContentType,
						"Content-Type must be application/json",
						http.StatusUnsupportedMediaType,
					))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requiresContentType(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}
