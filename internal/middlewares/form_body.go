package middlewares

import (
	"errors"
	"mime"
	"net/http"
)

// FormBodyLimitMiddleware caps request bodies at maxBytes and parses URL-encoded form posts
// before the handler runs.
//
// Handlers read fields with PostFormValue, which drops parse errors. Parsing here means an
// oversized body, declared or streamed, reaches onTooLarge instead of arriving as an empty form.
// A form that cannot be parsed for another reason is answered with 400.
func FormBodyLimitMiddleware(maxBytes int64, onTooLarge http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				onTooLarge(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			if hasFormBody(r) {
				if err := r.ParseForm(); err != nil {
					var maxErr *http.MaxBytesError
					if errors.As(err, &maxErr) {
						onTooLarge(w, r)
						return
					}
					http.Error(w, "Malformed form data.", http.StatusBadRequest)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasFormBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}
