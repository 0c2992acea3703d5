package middlewares

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// callerRequestID matches the X-Request-ID values accepted from an upstream proxy
var callerRequestID = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// RequestID tags every request with an ID that is echoed in X-Request-ID and attached to log lines.
//
// An incoming X-Request-ID is only reused when trustCaller is set, which the router ties to
// the same switch as the proxy address headers. Otherwise a fresh UUID is always generated.
func RequestID(trustCaller bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := ""
			if trustCaller {
				if incoming := r.Header.Get("X-Request-ID"); callerRequestID.MatchString(incoming) {
					requestID = incoming
				}
			}
			if requestID == "" {
				requestID = uuid.NewString()
			}

			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))
		})
	}
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// RequestLogger returns logger annotated with the request ID of ctx, if any
func RequestLogger(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id := GetRequestID(ctx); id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}
