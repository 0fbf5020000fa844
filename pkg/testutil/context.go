package testutil

import (
	"net/http"

	"finsight/pkg/requestcontext"
)

// WithAuth injects the identity the auth middleware would resolve from a
// bearer token: user, session and raw tier claim.
func WithAuth(req *http.Request, userID, sessionID, tier string) *http.Request {
	return req.WithContext(requestcontext.WithSession(req.Context(), userID, sessionID, tier))
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
