package auth

import (
	"context"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
)

// NewClerkMiddleware returns the middleware that resolves the caller's Clerk
// session from the Authorization header. Requests without a valid session
// pass through without an identity; handlers that require one check UserID.
func NewClerkMiddleware() func(http.Handler) http.Handler {
	return clerkhttp.WithHeaderAuthorization()
}

// UserID returns the authenticated subject, if the request carried a valid
// session.
func UserID(ctx context.Context) (string, bool) {
	claims, ok := clerk.SessionClaimsFromContext(ctx)
	if !ok {
		return "", false
	}

	return claims.Subject, true
}
