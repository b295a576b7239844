package recurring

import "context"

type contextKey string

const userIDKey contextKey = "userID"

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the authenticated user id, "" when absent.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// RequireUser returns the caller identity or ErrNotAuthenticated.
func RequireUser(ctx context.Context) (string, error) {
	userID := UserIDFromContext(ctx)
	if userID == "" {
		return "", ErrNotAuthenticated
	}
	return userID, nil
}
