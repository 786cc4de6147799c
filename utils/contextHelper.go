package utils

import "context"

type contextKey string

const ContextKeyUserId contextKey = "userId"

func GetUserIdFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserId).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
