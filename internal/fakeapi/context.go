package fakeapi

import "context"

type contextKey string

const accountContextKey contextKey = "account_id"

// accountFromContext extracts the authenticated account id
func accountFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountContextKey).(int64)
	return id, ok
}

func contextWithAccount(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, accountContextKey, id)
}
