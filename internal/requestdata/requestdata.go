package requestdata

import (
	"context"

	"github.com/google/uuid"
)

var requestDataKey = struct{}{}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey).(*RequestData); ok {
		return rd
	}
	return nil
}

type RequestData struct {
	TokenString string
	UserID      uuid.UUID
	Email       string
	Role        string
}

// UserEmail returns the authenticated user's email, or "" for anonymous
// callers. Ledger rows stamp this into created_by; it is never a correctness
// input to the versioning algorithms.
func UserEmail(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.Email
	}
	return ""
}
