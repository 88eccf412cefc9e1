package contexthelpers

import (
	"context"
)

// RequestID returns the identifier assigned to the request by the web middleware or an empty string.
func RequestID(ctx context.Context) string {
	requestID, ok := ctx.Value(requestIDContextKey).(string)
	if !ok {
		return ""
	}

	return requestID
}
