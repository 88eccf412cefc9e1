package contexthelpers

type contextKey string

const requestIDContextKey = contextKey("requestID")
