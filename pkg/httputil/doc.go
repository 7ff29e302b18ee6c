// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteCreated(w, resource)
//	httputil.WriteBadRequest(w, "Invalid input")
//	httputil.WriteConflict(w, "version already published")
//	httputil.WriteRawJSON(w, http.StatusOK, cachedPayload)
//
// # Request Parsing
//
//	var req PublishRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//
//	contractID, ok := httputil.ParsePathStringOrError(w, r, "contractId")
//	limit, err := httputil.ParseQueryInt(r, "limit", 20)
//	cursor, err := httputil.ParseQueryTime(r, "cursor")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(1024*1024),
//	)
package httputil
