// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides Gin middleware for the tuner service.
//
// # Request Flow
//
//	Request
//	   │
//	   ▼
//	RequestID ──► tags the request and response with X-Request-ID
//	   │
//	   ▼
//	RateLimit ──► per-client token bucket, 429 when exhausted
//	   │
//	   ▼
//	Handler (retrieves the id via GetRequestID)
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// =============================================================================
// Context Keys
// =============================================================================

// HeaderRequestID is the header carrying the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// requestIDKey is the gin context key for the request id.
const requestIDKey = "aleutian_request_id"

// =============================================================================
// Middleware
// =============================================================================

// RequestID ensures every request carries an id.
//
// # Description
//
// Reuses the caller's X-Request-ID header when present, otherwise generates
// a UUID. The id is echoed on the response and stored in the gin context.
//
// # Thread Safety
//
// Safe for concurrent use.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the id stored by RequestID.
//
// # Description
//
// Falls back to the request header, then to a fresh UUID, so handlers work
// even when mounted without the middleware (as in unit tests).
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	id := c.GetHeader(HeaderRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(requestIDKey, id)
	c.Header(HeaderRequestID, id)
	return id
}
