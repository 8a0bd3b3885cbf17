// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package handlers contains the HTTP handlers for the voting engine API.
//
// Handlers parse and validate the request shape, delegate all domain
// logic to the session service, and translate service errors into
// HTTP status codes via writeServiceError.
package handlers
