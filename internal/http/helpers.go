package http

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/identity"
	"fintrack/internal/remote"
	"fintrack/internal/store"
)

// sanitizeInput removes control characters (except tab and newlines) and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// clientIP is the request's remote host. chi's RealIP has already applied
// X-Forwarded-For / X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// rateLimitKey limits signed-in users by id and everyone else by address.
func rateLimitKey(r *http.Request) string {
	if u, ok := identity.FromContext(r.Context()); ok {
		return "user:" + u.ID
	}
	return "ip:" + clientIP(r)
}

// failure maps a store or remote error to a status and a message fit for the user.
func failure(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrUserMismatch):
		return http.StatusForbidden, "That record belongs to another user"
	case errors.Is(err, remote.ErrNotFound):
		return http.StatusNotFound, "That record no longer exists"
	case errors.Is(err, remote.ErrMalformed):
		return http.StatusBadGateway, "The records service sent an unexpected response"
	case errors.Is(err, remote.ErrStatus):
		return http.StatusBadGateway, "The records service rejected the request"
	case errors.Is(err, remote.ErrTransport):
		return http.StatusGatewayTimeout, "Could not reach the records service. Please try again"
	case isValidation(err):
		return http.StatusUnprocessableEntity, validationMessage(err)
	}
	return http.StatusInternalServerError, "Something went wrong"
}

func isValidation(err error) bool {
	for _, target := range []error{
		core.ErrEmptyDescription, core.ErrDescriptionTooLong, core.ErrInvalidAmount,
		core.ErrInvalidDate, core.ErrInvalidCategory, core.ErrInvalidPayment,
		core.ErrInvalidKind, core.ErrEmptyPatch, core.ErrEmptyUser,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
