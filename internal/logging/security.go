// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent is an authentication or authorization decision.
type SecurityEvent struct {
	// Event names the decision, e.g. "token_rejected".
	Event string
	// Subject is the token subject, if known.
	Subject string
	// Token is the presented credential. It is never logged unmasked.
	Token     string
	IPAddress string
	Path      string
	Success   bool
	// Reason explains a failed decision.
	Reason string
}

// SecurityLogger writes security events with credentials masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger on top of logger.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "auth").Logger(),
	}
}

// LogEvent writes event. Failed decisions are logged at warn level.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	e := l.logger.Info()
	status := "success"
	if !event.Success {
		e = l.logger.Warn()
		status = "failed"
	}

	e = e.Str("event", event.Event).Str("status", status)
	if event.Subject != "" {
		e = e.Str("subject", event.Subject)
	}
	if event.Token != "" {
		e = e.Str("token", SanitizeToken(event.Token))
	}
	if event.IPAddress != "" {
		e = e.Str("ip", event.IPAddress)
	}
	if event.Path != "" {
		e = e.Str("path", event.Path)
	}
	if event.Reason != "" && !event.Success {
		e = e.Str("reason", SanitizeError(event.Reason))
	}
	e.Msg("security event")
}

// LogTokenAccepted records a bearer token that passed verification.
func (l *SecurityLogger) LogTokenAccepted(subject, ip, path string) {
	l.LogEvent(&SecurityEvent{
		Event:     "token_accepted",
		Subject:   subject,
		IPAddress: ip,
		Path:      path,
		Success:   true,
	})
}

// LogTokenRejected records a missing or invalid bearer token.
func (l *SecurityLogger) LogTokenRejected(token, ip, path, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "token_rejected",
		Token:     token,
		IPAddress: ip,
		Path:      path,
		Reason:    reason,
	})
}

// SanitizeToken masks a token, keeping its first and last 4 characters.
//
//	"eyJhbGciOiJIUzI1NiJ9.e30.sig" -> "eyJh....sig"
func SanitizeToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// SanitizeError replaces messages that may echo a secret and truncates the rest.
func SanitizeError(msg string) string {
	lower := strings.ToLower(msg)
	for _, pattern := range []string{"secret", "password", "bearer ", "authorization"} {
		if strings.Contains(lower, pattern) {
			return "authentication error"
		}
	}
	return truncateString(msg, 200)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
