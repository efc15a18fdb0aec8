package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// AuditEntry records one state-changing request: who did what to which
// resource, and how it ended.
type AuditEntry struct {
	UserID     string
	Role       string
	Action     string
	Resource   string
	ResourceID string
	Method     string
	Path       string
	IPAddress  string
	StatusCode int
	RequestID  string
	Timestamp  time.Time
}

// AuditRecorder persists audit entries. The middleware always logs; a
// recorder is an optional second sink.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc adapts a function to AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

// auditedPrefixes are the resources whose writes are audited.
var auditedPrefixes = []string{
	"/appointments",
	"/prescriptions",
	"/doctors/profile",
	"/users/profile",
	"/admin",
}

// Audit logs every write to appointments, prescriptions, profiles and admin
// routes after the handler runs, so the entry carries the final status and
// the identity set by the auth middleware.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isWrite(req.Method) || !isAuditablePath(req.URL.Path) {
				return next(c)
			}

			err := next(c)

			entry := AuditEntry{
				Action:     httpMethodToAction(req.Method),
				Method:     req.Method,
				Path:       req.URL.Path,
				IPAddress:  c.RealIP(),
				StatusCode: c.Response().Status,
				Timestamp:  time.Now().UTC(),
			}
			if err != nil {
				entry.StatusCode = statusOf(err)
			}
			entry.Resource, entry.ResourceID = splitResource(req.URL.Path)
			entry.UserID, _ = c.Get("user_id").(string)
			entry.Role, _ = c.Get("user_role").(string)
			entry.RequestID, _ = c.Get("request_id").(string)

			for _, r := range recorders {
				if r == nil {
					continue
				}
				if recErr := r.RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("role", entry.Role).
				Str("action", entry.Action).
				Str("resource", entry.Resource).
				Str("resource_id", entry.ResourceID).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("audit")

			return err
		}
	}
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func isAuditablePath(path string) bool {
	for _, p := range auditedPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

func httpMethodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// splitResource returns the first path segment and, when present, the
// second one as the resource ID.
//
//	/appointments          -> appointments, ""
//	/appointments/<id>     -> appointments, <id>
//	/doctors/profile       -> doctors, profile
func splitResource(path string) (resource, id string) {
	segments := strings.SplitN(strings.Trim(path, "/"), "/", 3)
	resource = segments[0]
	if len(segments) > 1 {
		id = segments[1]
	}
	return resource, id
}
