package middleware

import (
	"encoding/json"
	"strings"

	"github.com/careerforge/backend/internal/database"
	"github.com/careerforge/backend/internal/models"
	"github.com/gofiber/fiber/v2"
)

// AuditLogger middleware logs API actions to audit log
func AuditLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Skip non-modifying requests
		method := c.Method()
		if method == "GET" || method == "HEAD" || method == "OPTIONS" {
			return c.Next()
		}

		// Skip certain paths
		path := c.Path()
		skipPaths := []string{"/api/auth/login", "/health"}
		for _, skip := range skipPaths {
			if strings.HasPrefix(path, skip) {
				return c.Next()
			}
		}

		user := GetCurrentUser(c)
		ip := c.IP()
		userAgent := c.Get("User-Agent")

		var requestBody []byte
		if method == "POST" || method == "PUT" || method == "PATCH" {
			requestBody = c.Body()
		}

		// Execute the request
		err := c.Next()

		// Only log successful responses
		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 400 && user != nil {
			logAuditEntry(user, method, path, ip, userAgent, requestBody)
		}

		return err
	}
}

func logAuditEntry(user *models.User, method, path, ip, userAgent string, requestBody []byte) {
	action, entityType := classifyRequest(method, path)
	if entityType == "" {
		return
	}

	auditLog := models.AuditLog{
		UserID:      user.ID,
		Email:       user.Email,
		UserType:    user.UserType,
		Action:      action,
		EntityType:  entityType,
		EntityID:    slugFromPath(path),
		EntityName:  nameFromRequestBody(requestBody),
		Description: describe(action, entityType, path),
		IPAddress:   ip,
		UserAgent:   userAgent,
	}
	database.DB.Create(&auditLog)
}

// classifyRequest maps a mutating request onto an audit action and entity
func classifyRequest(method, path string) (models.AuditAction, string) {
	switch {
	case strings.HasSuffix(path, "/publish"):
		return models.AuditActionPublish, "draft"
	case strings.Contains(path, "/draft"):
		if method == "DELETE" {
			return models.AuditActionDiscard, "draft"
		}
		return models.AuditActionUpdate, "draft"
	case strings.Contains(path, "/jobs/import"):
		return models.AuditActionImport, "job"
	case strings.Contains(path, "/jobs"):
		return actionForMethod(method), "job"
	case strings.Contains(path, "/companies"):
		return actionForMethod(method), "company"
	case strings.Contains(path, "/users"):
		return actionForMethod(method), "user"
	case strings.HasSuffix(path, "/auth/logout"):
		return models.AuditActionLogout, "user"
	}
	return "", ""
}

func actionForMethod(method string) models.AuditAction {
	switch method {
	case "POST":
		return models.AuditActionCreate
	case "PUT", "PATCH":
		return models.AuditActionUpdate
	case "DELETE":
		return models.AuditActionDelete
	}
	return models.AuditActionUpdate
}

// slugFromPath pulls the tenant slug out of /api/companies/:slug/... paths
func slugFromPath(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/api/companies/"), "/")
	if len(parts) > 0 && parts[0] != path {
		return parts[0]
	}
	return ""
}

// nameFromRequestBody extracts a name/title from a JSON request body
func nameFromRequestBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return ""
	}
	for _, field := range []string{"name", "title", "email", "full_name"} {
		if val, ok := data[field]; ok {
			if strVal, ok := val.(string); ok && strVal != "" {
				return strVal
			}
		}
	}
	return ""
}

func describe(action models.AuditAction, entityType, path string) string {
	slug := slugFromPath(path)
	switch action {
	case models.AuditActionPublish:
		return "Published draft for " + slug
	case models.AuditActionDiscard:
		return "Discarded draft for " + slug
	case models.AuditActionImport:
		return "Imported job postings"
	}
	verbs := map[models.AuditAction]string{
		models.AuditActionCreate: "Created",
		models.AuditActionUpdate: "Updated",
		models.AuditActionDelete: "Deleted",
		models.AuditActionLogout: "Logged out",
	}
	if slug != "" {
		return verbs[action] + " " + entityType + " for " + slug
	}
	return verbs[action] + " " + entityType
}
