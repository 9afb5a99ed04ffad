package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to all persisted entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// DecisionSortFields contains allowed sort fields for policy decisions
var DecisionSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"event_id":    true,
	"order_id":    true,
	"decision":    true,
	"reason_code": true,
}

// OutcomeSortFields contains allowed sort fields for execution outcomes
var OutcomeSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"event_id":      true,
	"status":        true,
	"attempt_count": true,
	"completed_at":  true,
}

// AuditSortFields contains allowed sort fields for audit records
var AuditSortFields = map[string]bool{
	"id":        true,
	"timestamp": true,
	"event_id":  true,
	"stage":     true,
	"actor":     true,
}
