package errors

import (
	"regexp"
	"strings"
)

// UUID format: xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx (36 characters)
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// validates a UUID string format
func IsValidUUID(id string) bool {
	if id == "" {
		return false
	}

	return uuidRegex.MatchString(strings.ToLower(id))
}
