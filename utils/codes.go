package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateReferenceCode returns a short external booking reference such as
// "BK-7F3A21C4". Uniqueness is enforced by the database index; collisions on
// 8 hex chars are rare enough that a failed insert simply surfaces to the
// caller.
func GenerateReferenceCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "BK-" + raw[:8]
}
