package workflow

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a random record ID with an entity prefix, e.g. "run-3f2a…".
func NewID(prefix string) string {
	return prefix + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
