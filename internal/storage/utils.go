package storage

import (
	"github.com/google/uuid"
)

// GenerateFileName generates a unique file name "<prefix>-<uuid><extension>"
func GenerateFileName(prefix, extension string) string {
	name := prefix + "-" + uuid.New().String()
	// Ensure extension starts with a dot if it doesn't already
	if extension != "" && extension[0] != '.' {
		return name + "." + extension
	}
	return name + extension
}
