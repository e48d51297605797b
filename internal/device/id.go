// Package device derives the stable identity embedded in pages and emails.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
)

const machineIDPath = "/etc/machine-id"

// ID returns a 16-hex-character identifier derived from the host's unique id,
// falling back to the hostname. Computed once at startup by the caller and
// never rewritten for the process lifetime.
func ID() string {
	seed := "envmon"
	if data, err := os.ReadFile(machineIDPath); err == nil && len(data) > 0 {
		seed = strings.TrimSpace(string(data))
	} else if host, err := os.Hostname(); err == nil && host != "" {
		seed = host
	}

	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:8])
}
