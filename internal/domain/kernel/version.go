package kernel

import (
	"fmt"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Version is a kernel release token scraped from the upstream page, e.g. "5.1.6".
// It is a validated string, no semantic interpretation happens beyond shape checking.
type Version string

// ParseVersion validates a scraped token and returns it as a Version.
func ParseVersion(raw string) (Version, error) {
	raw = strings.TrimSpace(raw)

	if _, err := goversion.NewVersion(raw); err != nil {
		return "", fmt.Errorf("invalid version token %q: %w", raw, err)
	}

	return Version(raw), nil
}

// String returns the plain version token.
func (v Version) String() string {
	return string(v)
}
