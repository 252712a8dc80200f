package diag

import (
	"fmt"
	"strings"
)

// ConfigError reports an unrecognized option value. It never has a span and is
// printed directly instead of going through the diagnostic renderer.
type ConfigError struct {
	Option string
	Value  string
	Valid  []string
}

func (e *ConfigError) Error() string {
	if len(e.Valid) == 0 {
		return fmt.Sprintf("invalid value %q for %s", e.Value, e.Option)
	}
	return fmt.Sprintf("invalid value %q for %s: must be one of %s", e.Value, e.Option, strings.Join(e.Valid, ", "))
}
