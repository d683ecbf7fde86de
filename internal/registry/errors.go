package registry

import "fmt"

// ConfigError reports a defect in the stat table: an unknown reference, an
// unknown special kind, a reference cycle or a malformed entry.
type ConfigError struct {
	Category string
	Stat     string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Stat == "" {
		return fmt.Sprintf("stat table: category %q: %s", e.Category, e.Reason)
	}
	return fmt.Sprintf("stat table: %s~%s: %s", e.Category, e.Stat, e.Reason)
}

func configErrorf(category, stat, format string, args ...any) *ConfigError {
	return &ConfigError{Category: category, Stat: stat, Reason: fmt.Sprintf(format, args...)}
}
