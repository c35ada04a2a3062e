package schema

import (
	"fmt"
	"strings"
)

var defaultMisspellings = map[string]string{
	"CURRENT TIMESTAMP": "CURRENT_TIMESTAMP",
	"CURRENT DATE":      "CURRENT_DATE",
	"NOW ()":            "NOW()",
}

// ValidateDefaultValue rejects default expressions with common typos that
// PostgreSQL would only report when the migration runs.
func ValidateDefaultValue(defaultVal string) error {
	trimmed := strings.TrimSpace(defaultVal)
	if trimmed == "" {
		return fmt.Errorf("invalid DEFAULT value: empty expression")
	}
	upper := strings.ToUpper(trimmed)
	for mistake, correct := range defaultMisspellings {
		if strings.Contains(upper, mistake) {
			return fmt.Errorf("invalid DEFAULT value %q: use %s instead of %s", defaultVal, correct, mistake)
		}
	}
	if strings.Count(trimmed, "'")%2 != 0 {
		return fmt.Errorf("invalid DEFAULT value %q: unbalanced quote", defaultVal)
	}
	return nil
}
