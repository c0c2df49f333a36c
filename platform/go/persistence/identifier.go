package persistence

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var identifierPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// normalizeIdentifier trims the input and enforces a lowercase snake_case table
// or column name that is safe to embed in SQL for every supported dialect.
func normalizeIdentifier(kind, input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", fmt.Errorf("%s name is required", kind)
	}

	if len(trimmed) > 63 {
		return "", fmt.Errorf("invalid %s name %q: longer than 63 characters", kind, trimmed)
	}

	if !identifierPattern.MatchString(trimmed) {
		return "", fmt.Errorf("invalid %s name %q: must match ^[a-z][a-z0-9_]*$", kind, trimmed)
	}

	return trimmed, nil
}

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// splitStatements breaks an embedded DDL file into individual statements.
func splitStatements(sql string) []string {
	raw := strings.Split(sql, ";")
	statements := make([]string, 0, len(raw))
	for _, part := range raw {
		stmt := strings.TrimSpace(part)
		if stmt == "" {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}
