package db

import "strings"

// IsUniqueViolation reports whether err looks like a unique constraint
// violation, optionally matching a specific constraint name. String matching
// keeps this portable across the postgres runtime and the sqlite test driver.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
