package repository

import (
	"strings"
)

// Driver failures that mean the optimized aggregate path is unavailable in
// this deployment rather than transiently broken: a missing view or
// function, or a permission gap on it. These are detected by message
// because the MySQL driver and the sqlite driver surface them differently
// and neither maps onto a portable sentinel.
var fallbackEligibleFragments = []string{
	// MySQL error 1146: table or view does not exist
	"Error 1146",
	// MySQL error 1305: function does not exist
	"Error 1305",
	// MySQL error 1142: command denied to user
	"Error 1142",
	"command denied",
	// sqlite
	"no such table",
	"no such view",
	"no such function",
}

// IsFallbackEligible reports whether a stats-path failure should trigger
// the batched recomputation fallback instead of surfacing to the caller.
// Transient failures (lost connection, deadlock, timeout) are NOT
// fallback-eligible: retrying the broken primary path is the right move
// for those, and the fallback would mask a real outage.
func IsFallbackEligible(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, fragment := range fallbackEligibleFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
