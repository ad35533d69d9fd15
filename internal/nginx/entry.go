// Package nginx - entry.go defines the parsed access-log record.
//
// DESIGN: AccessEntry holds only the fields the monitors consume.
// Absent fields keep zero-ish sentinels instead of pointers:
//   - Pool/Release:  "" (a literal "-" in the log means absent)
//   - FinalStatus:   0
//   - RequestTime:   -1
package nginx

import (
	"strconv"
	"strings"
)

// AccessEntry is one parsed access-log line.
type AccessEntry struct {
	Pool                 string   // upstream pool marker (blue/green), "" if absent
	Release              string   // release identifier, "" if absent
	UpstreamStatuses     []string // raw per-attempt status tokens, comma-split
	FinalStatus          int      // status returned to the client, 0 if absent
	UpstreamAddr         string   // address of the upstream that served the request
	RequestTime          float64  // total request time in seconds, -1 if absent
	UpstreamResponseTime string   // raw upstream_response_time value
	Raw                  string   // the original line
}

// HasPool reports whether the line carried a pool marker.
func (e *AccessEntry) HasPool() bool {
	return e.Pool != ""
}

// HasServerError reports whether any upstream attempt or the final
// response was a 5xx. Upstream tokens that are not numeric (nginx
// writes "-" for aborted attempts) are skipped.
func (e *AccessEntry) HasServerError() bool {
	for _, tok := range e.UpstreamStatuses {
		code, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			continue
		}
		if code >= 500 && code < 600 {
			return true
		}
	}
	return e.FinalStatus >= 500 && e.FinalStatus < 600
}
