// Package nginx - parse.go extracts monitoring fields from access-log lines.
//
// DESIGN: Field extraction is deliberately format-tolerant. Each field
// has its own pattern applied independently, so a line missing a field
// still yields an entry:
//   - A field that does not match is absent, never an error
//   - Parse fails only when a matched numeric literal is malformed
//   - Lines emitted by log_format escape=json are read by key instead
//
// The exact log_format is not assumed; only the kv markers the
// deployment adds (pool=, release=, upstream_status=, ...) and the
// standard quoted request segment are interpreted.
package nginx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// missing is nginx's marker for a variable with no value.
const missing = "-"

var (
	poolRe           = regexp.MustCompile(`pool=(\S+)`)
	releaseRe        = regexp.MustCompile(`release=(\S+)`)
	upstreamStatusRe = regexp.MustCompile(`upstream_status=(\S+)`)
	upstreamAddrRe   = regexp.MustCompile(`upstream=(\S+)`)
	requestTimeRe    = regexp.MustCompile(`request_time=([\d.]+)`)
	upstreamTimeRe   = regexp.MustCompile(`upstream_response_time=([\d.,\s]+)`)

	// The status returned to the client is the 3-digit code after the
	// first quoted segment. With the combined format that segment is the
	// request line; a custom format that quotes something earlier would
	// be misread here, which is accepted as a limit of format-tolerant
	// extraction.
	finalStatusRe = regexp.MustCompile(`"[^"]*" (\d{3})`)
)

// fieldRule binds one extraction pattern to its assignment.
type fieldRule struct {
	name  string
	re    *regexp.Regexp
	apply func(e *AccessEntry, raw string) error
}

var fieldRules = []fieldRule{
	{"pool", poolRe, func(e *AccessEntry, raw string) error {
		if raw != missing {
			e.Pool = raw
		}
		return nil
	}},
	{"release", releaseRe, func(e *AccessEntry, raw string) error {
		if raw != missing {
			e.Release = raw
		}
		return nil
	}},
	{"upstream_status", upstreamStatusRe, func(e *AccessEntry, raw string) error {
		// Comma-separated when nginx retried against another upstream
		if raw != missing {
			e.UpstreamStatuses = strings.Split(raw, ",")
		}
		return nil
	}},
	{"status", finalStatusRe, func(e *AccessEntry, raw string) error {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		e.FinalStatus = code
		return nil
	}},
	{"upstream", upstreamAddrRe, func(e *AccessEntry, raw string) error {
		if raw != missing {
			e.UpstreamAddr = raw
		}
		return nil
	}},
	{"request_time", requestTimeRe, func(e *AccessEntry, raw string) error {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		e.RequestTime = v
		return nil
	}},
	{"upstream_response_time", upstreamTimeRe, func(e *AccessEntry, raw string) error {
		e.UpstreamResponseTime = raw
		return nil
	}},
}

// Parse extracts the monitoring fields from one access-log line.
// It returns an error only when a matched numeric field fails to parse;
// such lines are dropped by the caller, everything else degrades to
// absent fields.
func Parse(line string) (*AccessEntry, error) {
	if isJSONLine(line) {
		return parseJSON(line)
	}

	e := &AccessEntry{Raw: line, RequestTime: -1}
	for _, rule := range fieldRules {
		m := rule.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if err := rule.apply(e, m[1]); err != nil {
			return nil, fmt.Errorf("field %s %q: %w", rule.name, m[1], err)
		}
	}
	return e, nil
}

// isJSONLine reports whether the line came from log_format escape=json.
func isJSONLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "{") && gjson.Valid(trimmed)
}

// parseJSON reads the same fields by key from a JSON-format line.
// Unknown keys are ignored; the "-" marker means absent just as in the
// kv format.
func parseJSON(line string) (*AccessEntry, error) {
	e := &AccessEntry{Raw: line, RequestTime: -1}

	if v := gjson.Get(line, "pool"); v.Exists() && v.String() != missing {
		e.Pool = v.String()
	}
	if v := gjson.Get(line, "release"); v.Exists() && v.String() != missing {
		e.Release = v.String()
	}
	if v := gjson.Get(line, "upstream_status"); v.Exists() && v.String() != missing && v.String() != "" {
		e.UpstreamStatuses = strings.Split(v.String(), ",")
	}
	if v := gjson.Get(line, "status"); v.Exists() && v.String() != missing && v.String() != "" {
		code, err := strconv.Atoi(strings.TrimSpace(v.String()))
		if err != nil {
			return nil, fmt.Errorf("field status %q: %w", v.String(), err)
		}
		e.FinalStatus = code
	}
	if v := gjson.Get(line, "upstream_addr"); v.Exists() && v.String() != missing {
		e.UpstreamAddr = v.String()
	}
	if v := gjson.Get(line, "request_time"); v.Exists() && v.String() != missing && v.String() != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v.String()), 64)
		if err != nil {
			return nil, fmt.Errorf("field request_time %q: %w", v.String(), err)
		}
		e.RequestTime = f
	}
	if v := gjson.Get(line, "upstream_response_time"); v.Exists() && v.String() != missing {
		e.UpstreamResponseTime = v.String()
	}
	return e, nil
}
