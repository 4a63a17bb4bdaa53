package directive

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Delimiter separates positional payload segments.
const Delimiter = " - "

// Directive keywords.
const (
	KeywordSummary        = "@summary"
	KeywordTag            = "@tag"
	KeywordDescription    = "@description"
	KeywordOperationID    = "@operationId"
	KeywordParam          = "@param"
	KeywordParamUse       = "@paramUse"
	KeywordResponseBody   = "@responseBody"
	KeywordResponseHeader = "@responseHeader"
	KeywordRequestBody    = "@requestBody"
	KeywordFormDataBody   = "@requestFormDataBody"
	FlagRequired          = "@required"
)

var (
	betweenMu    sync.Mutex
	betweenCache = map[string]*regexp.Regexp{}
)

func betweenRegexp(keyword string) *regexp.Regexp {
	betweenMu.Lock()
	defer betweenMu.Unlock()

	re, ok := betweenCache[keyword]
	if !ok {
		re = regexp.MustCompile(regexp.QuoteMeta(keyword) + `\(([^()]*)\)`)
		betweenCache[keyword] = re
	}
	return re
}

// Between returns the payload of the first keyword(...) occurrence in value.
// Whitespace is removed from every payload except example(...), which may
// legitimately contain spaces. An absent sub-directive yields "".
func Between(value, keyword string) string {
	m := betweenRegexp(keyword).FindStringSubmatch(value)
	if m == nil {
		return ""
	}
	if keyword == "example" {
		return m[1]
	}
	return strings.Join(strings.Fields(m[1]), "")
}

// splitSegments splits a payload on Delimiter and pads the result to n
// segments. Extra segments are joined back into the last one.
func splitSegments(payload string, n int) []string {
	parts := strings.SplitN(payload, Delimiter, n)
	for len(parts) < n {
		parts = append(parts, "")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// trimKeyword removes keyword and the following separator from line.
func trimKeyword(line, keyword string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, keyword))
}

// splitList splits a comma separated sub-directive payload.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// coerceExample converts a textual example to the declared type where the
// conversion is lossless; otherwise the text is returned unchanged.
func coerceExample(raw, typ string) any {
	switch typ {
	case "integer":
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case "number", "float":
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case "boolean":
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

// decodeJSON reports whether s is a JSON object or array literal and returns
// its decoded value. Numbers are kept as json.Number so literal values are
// reproduced exactly in examples.
func decodeJSON(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return v, true
}

// guessType returns the OpenAPI type name of a decoded JSON value.
func guessType(v any) string {
	switch t := v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case bool:
		return "boolean"
	case json.Number:
		if _, err := t.Int64(); err == nil {
			return "integer"
		}
		return "number"
	case float64, float32:
		return "number"
	case int, int64, int32:
		return "integer"
	default:
		return "string"
	}
}
