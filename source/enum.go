package source

import (
	"regexp"
	"strings"

	"github.com/vitalvas/autoswag/internal/textcase"
	"github.com/vitalvas/autoswag/openapi"
)

var enumRegexp = regexp.MustCompile(`^(?:export\s+)?(?:const\s+)?enum\s+(\w+)`)

// EnumParser converts enum declarations into string schemas.
type EnumParser struct{}

// Parse returns the enums of text in source order. Value lines are either
// KEY = "value" or a bare KEY; quotes and trailing commas are dropped. A "//"
// comment directly above the enum becomes its description.
func (EnumParser) Parse(text string) []Named {
	var (
		out     []Named
		current *openapi.Schema
	)

	sc := NewScanner(text)
	for sc.Scan() {
		line, prev := sc.Text(), sc.Prev()

		if current == nil {
			match := enumRegexp.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			current = &openapi.Schema{
				Type:        "string",
				Description: enumDescription(match[1], prev),
			}
			out = append(out, Named{Name: match[1], Schema: current})
			if strings.HasSuffix(line, "}") {
				current = nil
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "}"):
			current = nil
		case line == "{" || isComment(line):
		default:
			if v := enumValue(line); v != "" {
				current.Enum = append(current.Enum, v)
			}
		}
	}

	return out
}

func enumDescription(name, prev string) string {
	if desc, ok := strings.CutPrefix(prev, "//"); ok {
		if desc = strings.TrimSpace(desc); desc != "" {
			return desc
		}
	}
	return textcase.Start(name) + " enumeration"
}

func enumValue(line string) string {
	key, value, hasValue := strings.Cut(line, "=")
	v := key
	if hasValue {
		v = value
	}
	return strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "", ",", "").Replace(v))
}
