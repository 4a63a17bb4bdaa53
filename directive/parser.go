package directive

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/openapi"
	"github.com/vitalvas/autoswag/resolver"
)

var paramLocationRegexp = regexp.MustCompile(`^@param([a-zA-Z]*)`)

// Parser converts directive lines into operation fragments. Malformed lines
// never produce errors; they are logged at debug level and skipped.
type Parser struct {
	resolver *resolver.Resolver
	common   *CommonDefinitions
	logger   *zap.Logger
}

// NewParser creates a directive parser. common may be nil, in which case
// every alias expansion is empty. A nil logger disables logging.
func NewParser(r *resolver.Resolver, common *CommonDefinitions, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if r == nil {
		r = resolver.New(nil)
	}
	return &Parser{
		resolver: r,
		common:   common,
		logger:   logger,
	}
}

// ParseParam parses a @param<Location> or @paramUse(alias,...) line.
//
// The location is the lower-cased keyword suffix. Path parameters (and any
// other location except query) are required by default; query parameters are
// optional unless the meta segment carries @required.
func (p *Parser) ParseParam(line string) []*openapi.Parameter {
	line = strings.TrimSpace(line)

	if strings.HasPrefix(line, KeywordParamUse) {
		aliases := splitList(Between(line, "paramUse"))
		return p.common.ExpandParameters(aliases)
	}

	m := paramLocationRegexp.FindStringSubmatch(line)
	if m == nil {
		p.logger.Debug("malformed parameter directive", zap.String("line", line))
		return nil
	}

	in := strings.ToLower(m[1])
	if in == "" {
		in = "path"
	}

	segments := splitSegments(trimKeyword(line, m[0]), 3)
	name, desc, meta := segments[0], segments[1], segments[2]
	if name == "" {
		p.logger.Debug("parameter directive without name", zap.String("line", line))
		return nil
	}

	param := &openapi.Parameter{
		Name:        name,
		In:          in,
		Description: desc,
		Required:    in != "query",
		Schema:      p.metaSchema(meta),
	}
	if strings.Contains(meta, FlagRequired) {
		param.Required = true
	}

	return []*openapi.Parameter{param}
}

// ParseResponseHeader parses a @responseHeader line of the form
// "status - name - description - meta". A name containing @use(alias,...)
// expands to the union of the shared header groups instead.
func (p *Parser) ParseResponseHeader(line string) (string, map[string]*openapi.Header, bool) {
	segments := splitSegments(trimKeyword(strings.TrimSpace(line), KeywordResponseHeader), 4)
	status, name, desc, meta := segments[0], segments[1], segments[2], segments[3]
	if status == "" || name == "" {
		p.logger.Debug("malformed response header directive", zap.String("line", line))
		return "", nil, false
	}

	if strings.Contains(name, "use(") {
		return status, p.common.ExpandHeaders(splitList(Between(name, "use"))), true
	}

	header := &openapi.Header{
		Description: desc,
		Schema:      p.metaSchema(meta),
	}
	if strings.Contains(meta, FlagRequired) {
		header.Required = true
	}

	return status, map[string]*openapi.Header{name: header}, true
}

// metaSchema builds a primitive schema from a meta segment. Type defaults to
// string; without an explicit example the first enum value is used, and
// failing that a per-type default (string "string", integer 1, float 1.5).
// An enum constraint is attached only for more than one value.
func (p *Parser) metaSchema(meta string) *openapi.Schema {
	typ := "string"
	if t := Between(meta, "type"); t != "" {
		typ = t
	}

	s := &openapi.Schema{Type: typ}
	if typ == "float" || typ == "double" {
		s.Type = "number"
		s.Format = typ
	}
	if f := Between(meta, "format"); f != "" {
		s.Format = f
	}

	enum := splitList(Between(meta, "enum"))
	if len(enum) > 1 {
		s.Enum = make([]any, len(enum))
		for i, v := range enum {
			s.Enum[i] = coerceExample(v, typ)
		}
	}

	switch raw := Between(meta, "example"); {
	case raw != "":
		s.Example = coerceExample(raw, typ)
	case len(enum) > 0:
		s.Example = coerceExample(enum[0], typ)
	default:
		s.Example = defaultHeaderExample(typ)
	}

	return s
}

func defaultHeaderExample(typ string) any {
	switch typ {
	case "string":
		return "string"
	case "integer":
		return 1
	case "float", "number", "double":
		return 1.5
	case "boolean":
		return true
	}
	return nil
}
