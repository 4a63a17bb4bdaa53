package directive

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vitalvas/autoswag/openapi"
)

// Operation is the descriptor assembled from one action's directive block.
type Operation struct {
	Summary     string
	Tag         string
	Description string
	OperationID string

	// Parameters keep first-seen order; a later directive with the same
	// (name, in) pair replaces the earlier one in place.
	Parameters  []*openapi.Parameter
	RequestBody *openapi.RequestBody
	Responses   map[string]*openapi.Response
}

// IsEmpty reports whether no directive contributed to the operation.
func (o *Operation) IsEmpty() bool {
	return o == nil || (o.Summary == "" &&
		o.Tag == "" &&
		o.Description == "" &&
		o.OperationID == "" &&
		len(o.Parameters) == 0 &&
		o.RequestBody == nil &&
		len(o.Responses) == 0)
}

// AddParameter appends param or replaces the parameter with the same name
// and location.
func (o *Operation) AddParameter(param *openapi.Parameter) {
	if param == nil {
		return
	}
	for i, existing := range o.Parameters {
		if existing.Name == param.Name && existing.In == param.In {
			o.Parameters[i] = param
			return
		}
	}
	o.Parameters = append(o.Parameters, param)
}

// Parameter returns the parameter with the given name and location.
func (o *Operation) Parameter(name, in string) *openapi.Parameter {
	for _, p := range o.Parameters {
		if p.Name == name && p.In == in {
			return p
		}
	}
	return nil
}

// OpenAPI converts the descriptor into an OpenAPI operation object.
func (o *Operation) OpenAPI() *openapi.Operation {
	op := &openapi.Operation{
		Summary:     o.Summary,
		Description: o.Description,
		OperationID: o.OperationID,
		Parameters:  o.Parameters,
		RequestBody: o.RequestBody,
		Responses:   o.Responses,
	}
	if o.Tag != "" {
		op.Tags = []string{o.Tag}
	}
	return op
}

// Parse assembles an operation from the lines of one directive block.
// Blank and unrecognized lines are ignored.
func (p *Parser) Parse(lines []string) *Operation {
	op := &Operation{}
	headers := make(map[string]map[string]*openapi.Header)

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || !strings.HasPrefix(line, "@") {
			continue
		}

		switch keyword, _, _ := strings.Cut(line, " "); {
		case keyword == KeywordSummary:
			op.Summary = trimKeyword(line, KeywordSummary)
		case keyword == KeywordTag:
			op.Tag = trimKeyword(line, KeywordTag)
		case keyword == KeywordDescription:
			op.Description = trimKeyword(line, KeywordDescription)
		case keyword == KeywordOperationID:
			op.OperationID = trimKeyword(line, KeywordOperationID)
		case keyword == KeywordResponseBody:
			status, resp, ok := p.ParseResponseBody(line)
			if !ok {
				continue
			}
			if op.Responses == nil {
				op.Responses = make(map[string]*openapi.Response)
			}
			op.Responses[status] = resp
		case keyword == KeywordResponseHeader:
			status, set, ok := p.ParseResponseHeader(line)
			if !ok {
				continue
			}
			headers[status] = mergeHeaders(headers[status], set)
		case keyword == KeywordRequestBody:
			content := p.ParseBody(trimKeyword(line, KeywordRequestBody))
			if content == nil {
				continue
			}
			op.RequestBody = &openapi.RequestBody{Content: content}
		case keyword == KeywordFormDataBody:
			if body, ok := p.ParseFormDataBody(line); ok {
				op.RequestBody = body
			}
		case strings.HasPrefix(keyword, KeywordParam):
			for _, param := range p.ParseParam(line) {
				op.AddParameter(param)
			}
		default:
			p.logger.Debug("unrecognized directive", zap.String("keyword", keyword))
		}
	}

	finalizeResponses(op.Responses, headers)

	return op
}

// finalizeResponses attaches the header bundle collected for each status and
// synthesizes a description for responses without one.
func finalizeResponses(responses map[string]*openapi.Response, headers map[string]map[string]*openapi.Header) {
	for status, resp := range responses {
		if h, ok := headers[status]; ok && len(h) > 0 {
			resp.Headers = h
		}
		if resp.Description == "" {
			resp.Description = describeResponse(status, resp)
		}
	}
}

// describeResponse renders "Returns <status> (<reason phrase>) as <content-type>".
func describeResponse(status string, resp *openapi.Response) string {
	reason := "Unknown"
	if code, err := strconv.Atoi(status); err == nil {
		if text := http.StatusText(code); text != "" {
			reason = text
		}
	}

	desc := fmt.Sprintf("Returns %s (%s)", status, reason)
	if len(resp.Content) > 0 {
		desc += " as " + sortedKeys(resp.Content)[0]
	}
	return desc
}
