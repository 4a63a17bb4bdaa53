// Package directive parses annotation directive lines (@param, @responseBody,
// @responseHeader, @requestBody, @requestFormDataBody, ...) into OpenAPI
// operation fragments.
//
// A directive line has the form
//
//	@<Keyword>[<Location>] <payload>
//
// where parameter and response payloads are split on the literal delimiter
// " - " into positional segments. The trailing meta segment may carry
// sub-directives such as @enum(a,b), @example(some value), @type(integer),
// @format(email) and the bare flag @required.
package directive
