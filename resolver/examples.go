package resolver

import (
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/vitalvas/autoswag/internal/textcase"
)

// Canonical example values shared by the generators.
const (
	ExampleDateTime = "2021-03-23T16:13:08.489+01:00"
	ExampleDate     = "2021-03-23"
	ExampleEmail    = "johndoe@example.com"
	ExamplePassword = "S3cur3P4s5word!"
	ExampleURL      = "https://example.com"
	ExamplePhone    = "+49123456789"
)

// fieldExamples maps well-known snake_case field names to plausible values.
var fieldExamples = map[string]any{
	"id":                    1,
	"uuid":                  "b3c2f5a4-9d1e-4c3b-8a7f-2e6d5c4b3a21",
	"email":                 ExampleEmail,
	"password":              ExamplePassword,
	"password_confirmation": ExamplePassword,
	"username":              "johndoe",
	"name":                  "John Doe",
	"full_name":             "John Doe",
	"first_name":            "John",
	"last_name":             "Doe",
	"title":                 "Lorem Ipsum",
	"description":           "Lorem ipsum dolor sit amet",
	"slug":                  "lorem-ipsum",
	"phone":                 ExamplePhone,
	"phone_number":          ExamplePhone,
	"mobile":                ExamplePhone,
	"url":                   ExampleURL,
	"website":               ExampleURL,
	"avatar_url":            ExampleURL + "/avatar.png",
	"token":                 "b3BhcXVlLWFjY2Vzcy10b2tlbg",
	"access_token":          "b3BhcXVlLWFjY2Vzcy10b2tlbg",
	"remember_me_token":     "b3BhcXVlLXJlbWVtYmVyLXRva2Vu",
	"street":                "Example Street 1",
	"city":                  "Berlin",
	"zip":                   "10115",
	"postal_code":           "10115",
	"country":               "Germany",
	"locale":                "en",
	"datetime":              ExampleDateTime,
	"timestamp":             ExampleDateTime,
	"created_at":            ExampleDateTime,
	"updated_at":            ExampleDateTime,
	"deleted_at":            ExampleDateTime,
	"date":                  ExampleDate,
	"birthday":              ExampleDate,
	"date_of_birth":         ExampleDate,
}

// ExampleByField returns a domain-plausible example for a well-known field
// name, regardless of its declared type. Camel case and snake case spellings
// are treated alike ("createdAt" == "created_at").
func ExampleByField(field string) (any, bool) {
	if v, ok := fieldExamples[field]; ok {
		return v, true
	}
	v, ok := fieldExamples[textcase.Snake(field)]
	return v, ok
}

// ExampleByType returns a canonical stub value for a primitive type name.
// Integers are pseudo-random. Unknown types report false so callers can fall
// back to another source.
func ExampleByType(typ string) (any, bool) {
	switch strings.ToLower(typ) {
	case "string":
		return "string", true
	case "number", "integer", "int":
		return rand.IntN(1000), true
	case "boolean", "bool":
		return true, true
	case "datetime", "date-time":
		return ExampleDateTime, true
	case "date":
		return ExampleDate, true
	case "uuid":
		return uuid.NewString(), true
	case "object":
		return map[string]any{}, true
	case "array":
		return []any{}, true
	}
	return nil, false
}

// ExampleByFormat returns an example matching a string format or validator
// rule name (e.g. "email" yields an email-shaped string).
func ExampleByFormat(format string) any {
	switch format {
	case "email":
		return ExampleEmail
	case "url", "uri", "activeUrl":
		return ExampleURL
	case "uuid":
		return uuid.NewString()
	case "date":
		return ExampleDate
	case "date-time", "datetime", "dateTime":
		return ExampleDateTime
	case "ip", "ipv4", "ipAddress":
		return "127.0.0.1"
	case "ipv6":
		return "::1"
	case "hostname":
		return "example.com"
	case "mobile", "phone", "e164":
		return ExamplePhone
	case "creditCard", "credit_card":
		return "4111111111111111"
	case "hexColor", "hexcolor", "hexCode":
		return "#ff0000"
	case "password":
		return ExamplePassword
	}
	return "string"
}
