package http

import (
	"encoding/json"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	zynapse "github.com/zynapse-ai/zynapse-go"
)

// challengeSchema is the strict shape of a payable 402 body. Anything that
// does not match is treated as "not our challenge", never an error: the
// payer must not attempt to pay on an ambiguous or unrecognized challenge.
const challengeSchema = `{
  "type": "object",
  "required": ["error", "how_to_pay"],
  "properties": {
    "error": {"type": "string"},
    "how_to_pay": {
      "type": "object",
      "required": ["network", "payouts"],
      "properties": {
        "network": {"type": "string", "minLength": 1},
        "payouts": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["to", "minAmount"],
            "properties": {
              "to": {"type": "string", "minLength": 32},
              "minAmount": {"type": "integer", "minimum": 1}
            }
          }
        }
      }
    }
  }
}`

var challengeSchemaLoader = gojsonschema.NewStringLoader(challengeSchema)

// ParseChallenge validates body against the challenge schema and decodes
// it. ok is false when the body is not a well-formed payment challenge for
// a recognized network; the caller then returns the original response
// untouched.
func ParseChallenge(body []byte) (challenge *zynapse.Challenge, ok bool) {
	result, err := gojsonschema.Validate(challengeSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil || !result.Valid() {
		return nil, false
	}

	var c zynapse.Challenge
	if err := json.Unmarshal(body, &c); err != nil {
		return nil, false
	}
	if c.HowToPay == nil || !strings.Contains(c.HowToPay.Network, "solana") {
		return nil, false
	}
	return &c, true
}
