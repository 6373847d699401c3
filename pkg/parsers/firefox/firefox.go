// Package firefox parses the JSON suggestion format (client=firefox), an
// array whose first element echoes the query and whose second holds the
// suggestions: ["golang", ["golang tutorial", "golang generics"]].
package firefox

import (
	"encoding/json"
	"fmt"

	"github.com/rubiojr/gsuggest/pkg/core"
)

// Format is the registry name of this parser.
const Format = "firefox"

func init() {
	core.RegisterParser(Format, &Parser{})
}

// Parser decodes firefox JSON payloads.
type Parser struct{}

func (p *Parser) Format() string {
	return Format
}

func (p *Parser) Parse(payload []byte) ([]string, error) {
	var doc []json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding suggestion array: %v", core.ErrMalformedPayload, err)
	}
	if len(doc) < 2 {
		return nil, fmt.Errorf("%w: expected [query, suggestions], got %d elements", core.ErrMalformedPayload, len(doc))
	}

	var suggestions []string
	if err := json.Unmarshal(doc[1], &suggestions); err != nil {
		return nil, fmt.Errorf("%w: suggestions are not a string list: %v", core.ErrMalformedPayload, err)
	}

	items := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		if s != "" {
			items = append(items, s)
		}
	}
	return items, nil
}
