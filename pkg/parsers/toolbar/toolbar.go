// Package toolbar parses the XML suggestion format served by the
// complete/search endpoint with output=toolbar.
//
//	<toplevel>
//	  <CompleteSuggestion><suggestion data="golang"/></CompleteSuggestion>
//	</toplevel>
package toolbar

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/rubiojr/gsuggest/pkg/core"
	"golang.org/x/text/encoding/ianaindex"
)

// Format is the registry name of this parser.
const Format = "toolbar"

func init() {
	core.RegisterParser(Format, &Parser{})
}

type document struct {
	XMLName     xml.Name             `xml:"toplevel"`
	Suggestions []completeSuggestion `xml:"CompleteSuggestion"`
}

type completeSuggestion struct {
	Suggestion *suggestion `xml:"suggestion"`
}

type suggestion struct {
	Data *string `xml:"data,attr"`
}

// Parser decodes toolbar XML payloads.
type Parser struct{}

func (p *Parser) Format() string {
	return Format
}

// Parse returns the suggestion data attributes in document order. A
// CompleteSuggestion without a suggestion element or data attribute makes the
// whole payload malformed; an empty data attribute is skipped.
func (p *Parser) Parse(payload []byte) ([]string, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, fmt.Errorf("%w: empty document", core.ErrMalformedPayload)
	}

	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.CharsetReader = charsetReader

	var doc document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decoding toolbar XML: %v", core.ErrMalformedPayload, err)
	}
	if err := expectEOF(decoder); err != nil {
		return nil, err
	}

	items := make([]string, 0, len(doc.Suggestions))
	for i, cs := range doc.Suggestions {
		if cs.Suggestion == nil || cs.Suggestion.Data == nil {
			return nil, fmt.Errorf("%w: CompleteSuggestion %d without suggestion data", core.ErrMalformedPayload, i+1)
		}
		if *cs.Suggestion.Data == "" {
			continue
		}
		items = append(items, *cs.Suggestion.Data)
	}
	return items, nil
}

// expectEOF rejects anything but whitespace, comments and processing
// instructions after the root element.
func expectEOF(decoder *xml.Decoder) error {
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: after toplevel: %v", core.ErrMalformedPayload, err)
		}
		switch t := tok.(type) {
		case xml.Comment, xml.ProcInst:
		case xml.CharData:
			if len(bytes.TrimSpace(t)) != 0 {
				return fmt.Errorf("%w: trailing text after toplevel", core.ErrMalformedPayload)
			}
		default:
			return fmt.Errorf("%w: trailing %T after toplevel", core.ErrMalformedPayload, tok)
		}
	}
}

// charsetReader converts non UTF-8 documents, which some regional endpoints
// still serve as ISO-8859-1.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(strings.ToLower(label))
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}
