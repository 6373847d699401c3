package core

// Parser extracts suggestions from a raw response payload.
//
// Parse returns the suggestions in payload order. It must wrap
// ErrMalformedPayload when the payload cannot be decoded or lacks the
// expected structure. An empty result is not an error.
//
// Parsers register themselves from init():
//
//	func init() {
//		core.RegisterParser("toolbar", &Parser{})
//	}
type Parser interface {
	// Format returns the payload format name, e.g. "toolbar".
	Format() string
	Parse(payload []byte) ([]string, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(payload []byte) ([]string, error)

func (f ParserFunc) Format() string { return "func" }

func (f ParserFunc) Parse(payload []byte) ([]string, error) {
	return f(payload)
}
