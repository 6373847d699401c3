package toolbar

import (
	"testing"

	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p := &Parser{}

	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{
			name: "document order",
			payload: `<?xml version="1.0"?><toplevel>
<CompleteSuggestion><suggestion data="is it normal to"/></CompleteSuggestion>
<CompleteSuggestion><suggestion data="is it normal for"/></CompleteSuggestion>
</toplevel>`,
			want: []string{"is it normal to", "is it normal for"},
		},
		{
			name:    "no suggestions",
			payload: `<toplevel></toplevel>`,
			want:    []string{},
		},
		{
			name:    "self-closing root",
			payload: `<toplevel/>`,
			want:    []string{},
		},
		{
			name: "empty data skipped",
			payload: `<toplevel>
<CompleteSuggestion><suggestion data=""/></CompleteSuggestion>
<CompleteSuggestion><suggestion data="kept"/></CompleteSuggestion>
</toplevel>`,
			want: []string{"kept"},
		},
		{
			name:    "trailing whitespace and comment",
			payload: "<toplevel><CompleteSuggestion><suggestion data=\"a\"/></CompleteSuggestion></toplevel>\n<!-- cache -->\n",
			want:    []string{"a"},
		},
		{
			name:    "entities decoded",
			payload: `<toplevel><CompleteSuggestion><suggestion data="salt &amp; pepper"/></CompleteSuggestion></toplevel>`,
			want:    []string{"salt & pepper"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse([]byte(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLatin1(t *testing.T) {
	payload := append([]byte(`<?xml version="1.0" encoding="ISO-8859-1"?><toplevel><CompleteSuggestion><suggestion data="caf`),
		0xe9)
	payload = append(payload, []byte(`"/></CompleteSuggestion></toplevel>`)...)

	got, err := (&Parser{}).Parse(payload)
	require.NoError(t, err)
	assert.Equal(t, []string{"café"}, got)
}

func TestParseMalformed(t *testing.T) {
	p := &Parser{}
	for name, payload := range map[string]string{
		"empty":               "",
		"whitespace":          "  \n",
		"html":                "<html><body>rate limited</body></html>",
		"truncated":           `<toplevel><CompleteSuggestion><suggestion data="a"`,
		"json":                `["a",["b"]]`,
		"no suggestion child": `<toplevel><CompleteSuggestion/></toplevel>`,
		"no data attribute":   `<toplevel><CompleteSuggestion><suggestion/></CompleteSuggestion></toplevel>`,
		"one bad entry": `<toplevel><CompleteSuggestion><suggestion data="a"/></CompleteSuggestion>` +
			`<CompleteSuggestion></CompleteSuggestion></toplevel>`,
		"trailing element": `<toplevel><CompleteSuggestion><suggestion data="a"/></CompleteSuggestion></toplevel><garbage`,
		"trailing text":    `<toplevel><CompleteSuggestion><suggestion data="a"/></CompleteSuggestion></toplevel>junk`,
		"second root":      `<toplevel></toplevel><toplevel></toplevel>`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Parse([]byte(payload))
			assert.ErrorIs(t, err, core.ErrMalformedPayload)
		})
	}
}

func TestRegistered(t *testing.T) {
	p, err := core.GetGlobalRegistry().Parser(Format)
	require.NoError(t, err)
	assert.Equal(t, Format, p.Format())
}
