package firefox

import (
	"testing"

	"github.com/rubiojr/gsuggest/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p := &Parser{}

	got, err := p.Parse([]byte(`["golang",["golang tutorial","golang generics","","golang tutorial"],[],{"google:suggesttype":["QUERY"]}]`))
	require.NoError(t, err)
	// Duplicates within one payload are left for the aggregator.
	assert.Equal(t, []string{"golang tutorial", "golang generics", "golang tutorial"}, got)

	got, err = p.Parse([]byte(`["nothing",[]]`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseMalformed(t *testing.T) {
	p := &Parser{}
	for name, payload := range map[string]string{
		"empty":       "",
		"object":      `{"q":"x"}`,
		"short":       `["only query"]`,
		"not strings": `["q",[1,2]]`,
		"xml":         `<toplevel/>`,
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
