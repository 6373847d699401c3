package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointURL(t *testing.T) {
	ep := Endpoint{
		RegionID:        "US",
		RequestTemplate: "http://google.com/complete/search?output=toolbar&q={query}",
	}

	assert.Equal(t,
		"http://google.com/complete/search?output=toolbar&q=is+it+normal",
		ep.URL("is it normal"))
	assert.Equal(t,
		"http://google.com/complete/search?output=toolbar&q=a%26b%3F",
		ep.URL("a&b?"))
}

func TestNewCatalog(t *testing.T) {
	catalog, err := NewCatalog([]Endpoint{
		{RegionID: "US", RequestTemplate: "http://google.com/?q={query}"},
		{RegionID: "UK", RequestTemplate: "http://google.co.uk/?q={query}"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Size())
	assert.Equal(t, []string{"US", "UK"}, catalog.RegionIDs())
	assert.True(t, catalog.Has("UK"))
	assert.False(t, catalog.Has("FR"))

	ep, ok := catalog.Get("UK")
	require.True(t, ok)
	assert.Equal(t, "http://google.co.uk/?q={query}", ep.RequestTemplate)

	// List returns a copy
	list := catalog.List()
	list[0].RegionID = "changed"
	assert.Equal(t, "US", catalog.List()[0].RegionID)
}

func TestNewCatalogValidation(t *testing.T) {
	tests := []struct {
		name      string
		endpoints []Endpoint
	}{
		{
			name:      "missing region id",
			endpoints: []Endpoint{{RequestTemplate: "http://x/?q={query}"}},
		},
		{
			name: "duplicate region id",
			endpoints: []Endpoint{
				{RegionID: "US", RequestTemplate: "http://a/?q={query}"},
				{RegionID: "US", RequestTemplate: "http://b/?q={query}"},
			},
		},
		{
			name:      "empty template",
			endpoints: []Endpoint{{RegionID: "US"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.endpoints)
			assert.Error(t, err)
		})
	}
}

func TestEmptyCatalog(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, catalog.Size())
	assert.Empty(t, catalog.List())
}
