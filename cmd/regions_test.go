package cmd

import (
	"bytes"
	"testing"

	"github.com/rubiojr/gsuggest/pkg/catalog"
	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRegions(t *testing.T) {
	tests := []struct {
		name    string
		regions []config.Region
		sample  string
		want    []string
		wantErr string
	}{
		{
			name:   "built-in list",
			sample: "is it normal",
			want: []string{
				"50 regions",
				"http://google.com/complete/search?output=toolbar&q=is+it+normal",
				"http://google.co.uk/complete/search?output=toolbar&q=is+it+normal",
			},
		},
		{
			name: "configured regions with url override",
			regions: []config.Region{
				{ID: "us", Domain: ".com"},
				{ID: "lab", URL: "http://suggest.test/ac?q={query}"},
			},
			sample: "go lang",
			want: []string{
				"2 regions",
				"US",
				"LAB",
				"http://google.com/complete/search?output=toolbar&q=go+lang",
				"http://suggest.test/ac?q=go+lang",
			},
		},
		{
			name:    "url without query placeholder",
			regions: []config.Region{{ID: "bad", URL: "http://suggest.test/ac"}},
			wantErr: "no {query} placeholder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				URLTemplate: config.DefaultURLTemplate,
				Regions:     tt.regions,
			}
			var out bytes.Buffer
			err := runRegions(cfg, &out, tt.sample)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, out.String(), w)
			}
		})
	}
}

func TestRunRegionsListsEveryDefault(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runRegions(&config.Config{URLTemplate: config.DefaultURLTemplate}, &out, "x"))
	for _, r := range catalog.DefaultRegions {
		assert.Contains(t, out.String(), catalog.NormalizeID(r.ID))
	}
}
