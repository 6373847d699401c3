package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDomains(t *testing.T) {
	input := "US,.com\n# comment\n\n uk , .co.uk \r\nde,.de"
	regions, err := ParseDomains(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []config.Region{
		{ID: "US", Domain: ".com"},
		{ID: "UK", Domain: ".co.uk"},
		{ID: "DE", Domain: ".de"},
	}, regions)
}

func TestParseDomainsErrors(t *testing.T) {
	for name, input := range map[string]string{
		"no comma":     "US .com",
		"empty domain": "US,",
		"empty region": " ,.com",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDomains(strings.NewReader(input))
			assert.ErrorContains(t, err, "line 1")
		})
	}
}

func TestBuild(t *testing.T) {
	cat, err := Build(config.DefaultURLTemplate, []config.Region{
		{ID: "us", Domain: ".com"},
		{ID: "LOCAL", URL: "http://127.0.0.1:9000/complete?q={query}"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"US", "LOCAL"}, cat.RegionIDs())
	us, ok := cat.Get("US")
	require.True(t, ok)
	assert.Equal(t, "http://google.com/complete/search?output=toolbar&q=is+it+normal", us.URL("is it normal"))

	local, ok := cat.Get("LOCAL")
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:9000/complete?q=x", local.URL("x"))
}

func TestBuildDuplicateAfterNormalization(t *testing.T) {
	_, err := Build(config.DefaultURLTemplate, []config.Region{
		{ID: "us", Domain: ".com"},
		{ID: "US", Domain: ".com"},
	})
	assert.ErrorContains(t, err, "more than once")
}

func TestBuildMissingQuery(t *testing.T) {
	_, err := Build("http://google{domain}/complete", []config.Region{{ID: "US", Domain: ".com"}})
	assert.Error(t, err)
}

func TestFromConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	domains := filepath.Join(dir, "TopLevelDomains.txt")
	require.NoError(t, os.WriteFile(domains, []byte("FR,.fr\nIT,.it\n"), 0644))

	cfg := &config.Config{URLTemplate: config.DefaultURLTemplate}
	cat, err := FromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultRegions), cat.Size())

	cfg.DomainsFile = domains
	cat, err = FromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"FR", "IT"}, cat.RegionIDs())

	cfg.Regions = []config.Region{{ID: "JP", Domain: ".co.jp"}}
	cat, err = FromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{"JP"}, cat.RegionIDs())
}

func TestFromConfigMissingDomainsFile(t *testing.T) {
	cfg := &config.Config{
		URLTemplate: config.DefaultURLTemplate,
		DomainsFile: filepath.Join(t.TempDir(), "missing.txt"),
	}
	_, err := FromConfig(cfg)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultRegionsUnique(t *testing.T) {
	cat, err := Build(config.DefaultURLTemplate, DefaultRegions)
	require.NoError(t, err)
	assert.Equal(t, 50, cat.Size())
}
