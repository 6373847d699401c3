// Package catalog builds the endpoint catalog from configuration: explicit
// [[regions]] tables, a TopLevelDomains.txt style file, or the built-in
// region list, in that order of precedence.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rubiojr/gsuggest/pkg/config"
	"github.com/rubiojr/gsuggest/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Und)

// DefaultRegions is used when the configuration names no regions.
var DefaultRegions = []config.Region{
	{ID: "US", Domain: ".com"},
	{ID: "UK", Domain: ".co.uk"},
	{ID: "CA", Domain: ".ca"},
	{ID: "AU", Domain: ".com.au"},
	{ID: "IN", Domain: ".co.in"},
	{ID: "IE", Domain: ".ie"},
	{ID: "NZ", Domain: ".co.nz"},
	{ID: "ZA", Domain: ".co.za"},
	{ID: "DE", Domain: ".de"},
	{ID: "FR", Domain: ".fr"},
	{ID: "ES", Domain: ".es"},
	{ID: "IT", Domain: ".it"},
	{ID: "NL", Domain: ".nl"},
	{ID: "BE", Domain: ".be"},
	{ID: "CH", Domain: ".ch"},
	{ID: "AT", Domain: ".at"},
	{ID: "SE", Domain: ".se"},
	{ID: "NO", Domain: ".no"},
	{ID: "DK", Domain: ".dk"},
	{ID: "FI", Domain: ".fi"},
	{ID: "PL", Domain: ".pl"},
	{ID: "PT", Domain: ".pt"},
	{ID: "BR", Domain: ".com.br"},
	{ID: "MX", Domain: ".com.mx"},
	{ID: "AR", Domain: ".com.ar"},
	{ID: "CL", Domain: ".cl"},
	{ID: "CO", Domain: ".com.co"},
	{ID: "PE", Domain: ".com.pe"},
	{ID: "JP", Domain: ".co.jp"},
	{ID: "KR", Domain: ".co.kr"},
	{ID: "SG", Domain: ".com.sg"},
	{ID: "HK", Domain: ".com.hk"},
	{ID: "TW", Domain: ".com.tw"},
	{ID: "PH", Domain: ".com.ph"},
	{ID: "MY", Domain: ".com.my"},
	{ID: "ID", Domain: ".co.id"},
	{ID: "TH", Domain: ".co.th"},
	{ID: "VN", Domain: ".com.vn"},
	{ID: "TR", Domain: ".com.tr"},
	{ID: "RU", Domain: ".ru"},
	{ID: "UA", Domain: ".com.ua"},
	{ID: "GR", Domain: ".gr"},
	{ID: "CZ", Domain: ".cz"},
	{ID: "HU", Domain: ".hu"},
	{ID: "RO", Domain: ".ro"},
	{ID: "IL", Domain: ".co.il"},
	{ID: "AE", Domain: ".ae"},
	{ID: "SA", Domain: ".com.sa"},
	{ID: "EG", Domain: ".com.eg"},
	{ID: "NG", Domain: ".com.ng"},
}

// FromConfig resolves the configured regions and expands them into a catalog.
func FromConfig(cfg *config.Config) (*core.Catalog, error) {
	regions, err := Regions(cfg)
	if err != nil {
		return nil, err
	}
	return Build(cfg.URLTemplate, regions)
}

// Regions returns the region list cfg selects.
func Regions(cfg *config.Config) ([]config.Region, error) {
	switch {
	case len(cfg.Regions) > 0:
		return cfg.Regions, nil
	case cfg.DomainsFile != "":
		return LoadDomainsFile(cfg.DomainsFile)
	default:
		out := make([]config.Region, len(DefaultRegions))
		copy(out, DefaultRegions)
		return out, nil
	}
}

// Build expands template for every region. A region with its own URL skips
// the template. Region ids are upper-cased.
func Build(template string, regions []config.Region) (*core.Catalog, error) {
	endpoints := make([]core.Endpoint, 0, len(regions))
	for _, r := range regions {
		reqTemplate := r.URL
		if reqTemplate == "" {
			reqTemplate = strings.ReplaceAll(template, config.DomainPlaceholder, r.Domain)
		}
		if !strings.Contains(reqTemplate, core.QueryPlaceholder) {
			return nil, fmt.Errorf("region %s: request template %q has no %s placeholder",
				r.ID, reqTemplate, core.QueryPlaceholder)
		}
		endpoints = append(endpoints, core.Endpoint{
			RegionID:        NormalizeID(r.ID),
			RequestTemplate: reqTemplate,
		})
	}

	cat, err := core.NewCatalog(endpoints)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}
	return cat, nil
}

// NormalizeID strips whitespace from a region id and upper-cases it.
func NormalizeID(id string) string {
	return upper.String(strings.Join(strings.Fields(id), ""))
}

// LoadDomainsFile reads a region list from path.
func LoadDomainsFile(path string) ([]config.Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening domains file: %w", err)
	}
	defer f.Close()

	regions, err := ParseDomains(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return regions, nil
}

// ParseDomains reads lines of the form "US,.com". Blank lines and lines
// starting with # are ignored; whitespace inside a field is dropped.
func ParseDomains(r io.Reader) ([]config.Region, error) {
	var regions []config.Region
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		id, domain, ok := strings.Cut(line, ",")
		if !ok {
			return nil, fmt.Errorf("line %d: expected REGION,DOMAIN, got %q", lineNo, line)
		}
		id = NormalizeID(id)
		domain = strings.Join(strings.Fields(domain), "")
		if id == "" || domain == "" {
			return nil, fmt.Errorf("line %d: empty region or domain in %q", lineNo, line)
		}
		regions = append(regions, config.Region{ID: id, Domain: domain})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading domains: %w", err)
	}
	return regions, nil
}
