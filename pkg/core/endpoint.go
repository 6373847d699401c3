package core

import (
	"fmt"
	"net/url"
	"strings"
)

// QueryPlaceholder is replaced by the escaped search phrase in request templates.
const QueryPlaceholder = "{query}"

// Endpoint is one regional autocomplete endpoint.
type Endpoint struct {
	RegionID        string
	RequestTemplate string
}

// URL renders the request URL for phrase. Spaces become '+'.
func (e Endpoint) URL(phrase string) string {
	return strings.ReplaceAll(e.RequestTemplate, QueryPlaceholder, url.QueryEscape(phrase))
}

// Catalog is the ordered, immutable set of endpoints queried by every round.
type Catalog struct {
	endpoints []Endpoint
	index     map[string]int
}

// NewCatalog validates endpoints and returns a catalog holding a private copy.
// Region ids must be non-empty and unique.
func NewCatalog(endpoints []Endpoint) (*Catalog, error) {
	c := &Catalog{
		endpoints: make([]Endpoint, 0, len(endpoints)),
		index:     make(map[string]int, len(endpoints)),
	}
	for _, ep := range endpoints {
		if ep.RegionID == "" {
			return nil, fmt.Errorf("endpoint with template %q has no region id", ep.RequestTemplate)
		}
		if _, exists := c.index[ep.RegionID]; exists {
			return nil, fmt.Errorf("region %s defined more than once", ep.RegionID)
		}
		if ep.RequestTemplate == "" {
			return nil, fmt.Errorf("region %s has an empty request template", ep.RegionID)
		}
		c.index[ep.RegionID] = len(c.endpoints)
		c.endpoints = append(c.endpoints, ep)
	}
	return c, nil
}

// List returns the endpoints in catalog order.
func (c *Catalog) List() []Endpoint {
	out := make([]Endpoint, len(c.endpoints))
	copy(out, c.endpoints)
	return out
}

// Size returns the number of endpoints.
func (c *Catalog) Size() int {
	return len(c.endpoints)
}

// Has reports whether regionID is part of the catalog.
func (c *Catalog) Has(regionID string) bool {
	_, ok := c.index[regionID]
	return ok
}

// Get returns the endpoint for regionID.
func (c *Catalog) Get(regionID string) (Endpoint, bool) {
	i, ok := c.index[regionID]
	if !ok {
		return Endpoint{}, false
	}
	return c.endpoints[i], true
}

// RegionIDs returns the region ids in catalog order.
func (c *Catalog) RegionIDs() []string {
	ids := make([]string, len(c.endpoints))
	for i, ep := range c.endpoints {
		ids[i] = ep.RegionID
	}
	return ids
}
