package wsclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/api"
	"github.com/ariutta/BridgeDb/internal/server/resolve"
	"github.com/ariutta/BridgeDb/internal/server/search"
	"github.com/ariutta/BridgeDb/internal/server/stats"
)

var (
	_ resolve.Engine  = (*Client)(nil)
	_ search.Searcher = (*Client)(nil)
	_ stats.Reporter  = (*Client)(nil)
)

func (c *Client) xrefs(ctx context.Context, path string, query url.Values) (core.XrefSet, error) {
	var resp api.XrefsResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = core.NewXrefSet()
	}
	return resp.Results, nil
}

// MapDirect returns the identifiers one edge away from x
func (c *Client) MapDirect(ctx context.Context, x core.Xref, targets ...string) (core.XrefSet, error) {
	return c.xrefs(ctx, "/api/map", xrefQuery(x, targets...))
}

// MapIndirect returns the identifiers two edges away from x
func (c *Client) MapIndirect(ctx context.Context, x core.Xref, targets ...string) (core.XrefSet, error) {
	return c.xrefs(ctx, "/api/map/indirect", xrefQuery(x, targets...))
}

// MapFull returns identity, direct and indirect mappings with provenance
func (c *Client) MapFull(ctx context.Context, x core.Xref, targets ...string) ([]core.Mapping, error) {
	var resp api.MappingsResponse
	if err := c.get(ctx, "/api/map/full", xrefQuery(x, targets...), &resp); err != nil {
		return nil, err
	}
	return resp.Mappings, nil
}

// MapInSet returns the targets of x within one mapping set
func (c *Client) MapInSet(ctx context.Context, x core.Xref, setID int64) (core.XrefSet, error) {
	return c.xrefs(ctx, "/api/mapping-sets/"+strconv.FormatInt(setID, 10)+"/map", xrefQuery(x))
}

// GetMapping returns one stored mapping
func (c *Client) GetMapping(ctx context.Context, id int64) (*core.Mapping, error) {
	var m core.Mapping
	if err := c.get(ctx, "/api/mapping/"+strconv.FormatInt(id, 10), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MapURI translates a URI into the URIs of everything it maps to
func (c *Client) MapURI(ctx context.Context, uri string, targetPatterns ...string) ([]string, error) {
	q := url.Values{"uri": {uri}}
	for _, p := range targetPatterns {
		q.Add("target", p)
	}
	var resp api.URIsResponse
	if err := c.get(ctx, "/api/map-uri", q, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []string{}
	}
	return resp.Results, nil
}

// URIExists reports whether uri names a loaded identifier
func (c *Client) URIExists(ctx context.Context, uri string) (bool, error) {
	var resp api.ExistsResponse
	err := c.get(ctx, "/api/uri-exists", url.Values{"uri": {uri}}, &resp)
	return resp.Exists, err
}

// ToXref translates uri on the server
func (c *Client) ToXref(ctx context.Context, uri string) (core.Xref, error) {
	var x core.Xref
	if err := c.get(ctx, "/api/to-xref", url.Values{"uri": {uri}}, &x); err != nil {
		return core.Xref{}, err
	}
	return x, nil
}

// XrefExists reports whether x was ever loaded
func (c *Client) XrefExists(ctx context.Context, x core.Xref) (bool, error) {
	var resp api.ExistsResponse
	err := c.get(ctx, "/api/xref-exists", xrefQuery(x), &resp)
	return resp.Exists, err
}

// SampleMappings returns up to n stored mappings
func (c *Client) SampleMappings(ctx context.Context, n int) ([]core.Mapping, error) {
	var q url.Values
	if n > 0 {
		q = url.Values{"n": {strconv.Itoa(n)}}
	}
	var resp api.MappingsResponse
	if err := c.get(ctx, "/api/samples", q, &resp); err != nil {
		return nil, err
	}
	return resp.Mappings, nil
}

// Attributes returns the values of one attribute of x
func (c *Client) Attributes(ctx context.Context, x core.Xref, name string) ([]string, error) {
	q := xrefQuery(x)
	q.Set("name", name)
	var resp api.AttributesResponse
	if err := c.get(ctx, "/api/attributes", q, &resp); err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// AllAttributes returns every attribute of x
func (c *Client) AllAttributes(ctx context.Context, x core.Xref) (map[string][]string, error) {
	var resp api.AttributesResponse
	if err := c.get(ctx, "/api/attributes", xrefQuery(x), &resp); err != nil {
		return nil, err
	}
	if resp.Attributes == nil {
		resp.Attributes = map[string][]string{}
	}
	return resp.Attributes, nil
}

// FreeSearch matches text against identifier local ids
func (c *Client) FreeSearch(ctx context.Context, text string, limit int) (core.XrefSet, error) {
	return c.xrefs(ctx, "/api/search", searchQuery(text, limit))
}

// AttributeSearch matches text against the values of attribute
func (c *Client) AttributeSearch(ctx context.Context, text, attribute string, limit int) (map[core.Xref]string, error) {
	q := searchQuery(text, limit)
	q.Set("attribute", attribute)
	var resp api.AttributeSearchResponse
	if err := c.get(ctx, "/api/attribute-search", q, &resp); err != nil {
		return nil, err
	}
	out := make(map[core.Xref]string, len(resp.Results))
	for _, hit := range resp.Results {
		out[hit.Xref] = hit.Value
	}
	return out, nil
}

// Suggest returns symbol-or-id suggestions
func (c *Client) Suggest(ctx context.Context, text string, limit int) ([]search.Suggestion, error) {
	var resp api.SuggestResponse
	if err := c.get(ctx, "/api/suggest", searchQuery(text, limit), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Overall returns catalog statistics
func (c *Client) Overall(ctx context.Context) (core.OverallStatistics, error) {
	var s core.OverallStatistics
	err := c.get(ctx, "/api/statistics", nil, &s)
	return s, err
}

// Summary returns per-pair link totals
func (c *Client) Summary(ctx context.Context) ([]stats.PairSummary, error) {
	var resp api.SummaryResponse
	if err := c.get(ctx, "/api/statistics/summary", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// MappingSets lists the remote catalog; empty filters match everything
func (c *Client) MappingSets(ctx context.Context, source, target string) ([]*core.MappingSetInfo, error) {
	q := url.Values{}
	if source != "" {
		q.Set("source", source)
	}
	if target != "" {
		q.Set("target", target)
	}
	var resp api.MappingSetsResponse
	if err := c.get(ctx, "/api/mapping-sets", q, &resp); err != nil {
		return nil, err
	}
	return resp.MappingSets, nil
}

// DeleteMappingSet removes a set, and its inverse, on the server
func (c *Client) DeleteMappingSet(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/mapping-sets/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Namespaces lists the remote registry
func (c *Client) Namespaces(ctx context.Context) ([]core.Namespace, error) {
	var resp api.NamespacesResponse
	if err := c.get(ctx, "/api/namespaces", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Namespaces, nil
}

// XrefsByAttribute returns every identifier with the given attribute value
func (c *Client) XrefsByAttribute(ctx context.Context, attribute, value string) (core.XrefSet, error) {
	return c.xrefs(ctx, "/api/attribute-xrefs", url.Values{"attribute": {attribute}, "value": {value}})
}

// AttributeNames lists the attribute names the server knows
func (c *Client) AttributeNames(ctx context.Context) ([]string, error) {
	var resp api.NamesResponse
	if err := c.get(ctx, "/api/attribute-names", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Names == nil {
		resp.Names = []string{}
	}
	return resp.Names, nil
}

// Capabilities reports what the remote store can map
func (c *Client) Capabilities(ctx context.Context) (core.Capabilities, error) {
	var caps core.Capabilities
	if err := c.get(ctx, "/api/capabilities", nil, &caps); err != nil {
		return core.Capabilities{}, err
	}
	return caps, nil
}

// MappingSupported reports whether the server holds an edge from source to target
func (c *Client) MappingSupported(ctx context.Context, source, target string) (bool, error) {
	var resp api.SupportedResponse
	err := c.get(ctx, "/api/mapping-supported", url.Values{"source": {source}, "target": {target}}, &resp)
	return resp.Supported, err
}

func pageQuery(namespace string, position, limit int) url.Values {
	q := url.Values{"position": {strconv.Itoa(position)}}
	if namespace != "" {
		q.Set("namespace", namespace)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// XrefsByPosition pages through the remote identifiers of a namespace
func (c *Client) XrefsByPosition(ctx context.Context, namespace string, position, limit int) ([]core.Xref, error) {
	var resp api.PageResponse
	if err := c.get(ctx, "/api/xrefs", pageQuery(namespace, position, limit), &resp); err != nil {
		return nil, err
	}
	if resp.Xrefs == nil {
		resp.Xrefs = []core.Xref{}
	}
	return resp.Xrefs, nil
}

// URIsByPosition pages through the remote identifiers of a namespace as URIs
func (c *Client) URIsByPosition(ctx context.Context, namespace string, position, limit int) ([]string, error) {
	var resp api.PageResponse
	if err := c.get(ctx, "/api/uris", pageQuery(namespace, position, limit), &resp); err != nil {
		return nil, err
	}
	if resp.URIs == nil {
		resp.URIs = []string{}
	}
	return resp.URIs, nil
}
