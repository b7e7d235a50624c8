package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/api"
	"github.com/ariutta/BridgeDb/internal/server/api/apitest"
)

func get(t *testing.T, f *apitest.Fixture, path string, query url.Values) *http.Response {
	t.Helper()
	u := f.Server.URL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	resp, err := http.Get(u)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func xrefQuery(x core.Xref) url.Values {
	return url.Values{"id": {x.ID}, "code": {x.Namespace}}
}

func TestHealthCheck(t *testing.T) {
	f := apitest.New(t)
	resp := get(t, f, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestMapDirectAndIndirect(t *testing.T) {
	f := apitest.New(t)

	resp := get(t, f, "/api/map", xrefQuery(apitest.Water))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var direct api.XrefsResponse
	decode(t, resp, &direct)
	assert.Equal(t, core.NewXrefSet(apitest.Anchor), direct.Results)
	assert.Equal(t, 1, direct.Count)
	assert.Equal(t, apitest.Water, *direct.Source)

	resp = get(t, f, "/api/map/indirect", xrefQuery(apitest.Water))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var indirect api.XrefsResponse
	decode(t, resp, &indirect)
	assert.Equal(t, core.NewXrefSet(apitest.Gene), indirect.Results)

	q := xrefQuery(apitest.Water)
	q.Add("target", "Entrez Gene")
	resp = get(t, f, "/api/map", q)
	var filtered api.XrefsResponse
	decode(t, resp, &filtered)
	assert.Empty(t, filtered.Results)
}

func TestMapFull(t *testing.T) {
	f := apitest.New(t)

	resp := get(t, f, "/api/map/full", xrefQuery(apitest.Water))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var full api.MappingsResponse
	decode(t, resp, &full)
	require.Equal(t, 3, full.Count)
	assert.True(t, full.Mappings[0].IsIdentity())

	var indirect *core.Mapping
	for i := range full.Mappings {
		if full.Mappings[i].Target == apitest.Gene {
			indirect = &full.Mappings[i]
		}
	}
	require.NotNil(t, indirect)
	require.NotNil(t, indirect.Via)
	assert.Equal(t, apitest.Anchor, *indirect.Via)
	assert.Contains(t, indirect.TargetURIs, "https://identifiers.org/ncbigene/1234")

	q := xrefQuery(apitest.Water)
	q.Add("target", "Wd")
	resp = get(t, f, "/api/map/full", q)
	var filtered api.MappingsResponse
	decode(t, resp, &filtered)
	assert.Equal(t, 2, filtered.Count)
}

func TestBadRequests(t *testing.T) {
	f := apitest.New(t)

	tests := []struct {
		name  string
		path  string
		query url.Values
	}{
		{"map without code", "/api/map", url.Values{"id": {"15377"}}},
		{"map-uri without uri", "/api/map-uri", nil},
		{"mapping id not a number", "/api/mapping/abc", nil},
		{"samples bad n", "/api/samples", url.Values{"n": {"many"}}},
		{"search without q", "/api/search", nil},
		{"search bad limit", "/api/search", url.Values{"q": {"1"}, "limit": {"x"}}},
		{"attribute search without attribute", "/api/attribute-search", url.Values{"q": {"wat"}}},
		{"attribute xrefs without value", "/api/attribute-xrefs", url.Values{"attribute": {"Symbol"}}},
		{"mapping supported without target", "/api/mapping-supported", url.Values{"source": {"Ce"}}},
		{"xrefs bad position", "/api/xrefs", url.Values{"position": {"first"}}},
		{"xrefs negative position", "/api/xrefs", url.Values{"position": {"-1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, f, tt.path, tt.query)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body api.ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, api.KindConfiguration, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestGetMapping(t *testing.T) {
	f := apitest.New(t)

	resp := get(t, f, "/api/samples", url.Values{"n": {"100"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var samples api.MappingsResponse
	decode(t, resp, &samples)
	require.Equal(t, 4, samples.Count)

	first := samples.Mappings[0]
	resp = get(t, f, "/api/mapping/"+strconv.FormatInt(first.ID, 10), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var m core.Mapping
	decode(t, resp, &m)
	assert.Equal(t, first.Source, m.Source)
	assert.Equal(t, first.Target, m.Target)
	assert.Equal(t, first.MappingSetID, m.MappingSetID)

	resp = get(t, f, "/api/mapping/999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body api.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, api.KindNotFound, body.Kind)

	resp = get(t, f, "/api/samples", nil)
	decode(t, resp, &samples)
	assert.Equal(t, 4, samples.Count)
	resp = get(t, f, "/api/samples", url.Values{"n": {"2"}})
	decode(t, resp, &samples)
	assert.Equal(t, 2, samples.Count)
}

func TestURIEndpoints(t *testing.T) {
	f := apitest.New(t)
	waterURI := "http://purl.obolibrary.org/obo/CHEBI_15377"

	resp := get(t, f, "/api/map-uri", url.Values{"uri": {waterURI}, "target": {apitest.GenePattern}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mapped api.URIsResponse
	decode(t, resp, &mapped)
	assert.Equal(t, []string{"https://identifiers.org/ncbigene/1234"}, mapped.Results)

	resp = get(t, f, "/api/map-uri", url.Values{"uri": {"http://nowhere.example/1"}})
	decode(t, resp, &mapped)
	assert.Empty(t, mapped.Results)

	var exists api.ExistsResponse
	decode(t, get(t, f, "/api/uri-exists", url.Values{"uri": {"http://www.wikidata.org/entity/Q283"}}), &exists)
	assert.True(t, exists.Exists)
	decode(t, get(t, f, "/api/uri-exists", url.Values{"uri": {"http://www.wikidata.org/entity/Q999"}}), &exists)
	assert.False(t, exists.Exists)

	var x core.Xref
	decode(t, get(t, f, "/api/to-xref", url.Values{"uri": {waterURI}}), &x)
	assert.Equal(t, apitest.Water, x)

	resp = get(t, f, "/api/to-xref", url.Values{"uri": {"http://nowhere.example/1"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestXrefExistsAndAttributes(t *testing.T) {
	f := apitest.New(t)

	var exists api.ExistsResponse
	decode(t, get(t, f, "/api/xref-exists", xrefQuery(apitest.Gene)), &exists)
	assert.True(t, exists.Exists)
	decode(t, get(t, f, "/api/xref-exists", xrefQuery(core.NewXref("1", "L"))), &exists)
	assert.False(t, exists.Exists)

	q := xrefQuery(apitest.Water)
	q.Set("name", "Symbol")
	var one api.AttributesResponse
	decode(t, get(t, f, "/api/attributes", q), &one)
	assert.Equal(t, []string{"water"}, one.Values)

	var all api.AttributesResponse
	decode(t, get(t, f, "/api/attributes", xrefQuery(apitest.Gene)), &all)
	assert.Equal(t, map[string][]string{"Symbol": {"GENE1"}}, all.Attributes)
}

func TestSearchEndpoints(t *testing.T) {
	f := apitest.New(t)

	var free api.XrefsResponse
	decode(t, get(t, f, "/api/search", url.Values{"q": {"153"}}), &free)
	assert.Equal(t, core.NewXrefSet(apitest.Water), free.Results)
	assert.Equal(t, "153", free.Query)

	var attrs api.AttributeSearchResponse
	decode(t, get(t, f, "/api/attribute-search", url.Values{"q": {"WAT"}, "attribute": {"Symbol"}}), &attrs)
	assert.Equal(t, []api.AttributeHit{{Xref: apitest.Water, Value: "water"}}, attrs.Results)

	var suggest api.SuggestResponse
	decode(t, get(t, f, "/api/suggest", url.Values{"q": {"gene"}}), &suggest)
	require.Len(t, suggest.Results, 1)
	assert.Equal(t, apitest.Gene, suggest.Results[0].Xref)
	assert.Equal(t, "GENE1", suggest.Results[0].Symbol)
	assert.Equal(t, "Entrez Gene", suggest.Results[0].Namespace)
}

func TestAttributeLookupEndpoints(t *testing.T) {
	f := apitest.New(t)

	var names api.NamesResponse
	decode(t, get(t, f, "/api/attribute-names", nil), &names)
	assert.Equal(t, []string{"Symbol"}, names.Names)
	assert.Equal(t, 1, names.Count)

	var refs api.XrefsResponse
	decode(t, get(t, f, "/api/attribute-xrefs", url.Values{"attribute": {"Symbol"}, "value": {"GENE1"}}), &refs)
	assert.Equal(t, core.NewXrefSet(apitest.Gene), refs.Results)

	decode(t, get(t, f, "/api/attribute-xrefs", url.Values{"attribute": {"Symbol"}, "value": {"gene1"}}), &refs)
	assert.Empty(t, refs.Results)
}

func TestCapabilityEndpoints(t *testing.T) {
	f := apitest.New(t)

	var caps core.Capabilities
	decode(t, get(t, f, "/api/capabilities", nil), &caps)
	assert.Equal(t, []string{"Ce", "L", "Wd"}, caps.SourceNamespaces)
	assert.Equal(t, []string{"Ce", "L", "Wd"}, caps.TargetNamespaces)
	assert.True(t, caps.FreeSearch)

	tests := []struct {
		source, target string
		want           bool
	}{
		{"Ce", "Wd", true},
		{"Wikidata", "Entrez Gene", true},
		{"Ce", "L", false},
		{"Zz", "Wd", false},
	}
	for _, tt := range tests {
		var got api.SupportedResponse
		decode(t, get(t, f, "/api/mapping-supported", url.Values{"source": {tt.source}, "target": {tt.target}}), &got)
		assert.Equal(t, tt.want, got.Supported, "%s -> %s", tt.source, tt.target)
	}
}

func TestPagingEndpoints(t *testing.T) {
	f := apitest.New(t)

	var page api.PageResponse
	decode(t, get(t, f, "/api/xrefs", url.Values{"position": {"1"}, "limit": {"1"}}), &page)
	assert.Equal(t, []core.Xref{apitest.Gene}, page.Xrefs)
	assert.Equal(t, 1, page.Position)

	decode(t, get(t, f, "/api/xrefs", nil), &page)
	assert.Equal(t, []core.Xref{apitest.Water, apitest.Gene, apitest.Anchor}, page.Xrefs)

	var uris api.PageResponse
	decode(t, get(t, f, "/api/uris", url.Values{"namespace": {"Wd"}}), &uris)
	assert.Equal(t, []string{"http://www.wikidata.org/entity/Q283"}, uris.URIs)
	assert.Equal(t, 1, uris.Count)

	decode(t, get(t, f, "/api/uris", url.Values{"namespace": {apitest.GenePattern}}), &uris)
	assert.Equal(t, []string{"https://identifiers.org/ncbigene/1234"}, uris.URIs)
}

func TestMappingSets(t *testing.T) {
	f := apitest.New(t)

	var list api.MappingSetsResponse
	decode(t, get(t, f, "/api/mapping-sets", nil), &list)
	assert.Equal(t, 4, list.Count)
	decode(t, get(t, f, "/api/mapping-sets", url.Values{"source": {"Ce"}}), &list)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Wd", list.MappingSets[0].Target)

	setPath := "/api/mapping-sets/" + strconv.FormatInt(f.ChEBISet, 10)
	var set core.MappingSetInfo
	decode(t, get(t, f, setPath, nil), &set)
	assert.Equal(t, int64(1), set.LinkCount)
	assert.True(t, set.Symmetric)

	var inSet api.XrefsResponse
	decode(t, get(t, f, setPath+"/map", xrefQuery(apitest.Water)), &inSet)
	assert.Equal(t, core.NewXrefSet(apitest.Anchor), inSet.Results)

	req, err := http.NewRequest(http.MethodDelete, f.Server.URL+setPath, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, http.StatusNotFound, get(t, f, setPath, nil).StatusCode)
	decode(t, get(t, f, "/api/mapping-sets", nil), &list)
	assert.Equal(t, 2, list.Count)

	var direct api.XrefsResponse
	decode(t, get(t, f, "/api/map", xrefQuery(apitest.Water)), &direct)
	assert.Empty(t, direct.Results)
}

func TestStatistics(t *testing.T) {
	f := apitest.New(t)

	var overall core.OverallStatistics
	decode(t, get(t, f, "/api/statistics", nil), &overall)
	assert.Equal(t, core.OverallStatistics{
		MappingCount:             4,
		MappingSetCount:          4,
		DistinctSourceNamespaces: 3,
		DistinctTargetNamespaces: 3,
		DistinctPredicates:       1,
	}, overall)

	var summary api.SummaryResponse
	decode(t, get(t, f, "/api/statistics/summary", nil), &summary)
	require.Len(t, summary.Pairs, 4)
	assert.Equal(t, "Ce", summary.Pairs[0].Source)
	assert.Equal(t, "Wd", summary.Pairs[0].Target)

	resp := get(t, f, "/api/statistics/graphviz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/vnd.graphviz")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "digraph idmap {"), string(body))
	assert.Contains(t, string(body), `"L" [label="Entrez Gene"];`)
	assert.Contains(t, string(body), "dir=both")
}

func TestNamespaces(t *testing.T) {
	f := apitest.New(t)

	var list api.NamespacesResponse
	decode(t, get(t, f, "/api/namespaces", nil), &list)
	assert.Equal(t, 3, list.Count)

	var ns core.Namespace
	decode(t, get(t, f, "/api/namespaces/Ce", nil), &ns)
	assert.Equal(t, "ChEBI", ns.FullName)
	assert.Equal(t, []string{apitest.ChEBIPattern}, ns.Patterns)

	assert.Equal(t, http.StatusNotFound, get(t, f, "/api/namespaces/Zz", nil).StatusCode)
}

func TestStorageUnavailable(t *testing.T) {
	f := apitest.New(t)
	require.NoError(t, f.Store.Close(context.Background()))

	resp := get(t, f, "/api/map", xrefQuery(apitest.Water))
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	var body api.ErrorResponse
	decode(t, resp, &body)
	assert.Equal(t, api.KindStorageUnavailable, body.Kind)
}

func TestMetricsEndpoint(t *testing.T) {
	f := apitest.New(t)
	get(t, f, "/api/map", xrefQuery(apitest.Water))
	get(t, f, "/api/mapping/999", nil)

	resp := get(t, f, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `idmap_http_requests_total{route="/api/map",status="2xx"} 1`)
	assert.Contains(t, string(body), `idmap_http_requests_total{route="/api/mapping/{id}",status="4xx"} 1`)
	assert.Contains(t, string(body), `idmap_queries_total{operation="map_direct",status="ok"}`)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		kind   string
	}{
		{core.NotFoundError("op", "x"), http.StatusNotFound, api.KindNotFound},
		{core.StorageError("op", "x", io.ErrUnexpectedEOF), http.StatusServiceUnavailable, api.KindStorageUnavailable},
		{core.ConflictError("op", "x", "taken"), http.StatusBadRequest, api.KindConflict},
		{core.ConfigurationErrorf("op", "bad"), http.StatusBadRequest, api.KindConfiguration},
		{io.EOF, http.StatusBadRequest, api.KindBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, api.StatusCode(tt.err), tt.err.Error())
		assert.Equal(t, tt.kind, api.ErrorKind(tt.err), tt.err.Error())

		back := api.KindError(tt.kind, tt.err.Error())
		assert.Equal(t, tt.status, api.StatusCode(back))
		assert.Equal(t, tt.kind, api.ErrorKind(back))
	}
}
