package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/graph"
	"github.com/ariutta/BridgeDb/internal/server/search"
	"github.com/ariutta/BridgeDb/internal/server/stats"
)

// XrefsResponse lists the identifiers an xref maps or matches to
type XrefsResponse struct {
	Source  *core.Xref   `json:"source,omitempty"`
	Query   string       `json:"query,omitempty"`
	Results core.XrefSet `json:"results"`
	Count   int          `json:"count"`
}

// MappingsResponse lists mappings with provenance
type MappingsResponse struct {
	Source   *core.Xref     `json:"source,omitempty"`
	Mappings []core.Mapping `json:"mappings"`
	Count    int            `json:"count"`
}

// URIsResponse lists translated URIs
type URIsResponse struct {
	URI     string   `json:"uri"`
	Results []string `json:"results"`
	Count   int      `json:"count"`
}

// ExistsResponse answers existence checks
type ExistsResponse struct {
	Exists bool `json:"exists"`
}

// AttributesResponse carries either one attribute's values or all of them
type AttributesResponse struct {
	Xref       core.Xref           `json:"xref"`
	Name       string              `json:"name,omitempty"`
	Values     []string            `json:"values,omitempty"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

// AttributeHit is one attribute search match
type AttributeHit struct {
	Xref  core.Xref `json:"xref"`
	Value string    `json:"value"`
}

// AttributeSearchResponse lists attribute search matches sorted by xref
type AttributeSearchResponse struct {
	Query     string         `json:"query"`
	Attribute string         `json:"attribute"`
	Results   []AttributeHit `json:"results"`
	Count     int            `json:"count"`
}

// SuggestResponse lists symbol-or-id suggestions
type SuggestResponse struct {
	Query   string              `json:"query"`
	Results []search.Suggestion `json:"results"`
	Count   int                 `json:"count"`
}

// MappingSetsResponse lists catalog entries
type MappingSetsResponse struct {
	MappingSets []*core.MappingSetInfo `json:"mapping_sets"`
	Count       int                    `json:"count"`
}

// SummaryResponse lists per-pair link totals
type SummaryResponse struct {
	Pairs []stats.PairSummary `json:"pairs"`
}

// NamespacesResponse lists the registry
type NamespacesResponse struct {
	Namespaces []core.Namespace `json:"namespaces"`
	Count      int              `json:"count"`
}

// NamesResponse lists attribute names
type NamesResponse struct {
	Names []string `json:"names"`
	Count int      `json:"count"`
}

// SupportedResponse answers whether a namespace pair can be mapped
type SupportedResponse struct {
	Source    string `json:"source"`
	Target    string `json:"target"`
	Supported bool   `json:"supported"`
}

// PageResponse is one page of identifiers or URIs of a namespace
type PageResponse struct {
	Namespace string      `json:"namespace,omitempty"`
	Position  int         `json:"position"`
	Xrefs     []core.Xref `json:"xrefs,omitempty"`
	URIs      []string    `json:"uris,omitempty"`
	Count     int         `json:"count"`
}

// HealthCheck handles GET /health
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// MapDirect handles GET /api/map?id=&code=&target=
func (s *Server) MapDirect(w http.ResponseWriter, r *http.Request) {
	x, err := xrefParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := s.engine.MapDirect(r.Context(), x, r.URL.Query()["target"]...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, XrefsResponse{Source: &x, Results: set, Count: len(set)})
}

// MapIndirect handles GET /api/map/indirect
func (s *Server) MapIndirect(w http.ResponseWriter, r *http.Request) {
	x, err := xrefParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := s.engine.MapIndirect(r.Context(), x, r.URL.Query()["target"]...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, XrefsResponse{Source: &x, Results: set, Count: len(set)})
}

// MapFull handles GET /api/map/full
func (s *Server) MapFull(w http.ResponseWriter, r *http.Request) {
	x, err := xrefParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	mappings, err := s.engine.MapFull(r.Context(), x, r.URL.Query()["target"]...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MappingsResponse{Source: &x, Mappings: mappings, Count: len(mappings)})
}

// MapInSet handles GET /api/mapping-sets/{id}/map?id=&code=
func (s *Server) MapInSet(w http.ResponseWriter, r *http.Request) {
	setID, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	x, err := xrefParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := s.engine.MapInSet(r.Context(), x, setID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, XrefsResponse{Source: &x, Results: set, Count: len(set)})
}

// GetMapping handles GET /api/mapping/{id}
func (s *Server) GetMapping(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	m, err := s.engine.GetMapping(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// MapURI handles GET /api/map-uri?uri=&target=
// Each target is a URI template such as http://identifiers.org/ncbigene/{id}.
func (s *Server) MapURI(w http.ResponseWriter, r *http.Request) {
	u, err := requiredParam(r, "uri")
	if err != nil {
		writeError(w, err)
		return
	}
	uris, err := s.engine.MapURI(r.Context(), u, r.URL.Query()["target"]...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, URIsResponse{URI: u, Results: uris, Count: len(uris)})
}

// URIExists handles GET /api/uri-exists?uri=
func (s *Server) URIExists(w http.ResponseWriter, r *http.Request) {
	u, err := requiredParam(r, "uri")
	if err != nil {
		writeError(w, err)
		return
	}
	ok, err := s.engine.URIExists(r.Context(), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExistsResponse{Exists: ok})
}

// ToXref handles GET /api/to-xref?uri=
func (s *Server) ToXref(w http.ResponseWriter, r *http.Request) {
	u, err := requiredParam(r, "uri")
	if err != nil {
		writeError(w, err)
		return
	}
	x, err := s.engine.ToXref(r.Context(), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, x)
}

// XrefExists handles GET /api/xref-exists?id=&code=
func (s *Server) XrefExists(w http.ResponseWriter, r *http.Request) {
	x, err := xrefParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	ok, err := s.engine.XrefExists(r.Context(), x)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExistsResponse{Exists: ok})
}

// SampleMappings handles GET /api/samples?n=
func (s *Server) SampleMappings(w http.ResponseWriter, r *http.Request) {
	n, err := intParam(r, "n", graph.DefaultSampleSize)
	if err != nil {
		writeError(w, err)
		return
	}
	mappings, err := s.engine.SampleMappings(r.Context(), n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MappingsResponse{Mappings: mappings, Count: len(mappings)})
}

// Attributes handles GET /api/attributes?id=&code=&name=
// Without name every attribute of the identifier is returned.
func (s *Server) Attributes(w http.ResponseWriter, r *http.Request) {
	x, err := xrefParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := AttributesResponse{Xref: x, Name: r.URL.Query().Get("name")}
	if resp.Name != "" {
		resp.Values, err = s.engine.Attributes(r.Context(), x, resp.Name)
	} else {
		resp.Attributes, err = s.engine.AllAttributes(r.Context(), x)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AttributeNames handles GET /api/attribute-names
func (s *Server) AttributeNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.searcher.AttributeNames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NamesResponse{Names: names, Count: len(names)})
}

// XrefsByAttribute handles GET /api/attribute-xrefs?attribute=&value=
func (s *Server) XrefsByAttribute(w http.ResponseWriter, r *http.Request) {
	attribute, err := requiredParam(r, "attribute")
	if err != nil {
		writeError(w, err)
		return
	}
	value, err := requiredParam(r, "value")
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := s.searcher.XrefsByAttribute(r.Context(), attribute, value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, XrefsResponse{Query: value, Results: set, Count: len(set)})
}

// Capabilities handles GET /api/capabilities
func (s *Server) Capabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := s.engine.Capabilities(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, caps)
}

// MappingSupported handles GET /api/mapping-supported?source=&target=
func (s *Server) MappingSupported(w http.ResponseWriter, r *http.Request) {
	source, err := requiredParam(r, "source")
	if err != nil {
		writeError(w, err)
		return
	}
	target, err := requiredParam(r, "target")
	if err != nil {
		writeError(w, err)
		return
	}
	ok, err := s.engine.MappingSupported(r.Context(), source, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SupportedResponse{Source: source, Target: target, Supported: ok})
}

// XrefsByPosition handles GET /api/xrefs?namespace=&position=&limit=
func (s *Server) XrefsByPosition(w http.ResponseWriter, r *http.Request) {
	namespace, position, limit, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	xrefs, err := s.engine.XrefsByPosition(r.Context(), namespace, position, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageResponse{Namespace: namespace, Position: position, Xrefs: xrefs, Count: len(xrefs)})
}

// URIsByPosition handles GET /api/uris?namespace=&position=&limit=
// namespace may also be a URI template.
func (s *Server) URIsByPosition(w http.ResponseWriter, r *http.Request) {
	namespace, position, limit, err := pageParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	uris, err := s.engine.URIsByPosition(r.Context(), namespace, position, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageResponse{Namespace: namespace, Position: position, URIs: uris, Count: len(uris)})
}

// FreeSearch handles GET /api/search?q=&limit=
func (s *Server) FreeSearch(w http.ResponseWriter, r *http.Request) {
	q, limit, err := searchParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := s.searcher.FreeSearch(r.Context(), q, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, XrefsResponse{Query: q, Results: set, Count: len(set)})
}

// AttributeSearch handles GET /api/attribute-search?q=&attribute=&limit=
func (s *Server) AttributeSearch(w http.ResponseWriter, r *http.Request) {
	q, limit, err := searchParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	attribute, err := requiredParam(r, "attribute")
	if err != nil {
		writeError(w, err)
		return
	}
	hits, err := s.searcher.AttributeSearch(r.Context(), q, attribute, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	xrefs := make(core.XrefSet, len(hits))
	for x := range hits {
		xrefs.Add(x)
	}
	results := make([]AttributeHit, 0, len(hits))
	for _, x := range xrefs.Slice() {
		results = append(results, AttributeHit{Xref: x, Value: hits[x]})
	}
	writeJSON(w, http.StatusOK, AttributeSearchResponse{
		Query:     q,
		Attribute: attribute,
		Results:   results,
		Count:     len(results),
	})
}

// Suggest handles GET /api/suggest?q=&limit=
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	q, limit, err := searchParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	results, err := s.searcher.Suggest(r.Context(), q, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SuggestResponse{Query: q, Results: results, Count: len(results)})
}

// ListMappingSets handles GET /api/mapping-sets?source=&target=
func (s *Server) ListMappingSets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sets, err := s.catalog.List(r.Context(), query.Get("source"), query.Get("target"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MappingSetsResponse{MappingSets: sets, Count: len(sets)})
}

// GetMappingSet handles GET /api/mapping-sets/{id}
func (s *Server) GetMappingSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	set, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// DeleteMappingSet handles DELETE /api/mapping-sets/{id}
// A symmetric set is removed together with its inverse.
func (s *Server) DeleteMappingSet(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Statistics handles GET /api/statistics
func (s *Server) Statistics(w http.ResponseWriter, r *http.Request) {
	overall, err := s.stats.Overall(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overall)
}

// Summary handles GET /api/statistics/summary
func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.stats.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{Pairs: pairs})
}

// Graphviz handles GET /api/statistics/graphviz
func (s *Server) Graphviz(w http.ResponseWriter, r *http.Request) {
	pairs, err := s.stats.Summary(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	if err := stats.WriteDOT(r.Context(), fixedSummary(pairs), w, s.namespaceName); err != nil {
		s.log.Error().Err(err).Msg("writing graphviz")
	}
}

// ListNamespaces handles GET /api/namespaces
func (s *Server) ListNamespaces(w http.ResponseWriter, r *http.Request) {
	all := s.reg.All()
	writeJSON(w, http.StatusOK, NamespacesResponse{Namespaces: all, Count: len(all)})
}

// GetNamespace handles GET /api/namespaces/{code}
func (s *Server) GetNamespace(w http.ResponseWriter, r *http.Request) {
	ns, err := s.reg.LookupByCode(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ns)
}

func (s *Server) namespaceName(code string) string {
	if ns, err := s.reg.LookupByCode(code); err == nil {
		return ns.FullName
	}
	return code
}

// fixedSummary replays an already fetched summary so a storage failure is
// reported before any of the DOT body is written
type fixedSummary []stats.PairSummary

func (f fixedSummary) Overall(ctx context.Context) (core.OverallStatistics, error) {
	return core.OverallStatistics{}, nil
}

func (f fixedSummary) Summary(ctx context.Context) ([]stats.PairSummary, error) {
	return f, nil
}

func xrefParam(r *http.Request) (core.Xref, error) {
	query := r.URL.Query()
	x := core.NewXref(query.Get("id"), query.Get("code"))
	if !x.Valid() {
		return x, core.ConfigurationErrorf("parse request", "query parameters 'id' and 'code' are required")
	}
	return x, nil
}

func requiredParam(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", core.ConfigurationErrorf("parse request", "query parameter '%s' is required", name)
	}
	return v, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.ConfigurationErrorf("parse request", "invalid %s parameter %q", name, v)
	}
	return n, nil
}

func idParam(r *http.Request) (int64, error) {
	v := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, core.ConfigurationErrorf("parse request", "invalid id %q", v)
	}
	return id, nil
}

// searchParams reads q and limit; limit 0 or absent means no limit
func searchParams(r *http.Request) (string, int, error) {
	q, err := requiredParam(r, "q")
	if err != nil {
		return "", 0, err
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		return "", 0, err
	}
	return q, limit, nil
}

// pageParams reads namespace, position and limit; limit 0 or absent means no limit
func pageParams(r *http.Request) (string, int, int, error) {
	position, err := intParam(r, "position", 0)
	if err != nil {
		return "", 0, 0, err
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		return "", 0, 0, err
	}
	return r.URL.Query().Get("namespace"), position, limit, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
