package catalog

// Well-known linkset predicates
const (
	VoidSubjectsTarget = "http://rdfs.org/ns/void#subjectsTarget"
	VoidObjectsTarget  = "http://rdfs.org/ns/void#objectsTarget"
	HasSubject         = "http://www.bridgedb.org/hasSubject"
	HasTarget          = "http://www.bridgedb.org/hasTarget"
	SkosExactMatch     = "http://www.w3.org/2004/02/skos/core#exactMatch"
	SkosCloseMatch     = "http://www.w3.org/2004/02/skos/core#closeMatch"
	SkosBroadMatch     = "http://www.w3.org/2004/02/skos/core#broadMatch"
	SkosNarrowMatch    = "http://www.w3.org/2004/02/skos/core#narrowMatch"
)

var inversePredicates = map[string]string{
	VoidSubjectsTarget: VoidObjectsTarget,
	VoidObjectsTarget:  VoidSubjectsTarget,
	HasSubject:         HasTarget,
	HasTarget:          HasSubject,
	SkosBroadMatch:     SkosNarrowMatch,
	SkosNarrowMatch:    SkosBroadMatch,
}

// InversePredicate returns the predicate an inverse set uses for p.
// Predicates without a directional partner are their own inverse.
func InversePredicate(p string) string {
	if inv, ok := inversePredicates[p]; ok {
		return inv
	}
	return p
}
