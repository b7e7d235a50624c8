package stats

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
)

// NameFunc returns a display label for a namespace code
type NameFunc func(code string) string

// WriteDOT renders the source/target summary as a graphviz digraph.
// Each unordered namespace pair becomes one edge, bidirectional when links
// exist both ways and dashed when any contributing set is transitive.
func WriteDOT(ctx context.Context, r Reporter, w io.Writer, name NameFunc) error {
	summary, err := r.Summary(ctx)
	if err != nil {
		return err
	}

	type pair struct{ lo, hi string }
	type edge struct {
		links      int64
		forward    bool // lo -> hi present
		backward   bool // hi -> lo present
		transitive bool
	}
	edges := make(map[pair]*edge)
	var order []pair
	nodes := make(map[string]bool)
	var nodeOrder []string

	for _, p := range summary {
		for _, code := range []string{p.Source, p.Target} {
			if !nodes[code] {
				nodes[code] = true
				nodeOrder = append(nodeOrder, code)
			}
		}
		key := pair{p.Source, p.Target}
		if p.Target < p.Source {
			key = pair{p.Target, p.Source}
		}
		e, ok := edges[key]
		if !ok {
			e = &edge{}
			edges[key] = e
			order = append(order, key)
		}
		e.links += p.LinkCount
		e.transitive = e.transitive || p.Transitive
		if p.Source == key.lo {
			e.forward = true
		} else {
			e.backward = true
		}
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph idmap {")
	for _, code := range nodeOrder {
		label := code
		if name != nil {
			if n := name(code); n != "" {
				label = n
			}
		}
		fmt.Fprintf(bw, "  %s [label=%s];\n", strconv.Quote(code), strconv.Quote(label))
	}
	for _, key := range order {
		e := edges[key]
		from, to := key.lo, key.hi
		attrs := "label=" + strconv.Quote(strconv.FormatInt(e.links, 10))
		switch {
		case e.forward && e.backward:
			attrs += ", dir=both"
		case e.backward:
			from, to = key.hi, key.lo
		}
		if e.transitive {
			attrs += ", style=dashed"
		}
		fmt.Fprintf(bw, "  %s -> %s [%s];\n", strconv.Quote(from), strconv.Quote(to), attrs)
	}
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}
