package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/wsclient"
)

type command struct {
	name  string
	usage string
	help  string
	run   func(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error
}

var commands = []command{
	{"map", "map <code:id> [target...]", "Direct mappings", runMap},
	{"indirect", "indirect <code:id> [target...]", "Mappings through one anchor", runIndirect},
	{"full", "full <code:id> [target...]", "Identity, direct and indirect with provenance", runFull},
	{"uri", "uri <uri> [template...]", "Map a URI to URIs", runURI},
	{"exists", "exists <code:id>", "Whether the identifier was loaded", runExists},
	{"attrs", "attrs <code:id> [name]", "Attributes of an identifier", runAttrs},
	{"search", "search <text> [limit]", "Identifiers containing text", runSearch},
	{"suggest", "suggest <text> [limit]", "Identifiers or symbols containing text", runSuggest},
	{"sets", "sets [source] [target]", "Mapping sets", runSets},
	{"stats", "stats", "Catalog statistics", runStats},
	{"caps", "caps [source target]", "Mappable namespaces, or whether one pair maps", runCaps},
	{"list", "list [namespace] [position] [limit]", "Page through loaded identifiers", runList},
}

// execute runs one command line against the server
func execute(ctx context.Context, c *wsclient.Client, line string, w io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd.run(ctx, c, fields[1:], w)
		}
	}
	return fmt.Errorf("unknown command %q, try help", fields[0])
}

// parseXref reads code:id; only the first colon separates the parts
func parseXref(s string) (core.Xref, error) {
	code, id, ok := strings.Cut(s, ":")
	x := core.NewXref(id, code)
	if !ok || !x.Valid() {
		return core.Xref{}, fmt.Errorf("identifier %q is not code:id", s)
	}
	return x, nil
}

func xrefArg(args []string) (core.Xref, []string, error) {
	if len(args) == 0 {
		return core.Xref{}, nil, fmt.Errorf("missing identifier")
	}
	x, err := parseXref(args[0])
	return x, args[1:], err
}

func textArgs(args []string) (string, int, error) {
	if len(args) == 0 {
		return "", 0, fmt.Errorf("missing search text")
	}
	limit := 0
	if len(args) > 1 {
		n, err := strconv.Atoi(args[len(args)-1])
		if err == nil {
			limit = n
			args = args[:len(args)-1]
		}
	}
	return strings.Join(args, " "), limit, nil
}

func printXrefs(w io.Writer, set core.XrefSet) {
	if len(set) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no results"))
		return
	}
	for _, x := range set.Slice() {
		fmt.Fprintln(w, x.String())
	}
}

func render(w io.Writer, t *table.Table) {
	fmt.Fprintln(w, t.Border(lipgloss.NormalBorder()).String())
}

func runMap(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	x, targets, err := xrefArg(args)
	if err != nil {
		return err
	}
	set, err := c.MapDirect(ctx, x, targets...)
	if err != nil {
		return err
	}
	printXrefs(w, set)
	return nil
}

func runIndirect(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	x, targets, err := xrefArg(args)
	if err != nil {
		return err
	}
	set, err := c.MapIndirect(ctx, x, targets...)
	if err != nil {
		return err
	}
	printXrefs(w, set)
	return nil
}

func runFull(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	x, targets, err := xrefArg(args)
	if err != nil {
		return err
	}
	mappings, err := c.MapFull(ctx, x, targets...)
	if err != nil {
		return err
	}
	t := table.New().Headers("TARGET", "SET", "VIA", "PREDICATE")
	for _, m := range mappings {
		set, via := "", ""
		if !m.IsIdentity() {
			set = strconv.FormatInt(m.MappingSetID, 10)
		}
		if m.Via != nil {
			via = m.Via.String()
		}
		t.Row(m.Target.String(), set, via, m.Predicate)
	}
	render(w, t)
	return nil
}

func runURI(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("missing uri")
	}
	uris, err := c.MapURI(ctx, args[0], args[1:]...)
	if err != nil {
		return err
	}
	if len(uris) == 0 {
		fmt.Fprintln(w, dimStyle.Render("no results"))
	}
	for _, u := range uris {
		fmt.Fprintln(w, u)
	}
	return nil
}

func runExists(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	x, _, err := xrefArg(args)
	if err != nil {
		return err
	}
	ok, err := c.XrefExists(ctx, x)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %t\n", x, ok)
	return nil
}

func runAttrs(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	x, rest, err := xrefArg(args)
	if err != nil {
		return err
	}
	var attrs map[string][]string
	if len(rest) > 0 {
		values, err := c.Attributes(ctx, x, rest[0])
		if err != nil {
			return err
		}
		attrs = map[string][]string{rest[0]: values}
	} else if attrs, err = c.AllAttributes(ctx, x); err != nil {
		return err
	}

	t := table.New().Headers("NAME", "VALUE")
	for _, name := range sortedKeys(attrs) {
		for _, v := range attrs[name] {
			t.Row(name, v)
		}
	}
	render(w, t)
	return nil
}

func runSearch(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	text, limit, err := textArgs(args)
	if err != nil {
		return err
	}
	set, err := c.FreeSearch(ctx, text, limit)
	if err != nil {
		return err
	}
	printXrefs(w, set)
	return nil
}

func runSuggest(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	text, limit, err := textArgs(args)
	if err != nil {
		return err
	}
	results, err := c.Suggest(ctx, text, limit)
	if err != nil {
		return err
	}
	t := table.New().Headers("ID", "SYMBOL", "NAMESPACE")
	for _, s := range results {
		t.Row(s.Xref.String(), s.Symbol, s.Namespace)
	}
	render(w, t)
	return nil
}

func runSets(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	var source, target string
	if len(args) > 0 {
		source = args[0]
	}
	if len(args) > 1 {
		target = args[1]
	}
	sets, err := c.MappingSets(ctx, source, target)
	if err != nil {
		return err
	}
	t := table.New().Headers("ID", "SOURCE", "TARGET", "LINKS", "PREDICATE", "INVERSE OF")
	for _, s := range sets {
		inverse := ""
		if s.IsInverse() {
			inverse = strconv.FormatInt(s.InverseOf, 10)
		}
		t.Row(strconv.FormatInt(s.ID, 10), s.Source, s.Target,
			strconv.FormatInt(s.LinkCount, 10), s.Predicate, inverse)
	}
	render(w, t)
	return nil
}

func runStats(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	overall, err := c.Overall(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, titleStyle.Render(overall.String()))

	summary, err := c.Summary(ctx)
	if err != nil {
		return err
	}
	t := table.New().Headers("SOURCE", "TARGET", "LINKS", "SETS")
	for _, p := range summary {
		t.Row(p.Source, p.Target, strconv.FormatInt(p.LinkCount, 10), strconv.Itoa(p.MappingSets))
	}
	render(w, t)
	return nil
}

func runCaps(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	if len(args) >= 2 {
		ok, err := c.MappingSupported(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s -> %s %t\n", args[0], args[1], ok)
		return nil
	}
	caps, err := c.Capabilities(ctx)
	if err != nil {
		return err
	}
	t := table.New().Headers("ROLE", "NAMESPACES")
	t.Row("source", strings.Join(caps.SourceNamespaces, " "))
	t.Row("target", strings.Join(caps.TargetNamespaces, " "))
	t.Row("free search", strconv.FormatBool(caps.FreeSearch))
	render(w, t)
	return nil
}

func runList(ctx context.Context, c *wsclient.Client, args []string, w io.Writer) error {
	var namespace string
	if len(args) > 0 {
		if _, err := strconv.Atoi(args[0]); err != nil {
			namespace, args = args[0], args[1:]
		}
	}
	nums := make([]int, 2)
	for i := 0; i < len(args) && i < 2; i++ {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return fmt.Errorf("%q is not a number", args[i])
		}
		nums[i] = n
	}
	xrefs, err := c.XrefsByPosition(ctx, namespace, nums[0], nums[1])
	if err != nil {
		return err
	}
	printXrefs(w, core.NewXrefSet(xrefs...))
	return nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
