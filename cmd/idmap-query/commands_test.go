package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariutta/BridgeDb/internal/idmap/core"
	"github.com/ariutta/BridgeDb/internal/server/api/apitest"
	"github.com/ariutta/BridgeDb/internal/server/wsclient"
)

func newClient(t *testing.T) *wsclient.Client {
	t.Helper()
	f := apitest.New(t)
	return wsclient.New(f.Server.URL, wsclient.WithRetries(0, time.Millisecond, time.Millisecond))
}

func TestParseXref(t *testing.T) {
	x, err := parseXref("Ce:15377")
	require.NoError(t, err)
	assert.Equal(t, core.NewXref("15377", "Ce"), x)

	x, err = parseXref("En:ENSG:1")
	require.NoError(t, err)
	assert.Equal(t, core.NewXref("ENSG:1", "En"), x)

	for _, bad := range []string{"15377", ":15377", "Ce:"} {
		_, err := parseXref(bad)
		assert.Error(t, err, bad)
	}
}

func TestTextArgs(t *testing.T) {
	text, limit, err := textArgs([]string{"glucose", "oxidase", "5"})
	require.NoError(t, err)
	assert.Equal(t, "glucose oxidase", text)
	assert.Equal(t, 5, limit)

	text, limit, err = textArgs([]string{"1234"})
	require.NoError(t, err)
	assert.Equal(t, "1234", text)
	assert.Equal(t, 0, limit)

	_, _, err = textArgs(nil)
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	tests := []struct {
		line string
		want []string
	}{
		{"map Ce:15377", []string{"Wd:Q283"}},
		{"map Ce:15377 L", []string{"no results"}},
		{"indirect Ce:15377", []string{"L:1234"}},
		{"full Ce:15377", []string{"Ce:15377", "Wd:Q283", "L:1234", apitest.Anchor.String()}},
		{"uri http://purl.obolibrary.org/obo/CHEBI_15377 " + apitest.GenePattern, []string{"https://identifiers.org/ncbigene/1234"}},
		{"exists L:1234", []string{"L:1234 true"}},
		{"attrs Ce:15377", []string{"Symbol", "water"}},
		{"search 153", []string{"Ce:15377"}},
		{"suggest gene", []string{"L:1234", "GENE1", "Entrez Gene"}},
		{"sets Ce", []string{"Ce", "Wd", "exactMatch"}},
		{"stats", []string{"4 mappings in 4 sets"}},
		{"caps", []string{"source", "Ce L Wd", "free search"}},
		{"caps Ce Wd", []string{"Ce -> Wd true"}},
		{"list L", []string{"L:1234"}},
		{"list 2 1", []string{"Wd:Q283"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, execute(ctx, c, tt.line, &out))
			for _, want := range tt.want {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestExecuteErrors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	for _, line := range []string{"frobnicate", "map", "map 15377", "search", "uri"} {
		assert.Error(t, execute(ctx, c, line, &bytes.Buffer{}), line)
	}
	assert.NoError(t, execute(ctx, c, "   ", &bytes.Buffer{}))
}

func TestREPL(t *testing.T) {
	c := newClient(t)
	var out bytes.Buffer
	in := strings.NewReader("help\nmap Ce:15377\nbogus\nexit\nmap L:1234\n")

	runREPL(context.Background(), c, "http://example.test", in, &out)

	s := out.String()
	assert.Contains(t, s, "IDMAP")
	assert.Contains(t, s, "Commands:")
	assert.Contains(t, s, "Wd:Q283")
	assert.Contains(t, s, `unknown command "bogus"`)
	assert.Contains(t, s, "Goodbye!")
	assert.Equal(t, 1, strings.Count(s, "Wd:Q283"))
}
