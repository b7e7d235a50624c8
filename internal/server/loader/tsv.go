package loader

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// tsvReader reads tab separated rows, skipping blank and # comment lines
type tsvReader struct {
	r      *csv.Reader
	fields int
}

func newTSVReader(r io.Reader, fields int) *tsvReader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.Comment = '#'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &tsvReader{r: cr, fields: fields}
}

var errShortRow = errors.New("too few columns")

// next returns the next row trimmed to the expected width, or io.EOF
func (t *tsvReader) next() ([]string, int, error) {
	for {
		row, err := t.r.Read()
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, perr.Line, err
			}
			return nil, 0, err
		}
		line, _ := t.r.FieldPos(0)
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < t.fields {
			return nil, line, errShortRow
		}
		out := make([]string, t.fields)
		for i := range out {
			out[i] = strings.TrimSpace(row[i])
		}
		return out, line, nil
	}
}
