package htmlutil

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

// Field describes one value to extract from a page: the text of every element
// matching Selector, or the value of Attr on those elements when Attr is set.
type Field struct {
	Selector string
	Attr     string
}

// Document is the narrow query capability the scrapers depend on. It hides
// the parsing library behind field descriptors.
type Document struct {
	doc *goquery.Document
}

func ParseDocument(body []byte) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		return Document{}, err
	}
	return Document{doc: doc}, nil
}

// Has reports whether at least one element matches the selector.
func (d Document) Has(selector string) bool {
	return d.doc.Find(selector).Length() > 0
}

// Values returns zero or more cleaned values for the field, in document order.
// Elements missing the requested attribute are skipped.
func (d Document) Values(f Field) []string {
	return values(d.doc.Selection, f)
}

// First returns the first value for the field, or "" when there is none.
func (d Document) First(f Field) string {
	v := d.Values(f)
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Row holds the values of each field for a single row element, keyed by the
// index of the field passed to Rows.
type Row struct {
	values [][]string
	html   string
}

// Get returns the first value of the i-th field in this row, or "".
func (r Row) Get(i int) string {
	if i >= len(r.values) || len(r.values[i]) == 0 {
		return ""
	}
	return r.values[i][0]
}

// HTML returns the raw inner html of the row element.
func (r Row) HTML() string {
	return r.html
}

// Rows finds every element matching rowSelector and evaluates each field
// relative to it. A field with an empty Selector refers to the row element
// itself.
func (d Document) Rows(rowSelector string, fields ...Field) []Row {
	var rows []Row
	d.doc.Find(rowSelector).Each(func(_ int, s *goquery.Selection) {
		row := Row{values: make([][]string, len(fields))}
		for i, f := range fields {
			row.values[i] = values(s, f)
		}
		row.html, _ = s.Html()
		rows = append(rows, row)
	})
	return rows
}

func values(root *goquery.Selection, f Field) []string {
	sel := root
	if f.Selector != "" {
		sel = root.Find(f.Selector)
	}
	out := []string{}
	sel.Each(func(_ int, s *goquery.Selection) {
		if f.Attr == "" {
			out = append(out, CleanText(GetText(s.Nodes[0])))
			return
		}
		v, ok := s.Attr(f.Attr)
		if !ok {
			return
		}
		out = append(out, CleanText(v))
	})
	return out
}
