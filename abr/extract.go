package abr

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"abr-search/models"
)

// Namespace is the XML namespace of ABR search payloads.
const Namespace = "http://abr.business.gov.au/ABRXMLSearch/"

const recordElement = "searchResultsRecord"

// nameElements lists the name sub-elements of a record in priority order.
var nameElements = []struct {
	tag   string
	label string
}{
	{"businessName", "Business Name"},
	{"mainName", "Main Name"},
	{"mainTradingName", "Trading Name"},
	{"otherTradingName", "Other Trading Name"},
}

// element is a generic XML node, enough to walk a record without a fixed schema.
type element struct {
	XMLName  xml.Name
	Text     string    `xml:",chardata"`
	Children []element `xml:",any"`
}

// child returns the first child in Namespace with the given local name, or nil.
func (e *element) child(local string) *element {
	if e == nil {
		return nil
	}
	for i := range e.Children {
		n := e.Children[i].XMLName
		if n.Space == Namespace && n.Local == local {
			return &e.Children[i]
		}
	}
	return nil
}

func (e *element) text() string {
	if e == nil {
		return ""
	}
	return e.Text
}

func (e *element) childText(local string) string {
	return e.child(local).text()
}

// ExtractString is Extract over an in-memory payload.
func ExtractString(payload string) ([]models.OutputRow, error) {
	return Extract(strings.NewReader(payload))
}

// Extract parses an ABR search payload and flattens every searchResultsRecord
// into an OutputRow, in document order, including records nested inside other
// records. Missing elements become empty strings. The payload must hold exactly
// one document element; on any parse error no rows are returned.
func Extract(r io.Reader) ([]models.OutputRow, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	rows := make([]models.OutputRow, 0)
	depth := 0
	rootSeen, rootClosed := false, false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &Failure{Kind: XMLParseFailure, Err: eris.Wrap(err, "read token")}
		}

		switch t := tok.(type) {
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return nil, &Failure{Kind: XMLParseFailure, Err: eris.New("text outside the document element")}
			}
		case xml.EndElement:
			depth--
			if depth == 0 {
				rootClosed = true
			}
		case xml.StartElement:
			if rootClosed {
				return nil, &Failure{Kind: XMLParseFailure, Err: eris.Errorf("junk after document element: <%s>", t.Name.Local)}
			}
			rootSeen = true
			if t.Name.Space != Namespace || t.Name.Local != recordElement {
				depth++
				continue
			}

			// DecodeElement consumes the matching end tag, so depth is unchanged.
			var rec element
			if err := dec.DecodeElement(&rec, &t); err != nil {
				return nil, &Failure{Kind: XMLParseFailure, Err: eris.Wrap(err, "decode record")}
			}
			rows = appendRecords(rows, &rec)
			if depth == 0 {
				rootClosed = true
			}
		}
	}

	if !rootSeen {
		return nil, &Failure{Kind: XMLParseFailure, Err: eris.New("document has no root element")}
	}
	return rows, nil
}

// appendRecords flattens rec and then any records nested below it, pre-order.
func appendRecords(rows []models.OutputRow, rec *element) []models.OutputRow {
	rows = append(rows, flatten(rec))
	var walk func(e *element)
	walk = func(e *element) {
		for i := range e.Children {
			c := &e.Children[i]
			if c.XMLName.Space == Namespace && c.XMLName.Local == recordElement {
				rows = appendRecords(rows, c)
				continue
			}
			walk(c)
		}
	}
	walk(rec)
	return rows
}

func flatten(rec *element) models.OutputRow {
	abn := rec.child("ABN")
	row := models.OutputRow{
		ABN:       abn.childText("identifierValue"),
		ABNStatus: abn.childText("identifierStatus"),
	}

	for _, ne := range nameElements {
		name := rec.child(ne.tag)
		org := name.child("organisationName")
		if org == nil {
			continue
		}
		row.BusinessName = org.text()
		row.NameType = ne.label
		row.Score = name.childText("score")
		row.IsCurrent = name.childText("isCurrentIndicator")
		break
	}

	addr := rec.child("mainBusinessPhysicalAddress")
	row.StateCode = addr.childText("stateCode")
	row.Postcode = addr.childText("postcode")
	return row
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}
