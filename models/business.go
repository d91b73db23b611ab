package models

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// State is an Australian state or territory code accepted by the registry
// search filters.
type State string

const (
	StateNSW State = "NSW"
	StateSA  State = "SA"
	StateACT State = "ACT"
	StateVIC State = "VIC"
	StateWA  State = "WA"
	StateNT  State = "NT"
	StateQLD State = "QLD"
	StateTAS State = "TAS"
)

// States lists every state code in the order the registry request declares them.
var States = []State{StateNSW, StateSA, StateACT, StateVIC, StateWA, StateNT, StateQLD, StateTAS}

// ParseState normalises s and checks it against the known codes.
// An empty string is valid and means "no state filter".
func ParseState(s string) (State, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	for _, st := range States {
		if string(st) == s {
			return st, nil
		}
	}
	return "", eris.Errorf("unknown state code %q", s)
}

// SearchQuery describes one name search against the registry.
// A zero MaxResults means "use the client default".
type SearchQuery struct {
	Term       string
	State      State
	Postcode   string
	MaxResults int
}

// NewSearchQuery trims its inputs and validates the state filter.
// maxResults of zero defers to the client default; negative values are rejected.
func NewSearchQuery(term, state, postcode string, maxResults int) (SearchQuery, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return SearchQuery{}, eris.New("search term is required")
	}
	st, err := ParseState(state)
	if err != nil {
		return SearchQuery{}, err
	}
	if maxResults < 0 {
		return SearchQuery{}, eris.Errorf("max results must not be negative, got %d", maxResults)
	}
	return SearchQuery{
		Term:       term,
		State:      st,
		Postcode:   strings.TrimSpace(postcode),
		MaxResults: maxResults,
	}, nil
}

// CSVHeader is the fixed header row of every tabular export.
var CSVHeader = []string{
	"ABN",
	"ABN_Status",
	"Business_Name",
	"Name_Type",
	"Score",
	"Is_Current",
	"State_Code",
	"Postcode",
}

// OutputRow is one flattened searchResultsRecord.
// Every field is the raw element text, or empty when the element is absent.
type OutputRow struct {
	ABN          string
	ABNStatus    string
	BusinessName string
	NameType     string
	Score        string
	IsCurrent    string
	StateCode    string
	Postcode     string
}

// Values returns the row in CSVHeader order.
func (r OutputRow) Values() []string {
	return []string{
		r.ABN,
		r.ABNStatus,
		r.BusinessName,
		r.NameType,
		r.Score,
		r.IsCurrent,
		r.StateCode,
		r.Postcode,
	}
}

// SearchResult is the outcome of one pipeline run.
type SearchResult struct {
	ID          string
	Query       SearchQuery
	XMLFile     string
	CSVFile     string
	RecordCount int
	Rows        []OutputRow
	CreatedAt   time.Time
}

// InsightReport holds simple aggregates over the exported rows.
type InsightReport struct {
	TotalRecords int
	CurrentNames int
	ByNameType   map[string]int
	ByState      map[string]int
	ByStatus     map[string]int
	MissingABN   int
	MissingName  int
}
