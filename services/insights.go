package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"abr-search/models"
	"abr-search/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(rows []models.OutputRow) *models.InsightReport {
	report := &models.InsightReport{
		ByNameType: make(map[string]int),
		ByState:    make(map[string]int),
		ByStatus:   make(map[string]int),
	}

	report.TotalRecords = len(rows)

	for _, r := range rows {
		if r.ABN == "" {
			report.MissingABN++
		}
		if r.NameType == "" {
			report.MissingName++
		} else {
			report.ByNameType[r.NameType]++
		}
		if r.IsCurrent == "Y" {
			report.CurrentNames++
		}
		if r.StateCode != "" {
			report.ByState[r.StateCode]++
		}
		if r.ABNStatus != "" {
			report.ByStatus[r.ABNStatus]++
		}
	}

	if report.MissingABN > 0 {
		s.logger.Debug("[insights] %d of %d records have no ABN", report.MissingABN, report.TotalRecords)
	}
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  ABR SEARCH SUMMARY\n")
	fmt.Fprintf(w, "%s\n\n", sep)

	fmt.Fprintf(w, "  Overview\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total records        : %d\n", r.TotalRecords)
	fmt.Fprintf(w, "  Current names        : %d\n", r.CurrentNames)
	fmt.Fprintf(w, "  Records without ABN  : %d\n", r.MissingABN)
	fmt.Fprintf(w, "  Records without name : %d\n", r.MissingName)
	fmt.Fprintln(w)

	printCounts(w, "By name type", thin, r.ByNameType)
	printCounts(w, "By state", thin, r.ByState)
	printCounts(w, "By ABN status", thin, r.ByStatus)

	fmt.Fprintf(w, "%s\n\n", sep)
}

type keyCount struct {
	key   string
	count int
}

// sortedCounts orders by count descending, then key ascending.
func sortedCounts(m map[string]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, v := range m {
		out = append(out, keyCount{k, v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	return out
}

func printCounts(w io.Writer, title, thin string, m map[string]int) {
	fmt.Fprintf(w, "  %s\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(m) == 0 {
		fmt.Fprintf(w, "  No data\n\n")
		return
	}
	for _, kc := range sortedCounts(m) {
		fmt.Fprintf(w, "  %-22s %d\n", truncate(kc.key, 22), kc.count)
	}
	fmt.Fprintln(w)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
