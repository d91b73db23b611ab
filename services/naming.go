package services

import (
	"strings"
	"time"
	"unicode"

	"abr-search/models"
)

const artifactPrefix = "ABRSearch_"

// ArtifactName returns the base file name (without extension) shared by the
// raw XML payload and CSV export of one search.
// Example: "ABRSearch_Acme_Plumbing_QLD_P4000_20240301_093000".
func ArtifactName(q models.SearchQuery, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(artifactPrefix)
	sb.WriteString(safeTerm(q.Term))
	if q.State != "" {
		sb.WriteString("_")
		sb.WriteString(string(q.State))
	}
	if pc := safeTerm(q.Postcode); pc != "" {
		sb.WriteString("_P")
		sb.WriteString(pc)
	}
	sb.WriteString("_")
	sb.WriteString(now.Format("20060102_150405"))
	return sb.String()
}

// safeTerm keeps letters, digits, spaces, '-' and '_', trims trailing space
// and turns the remaining spaces into underscores.
func safeTerm(s string) string {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			return r
		}
		return -1
	}, s)
	kept = strings.TrimRightFunc(kept, unicode.IsSpace)
	return strings.ReplaceAll(kept, " ", "_")
}
