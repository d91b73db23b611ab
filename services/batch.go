package services

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"abr-search/models"
	"abr-search/utils"
)

// BatchOutcome is the result of one term in a batch run.
type BatchOutcome struct {
	Term   string
	Result *models.SearchResult
	Err    error
}

// ReadTerms reads one search term per line. Blank lines, lines starting with
// '#' and repeated terms are skipped.
func ReadTerms(r io.Reader) ([]string, error) {
	seen := utils.NewTermSet()
	var terms []string

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !seen.Add(line) {
			continue
		}
		terms = append(terms, line)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "read terms")
	}
	return terms, nil
}

// RunBatch runs the pipeline once per term on pool, sharing the state and
// postcode filters. Outcomes are returned in term order.
func RunBatch(ctx context.Context, p *Pipeline, pool *utils.WorkerPool, terms []string, state models.State, postcode string) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(terms))
	var mu sync.Mutex

	for i, term := range terms {
		pool.Submit(func() {
			out := BatchOutcome{Term: term}
			if ctx.Err() != nil {
				out.Err = ctx.Err()
			} else {
				out.Result, out.Err = p.Run(ctx, models.SearchQuery{Term: term, State: state, Postcode: postcode})
			}
			if out.Err != nil {
				p.logger.Error("[batch] %q failed: %v", term, out.Err)
			}
			mu.Lock()
			outcomes[i] = out
			mu.Unlock()
		})
	}
	pool.Wait()
	return outcomes
}
