package agentorch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dhafnck/taskforge/internal/domain"
)

// RebalanceAll runs RebalanceAgents concurrently across independent
// projects (cross-scope operations are independent, per spec.md §5) and
// collects one report per project. A failure in one project's workload
// lookup aborts the remaining in-flight work via ctx cancellation, per
// errgroup's usual semantics.
func RebalanceAll(
	ctx context.Context,
	projects []*domain.Project,
	workloadFor func(*domain.Project) (map[domain.TreeID]TreeWorkload, error),
	expertise ExpertiseScore,
	load CurrentLoad,
	now time.Time,
) (map[domain.ProjectID]*RebalanceReport, error) {
	var mu sync.Mutex
	results := make(map[domain.ProjectID]*RebalanceReport, len(projects))

	g, ctx := errgroup.WithContext(ctx)
	for _, p := range projects {
		p := p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			workload, err := workloadFor(p)
			if err != nil {
				return err
			}
			report := RebalanceAgents(p, workload, expertise, load, now)
			mu.Lock()
			results[p.ID] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}


