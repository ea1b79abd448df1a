package agentorch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dhafnck/taskforge/internal/domain"
)

func TestRebalanceAllCollectsPerProjectReports(t *testing.T) {
	now := time.Now()
	p1 := testProject(now)
	p2 := domain.NewProject("api", "API", now)
	p2.Trees["bugfix"] = &domain.Tree{ID: "bugfix", CreatedAt: now, UpdatedAt: now}
	p2.Agents["review_agent"] = &domain.Agent{ID: "review_agent", RegisteredAt: now}

	workloadFor := func(p *domain.Project) (map[domain.TreeID]TreeWorkload, error) {
		out := make(map[domain.TreeID]TreeWorkload, len(p.Trees))
		for id := range p.Trees {
			out[id] = TreeWorkload{HighPriorityTodo: 1}
		}
		return out, nil
	}
	expertise := func(agent *domain.Agent, treeID domain.TreeID) float64 { return 0.5 }
	load := func(agent *domain.Agent) float64 { return 0 }

	results, err := RebalanceAll(context.Background(), []*domain.Project{p1, p2}, workloadFor, expertise, load, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(results))
	}
	if _, ok := results[p1.ID]; !ok {
		t.Fatalf("missing report for %s", p1.ID)
	}
	if _, ok := results[p2.ID]; !ok {
		t.Fatalf("missing report for %s", p2.ID)
	}
	if assignee := results[p1.ID].Assignments["feature_x"]; assignee != "coding_agent" {
		t.Fatalf("expected feature_x assigned to coding_agent, got %q", assignee)
	}
}

func TestRebalanceAllAbortsOnWorkloadError(t *testing.T) {
	now := time.Now()
	p1 := testProject(now)
	p2 := domain.NewProject("api", "API", now)

	boom := errors.New("workload lookup failed")
	workloadFor := func(p *domain.Project) (map[domain.TreeID]TreeWorkload, error) {
		if p.ID == p2.ID {
			return nil, boom
		}
		return map[domain.TreeID]TreeWorkload{}, nil
	}
	expertise := func(agent *domain.Agent, treeID domain.TreeID) float64 { return 0.5 }
	load := func(agent *domain.Agent) float64 { return 0 }

	_, err := RebalanceAll(context.Background(), []*domain.Project{p1, p2}, workloadFor, expertise, load, now)
	if !errors.Is(err, boom) {
		t.Fatalf("expected workload error to propagate, got %v", err)
	}
}


