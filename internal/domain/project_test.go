package domain

import (
	"testing"
	"time"
)

func TestNewProjectHasMainTree(t *testing.T) {
	p := NewProject("proj1", "Proj One", time.Now())
	tr, ok := p.Trees[MainTreeID]
	if !ok || !tr.IsMain() {
		t.Fatalf("expected project to carry a main tree, got %+v", p.Trees)
	}
}

func TestDeleteTreeRefusesMainWithoutForce(t *testing.T) {
	p := NewProject("proj1", "Proj One", time.Now())
	if err := p.DeleteTree(MainTreeID, false); err == nil {
		t.Fatalf("expected error deleting main tree without force")
	}
	if err := p.DeleteTree(MainTreeID, true); err != nil {
		t.Fatalf("expected force delete of main tree to succeed, got %v", err)
	}
	if _, ok := p.Trees[MainTreeID]; ok {
		t.Fatalf("main tree should be gone after force delete")
	}
}

func TestDeleteTreeNotFound(t *testing.T) {
	p := NewProject("proj1", "Proj One", time.Now())
	err := p.DeleteTree("ghost", false)
	if kind, ok := KindOf(err); !ok || kind != ErrNotFound {
		t.Fatalf("expected NotFound error, got %v", err)
	}
}

func TestAssignAgentToMultipleTrees(t *testing.T) {
	now := time.Now()
	p := NewProject("proj1", "Proj One", now)
	p.Trees["feature-x"] = &Tree{ID: "feature-x", CreatedAt: now, UpdatedAt: now}
	p.Agents["coder"] = &Agent{ID: "coder", RegisteredAt: now}

	if err := p.AssignAgentToTree("coder", MainTreeID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.AssignAgentToTree("coder", "feature-x"); err != nil {
		t.Fatalf("unexpected error assigning second tree: %v", err)
	}
	agent := p.Agents["coder"]
	if len(agent.AssignedTrees) != 2 {
		t.Fatalf("expected agent assigned to 2 trees, got %v", agent.AssignedTrees)
	}
}

func TestResolveCallHandle(t *testing.T) {
	a := Agent{ID: "code_reviewer"}
	if got := a.ResolveCallHandle(); got != "@code-reviewer-agent" {
		t.Fatalf("got %q", got)
	}
	a.CallAgent = "@custom-handle"
	if got := a.ResolveCallHandle(); got != "@custom-handle" {
		t.Fatalf("explicit call_agent should win, got %q", got)
	}
}


