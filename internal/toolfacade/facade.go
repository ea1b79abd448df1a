// Package toolfacade dispatches the manage_project/manage_task/
// manage_subtask/manage_agent/manage_context/manage_rule/call_agent tool
// actions onto the underlying stores and domain services, and registers
// them with an mcp-go server.
package toolfacade

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/dhafnck/taskforge/internal/autorule"
	"github.com/dhafnck/taskforge/internal/cache"
	"github.com/dhafnck/taskforge/internal/clientsync"
	"github.com/dhafnck/taskforge/internal/contextstore"
	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/projectanalyzer"
	"github.com/dhafnck/taskforge/internal/projectregistry"
	"github.com/dhafnck/taskforge/internal/rulecompose"
	"github.com/dhafnck/taskforge/internal/ruleinherit"
	"github.com/dhafnck/taskforge/internal/ruleparser"
	"github.com/dhafnck/taskforge/internal/taskstore"
)

// Facade wires every core component to the tool-call RPC surface. All
// fields are safe for concurrent use by multiple in-flight tool calls; the
// components themselves own their own scope-level locking.
type Facade struct {
	Root string // the project's .cursor root, e.g. <project-root>/.cursor

	Tasks      *taskstore.Store
	Contexts   *contextstore.Store
	Projects   *projectregistry.Registry
	Parser     *ruleparser.Parser
	Inherit    *ruleinherit.Resolver
	Compose    *rulecompose.Composer
	Cache      *cache.Tier
	Sync       *clientsync.Service
	Analyzer   *projectanalyzer.Analyzer
	RoleLoader *autorule.RoleLoader

	now func() time.Time
}

// New wires a Facade rooted at a project's .cursor directory, with rule
// content under <root>/rules and the agent-library under
// <root>/rules/agent-library (mirroring the teacher's single-root layout).
func New(root string) *Facade {
	parser := ruleparser.New()
	return &Facade{
		Root:       root,
		Tasks:      taskstore.New(root),
		Contexts:   contextstore.New(root),
		Projects:   projectregistry.New(root),
		Parser:     parser,
		Inherit:    ruleinherit.New(parser),
		Compose:    rulecompose.New(),
		Cache:      cache.NewTier(10000, 64<<20),
		Sync:       clientsync.New(),
		Analyzer:   projectanalyzer.New(),
		RoleLoader: autorule.NewRoleLoader(filepath.Join(root, "rules", "agent-library")),
		now:        time.Now,
	}
}

// rulesDir is where rule files live for parse/hierarchy/compose actions.
func (f *Facade) rulesDir() string {
	return filepath.Join(f.Root, "rules")
}

// RuleSnapshot returns the current rule hierarchy content, for wiring into
// clientsync.Router as its RuleSource. Returns nil on a load error; callers
// that need the error should use ManageRule("list", ...) instead.
func (f *Facade) RuleSnapshot() map[string]domain.RuleContent {
	rules, err := f.serverRuleContents()
	if err != nil {
		return nil
	}
	return rules
}

// StartRuleWatcher watches the rules directory for changes and invalidates
// the "rule" cache tag on the fly, so manage_rule callers never see a stale
// parse after an external edit. Runs until ctx is cancelled.
func (f *Facade) StartRuleWatcher(ctx context.Context, logger *log.Logger) error {
	return ruleinherit.NewWatcher(f.rulesDir(), f.Cache, logger).Start(ctx)
}


