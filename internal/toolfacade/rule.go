package toolfacade

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dhafnck/taskforge/internal/domain"
	"github.com/dhafnck/taskforge/internal/ruleinherit"
)

// ManageRule dispatches the manage_rule actions (spec.md §6): list|backup|
// restore|clean|info|load_core|parse_rule|analyze_hierarchy|
// get_dependencies|enhanced_info|compose_nested_rules|compose_rules|
// resolve_rule_inheritance|validate_rule_hierarchy|build_hierarchy|
// load_nested|cache_status|register_client|authenticate_client|
// sync_client|client_diff|resolve_conflicts|client_status|client_analytics.
func (f *Facade) ManageRule(action string, args map[string]any) Result {
	switch action {
	case "list":
		return f.ruleList()
	case "backup":
		return f.ruleBackup(args)
	case "restore":
		return f.ruleRestore(args)
	case "clean":
		return f.ruleClean()
	case "info":
		return f.ruleInfo(args)
	case "load_core":
		return f.ruleLoadCore()
	case "parse_rule":
		return f.ruleParseRule(args)
	case "analyze_hierarchy":
		return f.ruleAnalyzeHierarchy()
	case "get_dependencies":
		return f.ruleGetDependencies(args)
	case "enhanced_info":
		return f.ruleEnhancedInfo(args)
	case "compose_nested_rules":
		return f.ruleComposeNestedRules(args)
	case "compose_rules":
		return f.ruleComposeRules(args)
	case "resolve_rule_inheritance":
		return f.ruleResolveInheritance(args)
	case "validate_rule_hierarchy":
		return f.ruleValidateHierarchy()
	case "build_hierarchy":
		return f.ruleBuildHierarchy()
	case "load_nested":
		return f.ruleLoadNested()
	case "cache_status":
		return f.ruleCacheStatus()
	case "register_client":
		return f.ruleRegisterClient(args)
	case "authenticate_client":
		return f.ruleAuthenticateClient(args)
	case "sync_client":
		return f.ruleSyncClient(args)
	case "client_diff":
		return f.ruleClientDiff(args)
	case "resolve_conflicts":
		return f.ruleResolveConflicts(args)
	case "client_status":
		return f.ruleClientStatus(args)
	case "client_analytics":
		return f.ruleClientAnalytics(args)
	default:
		return fail(domain.NewError(domain.ErrValidation, "unknown manage_rule action %q", action))
	}
}

// loadRules loads every rule file under the facade's rules directory.
func (f *Facade) loadRules() (map[string]*domain.RuleContent, []ruleinherit.LoadWarning, error) {
	return f.Inherit.LoadHierarchy(f.rulesDir())
}

func (f *Facade) resolvePath(args map[string]any) (string, error) {
	path, err := requireString(args, "path")
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.rulesDir(), path)
	}
	return path, nil
}

func (f *Facade) ruleList() Result {
	rules, warnings, err := f.loadRules()
	if err != nil {
		return fail(err)
	}
	paths := make([]string, 0, len(rules))
	for p := range rules {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return ok(map[string]any{"rules": paths, "count": len(paths), "warnings": warnings})
}

func (f *Facade) ruleBackup(args map[string]any) Result {
	dest := optionalString(args, "destination", fmt.Sprintf("%s.backup-%s", f.rulesDir(), f.now().Format("20060102T150405")))
	if err := copyDir(f.rulesDir(), dest); err != nil {
		return fail(domain.WrapError(domain.ErrIOFailure, err, "backup rules directory"))
	}
	return ok(map[string]any{"destination": dest})
}

func (f *Facade) ruleRestore(args map[string]any) Result {
	source, err := requireString(args, "source")
	if err != nil {
		return fail(err)
	}
	if err := copyDir(source, f.rulesDir()); err != nil {
		return fail(domain.WrapError(domain.ErrIOFailure, err, "restore rules directory"))
	}
	return ok(nil)
}

// ruleClean drops every cached rule artifact tagged "rule", forcing the next
// read to reparse from disk.
func (f *Facade) ruleClean() Result {
	n := f.Cache.InvalidateTag("rule")
	return ok(map[string]any{"invalidated": n})
}

func (f *Facade) ruleInfo(args map[string]any) Result {
	path, err := f.resolvePath(args)
	if err != nil {
		return fail(err)
	}
	rc, warning, err := f.Parser.ParseFile(path)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"metadata": rc.Metadata, "warning": warning})
}

func (f *Facade) ruleLoadCore() Result {
	rules, _, err := f.loadRules()
	if err != nil {
		return fail(err)
	}
	var core []*domain.RuleContent
	for _, rc := range rules {
		if rc.Metadata.Type == domain.RuleTypeCore {
			core = append(core, rc)
		}
	}
	if len(core) == 0 {
		return ok(map[string]any{"rules": []*domain.RuleContent{}})
	}
	composed, err := f.Compose.ComposeMany(core, domain.StrategySequential)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"composition": composed})
}

func (f *Facade) ruleParseRule(args map[string]any) Result {
	path, err := f.resolvePath(args)
	if err != nil {
		return fail(err)
	}
	rc, warning, err := f.Parser.ParseFile(path)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"rule": rc, "warning": warning})
}

func (f *Facade) ruleAnalyzeHierarchy() Result {
	rules, warnings, err := f.loadRules()
	if err != nil {
		return fail(err)
	}
	analysis := f.Inherit.Analyze(rules)
	return ok(map[string]any{
		"inheritance":      analysis.Inheritance,
		"dependency_graph": analysis.DependencyGraph,
		"warnings":         warnings,
	})
}

func (f *Facade) ruleGetDependencies(args map[string]any) Result {
	path, err := f.resolvePath(args)
	if err != nil {
		return fail(err)
	}
	rc, _, err := f.Parser.ParseFile(path)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"dependencies": rc.Metadata.Dependencies, "references": rc.References})
}

func (f *Facade) ruleEnhancedInfo(args map[string]any) Result {
	path, err := f.resolvePath(args)
	if err != nil {
		return fail(err)
	}
	rules, _, err := f.loadRules()
	if err != nil {
		return fail(err)
	}
	rc, ok2 := rules[path]
	if !ok2 {
		return fail(domain.NewError(domain.ErrNotFound, "rule not found: %s", path))
	}
	analysis := f.Inherit.Analyze(rules)
	payload := map[string]any{"metadata": rc.Metadata, "dependencies": rc.Metadata.Dependencies, "references": rc.References}
	if edge, has := analysis.Inheritance[path]; has {
		payload["inheritance"] = edge
	}
	return ok(payload)
}

func (f *Facade) ruleComposeNestedRules(args map[string]any) Result {
	path, err := f.resolvePath(args)
	if err != nil {
		return fail(err)
	}
	rules, _, err := f.loadRules()
	if err != nil {
		return fail(err)
	}
	analysis := f.Inherit.Analyze(rules)
	composed, err := f.Compose.ComposeInheritance(path, rules, analysis)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"composition": composed})
}

func (f *Facade) ruleComposeRules(args map[string]any) Result {
	paths := stringList(args, "paths")
	if len(paths) == 0 {
		return fail(domain.NewError(domain.ErrValidation, "paths is required"))
	}
	strategy := domain.CompositionStrategy(optionalString(args, "strategy", string(domain.StrategyIntelligent)))
	var rules []*domain.RuleContent
	for _, p := range paths {
		resolved := p
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(f.rulesDir(), resolved)
		}
		rc, _, err := f.Parser.ParseFile(resolved)
		if err != nil {
			return fail(err)
		}
		rules = append(rules, rc)
	}
	composed, err := f.Compose.ComposeMany(rules, strategy)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"composition": composed})
}

func (f *Facade) ruleResolveInheritance(args map[string]any) Result {
	path, err := f.resolvePath(args)
	if err != nil {
		return fail(err)
	}
	rules, _, err := f.loadRules()
	if err != nil {
		return fail(err)
	}
	analysis := f.Inherit.Analyze(rules)
	edge, has := analysis.Inheritance[path]
	if !has {
		return ok(map[string]any{"inheritance": nil})
	}
	return ok(map[string]any{"inheritance": edge})
}

func (f *Facade) ruleValidateHierarchy() Result {
	rules, warnings, err := f.loadRules()
	if err != nil {
		return fail(err)
	}
	analysis := f.Inherit.Analyze(rules)
	var conflicts []string
	for path, edge := range analysis.Inheritance {
		for _, c := range edge.Conflicts {
			conflicts = append(conflicts, fmt.Sprintf("%s: %s", path, c))
		}
	}
	return ok(map[string]any{
		"valid":          len(conflicts) == 0 && len(warnings) == 0,
		"conflicts":      conflicts,
		"parse_warnings": warnings,
	})
}

func (f *Facade) ruleBuildHierarchy() Result {
	rules, warnings, err := f.loadRules()
	if err != nil {
		return fail(err)
	}
	analysis := f.Inherit.Analyze(rules)
	return ok(map[string]any{
		"rules":            rules,
		"inheritance":      analysis.Inheritance,
		"dependency_graph": analysis.DependencyGraph,
		"warnings":         warnings,
	})
}

func (f *Facade) ruleLoadNested() Result {
	rules, warnings, err := f.loadRules()
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"rules": rules, "warnings": warnings})
}

func (f *Facade) ruleCacheStatus() Result {
	return ok(map[string]any{"stats": f.Cache.Stats(), "entries": f.Cache.ToDomainEntries()})
}

func (f *Facade) serverRuleContents() (map[string]domain.RuleContent, error) {
	rules, _, err := f.loadRules()
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.RuleContent, len(rules))
	for path, rc := range rules {
		out[path] = *rc
	}
	return out, nil
}

func (f *Facade) ruleRegisterClient(args map[string]any) Result {
	clientID, err := requireString(args, "client_id")
	if err != nil {
		return fail(err)
	}
	cfg := domain.ClientConfig{
		ClientID:     clientID,
		Name:         optionalString(args, "name", clientID),
		AuthMethod:   domain.ClientAuthMethod(optionalString(args, "auth_method", string(domain.AuthAPIKey))),
		Secret:       optionalString(args, "secret", ""),
		RegisteredAt: f.now(),
	}
	var perms []domain.SyncOperation
	for _, p := range stringList(args, "permissions") {
		perms = append(perms, domain.SyncOperation(p))
	}
	if err := f.Sync.RegisterClient(cfg, perms); err != nil {
		return fail(err)
	}
	return ok(map[string]any{"client": cfg})
}

func (f *Facade) ruleAuthenticateClient(args map[string]any) Result {
	clientID, err := requireString(args, "client_id")
	if err != nil {
		return fail(err)
	}
	credential, err := requireString(args, "credential")
	if err != nil {
		return fail(err)
	}
	token, err := f.Sync.Authenticate(clientID, credential)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"token": token})
}

func (f *Facade) ruleSyncClient(args map[string]any) Result {
	clientID, err := requireString(args, "client_id")
	if err != nil {
		return fail(err)
	}
	op := domain.SyncOperation(optionalString(args, "operation", string(domain.SyncPull)))
	req := domain.SyncRequest{ClientID: clientID, Operation: op, Paths: stringList(args, "paths")}
	if payload, ok := args["payload"].(map[string]any); ok {
		req.Payload = map[string]domain.RuleContent{}
		for path := range payload {
			if rc, _, err := f.Parser.ParseFile(path); err == nil {
				req.Payload[path] = *rc
			}
		}
	}
	serverRules, err := f.serverRuleContents()
	if err != nil {
		return fail(err)
	}
	result, err := f.Sync.Sync(req, serverRules, nil)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"sync_result": result})
}

func (f *Facade) ruleClientDiff(args map[string]any) Result {
	clientID, err := requireString(args, "client_id")
	if err != nil {
		return fail(err)
	}
	serverRules, err := f.serverRuleContents()
	if err != nil {
		return fail(err)
	}
	diff, err := f.Sync.Diff(clientID, map[string]domain.RuleContent{}, serverRules)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"diff": diff})
}

func (f *Facade) ruleResolveConflicts(args map[string]any) Result {
	clientID, err := requireString(args, "client_id")
	if err != nil {
		return fail(err)
	}
	strategy := domain.ConflictResolution(optionalString(args, "strategy", string(domain.ConflictMerge)))
	resolved, unresolved, err := f.Sync.ResolveConflicts(clientID, nil, strategy)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"resolved": resolved, "unresolved": unresolved})
}

func (f *Facade) ruleClientStatus(args map[string]any) Result {
	clientID, err := requireString(args, "client_id")
	if err != nil {
		return fail(err)
	}
	status, err := f.Sync.Status(clientID)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"status": status})
}

func (f *Facade) ruleClientAnalytics(args map[string]any) Result {
	clientID, err := requireString(args, "client_id")
	if err != nil {
		return fail(err)
	}
	analytics, err := f.Sync.Analytics(clientID)
	if err != nil {
		return fail(err)
	}
	return ok(map[string]any{"analytics": analytics})
}

// copyDir recursively copies src to dst, preserving the directory structure.
// No example repo's library covers arbitrary directory-tree copying, so
// this walks os.ReadFile/os.WriteFile directly.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}


