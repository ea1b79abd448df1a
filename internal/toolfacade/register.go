package toolfacade

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Register registers the seven tool-call actions (manage_project,
// manage_task, manage_subtask, manage_agent, manage_context, manage_rule,
// call_agent) with an mcp-go server, each dispatching through f.
func Register(s *server.MCPServer, f *Facade) {
	registerManageProject(s, f)
	registerManageTask(s, f)
	registerManageSubtask(s, f)
	registerManageAgent(s, f)
	registerManageContext(s, f)
	registerManageRule(s, f)
	registerCallAgent(s, f)
}

func textResult(r Result) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(r.Error), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func registerManageProject(s *server.MCPServer, f *Facade) {
	s.AddTool(
		mcp.NewTool("manage_project",
			mcp.WithDescription("Manage projects, task trees, and cross-cutting project orchestration."),
			mcp.WithString("action", mcp.Required(), mcp.Description("create|get|list|update|create_tree|delete_tree|delete_project|clear_tree|get_tree_status|orchestrate|dashboard|project_health_check|sync_with_git|cleanup_obsolete|validate_integrity|rebalance_agents")),
			mcp.WithString("project_id", mcp.Description("Target project id")),
			mcp.WithString("task_tree_id", mcp.Description("Target task tree id")),
			mcp.WithString("name", mcp.Description("Project or tree name")),
			mcp.WithString("description", mcp.Description("Project or tree description")),
			mcp.WithBoolean("force", mcp.Description("Force a destructive delete past safety checks")),
			mcp.WithString("repo_dir", mcp.Description("Git working directory, defaults to the project root's parent")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			action, _ := args["action"].(string)
			return textResult(f.ManageProject(ctx, action, args))
		},
	)
}

func registerManageTask(s *server.MCPServer, f *Facade) {
	s.AddTool(
		mcp.NewTool("manage_task",
			mcp.WithDescription("Manage tasks within a project/task-tree/user scope."),
			mcp.WithString("action", mcp.Required(), mcp.Description("create|get|update|delete|complete|list|search|next|add_dependency|remove_dependency")),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Owning project id")),
			mcp.WithString("task_tree_id", mcp.Description("Task tree id, defaults to main")),
			mcp.WithString("user_id", mcp.Description("Owning user id, defaults to default_id")),
			mcp.WithString("task_id", mcp.Description("Target task id")),
			mcp.WithString("title", mcp.Description("Task title")),
			mcp.WithString("description", mcp.Description("Task description")),
			mcp.WithString("status", mcp.Description("Task status")),
			mcp.WithString("priority", mcp.Description("Task priority")),
			mcp.WithString("details", mcp.Description("Extended task details")),
			mcp.WithString("estimated_effort", mcp.Description("Coarse effort estimate")),
			mcp.WithArray("assignees", mcp.Description("Assignee handles")),
			mcp.WithArray("labels", mcp.Description("Closed-vocabulary labels")),
			mcp.WithString("due_date", mcp.Description("ISO due date")),
			mcp.WithArray("dependencies", mcp.Description("Dependency task ids")),
			mcp.WithString("dependency_id", mcp.Description("Single dependency id for add/remove_dependency")),
			mcp.WithString("query", mcp.Description("Search query")),
			mcp.WithNumber("limit", mcp.Description("Result limit")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			action, _ := args["action"].(string)
			return textResult(f.ManageTask(action, args))
		},
	)
}

func registerManageSubtask(s *server.MCPServer, f *Facade) {
	s.AddTool(
		mcp.NewTool("manage_subtask",
			mcp.WithDescription("Manage subtasks of a task."),
			mcp.WithString("action", mcp.Required(), mcp.Description("add|complete|list|update|remove")),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Owning project id")),
			mcp.WithString("task_tree_id", mcp.Description("Task tree id, defaults to main")),
			mcp.WithString("user_id", mcp.Description("Owning user id, defaults to default_id")),
			mcp.WithString("task_id", mcp.Required(), mcp.Description("Parent task id")),
			mcp.WithString("subtask_id", mcp.Description("Target subtask id")),
			mcp.WithString("title", mcp.Description("Subtask title")),
			mcp.WithString("description", mcp.Description("Subtask description")),
			mcp.WithString("assignee", mcp.Description("Subtask assignee")),
			mcp.WithString("status", mcp.Description("Subtask status")),
			mcp.WithString("progress_notes", mcp.Description("Free-form progress notes")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			action, _ := args["action"].(string)
			return textResult(f.ManageSubtask(action, args))
		},
	)
}

func registerManageAgent(s *server.MCPServer, f *Facade) {
	s.AddTool(
		mcp.NewTool("manage_agent",
			mcp.WithDescription("Register, assign, and rebalance agents within a project."),
			mcp.WithString("action", mcp.Required(), mcp.Description("register|assign|get|list|update|unregister|rebalance")),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Owning project id")),
			mcp.WithString("agent_id", mcp.Description("Target agent id")),
			mcp.WithString("task_tree_id", mcp.Description("Tree id for assign")),
			mcp.WithString("name", mcp.Description("Agent display name")),
			mcp.WithString("call_agent", mcp.Description("Explicit @-handle override")),
			mcp.WithArray("capabilities", mcp.Description("Agent capability tags")),
			mcp.WithNumber("workload_limit", mcp.Description("Max concurrent tree assignments")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			action, _ := args["action"].(string)
			return textResult(f.ManageAgent(action, args))
		},
	)
}

func registerManageContext(s *server.MCPServer, f *Facade) {
	s.AddTool(
		mcp.NewTool("manage_context",
			mcp.WithDescription("Manage a task's structured working context."),
			mcp.WithString("action", mcp.Required(), mcp.Description("create|get|update|delete|list|get_property|update_property|merge|add_insight|add_progress|update_next_steps")),
			mcp.WithString("project_id", mcp.Required(), mcp.Description("Owning project id")),
			mcp.WithString("task_tree_id", mcp.Description("Task tree id, defaults to main")),
			mcp.WithString("user_id", mcp.Description("Owning user id, defaults to default_id")),
			mcp.WithString("task_id", mcp.Description("Target task id")),
			mcp.WithString("path", mcp.Description("Dot-path for get_property/update_property")),
			mcp.WithString("section", mcp.Description("Section name for merge")),
			mcp.WithString("category", mcp.Description("Insight category")),
			mcp.WithString("text", mcp.Description("Insight text")),
			mcp.WithString("action_text", mcp.Description("Progress action description")),
			mcp.WithArray("steps", mcp.Description("Next-step descriptions")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			action, _ := args["action"].(string)
			return textResult(f.ManageContext(action, args))
		},
	)
}

func registerManageRule(s *server.MCPServer, f *Facade) {
	s.AddTool(
		mcp.NewTool("manage_rule",
			mcp.WithDescription("Parse, compose, cache, and sync rule files across the project's rule hierarchy."),
			mcp.WithString("action", mcp.Required(), mcp.Description("list|backup|restore|clean|info|load_core|parse_rule|analyze_hierarchy|get_dependencies|enhanced_info|compose_nested_rules|compose_rules|resolve_rule_inheritance|validate_rule_hierarchy|build_hierarchy|load_nested|cache_status|register_client|authenticate_client|sync_client|client_diff|resolve_conflicts|client_status|client_analytics")),
			mcp.WithString("path", mcp.Description("Rule file path, relative to the rules directory unless absolute")),
			mcp.WithArray("paths", mcp.Description("Rule file paths for compose_rules")),
			mcp.WithString("strategy", mcp.Description("Composition or conflict-resolution strategy")),
			mcp.WithString("destination", mcp.Description("Backup destination directory")),
			mcp.WithString("source", mcp.Description("Restore source directory")),
			mcp.WithString("client_id", mcp.Description("Sync client id")),
			mcp.WithString("name", mcp.Description("Sync client display name")),
			mcp.WithString("auth_method", mcp.Description("api_key|token|oauth2|certificate")),
			mcp.WithString("secret", mcp.Description("Client shared secret")),
			mcp.WithArray("permissions", mcp.Description("Allowed sync operations")),
			mcp.WithString("credential", mcp.Description("Credential presented by authenticate_client")),
			mcp.WithString("operation", mcp.Description("push|pull|bidirectional|merge")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			args := req.GetArguments()
			action, _ := args["action"].(string)
			return textResult(f.ManageRule(action, args))
		},
	)
}

func registerCallAgent(s *server.MCPServer, f *Facade) {
	s.AddTool(
		mcp.NewTool("call_agent",
			mcp.WithDescription("Load an agent role pack by its agent-library directory name."),
			mcp.WithString("name_agent", mcp.Required(), mcp.Description("Exact agent-library directory name, e.g. coding-agent")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return textResult(f.CallAgent(req.GetArguments()))
		},
	)
}


