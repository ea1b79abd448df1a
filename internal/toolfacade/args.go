package toolfacade

import "github.com/dhafnck/taskforge/internal/domain"

// requireString extracts a non-empty string from args by key.
func requireString(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", domain.NewError(domain.ErrValidation, "%s is required", key)
	}
	return v, nil
}

// optionalString extracts a string from args by key, returning fallback if
// absent or empty.
func optionalString(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// optionalInt extracts a number from args by key, returning fallback if
// absent.
func optionalInt(args map[string]any, key string, fallback int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return fallback
}

// optionalBool extracts a bool from args by key, returning fallback if
// absent.
func optionalBool(args map[string]any, key string, fallback bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return fallback
}

// stringList extracts a []string from a JSON-decoded []interface{} value.
func stringList(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// objectMap extracts a map[string]any from args by key.
func objectMap(args map[string]any, key string) map[string]any {
	m, _ := args[key].(map[string]any)
	return m
}

func scopeFrom(args map[string]any) (projectID domain.ProjectID, treeID domain.TreeID, userID domain.UserID) {
	projectID = domain.ProjectID(optionalString(args, "project_id", ""))
	treeID = domain.TreeID(optionalString(args, "task_tree_id", string(domain.MainTreeID)))
	userID = domain.UserID(optionalString(args, "user_id", string(domain.DefaultUserID)))
	return
}


