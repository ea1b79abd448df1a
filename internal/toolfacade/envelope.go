package toolfacade

import "encoding/json"

// Result is the {success, ...payload, error} envelope every manage_* and
// call_agent action returns, per spec.md §6.
type Result struct {
	Success bool           `json:"success"`
	Payload map[string]any `json:"-"`
	Error   string         `json:"error,omitempty"`
}

// MarshalJSON flattens Payload alongside Success/Error so callers see one
// flat object rather than a nested "payload" key.
func (r Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{"success": r.Success}
	for k, v := range r.Payload {
		out[k] = v
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	return json.Marshal(out)
}

func ok(payload map[string]any) Result {
	if payload == nil {
		payload = map[string]any{}
	}
	return Result{Success: true, Payload: payload}
}

func fail(err error) Result {
	return Result{Success: false, Error: err.Error()}
}


