package toolfacade

// CallAgent loads an agent role pack by its agent-library directory name
// (spec.md §6: call_agent(name_agent)).
func (f *Facade) CallAgent(args map[string]any) Result {
	name, err := requireString(args, "name_agent")
	if err != nil {
		return fail(err)
	}
	role := f.RoleLoader.Load(name)
	return ok(map[string]any{"role": role})
}


