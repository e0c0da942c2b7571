// Package action defines the closed set of permitted actions, the static
// command specs behind them, and their execution against the local system.
//
// The registry is a closed enumeration fixed at process start. User input
// never reaches a program name or argument list; the parser model can only
// select an action identifier, and unknown identifiers are rejected before
// any side effect.
package action

// Built-in action identifiers with no command spec behind them.
const (
	// Search triggers the YouTube search-and-launch path.
	Search = "open_youtube_search"

	// None routes the message to the conversational chat path.
	None = "none"
)

// Spec describes a locally executable command bound to a whitelisted action.
// Immutable after registry construction and never derived from user input.
type Spec struct {
	Program string
	Args    []string
}

// Registry is the closed set of permitted action identifiers.
type Registry struct {
	specs map[string]Spec
}

// DefaultSpecs returns the static command table for the Windows host this
// assistant controls.
func DefaultSpecs() map[string]Spec {
	return map[string]Spec{
		"time":       {Program: "cmd.exe", Args: []string{"/c", "time /t"}},
		"list":       {Program: "cmd.exe", Args: []string{"/c", "dir"}},
		"reboot":     {Program: "shutdown.exe", Args: []string{"-r", "-t", "0"}},
		"openChrome": {Program: "cmd.exe", Args: []string{"/c", "start chrome"}},
	}
}

// NewRegistry builds a registry from a static spec table. The built-in
// Search and None actions are always members.
func NewRegistry(specs map[string]Spec) *Registry {
	copied := make(map[string]Spec, len(specs))
	for id, spec := range specs {
		copied[id] = spec
	}
	return &Registry{specs: copied}
}

// Allowed reports whether the identifier is a member of the closed set.
func (r *Registry) Allowed(id string) bool {
	if id == Search || id == None {
		return true
	}
	_, ok := r.specs[id]
	return ok
}

// Lookup returns the command spec for a command-backed action.
// Built-in actions have no spec and report false.
func (r *Registry) Lookup(id string) (Spec, bool) {
	spec, ok := r.specs[id]
	return spec, ok
}
