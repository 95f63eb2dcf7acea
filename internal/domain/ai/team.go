package ai

// Tool names a capability an agent may call. The runner decides how each
// name is executed.
type Tool string

const (
	ToolWebSearch   Tool = "duckduckgo_search"
	ToolReadWebpage Tool = "read_webpage"
)

// Agent is a plain description of one participant.
type Agent struct {
	Name         string
	Role         string
	Description  string
	Instructions []string
	Tools        []Tool
}

// Team is a coordinator plus the members it may delegate to.
type Team struct {
	Name        string
	Coordinator Agent
	Members     []Agent
	Markdown    bool
}

// Member looks up a member by name.
func (t Team) Member(name string) (Agent, bool) {
	for _, m := range t.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Agent{}, false
}
