package domain

// ChoiceOption is one ordered (condition, target) pair of a choice node.
// Declaration order is semantically significant: the first matching guard
// wins, even when later guards would also match.
type ChoiceOption struct {
	Condition string `json:"condition" mapstructure:"condition"`
	To        string `json:"to" mapstructure:"to"`
}

// BranchDecl declares one branch of a fork node.
type BranchDecl struct {
	ID         string `json:"id" mapstructure:"id"`
	StartState string `json:"start_state" mapstructure:"start_state"`
	// Guard is optional. Absent means the branch always activates; a false
	// or erroring guard skips the branch without blocking the rest.
	Guard    string `json:"guard,omitempty" mapstructure:"guard"`
	Priority int    `json:"priority,omitempty" mapstructure:"priority"`
}

// RegionDecl declares one region of a parallel (compound) node.
type RegionDecl struct {
	ID           string `json:"id" mapstructure:"id"`
	InitialState string `json:"initial_state" mapstructure:"initial_state"`
}

// NodeConfig is the read-only, typed view over one externally loaded node
// description. The engine only reads these fields; it never parses the
// source format the configuration was loaded from.
type NodeConfig struct {
	ID   string   `json:"id" mapstructure:"id"`
	Type NodeType `json:"type" mapstructure:"type"`

	// Choice fields.
	Choices []ChoiceOption `json:"choices,omitempty" mapstructure:"choices"`
	Default string         `json:"default,omitempty" mapstructure:"default"`

	// Fork fields.
	Branches   []BranchDecl `json:"branches,omitempty" mapstructure:"branches"`
	JoinTarget string       `json:"join_target,omitempty" mapstructure:"join_target"`

	// Join fields.
	JoinPolicy       JoinCondition `json:"join_policy,omitempty" mapstructure:"join_policy"`
	ExpectedBranches []string      `json:"expected_branches,omitempty" mapstructure:"expected_branches"`
	N                int           `json:"n,omitempty" mapstructure:"n"`
	OnJoin           string        `json:"on_join,omitempty" mapstructure:"on_join"`

	// Parallel fields.
	Regions []RegionDecl `json:"regions,omitempty" mapstructure:"regions"`

	// History depth for the region this node anchors.
	History HistoryType `json:"history,omitempty" mapstructure:"history"`

	// Metadata carries extension key-values the engine does not interpret.
	Metadata map[string]any `json:"metadata,omitempty" mapstructure:"metadata"`
}
