package report

// Record is the persisted and rendered form of one ranked path.
type Record struct {
	Rank           int    `json:"rank" yaml:"rank"`
	Basename       string `json:"basename" yaml:"basename"`
	UpdatedAt      string `json:"updated_at" yaml:"updated_at"`
	Type           string `json:"type" yaml:"type"`
	RelativePath   string `json:"rel_path" yaml:"rel_path"`
	Path           string `json:"path" yaml:"path"`
	Depth          int    `json:"depth" yaml:"depth"`
	Repository     string `json:"repository,omitempty" yaml:"repository,omitempty"`
	MatchedPattern string `json:"matched_pattern,omitempty" yaml:"matched_pattern,omitempty"`
}
