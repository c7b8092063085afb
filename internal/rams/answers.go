package rams

// Answers are the free-text inputs a user supplies for one document.
type Answers struct {
	Title      string   `json:"title" yaml:"title" toml:"title"`
	Client     string   `json:"client" yaml:"client" toml:"client"`
	Location   string   `json:"location" yaml:"location" toml:"location"`
	PreparedBy string   `json:"prepared_by" yaml:"prepared_by" toml:"prepared_by"`
	Scope      string   `json:"scope" yaml:"scope" toml:"scope"`
	Activities []string `json:"activities" yaml:"activities" toml:"activities"`
	Duration   string   `json:"duration" yaml:"duration" toml:"duration"`
	Locale     string   `json:"locale,omitempty" yaml:"locale,omitempty" toml:"locale,omitempty"`
	// References holds extracted attachment text passed to the model as
	// background. It is not persisted with the answers.
	References []Reference `json:"-" yaml:"-" toml:"-"`
}

// Reference is a named block of background text.
type Reference struct {
	Name string
	Text string
}
