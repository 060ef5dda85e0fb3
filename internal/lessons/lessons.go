// Package lessons loads the markdown lesson catalog served by the web app.
package lessons

// Lesson is one unit of instructional content: YAML frontmatter describing
// it plus a markdown body.
type Lesson struct {
	Slug        string `yaml:"slug" json:"slug"`
	Title       string `yaml:"title" json:"title"`
	Order       int    `yaml:"order" json:"order"`
	Runtime     string `yaml:"runtime" json:"runtime"`
	Summary     string `yaml:"summary" json:"summary"`
	StarterCode string `yaml:"starter_code" json:"starter_code"`

	// Body is the raw markdown below the frontmatter; HTML is its rendered
	// form.
	Body string `yaml:"-" json:"body"`
	HTML string `yaml:"-" json:"html"`
}

// Summary is the catalog listing view of a lesson.
type Summary struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Order   int    `json:"order"`
	Runtime string `json:"runtime"`
	Summary string `json:"summary"`
}
