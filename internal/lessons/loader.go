package lessons

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

var frontmatterFence = []byte("---\n")

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Catalog is the loaded, ordered lesson set. It is immutable after Load, so
// it is safe to share across requests.
type Catalog struct {
	lessons []Lesson
	bySlug  map[string]*Lesson
}

// Load parses every *.md file in dir into the catalog, ordered by the
// frontmatter's order field, then slug.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading lessons dir: %w", err)
	}

	c := &Catalog{bySlug: make(map[string]*Lesson)}
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		lesson, err := parseFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[lesson.Slug]; dup {
			return nil, fmt.Errorf("duplicate lesson slug %q in %s and %s", lesson.Slug, prev, path)
		}
		seen[lesson.Slug] = path
		c.lessons = append(c.lessons, lesson)
	}

	sort.Slice(c.lessons, func(i, j int) bool {
		if c.lessons[i].Order != c.lessons[j].Order {
			return c.lessons[i].Order < c.lessons[j].Order
		}
		return c.lessons[i].Slug < c.lessons[j].Slug
	})
	for i := range c.lessons {
		c.bySlug[c.lessons[i].Slug] = &c.lessons[i]
	}
	return c, nil
}

func parseFile(path string) (Lesson, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lesson{}, fmt.Errorf("reading lesson %s: %w", path, err)
	}

	header, body, err := splitFrontmatter(data)
	if err != nil {
		return Lesson{}, fmt.Errorf("parsing lesson %s: %w", path, err)
	}

	var lesson Lesson
	if err := yaml.Unmarshal(header, &lesson); err != nil {
		return Lesson{}, fmt.Errorf("parsing lesson %s frontmatter: %w", path, err)
	}
	if lesson.Slug == "" {
		lesson.Slug = strings.TrimSuffix(filepath.Base(path), ".md")
	}
	if lesson.Title == "" {
		return Lesson{}, fmt.Errorf("lesson %s has no title", path)
	}

	lesson.Body = string(body)

	var html bytes.Buffer
	if err := md.Convert(body, &html); err != nil {
		return Lesson{}, fmt.Errorf("rendering lesson %s: %w", path, err)
	}
	lesson.HTML = html.String()

	return lesson, nil
}

// splitFrontmatter separates the leading `---` fenced YAML block from the
// markdown body.
func splitFrontmatter(data []byte) (header, body []byte, err error) {
	if !bytes.HasPrefix(data, frontmatterFence) {
		return nil, nil, fmt.Errorf("missing frontmatter fence")
	}
	rest := data[len(frontmatterFence):]
	end := bytes.Index(rest, []byte("\n---\n"))
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter fence")
	}
	return rest[:end], rest[end+len("\n---\n"):], nil
}

// All returns the catalog listing in order.
func (c *Catalog) All() []Summary {
	return lo.Map(c.lessons, func(l Lesson, _ int) Summary {
		return Summary{
			Slug:    l.Slug,
			Title:   l.Title,
			Order:   l.Order,
			Runtime: l.Runtime,
			Summary: l.Summary,
		}
	})
}

// Get returns a lesson by slug.
func (c *Catalog) Get(slug string) (*Lesson, bool) {
	l, ok := c.bySlug[slug]
	return l, ok
}

// Len returns the number of lessons in the catalog.
func (c *Catalog) Len() int {
	return len(c.lessons)
}
