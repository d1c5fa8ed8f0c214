package contextbuild

import (
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const sectionCacheSize = 64

// DocIndex serves sections of the documentation reference index. Section
// lookups are cached in an LRU keyed by heading, with singleflight deduping
// concurrent fills of the same section.
type DocIndex struct {
	path  string
	cache *lru.Cache[string, string]
	group singleflight.Group
}

func NewDocIndex(path string) (*DocIndex, error) {
	cache, err := lru.New[string, string](sectionCacheSize)
	if err != nil {
		// lru.New only errors on a non-positive size.
		return nil, err
	}
	return &DocIndex{path: path, cache: cache}, nil
}

func (d *DocIndex) read() (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read doc index: %w", err)
	}
	return string(data), nil
}

// Header returns the first n lines of the index.
func (d *DocIndex) Header(n int) (string, error) {
	content, err := d.read()
	if err != nil || content == "" {
		return "", err
	}
	lines := strings.Split(content, "\n")
	if n < len(lines) {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n"), nil
}

var errSectionNotFound = fmt.Errorf("section not found")

// Section returns one named section verbatim by exact heading-text match.
func (d *DocIndex) Section(name string) (string, error) {
	if content, ok := d.cache.Get(name); ok {
		return content, nil
	}

	v, err, _ := d.group.Do(name, func() (any, error) {
		content, err := d.read()
		if err != nil {
			return "", err
		}
		section, ok := findSection(content, name)
		if !ok {
			return "", fmt.Errorf("%w: %q", errSectionNotFound, name)
		}
		d.cache.Add(name, section)
		return section, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// MatchSections returns up to max sections whose text contains one of the
// task keywords (case-insensitive), at most one section per keyword.
func (d *DocIndex) MatchSections(kws []string, max int) ([]string, error) {
	content, err := d.read()
	if err != nil || content == "" {
		return nil, err
	}

	sections := splitSections(content)
	var out []string
	used := make(map[int]bool)

	for _, kw := range kws {
		if len(out) >= max {
			break
		}
		for i, sec := range sections {
			if used[i] {
				continue
			}
			if strings.Contains(strings.ToLower(sec), kw) {
				used[i] = true
				out = append(out, sec)
				break
			}
		}
	}
	return out, nil
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, "#")
}

func headingText(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "# "))
}

// splitSections divides the index at markdown headings. Text before the
// first heading forms its own leading section.
func splitSections(content string) []string {
	var sections []string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		if isHeading(line) && len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		sections = append(sections, strings.Join(current, "\n"))
	}
	return sections
}

func findSection(content, name string) (string, bool) {
	for _, sec := range splitSections(content) {
		first := strings.SplitN(sec, "\n", 2)[0]
		if isHeading(first) && headingText(first) == name {
			return sec, true
		}
	}
	return "", false
}
