// Package parser reads and writes prompt files: Markdown content with an
// optional YAML frontmatter block carrying the session name.
package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// PromptFile is a parsed prompt file.
type PromptFile struct {
	// Frontmatter metadata (from YAML)
	Frontmatter map[string]any

	// Name from frontmatter "name" or "title", empty when absent
	Name string

	// Content after the frontmatter
	Content string
}

// Heading is one entry of a prompt's outline.
type Heading struct {
	Level int    // 1-6 for h1-h6
	Text  string // The heading text
	Line  int    // 1-based line number
}

// frontmatter is the metadata written by Render.
type frontmatter struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id,omitempty"`
}

// Parse splits a prompt file into frontmatter and content. Malformed YAML
// is ignored and the frontmatter block is still stripped.
func Parse(data string) PromptFile {
	pf := PromptFile{
		Frontmatter: make(map[string]any),
		Content:     data,
	}

	if !strings.HasPrefix(data, "---\n") {
		return pf
	}
	endIdx := strings.Index(data[4:], "\n---")
	if endIdx < 0 {
		return pf
	}

	frontmatterYAML := data[4 : 4+endIdx]
	pf.Content = strings.TrimPrefix(data[4+endIdx+4:], "\n")

	if err := yaml.Unmarshal([]byte(frontmatterYAML), &pf.Frontmatter); err != nil || pf.Frontmatter == nil {
		pf.Frontmatter = make(map[string]any)
	}
	pf.Name = frontmatterString(pf.Frontmatter, "name")
	if pf.Name == "" {
		pf.Name = frontmatterString(pf.Frontmatter, "title")
	}
	return pf
}

// Render writes content with a frontmatter block holding name and id.
func Render(name, id, content string) (string, error) {
	out, err := yaml.Marshal(frontmatter{Name: name, ID: id})
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(out) + "---\n" + content, nil
}

// Outline lists the Markdown headings in content.
func Outline(content string) []Heading {
	var headings []Heading
	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNum := 0
	inFence := false

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if match := headingRegex.FindStringSubmatch(line); len(match) > 0 {
			headings = append(headings, Heading{
				Level: len(match[1]),
				Text:  strings.TrimSpace(match[2]),
				Line:  lineNum,
			})
		}
	}
	return headings
}

func frontmatterString(fm map[string]any, key string) string {
	if v, ok := fm[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
