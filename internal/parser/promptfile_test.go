package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantName    string
		wantContent string
	}{
		{
			name:        "no frontmatter",
			data:        "# System Prompt\nBe brief.",
			wantContent: "# System Prompt\nBe brief.",
		},
		{
			name:        "name in frontmatter",
			data:        "---\nname: reviewer.txt\n---\n# Reviewer\nBe strict.",
			wantName:    "reviewer.txt",
			wantContent: "# Reviewer\nBe strict.",
		},
		{
			name:        "title fallback",
			data:        "---\ntitle: Helper\n---\nbody",
			wantName:    "Helper",
			wantContent: "body",
		},
		{
			name:        "malformed yaml is stripped",
			data:        "---\nname: [unclosed\n---\nbody",
			wantContent: "body",
		},
		{
			name:        "unterminated frontmatter is content",
			data:        "---\nname: x\nbody",
			wantContent: "---\nname: x\nbody",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := Parse(tt.data)
			assert.Equal(t, tt.wantName, pf.Name)
			assert.Equal(t, tt.wantContent, pf.Content)
			assert.NotNil(t, pf.Frontmatter)
		})
	}
}

func TestRenderThenParse(t *testing.T) {
	rendered, err := Render("prompt1.txt", "abc", "# System Prompt\nYou are a helpful assistant.")
	require.NoError(t, err)
	assert.Contains(t, rendered, "name: prompt1.txt\n")

	pf := Parse(rendered)
	assert.Equal(t, "prompt1.txt", pf.Name)
	assert.Equal(t, "abc", pf.Frontmatter["id"])
	assert.Equal(t, "# System Prompt\nYou are a helpful assistant.", pf.Content)
}

func TestOutline(t *testing.T) {
	content := "# Role\nYou help.\n\n## Rules\n- be brief\n```\n# not a heading\n```\n### Tone"
	headings := Outline(content)

	require.Len(t, headings, 3)
	assert.Equal(t, Heading{Level: 1, Text: "Role", Line: 1}, headings[0])
	assert.Equal(t, Heading{Level: 2, Text: "Rules", Line: 4}, headings[1])
	assert.Equal(t, Heading{Level: 3, Text: "Tone", Line: 9}, headings[2])
	assert.Empty(t, Outline("plain text"))
}
