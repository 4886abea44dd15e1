package markdown

import (
	"strings"

	glamour "github.com/charmbracelet/glamour"
	ansi "github.com/charmbracelet/glamour/ansi"
	styles "github.com/inference-gateway/toolgate/internal/ui/styles"
)

// Renderer handles markdown to styled terminal output conversion
type Renderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// NewRenderer creates a markdown renderer using the toolgate palette.
// A width of 0 disables word wrapping.
func NewRenderer(width int) *Renderer {
	r := &Renderer{width: width}
	r.updateRenderer()
	return r
}

// SetWidth updates the renderer width
func (r *Renderer) SetWidth(width int) {
	if width != r.width {
		r.width = width
		r.updateRenderer()
	}
}

// Render converts markdown text to styled terminal output. Text without
// markdown, and text glamour fails on, is returned unchanged.
func (r *Renderer) Render(content string) string {
	if r.renderer == nil || !containsMarkdown(content) {
		return content
	}

	rendered, err := r.renderer.Render(content)
	if err != nil {
		return content
	}

	// glamour pads the document with blank lines
	return strings.TrimSpace(rendered)
}

func (r *Renderer) updateRenderer() {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(buildStyleConfig()),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(r.width),
		)
	}
	r.renderer = renderer
}

func buildStyleConfig() ansi.StyleConfig {
	heading := func(prefix string, color string) ansi.StyleBlock {
		return ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Prefix: prefix,
				Color:  stringPtr(color),
				Bold:   boolPtr(true),
			},
		}
	}

	return ansi.StyleConfig{
		Document: ansi.StyleBlock{
			Margin: uintPtr(0),
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr(styles.LipglossGray),
			},
			Indent:      uintPtr(1),
			IndentToken: stringPtr("│ "),
		},
		Paragraph: ansi.StyleBlock{},
		List: ansi.StyleList{
			LevelIndent: 2,
		},
		Heading: heading("", styles.LipglossBlue),
		H1:      heading("# ", styles.LipglossBlue),
		H2:      heading("## ", styles.LipglossBlue),
		H3:      heading("### ", styles.LipglossMagenta),
		H4:      heading("#### ", styles.LipglossMagenta),
		H5:      heading("##### ", styles.LipglossGray),
		H6:      heading("###### ", styles.LipglossGray),
		Strong: ansi.StylePrimitive{
			Bold: boolPtr(true),
		},
		Emph: ansi.StylePrimitive{
			Italic: boolPtr(true),
		},
		Strikethrough: ansi.StylePrimitive{
			CrossedOut: boolPtr(true),
		},
		HorizontalRule: ansi.StylePrimitive{
			Color:  stringPtr(styles.LipglossGray),
			Format: "\n────────\n",
		},
		Item: ansi.StylePrimitive{
			BlockPrefix: "• ",
		},
		Enumeration: ansi.StylePrimitive{
			BlockPrefix: ". ",
		},
		Link: ansi.StylePrimitive{
			Color:     stringPtr(styles.LipglossBlue),
			Underline: boolPtr(true),
		},
		LinkText: ansi.StylePrimitive{
			Color: stringPtr(styles.LipglossMagenta),
		},
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{
				Color: stringPtr(styles.LipglossGreen),
			},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{
				StylePrimitive: ansi.StylePrimitive{
					Color: stringPtr(styles.LipglossWhite),
				},
				Margin: uintPtr(1),
			},
		},
		Table: ansi.StyleTable{
			CenterSeparator: stringPtr("┼"),
			ColumnSeparator: stringPtr("│"),
			RowSeparator:    stringPtr("─"),
		},
	}
}

// containsMarkdown checks if content contains markdown syntax
func containsMarkdown(content string) bool {
	patterns := []string{
		"```",  // Code blocks
		"**",   // Bold
		"__",   // Bold (alt)
		"# ",   // Headers
		"1. ",  // Ordered list
		"- ",   // Unordered list
		"> ",   // Blockquote
		"---",  // Horizontal rule
		"***",  // Horizontal rule (alt)
		"| ",   // Table row
	}

	for _, pattern := range patterns {
		if strings.Contains(content, pattern) {
			return true
		}
	}

	if strings.Contains(content, "`") {
		return true
	}

	return strings.Contains(content, "](") && strings.Contains(content, "[")
}

func stringPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}

func uintPtr(u uint) *uint {
	return &u
}
