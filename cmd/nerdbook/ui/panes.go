package ui

import (
	"fmt"
	"strings"

	"nerdbook/internal/sandbox"

	"github.com/charmbracelet/glamour"
)

// PaneRenderer renders a cell's Output and Console panes, through glamour
// when markdown rendering is on and as plain labelled text otherwise.
type PaneRenderer struct {
	styles   Styles
	renderer *glamour.TermRenderer
	cache    *RenderCache
}

const paneCacheSize = 256

// NewPaneRenderer creates a renderer. wordWrap 0 disables wrapping.
func NewPaneRenderer(styles Styles, markdown bool, wordWrap int) (*PaneRenderer, error) {
	pr := &PaneRenderer{styles: styles, cache: NewRenderCache(paneCacheSize)}
	if !markdown {
		return pr, nil
	}

	style := "light"
	if styles.Theme.IsDark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	pr.renderer = r
	return pr, nil
}

// Markdown builds the markdown document for the two panes. Empty panes are
// omitted.
func Markdown(result, log string) string {
	var b strings.Builder
	if result != "" {
		b.WriteString("**Output**\n\n")
		b.WriteString(fence(result, languageFor(result)))
	}
	if log != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("**Console**\n\n")
		b.WriteString(fence(log, ""))
	}
	return b.String()
}

// fence wraps text in a code fence longer than any backtick run inside it.
func fence(text, lang string) string {
	ticks := "```"
	for strings.Contains(text, ticks) {
		ticks += "`"
	}
	return ticks + lang + "\n" + strings.TrimRight(text, "\n") + "\n" + ticks + "\n"
}

func languageFor(result string) string {
	trimmed := strings.TrimSpace(result)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "json"
	}
	return ""
}

// Render returns the panes ready for the terminal.
func (pr *PaneRenderer) Render(result, log string) string {
	if result == "" && log == "" {
		return ""
	}
	return pr.cache.GetOrCompute(ComputeKey(result, log), func() string {
		if pr.renderer != nil {
			out, err := pr.renderer.Render(Markdown(result, log))
			if err == nil {
				return strings.Trim(out, "\n")
			}
		}
		return pr.plain(result, log)
	})
}

func (pr *PaneRenderer) plain(result, log string) string {
	var parts []string
	if result != "" {
		label := pr.styles.PaneLabel.Render("Output")
		body := result
		if strings.HasPrefix(result, sandbox.ErrorPrefix) {
			body = pr.styles.Error.Render(result)
		}
		parts = append(parts, label+"\n"+body)
	}
	if log != "" {
		parts = append(parts, pr.styles.PaneLabel.Render("Console")+"\n"+log)
	}
	return strings.Join(parts, "\n")
}
