package tools

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/formnav/internal/navigation"
	"github.com/HendryAvila/formnav/internal/session"
)

// renderScreen describes a screen in markdown for the host.
func renderScreen(l *session.Live, s navigation.Screen) string {
	var b strings.Builder

	title := l.Tree.Definition().Title
	if title == "" {
		title = l.FormID
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Session:** `%s`\n", l.ID)
	fmt.Fprintf(&b, "**Position:** `%s` (%s)\n\n", s.Index, s.Kind)

	switch s.Kind {
	case navigation.ScreenStart:
		b.WriteString("Beginning of form. Call `form_next` to see the first screen.\n")
	case navigation.ScreenEnd:
		b.WriteString("End of form. Call `form_previous` to review, or `form_close` to finish.\n")
	case navigation.ScreenQuestion:
		fmt.Fprintf(&b, "- `%s` %s\n", s.Index, l.Tree.Label(s.Index))
	case navigation.ScreenNewRepeatPrompt:
		fmt.Fprintf(&b, "%s\n\n", l.Tree.Label(s.Index))
		b.WriteString("Call `form_add_repeat` to add one, or `form_next` to move on.\n")
	case navigation.ScreenFieldList:
		fmt.Fprintf(&b, "## %s\n\n", l.Tree.Label(s.Index))
		for _, q := range s.Questions {
			fmt.Fprintf(&b, "- `%s` %s\n", q, l.Tree.Label(q))
		}
		for _, p := range s.Prompts {
			fmt.Fprintf(&b, "- `%s` %s (call `form_add_repeat` with `prompt: %s`)\n", p, l.Tree.Label(p), p)
		}
	}
	return b.String()
}
