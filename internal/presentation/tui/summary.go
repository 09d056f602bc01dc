package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/parsetrail/pkg/domain"
)

// Summary describes a session as markdown, suitable for NewMarkdownRenderer.
func Summary(s *domain.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session `%s`\n\n", s.ID)

	if s.Algorithm == "" {
		b.WriteString("_No trace loaded._\n")
		return b.String()
	}

	fmt.Fprintf(&b, "- **Sentence:** %s\n", s.Sentence)
	fmt.Fprintf(&b, "- **Algorithm:** `%s`\n", s.Algorithm)
	fmt.Fprintf(&b, "- **Steps:** %d\n", s.Len())
	fmt.Fprintf(&b, "- **Cursor:** %d\n", s.Cursor+1)
	if o := s.Outcome(); o != "" {
		fmt.Fprintf(&b, "- **Outcome:** %s\n", o)
	}
	if !s.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "- **Updated:** %s\n", s.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	}

	if strings.TrimSpace(s.Grammar) != "" {
		b.WriteString("\n## Grammar\n\n```prolog\n")
		b.WriteString(strings.TrimSpace(s.Grammar))
		b.WriteString("\n```\n")
	}

	if st, ok := s.Current(); ok {
		b.WriteString("\n## Current step\n\n")
		fmt.Fprintf(&b, "`%s`", st.Action)
		if st.Rule != nil {
			fmt.Fprintf(&b, " using `%s`", st.Rule)
		}
		b.WriteString("\n")
	}
	return b.String()
}
