package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/lysyi3m/newsflow/app/pipeline"
)

// Write prints one line per source, with names padded to a common display
// width, followed by the total number of stored articles.
func Write(w io.Writer, result *pipeline.Result) error {
	nameWidth := 0
	for _, src := range result.Sources {
		if width := runewidth.StringWidth(src.Name); width > nameWidth {
			nameWidth = width
		}
	}

	var sb strings.Builder
	for _, src := range result.Sources {
		sb.WriteString(runewidth.FillRight(src.Name, nameWidth))
		sb.WriteString("  ")
		if src.Err != nil {
			sb.WriteString("Error: ")
			sb.WriteString(src.Err.Error())
		} else {
			sb.WriteString(pluralize(src.Count, "article"))
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Total: %s", pluralize(result.Total, "article"))
	if n := len(result.Events); n > 0 {
		fmt.Fprintf(&sb, " (%d new)", n)
	}
	if n := result.Failed(); n > 0 {
		fmt.Fprintf(&sb, ", %s failed", pluralize(n, "source"))
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
