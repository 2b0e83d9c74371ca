package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

// style is an ANSI SGR sequence.
type style string

const (
	styleReset style = "\033[0m"
	styleBold  style = "\033[1m"
	styleRed   style = "\033[31m"
	styleBlue  style = "\033[34m"
	styleCyan  style = "\033[36m"
	styleGray  style = "\033[90m"
)

var colorOff atomic.Bool

// SetColor turns ANSI styling of Format and PrintError on or off.
func SetColor(on bool) {
	colorOff.Store(!on)
}

func (s style) paint(text string) string {
	if colorOff.Load() || text == "" {
		return text
	}
	return string(s) + text + string(styleReset)
}

const detailWidth = 70

// Format renders the error for a terminal: a headline followed by
// indented blocks for the subject, detail, cause and hint.
func (e *AtomError) Format() string {
	headline := "ERROR"
	if e.Code != "" {
		headline += " " + e.Code
	}

	var blocks [][]string
	if e.Subject != "" {
		blocks = append(blocks, []string{styleCyan.paint(e.Subject)})
	}
	if lines := wrapText(e.Detail, detailWidth); len(lines) > 0 {
		blocks = append(blocks, lines)
	}
	if e.Wrapped != nil {
		blocks = append(blocks, []string{styleGray.paint("Cause: ") + e.Wrapped.Error()})
	}
	if e.Suggestion != "" {
		blocks = append(blocks, []string{styleBlue.paint("Hint: ") + e.Suggestion})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s %s\n", styleBold.paint(styleRed.paint(headline+":")), e.Message)
	for _, block := range blocks {
		b.WriteByte('\n')
		for _, line := range block {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// FormatCompact is the single-line form used in logs.
func (e *AtomError) FormatCompact() string {
	return e.Error()
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Subject    string   `json:"subject,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	Cause      string   `json:"cause,omitempty"`
}

// FormatJSON renders the error as a JSON object, as served by the
// inspector.
func (e *AtomError) FormatJSON() string {
	je := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Subject:    e.Subject,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		je.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(je)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Message)
	}
	return string(data)
}

// wrapText breaks text into lines of at most width bytes at word
// boundaries. A single word longer than width gets its own line.
func wrapText(text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// PrintError writes err to w, using Format for *AtomError values.
func PrintError(w io.Writer, err error) {
	var ae *AtomError
	if stderrors.As(err, &ae) {
		fmt.Fprint(w, ae.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", styleBold.paint(styleRed.paint("ERROR:")), err.Error())
}
