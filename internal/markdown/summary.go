package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
)

const (
	bullet      = "•"
	summaryHead = "📝 *Summary*"
)

//nolint:gochecknoglobals // Immutable list of bullet markers models use.
var bulletMarkers = []string{"•", "-", "*", "–", "—"}

// Bullets splits a model answer into its items, dropping markers, numbering
// and blank lines. Lines that are not bullets are kept as items too.
func Bullets(summary string) []string {
	var items []string

	for line := range strings.Lines(summary) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		items = append(items, stripMarker(line))
	}

	return items
}

func stripMarker(line string) string {
	for _, marker := range bulletMarkers {
		if rest, ok := strings.CutPrefix(line, marker); ok {
			return strings.TrimSpace(rest)
		}
	}

	if i := strings.IndexAny(line, ".)"); i > 0 && i <= 2 && isDigits(line[:i]) {
		return strings.TrimSpace(line[i+1:])
	}

	return line
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return s != ""
}

// NormalizeBullets rewrites a summary as a CommonMark list.
func NormalizeBullets(summary string) string {
	items := Bullets(summary)
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteByte('\n')
	}

	return b.String()
}

// ToHTML renders a summary as an HTML list. Raw HTML in the input is not
// passed through.
func ToHTML(summary string) (string, error) {
	var buf bytes.Buffer

	if err := goldmark.Convert([]byte(NormalizeBullets(summary)), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}

	return buf.String(), nil
}

// FormatSummaryV2 builds a Telegram MarkdownV2 message for a summary.
func FormatSummaryV2(sourceURL string, summary string) string {
	var b strings.Builder

	b.WriteString(summaryHead)
	b.WriteString("\n\n")

	for _, item := range Bullets(summary) {
		b.WriteString(bullet)
		b.WriteByte(' ')
		b.WriteString(EscapeV2(item))
		b.WriteByte('\n')
	}

	if sourceURL != "" {
		fmt.Fprintf(&b, "\n[Source](%s)", EscapeLinkV2(sourceURL))
	}

	return strings.TrimRight(b.String(), "\n")
}

func FormatStatusV2(status string) string {
	return "⏳ " + EscapeV2(status)
}

func FormatErrorV2(message string) string {
	return "❌ " + EscapeV2(message)
}
