// Package ui renders command line output for joinql.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/satishbabariya/joinql/internal/core/query/domain"
)

var (
	// Colors
	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	// Styles
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)
)

var (
	keywordColor = color.New(color.FgCyan, color.Bold)
	paramColor   = color.New(color.FgYellow)
)

// sqlKeywords are highlighted by HighlightSQL.
var sqlKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "AND": true, "OR": true, "NOT": true,
	"INNER": true, "LEFT": true, "RIGHT": true, "FULL": true, "OUTER": true, "JOIN": true,
	"ON": true, "AS": true, "ORDER": true, "BY": true, "DESC": true, "LIMIT": true,
	"OFFSET": true, "FETCH": true, "NEXT": true, "ROWS": true, "ONLY": true, "IS": true,
	"NULL": true, "INSERT": true, "INTO": true, "VALUES": true, "UPDATE": true, "SET": true,
	"DELETE": true,
}

// Success prints a success message.
func Success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Error prints an error message.
func Error(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Warning prints a warning message.
func Warning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// Section prints a section title.
func Section(w io.Writer, title string) {
	fmt.Fprintln(w, TitleStyle.Render(title))
}

// HighlightSQL colors SQL keywords and parameter placeholders.
func HighlightSQL(text string, sigil byte) string {
	words := strings.Split(text, " ")
	for i, word := range words {
		switch {
		case sqlKeywords[word]:
			words[i] = keywordColor.Sprint(word)
		case sigil != 0 && strings.HasPrefix(word, string(sigil)):
			words[i] = paramColor.Sprint(word)
		}
	}
	return strings.Join(words, " ")
}

// Table prints a table with a header row.
func Table(w io.Writer, headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

// ParameterRows returns one table row per parameter.
func ParameterRows(params []domain.Parameter) [][]string {
	rows := make([][]string, len(params))
	for i, p := range params {
		rows[i] = []string{p.Name, p.Type.String(), fmt.Sprint(p.Value)}
	}
	return rows
}

// CommandMarkdown renders a translated command as a markdown report.
func CommandMarkdown(title, provider string, info *domain.CommandInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Provider: **%s** (%s binding)\n\n", provider, info.Style)
	b.WriteString("```sql\n")
	b.WriteString(info.Text)
	b.WriteString("\n```\n")
	if len(info.Parameters) > 0 {
		b.WriteString("\n| Name | Type | Value |\n|---|---|---|\n")
		for _, p := range info.Parameters {
			fmt.Fprintf(&b, "| `%s` | %s | %v |\n", p.Name, p.Type, p.Value)
		}
	}
	return b.String()
}

// Markdown renders markdown content for the terminal.
func Markdown(w io.Writer, content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}
