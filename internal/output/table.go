package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// --- Styles ---

var (
	cyan        = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	bold        = lipgloss.NewStyle().Bold(true)
	dim         = lipgloss.NewStyle().Faint(true)
	green       = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	red         = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)
)

const (
	titleWidth    = 60
	abstractWidth = 600
)

// truncate cuts s to maxLen runes, appending "…" if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-1]) + "…"
}

// authorSummary returns the first author, followed by "et al." when there are more.
func authorSummary(p Paper) string {
	switch len(p.Authors) {
	case 0:
		return ""
	case 1:
		return p.Authors[0].Name
	default:
		return p.Authors[0].Name + " et al."
	}
}

func year(p Paper) string {
	if p.PublicationYear == 0 {
		return ""
	}
	return strconv.Itoa(p.PublicationYear)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Headers(headers...).
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle()
		})
}

// --- Search ---

func formatSearchTable(w io.Writer, page SearchPage) error {
	if len(page.Papers) == 0 {
		fmt.Fprintf(w, "No results from %s.\n", page.Source)
		return nil
	}

	header := fmt.Sprintf("Found %d results from %s (showing %d-%d)",
		page.TotalResults, page.Source, page.Offset+1, page.Offset+len(page.Papers))
	fmt.Fprintln(w, bold.Render(header))
	fmt.Fprintln(w)

	rows := make([][]string, 0, len(page.Papers))
	for i, p := range page.Papers {
		rows = append(rows, []string{
			strconv.Itoa(page.Offset + i + 1),
			cyan.Render(p.ID),
			year(p),
			truncate(p.Title, titleWidth),
			authorSummary(p),
		})
	}

	fmt.Fprintln(w, newTable("#", "ID", "Year", "Title", "Authors").Rows(rows...).Render())

	if page.HasMore {
		fmt.Fprintln(w)
		fmt.Fprintln(w, dim.Render(fmt.Sprintf("More results available: --offset %d", page.NextOffset)))
	}
	return nil
}

// --- Single record ---

func formatPaperDetail(w io.Writer, p Paper) error {
	var sb strings.Builder

	sb.WriteString(bold.Render(p.Title))
	sb.WriteString("\n\n")

	field := func(label, value string) {
		if value == "" {
			return
		}
		sb.WriteString(labelStyle.Render(label+":"))
		sb.WriteString(" ")
		sb.WriteString(value)
		sb.WriteString("\n")
	}

	field("ID", cyan.Render(p.ID))
	field("Source", p.Source)
	if p.PublicationDate != "" {
		field("Published", p.PublicationDate)
	} else {
		field("Year", year(p))
	}
	field("Journal", p.Journal)
	field("DOI", p.DOI)
	field("URL", p.URL)

	if len(p.Authors) > 0 {
		names := make([]string, len(p.Authors))
		for i, a := range p.Authors {
			names[i] = a.String()
		}
		field("Authors", strings.Join(names, "; "))
	}
	if len(p.Keywords) > 0 {
		field("Keywords", strings.Join(p.Keywords, ", "))
	}

	if p.Abstract != "" {
		sb.WriteString("\n")
		sb.WriteString(truncate(p.Abstract, abstractWidth))
	}

	fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(sb.String(), "\n")))
	return nil
}

// --- Sources ---

func formatSourcesTable(w io.Writer, sources []Source) error {
	rows := make([][]string, 0, len(sources))
	for _, s := range sources {
		status := red.Render("disabled")
		if s.Enabled {
			status = green.Render("enabled")
		}
		rows = append(rows, []string{cyan.Render(s.Type), s.Name, status})
	}

	fmt.Fprintln(w, newTable("Source", "Name", "Status").Rows(rows...).Render())
	return nil
}
