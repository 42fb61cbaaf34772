package tui

import (
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Shimmer animation for the header wordmark.
type shimmerTickMsg time.Time

func shimmerTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return shimmerTickMsg(t)
	})
}

// renderShimmerLogo renders the wordmark as a wave of light moving from
// deep teal (#173a3a) to bright aqua (#5eead4).
func renderShimmerLogo(frame int) string {
	const text = "SOCIALBLOG"
	n := len(text)
	t := float64(frame)

	var out strings.Builder
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1)

		phase := t*0.1 - x*3.0
		phase += math.Sin(t*0.023) * 2.0

		b := math.Sin(phase)*0.5 + 0.5
		b = math.Pow(b, 1.3)
		b = b*0.75 + math.Sin(t*0.035)*0.12 + 0.18
		b = math.Min(1, math.Max(0.05, b))

		r := clampByte(23 + b*(94-23))
		g := clampByte(58 + b*(234-58))
		bl := clampByte(58 + b*(212-58))

		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r, g, bl)))
		out.WriteString(s.Render(string(text[i])))
		if i < n-1 {
			out.WriteString(" ")
		}
	}
	return out.String()
}

func clampByte(v float64) int {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return int(v)
}

var (
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2dd4bf"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5eead4")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ade80"))

	// Form errors and the redirect banner.
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844")).
			Italic(true)

	selectedRowBg = lipgloss.NewStyle().Background(lipgloss.Color("#1e1e2a"))

	tagPalette = []lipgloss.Color{
		lipgloss.Color("#e06060"),
		lipgloss.Color("#b080d0"),
		lipgloss.Color("#f0944a"),
		lipgloss.Color("#d4a844"),
		lipgloss.Color("#60a0e0"),
		lipgloss.Color("#3ecce4"),
		lipgloss.Color("#c084e0"),
	}
)

// TagStyle returns a bold style whose color is stable for a given tag.
func TagStyle(tag string) lipgloss.Style {
	if tag == "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#606878")).Bold(true)
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(tag)))
	return lipgloss.NewStyle().Foreground(tagPalette[h.Sum32()%uint32(len(tagPalette))]).Bold(true)
}

// renderTags renders tags as "#a #b".
func renderTags(tags []string) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, TagStyle(t).Render("#"+t))
	}
	return strings.Join(parts, " ")
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpView renders the keyboard reference overlay.
func helpView(version string) string {
	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sectionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)

	sections := []struct {
		title string
		keys  []struct{ key, desc string }
	}{
		{"Feed", []struct{ key, desc string }{
			{"j/k", "move"},
			{"enter", "open post"},
			{"r", "reload"},
			{"n", "new post"},
			{"L", "log out"},
		}},
		{"Post", []struct{ key, desc string }{
			{"c", "copy text"},
			{"o", "open image"},
			{"esc", "back"},
		}},
		{"Forms", []struct{ key, desc string }{
			{"tab", "next field"},
			{"ctrl+t", "switch login / signup"},
			{"space", "toggle terms (signup)"},
			{"enter", "submit"},
			{"ctrl+s", "publish post"},
		}},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s  %s\n\n", titleStyle.Render("S O C I A L B L O G"), metaStyle.Render(version))
	for _, s := range sections {
		fmt.Fprintf(&b, "  %s\n", sectionStyle.Render(s.title))
		for _, k := range s.keys {
			fmt.Fprintf(&b, "    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-10s", k.key)), descStyle.Render(k.desc))
		}
		b.WriteString("\n")
	}
	return b.String()
}
