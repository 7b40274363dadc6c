package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by text mode.
type Styles struct {
	Header1  lipgloss.Style
	Header2  lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Info     lipgloss.Style
	Critical lipgloss.Style
	Code     lipgloss.Style
	Location lipgloss.Style
	Panel    lipgloss.Style
}

// Colors shared across styles.
var (
	colorRed    = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"}
	colorOrange = lipgloss.AdaptiveColor{Light: "#E65100", Dark: "#FFA726"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#66BB6A"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#42A5F5"}
	colorGray   = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"}
	colorCyan   = lipgloss.AdaptiveColor{Light: "#00838F", Dark: "#26C6DA"}
)

// NewStyles builds the style set bound to a lipgloss renderer, so the color
// profile follows the destination writer rather than the process stdout.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1:  lr.NewStyle().Bold(true).Foreground(colorBlue).MarginBottom(1),
		Header2:  lr.NewStyle().Bold(true).Foreground(colorCyan),
		Bold:     lr.NewStyle().Bold(true),
		Muted:    lr.NewStyle().Foreground(colorGray),
		Success:  lr.NewStyle().Foreground(colorGreen),
		Error:    lr.NewStyle().Bold(true).Foreground(colorRed),
		Warning:  lr.NewStyle().Foreground(colorOrange),
		Info:     lr.NewStyle().Foreground(colorBlue),
		Critical: lr.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(colorRed).Padding(0, 1),
		Code:     lr.NewStyle().Foreground(colorGray).Italic(true),
		Location: lr.NewStyle().Foreground(colorCyan),
		Panel: lr.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed).
			Padding(0, 1),
	}
}
