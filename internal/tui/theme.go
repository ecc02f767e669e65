package tui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorAccent     = lipgloss.Color("#3f51b5")
	ColorUserBubble = lipgloss.Color("#3f51b5")
	ColorBotBubble  = lipgloss.AdaptiveColor{Light: "#e8eaf6", Dark: "#262a3d"}
	ColorError      = lipgloss.Color("#ff453a")
	ColorTextMuted  = lipgloss.Color("#808080")
	ColorTextOnDark = lipgloss.Color("#ffffff")
)

// Theme contains the styles of the chat console.
type Theme struct {
	Header     lipgloss.Style
	Greeting   lipgloss.Style
	Title      lipgloss.Style
	Suggestion lipgloss.Style
	Separator  lipgloss.Style
	Sender     lipgloss.Style
	UserBubble lipgloss.Style
	BotBubble  lipgloss.Style
	Timestamp  lipgloss.Style
	Typing     lipgloss.Style
	Status     lipgloss.Style
	Error      lipgloss.Style
	Counter    lipgloss.Style
}

// DefaultTheme returns the console styles.
func DefaultTheme() Theme {
	return Theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorTextOnDark).
			Background(ColorAccent).
			Padding(0, 1),
		Greeting: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 2).
			MarginTop(1),
		Title: lipgloss.NewStyle().Bold(true),
		Suggestion: lipgloss.NewStyle().
			Foreground(ColorAccent).
			Italic(true),
		Separator: lipgloss.NewStyle().Foreground(ColorTextMuted),
		Sender:    lipgloss.NewStyle().Foreground(ColorTextMuted).Bold(true),
		UserBubble: lipgloss.NewStyle().
			Foreground(ColorTextOnDark).
			Background(ColorUserBubble).
			Padding(0, 1),
		BotBubble: lipgloss.NewStyle().
			Background(ColorBotBubble).
			Padding(0, 1),
		Timestamp: lipgloss.NewStyle().Foreground(ColorTextMuted).Faint(true),
		Typing:    lipgloss.NewStyle().Foreground(ColorTextMuted).Italic(true),
		Status:    lipgloss.NewStyle().Foreground(ColorTextMuted),
		Error:     lipgloss.NewStyle().Foreground(ColorError),
		Counter:   lipgloss.NewStyle().Foreground(ColorTextMuted),
	}
}
