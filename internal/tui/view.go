package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/valuation/internal/conversation"
)

// View renders the UI
func (c *Chat) View() string {
	if c.quitting {
		return ""
	}

	sections := []string{
		c.renderHeader(),
		c.renderFeedback(),
		c.viewport.View(),
		c.renderControls(),
		c.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the title, progress and theme toggle label
func (c *Chat) renderHeader() string {
	title := c.styles.Title.Render("Valuation")
	progress := c.styles.Muted.Render(fmt.Sprintf(" %d/%d", c.driver.Cursor(), len(c.driver.Questions())))
	toggle := c.styles.Muted.Render(c.theme.Label() + " (ctrl+t)")

	left := title + progress
	gap := c.width - lipgloss.Width(left) - lipgloss.Width(toggle)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + toggle
}

// renderFeedback renders the submission status banner and local notices
func (c *Chat) renderFeedback() string {
	var parts []string

	if f := c.feedback; f != nil {
		text := f.Message
		if f.Title != "" {
			text = f.Title + " " + f.Message
		}
		switch f.Kind {
		case conversation.FeedbackSuccess:
			parts = append(parts, c.styles.Success.Render("✓ "+text))
		case conversation.FeedbackError:
			parts = append(parts, c.styles.Error.Render("✗ "+text))
		default:
			parts = append(parts, c.styles.Info.Render(c.spinner.View()+" "+text))
		}
	}
	if c.notice != "" {
		parts = append(parts, c.styles.Muted.Render(c.notice))
	}
	return strings.Join(parts, "\n")
}

// renderTranscript renders the conversation with bot lines on the left and
// user lines on the right
func (c *Chat) renderTranscript() string {
	bubbleWidth := max(c.width*3/4, 20)

	var b strings.Builder
	for i, l := range c.transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch l.speaker {
		case speakerUser:
			b.WriteString(lipgloss.PlaceHorizontal(c.width, lipgloss.Right, bubble(c.styles.User, l.text, bubbleWidth)))
		default:
			b.WriteString(bubble(c.styles.Bot, l.text, bubbleWidth))
		}
	}
	return b.String()
}

// bubble wraps text at width only when it does not fit on one line
func bubble(style lipgloss.Style, text string, width int) string {
	if lipgloss.Width(text)+style.GetHorizontalFrameSize() > width {
		style = style.Width(width)
	}
	return style.Render(text)
}

// renderControls renders whichever control currently accepts input
func (c *Chat) renderControls() string {
	switch {
	case len(c.actions) > 0:
		labels := make([]string, len(c.actions))
		for i, a := range c.actions {
			labels[i] = a.Label
			if a.URL != "" {
				labels[i] += " ↗"
			}
		}
		return c.renderButtons(labels, c.actionIdx)
	case len(c.choices) > 0:
		return c.renderButtons(c.choices, c.choiceIdx)
	case c.inputEnabled:
		return c.styles.Input.Width(c.width).Render(c.input.View())
	default:
		return c.styles.InputDisabled.Width(c.width).Render(c.input.View())
	}
}

func (c *Chat) renderButtons(labels []string, active int) string {
	buttons := make([]string, len(labels))
	for i, label := range labels {
		text := fmt.Sprintf("%d %s", i+1, label)
		if i == active {
			buttons[i] = c.styles.ChoiceActive.Render(text)
		} else {
			buttons[i] = c.styles.Choice.Render(text)
		}
	}
	return lipgloss.NewStyle().Width(c.width).Render(lipgloss.JoinHorizontal(lipgloss.Top, buttons...))
}

// renderFooter renders the submission trigger and the key help
func (c *Chat) renderFooter() string {
	var button string
	switch {
	case c.driver.Phase() == conversation.PhaseSubmitting:
		button = c.styles.ButtonDisabled.Render(c.spinner.View() + " " + c.submitLabel)
	case c.submitEnabled:
		button = c.styles.Button.Render(c.submitLabel)
	default:
		button = c.styles.ButtonDisabled.Render(c.submitLabel)
	}
	return button + "\n" + c.help.ShortHelpView(c.keys.ShortHelp())
}

// refresh re-renders the transcript into the viewport and scrolls to the end
func (c *Chat) refresh() {
	c.viewport.SetContent(c.renderTranscript())
	c.viewport.GotoBottom()
}
