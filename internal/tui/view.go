package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
	"github.com/aannaassalam/coachiatry-sub001/internal/realtime"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	selfStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	otherStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	headerBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("238"))
)

var statusMarks = map[domain.Status]string{
	domain.StatusPending:   "…",
	domain.StatusSent:      "✓",
	domain.StatusDelivered: "✓✓",
	domain.StatusSeen:      "✓✓ seen",
	domain.StatusFailed:    "✗",
}

func (m *Model) headerView() string {
	name := m.opts.ChatID
	if m.conv != nil {
		name = m.conversationName()
	}

	parts := []string{titleStyle.Render(name)}
	if m.binding != nil && !m.binding.IsGroup() {
		if m.counterpartOnline {
			parts = append(parts, onlineStyle.Render("● online"))
		} else {
			parts = append(parts, dimStyle.Render("○ offline"))
		}
	}
	parts = append(parts, m.channelView())
	return headerBorder.Render(strings.Join(parts, "  "))
}

func (m *Model) channelView() string {
	switch m.channelState {
	case realtime.StateConnected:
		return dimStyle.Render("[live]")
	case realtime.StateDisconnected:
		return errorStyle.Render("[offline]")
	default:
		return dimStyle.Render("[" + string(m.channelState) + "]")
	}
}

func (m *Model) conversationName() string {
	if m.conv.Name != "" {
		return m.conv.Name
	}
	for _, member := range m.conv.Members {
		if member.ID != m.selfID && member.FullName != "" {
			return member.FullName
		}
	}
	return m.conv.ID
}

func (m *Model) senderName(ref domain.UserRef) string {
	if ref.FullName != "" {
		return ref.FullName
	}
	if m.conv != nil {
		for _, member := range m.conv.Members {
			if member.ID == ref.ID && member.FullName != "" {
				return member.FullName
			}
		}
	}
	return ref.ID
}

func (m *Model) renderMessages() string {
	if len(m.messages) == 0 {
		return dimStyle.Render("No messages yet.")
	}

	var b strings.Builder
	for i, msg := range m.messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.renderMessage(msg))
	}
	return b.String()
}

func (m *Model) renderMessage(msg domain.Message) string {
	if msg.IsDeleted() {
		return dimStyle.Render("message deleted")
	}

	var b strings.Builder
	if msg.Sender.ID == m.selfID {
		b.WriteString(selfStyle.Render("you"))
	} else {
		b.WriteString(otherStyle.Render(m.senderName(msg.Sender)))
	}
	b.WriteString(dimStyle.Render(" " + msg.CreatedAt.Format("15:04")))
	b.WriteString(": ")
	b.WriteString(msg.Content)

	for _, f := range msg.Files {
		fmt.Fprintf(&b, "\n  [%s] %s", f.Type, f.URL)
	}
	if len(msg.Reactions) > 0 {
		emoji := make([]string, 0, len(msg.Reactions))
		for _, r := range msg.Reactions {
			emoji = append(emoji, r.Emoji)
		}
		b.WriteString("\n  " + strings.Join(emoji, " "))
	}

	if msg.Sender.ID == m.selfID {
		mark := statusMarks[msg.Status]
		if msg.Status == domain.StatusFailed {
			mark = errorStyle.Render(mark)
		} else {
			mark = dimStyle.Render(mark)
		}
		b.WriteString(" " + mark)
	}
	return b.String()
}

func (m *Model) footerView() string {
	var lines []string
	if len(m.typing) > 0 {
		names := make([]string, 0, len(m.typing))
		for _, id := range m.typing {
			names = append(names, m.senderName(domain.UserRef{ID: id}))
		}
		verb := "is"
		if len(names) > 1 {
			verb = "are"
		}
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%s %s typing...", strings.Join(names, ", "), verb)))
	}
	if m.upload != nil {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("uploading %.0f%%", m.upload.overall)))
	}
	if m.status != "" {
		lines = append(lines, errorStyle.Render(m.status))
	}
	lines = append(lines, m.input.View())
	return strings.Join(lines, "\n")
}
