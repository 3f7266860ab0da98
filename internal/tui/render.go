package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/engine"
	"github.com/lox/blackjack/internal/phase"
)

// View renders the table: log and sidebar on top, action pane below
func (m *TUIModel) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)
	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(1)).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	topHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Width(sidebarWidth).
		Height(topHeight).
		Render(sidebarContent)

	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.Width = max(m.width-sidebarWidth-4, 1)
	m.logViewport.Height = topHeight

	if !m.initialized && m.logViewport.Width > 1 && m.logViewport.Height > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(0)).
		Width(m.logViewport.Width).
		Height(topHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *TUIModel) borderColor(pane int) lipgloss.Color {
	if m.focusedPane == pane {
		return accentColor
	}
	return mutedColor
}

// renderSidebarPane shows the bankroll and the shoe
func (m *TUIModel) renderSidebarPane() string {
	var content strings.Builder
	s := m.state

	content.WriteString(HeaderStyle.Render("BLACKJACK"))
	content.WriteString("\n\n")
	content.WriteString(WarningStyle.Render(fmt.Sprintf("Balance: $%d", s.Balance)))
	content.WriteString("\n")
	if bet := s.TotalBet(); bet > 0 {
		content.WriteString(WarningStyle.Render(fmt.Sprintf("On table: $%d", bet)))
		content.WriteString("\n")
	}
	if s.InsuranceTaken {
		content.WriteString(InfoStyle.Render(fmt.Sprintf("Insurance: $%d", s.InsuranceBet)))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	cfg := m.engine.Config()
	limits := fmt.Sprintf("Limits: $%d+", cfg.MinBet)
	if cfg.MaxBet > 0 {
		limits = fmt.Sprintf("Limits: $%d-$%d", cfg.MinBet, cfg.MaxBet)
	}
	content.WriteString(InfoStyle.Render(limits))
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(fmt.Sprintf("Shoe: %d cards", s.ShoeRemaining)))
	content.WriteString("\n")
	content.WriteString(InfoStyle.Render(fmt.Sprintf("Phase: %s", s.Phase)))
	content.WriteString("\n")
	if len(s.RoundID) >= 8 {
		content.WriteString(InfoStyle.Render("Round: " + s.RoundID[len(s.RoundID)-8:]))
		content.WriteString("\n")
	}

	return content.String()
}

// renderActionPane shows the dealer, the player's hands and the input
func (m *TUIModel) renderActionPane() string {
	var content strings.Builder
	s := m.state

	if s.Phase != phase.Betting {
		content.WriteString(m.renderDealer(s.Dealer))
		content.WriteString("\n")
	}
	for i, h := range s.Hands {
		content.WriteString(m.renderHand(i, h, s))
		content.WriteString("\n")
	}

	content.WriteString(m.renderAvailableActions())
	content.WriteString("\n")

	switch s.Phase {
	case phase.Betting:
		m.actionInput.Placeholder = "bet 10, deal, hands 2, help"
	case phase.InsuranceCheck:
		m.actionInput.Placeholder = "yes or no"
	case phase.PlayerTurn:
		m.actionInput.Placeholder = "hit, stand, double, split, hint"
	default:
		m.actionInput.Placeholder = "Enter for the next round, 'quit' to exit"
	}
	content.WriteString(m.actionInput.View())
	content.WriteString("\n")

	help := "Tab to scroll log • Enter to submit • Ctrl+C to quit"
	if m.focusedPane == 0 {
		help = "Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"
	}
	content.WriteString(lipgloss.NewStyle().Foreground(mutedColor).Render(help))

	return content.String()
}

func (m *TUIModel) renderDealer(d engine.DealerState) string {
	cards := m.formatCards(d.Cards)
	for range d.HiddenCards {
		cards = strings.TrimSuffix(cards, "]") + " " + HiddenCardStyle.Render("??") + "]"
	}
	return HandInfoStyle.Render("Dealer: ") + cards + " " + InfoStyle.Render(describeValue(d.Value, d.IsSoft, d.IsBust, d.IsBlackjack))
}

func (m *TUIModel) renderHand(i int, h engine.HandState, s engine.RoundState) string {
	label := fmt.Sprintf("Hand %d ($%d): ", i+1, h.Bet)
	style := HandInfoStyle
	if s.Phase == phase.PlayerTurn && s.CurrentHandIndex == i {
		style = CurrentHandStyle
		label = "▶ " + label
	}
	if len(h.Cards) == 0 {
		return style.Render(label)
	}

	var tags []string
	if h.IsDoubled {
		tags = append(tags, "doubled")
	}
	if h.IsSplitAces {
		tags = append(tags, "split aces")
	}
	info := describeValue(h.Value, h.IsSoft, h.IsBust, h.IsBlackjack)
	if len(tags) > 0 {
		info += ", " + strings.Join(tags, ", ")
	}
	return style.Render(label) + m.formatCards(h.Cards) + " " + InfoStyle.Render(info)
}

// renderAvailableActions lists the commands the engine will accept now
func (m *TUIModel) renderAvailableActions() string {
	var actions []string
	s := m.state

	switch s.Phase {
	case phase.Betting:
		actions = append(actions, WarningStyle.Render("[bet]"))
		if s.TotalBet() > 0 {
			actions = append(actions, SuccessStyle.Render("[deal]"), InfoStyle.Render("[unbet]"))
		}
		actions = append(actions, InfoStyle.Render("[hands]"))
	case phase.InsuranceCheck:
		actions = append(actions,
			WarningStyle.Render(fmt.Sprintf("[yes $%d]", m.engine.InsuranceAmount())),
			InfoStyle.Render("[no]"))
	case phase.PlayerTurn:
		i := s.CurrentHandIndex
		actions = append(actions, SuccessStyle.Render("[hit]"), ErrorStyle.Render("[stand]"))
		if m.engine.CanDoubleDown(i) {
			actions = append(actions, WarningStyle.Render("[double]"))
		}
		if m.engine.CanSplit(i) {
			actions = append(actions, WarningStyle.Render("[split]"))
		}
		actions = append(actions, InfoStyle.Render("[hint]"))
	case phase.GameOver:
		if m.engine.IsBankrupt() {
			actions = append(actions, WarningStyle.Render("[rebuy]"))
		}
		actions = append(actions, SuccessStyle.Render("[next]"))
	}

	if len(actions) == 0 {
		actions = append(actions, InfoStyle.Render("[waiting]"))
	}
	return ActionsStyle.Render("Actions: ") + strings.Join(actions, " ")
}

// formatCards formats cards with colors
func (m *TUIModel) formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return "[]"
	}

	formatted := make([]string, 0, len(cards))
	for _, card := range cards {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}

func plainCards(cards []deck.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
