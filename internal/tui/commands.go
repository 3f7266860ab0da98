package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lox/blackjack/internal/engine"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/phase"
	"github.com/lox/blackjack/internal/strategy"
)

const helpText = `Commands:
  bet <amount> [hand]  stake chips (every hand when none is given)
  unbet [hand]         take a stake back
  hands <1-3>          play more than one hand
  deal                 deal the round
  hit | h              draw a card
  stand | s            end the hand
  double | d           double the stake and take one card
  split | p            split a pair
  yes / no             take or decline insurance
  hint                 basic strategy advice
  rebuy                reset your balance when broke
  next | <enter>       start the next round
  quit | q             leave the table`

// Submit runs one line of player input and returns a command when the
// program should exit
func (m *TUIModel) Submit(input string) tea.Cmd {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	var cmd string
	var args []string
	if len(parts) > 0 {
		cmd, args = parts[0], parts[1:]
	}

	switch cmd {
	case "quit", "q", "exit":
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)
	case "help", "?":
		for _, line := range strings.Split(helpText, "\n") {
			m.addStyledEntry(InfoStyle, line)
		}
		return nil
	case "hint":
		m.showHint()
		return nil
	case "rebuy":
		m.report(m.engine.Rebuy())
		return nil
	}

	switch m.engine.Phase() {
	case phase.Betting:
		m.handleBetting(cmd, args)
	case phase.InsuranceCheck:
		m.handleInsurance(cmd)
	case phase.PlayerTurn:
		m.handlePlayerTurn(cmd)
	case phase.GameOver:
		if cmd == "" || cmd == "next" || cmd == "n" {
			m.report(m.engine.StartNewRound(m.handCount))
		} else {
			m.addStyledEntry(WarningStyle, "Round over. Press enter for the next round.")
		}
	default:
		m.autoplay()
	}
	return nil
}

func (m *TUIModel) handleBetting(cmd string, args []string) {
	switch cmd {
	case "bet", "b":
		if len(args) == 0 {
			m.addStyledEntry(ErrorStyle, "Usage: bet <amount> [hand]")
			return
		}
		amount, err := strconv.Atoi(args[0])
		if err != nil {
			m.addStyledEntry(ErrorStyle, fmt.Sprintf("Invalid amount %q", args[0]))
			return
		}
		hands, ok := m.handArgs(args[1:])
		if !ok {
			return
		}
		for _, i := range hands {
			if err := m.engine.PlaceBet(i, amount); err != nil {
				m.report(err)
				return
			}
		}
		m.addStyledEntry(SuccessStyle, fmt.Sprintf("Bet $%d on %s. Balance $%d.", amount, describeHands(hands), m.engine.Balance()))

	case "unbet", "u":
		hands, ok := m.handArgs(args)
		if !ok {
			return
		}
		for _, i := range hands {
			if err := m.engine.RemoveBet(i); err != nil {
				m.report(err)
				return
			}
		}
		m.addStyledEntry(InfoStyle, fmt.Sprintf("Stakes returned. Balance $%d.", m.engine.Balance()))

	case "hands":
		if len(args) != 1 {
			m.addStyledEntry(ErrorStyle, fmt.Sprintf("Usage: hands <1-%d>", engine.MaxHands))
			return
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			m.addStyledEntry(ErrorStyle, fmt.Sprintf("Invalid hand count %q", args[0]))
			return
		}
		if err := m.engine.SelectHandCount(n); err != nil {
			m.report(err)
			return
		}
		m.handCount = n
		m.addStyledEntry(InfoStyle, fmt.Sprintf("Playing %d hand(s).", n))

	case "deal", "":
		if err := m.engine.Deal(); err != nil {
			m.report(err)
			return
		}
		m.logTable()
		if m.engine.Phase() == phase.InsuranceCheck {
			m.addStyledEntry(WarningStyle, fmt.Sprintf("Dealer shows an ace. Insurance for $%d? (yes/no)", m.engine.InsuranceAmount()))
		}
		m.autoplay()

	default:
		m.addStyledEntry(ErrorStyle, fmt.Sprintf("Unknown command %q while betting. Type 'help'.", cmd))
	}
}

func (m *TUIModel) handleInsurance(cmd string) {
	switch cmd {
	case "yes", "y", "insure", "insurance":
		if err := m.engine.TakeInsurance(); err != nil {
			m.report(err)
			return
		}
		m.addStyledEntry(InfoStyle, fmt.Sprintf("Insurance taken for $%d.", m.engine.State().InsuranceBet))
	case "no", "decline":
		if err := m.engine.DeclineInsurance(); err != nil {
			m.report(err)
			return
		}
		m.addStyledEntry(InfoStyle, "Insurance declined.")
	default:
		m.addStyledEntry(WarningStyle, "Dealer shows an ace. Insurance? (yes/no)")
		return
	}
	m.autoplay()
}

func (m *TUIModel) handlePlayerTurn(cmd string) {
	i := m.engine.State().CurrentHandIndex
	var (
		ok   bool
		err  error
		verb string
	)

	switch cmd {
	case "hit", "h":
		verb = "hit"
		ok, err = m.engine.Hit(i)
	case "stand", "s":
		verb = "stand"
		ok, err = m.engine.Stand(i)
	case "double", "d":
		verb = "double"
		ok, err = m.engine.DoubleDown(i)
	case "split", "p":
		verb = "split"
		ok, err = m.engine.Split(i)
	default:
		m.addStyledEntry(ErrorStyle, fmt.Sprintf("Unknown command %q. Try hit, stand, double or split.", cmd))
		return
	}

	if err != nil {
		m.report(err)
		return
	}
	if !ok {
		m.addStyledEntry(WarningStyle, fmt.Sprintf("Can't %s hand %d right now.", verb, i+1))
		return
	}

	m.logHandAfter(verb, i)
	m.autoplay()
}

// autoplay runs the dealer and settles the round once the player is done
func (m *TUIModel) autoplay() {
	if m.engine.Phase() == phase.DealerTurn {
		if err := m.engine.PlayDealerTurn(); err != nil {
			m.report(err)
			return
		}
		d := m.engine.State().Dealer
		m.addStyledEntry(InfoStyle, fmt.Sprintf("Dealer: %s (%s)", plainCards(d.Cards), describeValue(d.Value, d.IsSoft, d.IsBust, d.IsBlackjack)))
	}
	if m.engine.Phase() == phase.Resolution {
		if _, err := m.engine.ResolveRound(); err != nil {
			m.report(err)
		}
	}
}

func (m *TUIModel) onEvent(event engine.Event) {
	m.state = event.Snapshot()

	switch ev := event.(type) {
	case engine.PhaseChangeEvent:
		switch ev.Current {
		case phase.Dealing:
			m.AddBoldLogEntry("*** DEAL ***")
		case phase.Betting:
			m.AddBoldLogEntry("*** NEW ROUND ***")
		}

	case engine.ShoeShuffledEvent:
		m.addStyledEntry(InfoStyle, fmt.Sprintf("Shoe reshuffled (%d cards).", ev.Remaining))

	case engine.RoundResolvedEvent:
		for _, r := range ev.Results {
			style := InfoStyle
			switch r.Outcome {
			case engine.OutcomeWin, engine.OutcomeBlackjack:
				style = SuccessStyle
			case engine.OutcomeLose:
				style = ErrorStyle
			}
			m.addStyledEntry(style, fmt.Sprintf("Hand %d: %s (%+d)", r.HandIndex+1, strings.ToUpper(string(r.Outcome)), r.Net()))
		}
		if ev.State.InsuranceTaken {
			m.addStyledEntry(InfoStyle, fmt.Sprintf("Insurance returned $%d.", ev.State.InsurancePayout))
		}
		m.AddBoldLogEntry(fmt.Sprintf("Round net %+d. Balance $%d.", ev.Net, ev.State.Balance))
		if m.engine.IsBankrupt() {
			m.addStyledEntry(WarningStyle, fmt.Sprintf("You're out of chips. Type 'rebuy' to reset to $%d.", m.engine.Config().StartingBalance))
		} else {
			m.addStyledEntry(InfoStyle, "Press enter for the next round.")
		}
	}
}

func (m *TUIModel) showHint() {
	switch m.engine.Phase() {
	case phase.InsuranceCheck:
		if strategy.ShouldInsure() {
			m.addStyledEntry(InfoStyle, "Hint: take insurance")
		} else {
			m.addStyledEntry(InfoStyle, "Hint: decline insurance")
		}
	case phase.PlayerTurn:
		i := m.engine.State().CurrentHandIndex
		d, ok := strategy.ForState(m.engine.State(), m.engine.CanDoubleDown(i), m.engine.CanSplit(i))
		if ok {
			m.addStyledEntry(InfoStyle, "Hint: "+d.Reasoning)
		}
	default:
		m.addStyledEntry(InfoStyle, "No decision to make right now.")
	}
}

// report logs err in player terms; a nil error logs nothing
func (m *TUIModel) report(err error) {
	if err == nil {
		return
	}
	m.logger.Debug("Action failed", "error", err)

	var notAllowed *engine.ActionNotAllowedError
	var insufficient *ledger.InsufficientFundsError
	switch {
	case errors.As(err, &notAllowed):
		msg := fmt.Sprintf("Can't %s during %s", notAllowed.Action, notAllowed.Phase)
		if notAllowed.Reason != "" {
			msg += ": " + notAllowed.Reason
		}
		m.addStyledEntry(ErrorStyle, msg)
	case errors.As(err, &insufficient):
		m.addStyledEntry(ErrorStyle, fmt.Sprintf("Not enough chips: $%d needed, $%d available.", insufficient.Requested, insufficient.Balance))
	case errors.Is(err, engine.ErrBetOutOfRange):
		cfg := m.engine.Config()
		limits := fmt.Sprintf("minimum $%d", cfg.MinBet)
		if cfg.MaxBet > 0 {
			limits = fmt.Sprintf("$%d to $%d", cfg.MinBet, cfg.MaxBet)
		}
		m.addStyledEntry(ErrorStyle, "Bet outside table limits ("+limits+").")
	default:
		m.addStyledEntry(ErrorStyle, "Error: "+err.Error())
	}
}

// handArgs turns an optional 1-based hand number into engine indexes
func (m *TUIModel) handArgs(args []string) ([]int, bool) {
	count := len(m.engine.State().Hands)
	if len(args) == 0 {
		all := make([]int, count)
		for i := range all {
			all[i] = i
		}
		return all, true
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > count {
		m.addStyledEntry(ErrorStyle, fmt.Sprintf("Hand must be between 1 and %d.", count))
		return nil, false
	}
	return []int{n - 1}, true
}

func (m *TUIModel) logTable() {
	s := m.engine.State()
	up, _ := s.Dealer.UpCard()
	m.addStyledEntry(InfoStyle, fmt.Sprintf("Dealer shows %s", up))
	for i, h := range s.Hands {
		m.AddLogEntry(fmt.Sprintf("Hand %d: %s (%s)", i+1, plainCards(h.Cards), describeValue(h.Value, h.IsSoft, h.IsBust, h.IsBlackjack)))
	}
}

func (m *TUIModel) logHandAfter(verb string, i int) {
	s := m.engine.State()
	if verb == "split" {
		m.AddLogEntry(fmt.Sprintf("Hand %d splits.", i+1))
		for j := i; j < len(s.Hands) && j <= i+1; j++ {
			h := s.Hands[j]
			m.AddLogEntry(fmt.Sprintf("Hand %d: %s (%s)", j+1, plainCards(h.Cards), describeValue(h.Value, h.IsSoft, h.IsBust, h.IsBlackjack)))
		}
		return
	}
	if i >= len(s.Hands) {
		return
	}
	h := s.Hands[i]
	m.AddLogEntry(fmt.Sprintf("Hand %d %ss: %s (%s)", i+1, verb, plainCards(h.Cards), describeValue(h.Value, h.IsSoft, h.IsBust, h.IsBlackjack)))
}

func describeHands(hands []int) string {
	if len(hands) == 1 {
		return fmt.Sprintf("hand %d", hands[0]+1)
	}
	return fmt.Sprintf("%d hands", len(hands))
}

func describeValue(value int, soft, bust, blackjack bool) string {
	switch {
	case blackjack:
		return "blackjack"
	case bust:
		return fmt.Sprintf("%d, bust", value)
	case soft:
		return fmt.Sprintf("soft %d", value)
	}
	return strconv.Itoa(value)
}
