package simulate

import (
	"fmt"
	"math"
	"sort"

	"github.com/lox/blackjack/internal/engine"
)

// RoundResult is the outcome of one simulated round for the player
type RoundResult struct {
	Net       int   // chips won or lost, insurance included
	Wagered   int   // total staked, doubles and splits included
	Seed      int64 // seed of the worker that played it
	Hands     []engine.HandResult
	Insured   bool
	Doubled   int
	Splits    int
	Reshuffle bool
}

// Statistics aggregates simulated rounds. Net values are in chips and the
// per-round moments are used for the confidence interval.
type Statistics struct {
	Rounds int
	SumNet float64
	SumSq  float64 // sum of squares for variance
	Values []float64

	Hands      int
	Wins       int
	Losses     int
	Pushes     int
	Blackjacks int
	Doubles    int
	Splits     int
	Insured    int
	Shuffles   int
	Rebuys     int

	Wagered int
	Net     int
}

// Add incorporates one round
func (s *Statistics) Add(r RoundResult) {
	net := float64(r.Net)
	s.Rounds++
	s.SumNet += net
	s.SumSq += net * net
	s.Values = append(s.Values, net)

	s.Net += r.Net
	s.Wagered += r.Wagered
	s.Doubles += r.Doubled
	s.Splits += r.Splits
	if r.Insured {
		s.Insured++
	}
	if r.Reshuffle {
		s.Shuffles++
	}

	for _, h := range r.Hands {
		s.Hands++
		switch h.Outcome {
		case engine.OutcomeWin:
			s.Wins++
		case engine.OutcomeBlackjack:
			s.Wins++
			s.Blackjacks++
		case engine.OutcomeLose:
			s.Losses++
		case engine.OutcomePush:
			s.Pushes++
		}
	}
}

// Merge folds another worker's statistics into s
func (s *Statistics) Merge(o *Statistics) {
	s.Rounds += o.Rounds
	s.SumNet += o.SumNet
	s.SumSq += o.SumSq
	s.Values = append(s.Values, o.Values...)
	s.Hands += o.Hands
	s.Wins += o.Wins
	s.Losses += o.Losses
	s.Pushes += o.Pushes
	s.Blackjacks += o.Blackjacks
	s.Doubles += o.Doubles
	s.Splits += o.Splits
	s.Insured += o.Insured
	s.Shuffles += o.Shuffles
	s.Rebuys += o.Rebuys
	s.Wagered += o.Wagered
	s.Net += o.Net
}

// Mean returns the average net per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumNet / float64(s.Rounds)
}

// Variance returns the sample variance of net per round
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumSq - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Return is net divided by total wagered, the player's edge
func (s *Statistics) Return() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return float64(s.Net) / float64(s.Wagered)
}

// Median returns the median net per round
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks the counters agree with each other
func (s *Statistics) Validate() error {
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}
	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values length (%d) does not match rounds (%d)", len(s.Values), s.Rounds)
	}
	if got := s.Wins + s.Losses + s.Pushes; got != s.Hands {
		return fmt.Errorf("outcomes (%d) do not match hands (%d)", got, s.Hands)
	}
	if math.Abs(s.SumNet-float64(s.Net)) > 1e-6 {
		return fmt.Errorf("net mismatch: sum=%.2f net=%d", s.SumNet, s.Net)
	}
	return nil
}
