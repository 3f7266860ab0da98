package dealer

import (
	"testing"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/hand"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldHitBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cards string
		want  bool
	}{
		{"Th 6c", true},
		{"Ah 5c", true},
		{"Th 7c", false},
		{"Ah 6c", false},
		{"Ah 5c Ad", false},
		{"Th 9c", false},
		{"2h 3c", true},
	}

	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldHit(hand.New(deck.MustParseCards(tt.cards)...)))
		})
	}
}

func TestPlayToCompletionDrawsUntilStanding(t *testing.T) {
	t.Parallel()

	h := hand.New(deck.MustParseCards("5s Td")...)
	d := deck.NewStacked(deck.MustParseCards("8c 4h")...)

	require.NoError(t, PlayToCompletion(h, d))
	assert.Equal(t, 23, h.Value())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 1, d.Remaining())
}

func TestPlayToCompletionIsNoOpWhenStanding(t *testing.T) {
	t.Parallel()

	h := hand.New(deck.MustParseCards("Ah 6d")...)
	d := deck.NewStacked(deck.MustParseCards("2c")...)

	require.NoError(t, PlayToCompletion(h, d))
	require.NoError(t, PlayToCompletion(h, d))
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, d.Remaining())
}

func TestPlayToCompletionEmptyDeck(t *testing.T) {
	t.Parallel()

	h := hand.New(deck.MustParseCards("2h 3c")...)
	d := deck.NewStacked(deck.MustParseCards("4d")...)

	err := PlayToCompletion(h, d)
	var empty *deck.EmptyDeckError
	require.ErrorAs(t, err, &empty)
	assert.Equal(t, 9, h.Value())
}

func TestPlayToCompletionNeverStopsBelowSeventeen(t *testing.T) {
	t.Parallel()

	for seed := int64(0); seed < 200; seed++ {
		d := deck.New(1, randutil.NewSeeded(seed))
		d.Shuffle()
		h := hand.New()

		require.NoError(t, PlayToCompletion(h, d))
		assert.GreaterOrEqual(t, h.Value(), StandValue, "seed %d: %s", seed, h)
	}
}
