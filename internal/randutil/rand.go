// Package randutil provides the random source used for shuffling shoes.
//
// The default Source draws from crypto/rand and only degrades to a seeded PCG
// if the operating system source fails. Seeded sources are used for
// reproducible simulations and tests.
package randutil

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// Source generates uniform integers for shuffling.
type Source struct {
	mu       sync.Mutex
	secure   bool
	fallback *mrand.Rand
	logger   *log.Logger
}

// New returns a Source backed by crypto/rand.
func New(logger *log.Logger) *Source {
	if logger == nil {
		logger = log.Default()
	}
	return &Source{
		secure: true,
		logger: logger.WithPrefix("rand"),
	}
}

// NewSeeded returns a deterministic Source seeded from the provided int64.
// The two 64-bit PCG seeds are derived the same way for every call site so
// that a seed always replays the same shoe.
func NewSeeded(seed int64) *Source {
	return &Source{fallback: newPCG(seed)}
}

// IsSecure reports whether values still come from crypto/rand.
func (s *Source) IsSecure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.secure
}

// UniformInt returns an integer in [min, max] inclusive.
func (s *Source) UniformInt(min, max int) int {
	if min > max {
		panic(fmt.Sprintf("randutil: invalid range [%d, %d]", min, max))
	}
	if min == max {
		return min
	}
	span := uint64(max-min) + 1
	if span == 0 {
		// [MinInt, MaxInt]: every 64-bit value is in range
		return min + int(s.next64())
	}
	return min + int(s.uint64n(span))
}

// IntN returns an integer in [0, n). It lets a Source stand in wherever an
// Intn-style generator is expected.
func (s *Source) IntN(n int) int {
	if n <= 0 {
		panic("randutil: IntN called with non-positive n")
	}
	return s.UniformInt(0, n-1)
}

func (s *Source) uint64n(span uint64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.secure {
		v, err := secureUint64n(span)
		if err == nil {
			return v
		}
		s.degrade(err)
	}
	return s.fallback.Uint64N(span)
}

func (s *Source) next64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.secure {
		var buf [8]byte
		_, err := rand.Read(buf[:])
		if err == nil {
			return binary.LittleEndian.Uint64(buf[:])
		}
		s.degrade(err)
	}
	return s.fallback.Uint64()
}

// degrade switches to the PCG fallback. Caller holds s.mu.
func (s *Source) degrade(err error) {
	s.secure = false
	s.fallback = newPCG(time.Now().UnixNano())
	if s.logger != nil {
		s.logger.Warn("Secure random source unavailable, falling back to PCG", "error", err)
	}
}

// secureUint64n draws from crypto/rand, rejecting values from the biased tail
// so every result in [0, span) is equally likely.
func secureUint64n(span uint64) (uint64, error) {
	limit := ^uint64(0) - (^uint64(0) % span)
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, err
		}
		v := binary.LittleEndian.Uint64(buf[:])
		if v < limit {
			return v % span, nil
		}
	}
}

// Shuffle permutes seq in place with Fisher-Yates.
func Shuffle[T any](s *Source, seq []T) {
	for i := len(seq) - 1; i > 0; i-- {
		j := s.UniformInt(0, i)
		seq[i], seq[j] = seq[j], seq[i]
	}
}

// Shuffled returns a shuffled copy of seq, leaving seq untouched.
func Shuffled[T any](s *Source, seq []T) []T {
	out := make([]T, len(seq))
	copy(out, seq)
	Shuffle(s, out)
	return out
}

func newPCG(seed int64) *mrand.Rand {
	u := uint64(seed)
	return mrand.New(mrand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
