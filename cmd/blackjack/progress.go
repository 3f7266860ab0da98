package main

import (
	"fmt"
	"sync"
)

const progressDots = 40

// progress prints a row of dots as rounds complete. Each dot is 2.5%.
type progress struct {
	mu      sync.Mutex
	total   int
	printed int
}

func newProgress(total int) *progress {
	fmt.Print("Simulating: ")
	return &progress{total: max(total, 1)}
}

func (p *progress) update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	target := min(done*progressDots/p.total, progressDots)
	for ; p.printed < target; p.printed++ {
		fmt.Print(".")
	}
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Println()
}
