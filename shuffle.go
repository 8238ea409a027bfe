package acrn

import "sync"

// Rand is the source of randomness for shuffling. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// ShufflePool hands out the tones of a FrequencySet one at a time in random
// order. Between two refills every tone of the set is handed out exactly
// once. SetFrequencies may be called while another goroutine calls Next.
type ShufflePool struct {
	mu      sync.Mutex
	set     FrequencySet
	order   []Frequency
	rnd     Rand
	refills int
}

func NewShufflePool(set FrequencySet, rnd Rand) *ShufflePool {
	return &ShufflePool{set: set, rnd: rnd, order: make([]Frequency, 0, len(set))}
}

// Next pops the next tone from the working order, refilling it with a fresh
// shuffle of the set when it is empty.
func (p *ShufflePool) Next() Frequency {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.order) == 0 {
		p.order = append(p.order[:0], p.set[:]...)
		shuffle(p.order, p.rnd)
		p.refills++
	}
	last := len(p.order) - 1
	f := p.order[last]
	p.order = p.order[:last]
	return f
}

// SetFrequencies replaces the set. Tones already in the working order are
// still handed out; the new set is used from the next refill on.
func (p *ShufflePool) SetFrequencies(set FrequencySet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.set = set
}

func (p *ShufflePool) Frequencies() FrequencySet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.set
}

// Remaining is the number of tones left before the next refill.
func (p *ShufflePool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// Refills counts how many times the working order has been reshuffled.
func (p *ShufflePool) Refills() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refills
}

// shuffle is a Fisher-Yates shuffle; every permutation is equally likely
// given an unbiased rnd.
func shuffle(a []Frequency, rnd Rand) {
	for i := len(a) - 1; i > 0; i-- {
		j := rnd.IntN(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}
