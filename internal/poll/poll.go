package poll

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	MinOptions = 2
	MaxOptions = 6
)

var ErrBadOption = errors.New("option must look like <emoji>;<label>")

type Option struct {
	Emoji string
	Label string
}

// ParseOption reads an "<emoji>;<label>" pair.
func ParseOption(s string) (Option, error) {
	emoji, label, ok := strings.Cut(s, ";")
	emoji, label = strings.TrimSpace(emoji), strings.TrimSpace(label)
	if !ok || emoji == "" || label == "" {
		return Option{}, fmt.Errorf("%w: %q", ErrBadOption, s)
	}
	return Option{Emoji: emoji, Label: label}, nil
}

// Poll is a running vote. Each user holds at most one vote and may move it.
type Poll struct {
	Title   string
	Owner   string
	Options []Option

	mu    sync.Mutex
	votes map[string]int
}

func New(title, owner string, options []Option) (*Poll, error) {
	if len(options) < MinOptions || len(options) > MaxOptions {
		return nil, fmt.Errorf("a poll needs %d to %d options, got %d", MinOptions, MaxOptions, len(options))
	}

	return &Poll{
		Title:   title,
		Owner:   owner,
		Options: options,
		votes:   make(map[string]int),
	}, nil
}

// Vote records userID's choice. It reports false when the option does not
// exist or the user already voted for it.
func (p *Poll) Vote(userID string, option int) bool {
	if option < 0 || option >= len(p.Options) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.votes[userID]; ok && prev == option {
		return false
	}
	p.votes[userID] = option
	return true
}

// Counts returns the votes per option, in option order.
func (p *Poll) Counts() []int {
	p.mu.Lock()
	defer p.mu.Unlock()

	counts := make([]int, len(p.Options))
	for _, o := range p.votes {
		counts[o]++
	}
	return counts
}
