// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify assigns a topic label to a summary by counting keyword
// occurrences of each candidate topic.
package classify

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Unspecified is returned when no topic occurs in the summary.
const Unspecified = "Unspecified"

// Classifier matches a fixed candidate topic list against summaries with a
// single Aho-Corasick automaton.
type Classifier struct {
	topics []string       // as supplied, in priority order
	index  map[string]int // lower-cased pattern -> first topic index

	mu      sync.Mutex
	matcher *goahocorasick.Machine
}

// New builds a classifier for topics. Blank topics are ignored and
// case-insensitive duplicates keep their first position.
func New(topics []string) (*Classifier, error) {
	c := &Classifier{index: make(map[string]int)}

	var patterns [][]rune
	for _, t := range topics {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" {
			continue
		}
		if _, dup := c.index[key]; dup {
			continue
		}
		c.index[key] = len(c.topics)
		c.topics = append(c.topics, strings.TrimSpace(t))
		patterns = append(patterns, []rune(key))
	}

	if len(patterns) == 0 {
		return c, nil
	}

	// The double-array trie is built from sorted keys.
	sort.Slice(patterns, func(i, j int) bool { return string(patterns[i]) < string(patterns[j]) })

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("building topic matcher: %w", err)
	}
	c.matcher = m
	return c, nil
}

// Topics returns the effective candidate list.
func (c *Classifier) Topics() []string {
	return append([]string(nil), c.topics...)
}

// Classify returns the topic with the most non-overlapping, case-insensitive
// occurrences in summary. Ties go to the earliest topic. With no topics or
// no occurrences it returns Unspecified.
func (c *Classifier) Classify(summary string) string {
	counts := c.Counts(summary)

	best, bestCount := -1, 0
	for i, n := range counts {
		if n > bestCount {
			best, bestCount = i, n
		}
	}
	if best < 0 {
		return Unspecified
	}
	return c.topics[best]
}

// Counts returns the occurrence count of each topic, aligned with Topics.
func (c *Classifier) Counts(summary string) []int {
	counts := make([]int, len(c.topics))
	if c.matcher == nil || summary == "" {
		return counts
	}

	text := []rune(strings.ToLower(summary))

	c.mu.Lock()
	terms := c.matcher.MultiPatternSearch(text, false)
	c.mu.Unlock()

	// Terms arrive ordered by end position, so a greedy scan per topic
	// counts non-overlapping occurrences left to right.
	nextFree := make([]int, len(c.topics))
	for _, term := range terms {
		i, ok := c.index[string(term.Word)]
		if !ok || term.Pos < nextFree[i] {
			continue
		}
		counts[i]++
		nextFree[i] = term.Pos + len(term.Word)
	}
	return counts
}

// Classify is a convenience for a one-off classification.
func Classify(summary string, topics []string) string {
	c, err := New(topics)
	if err != nil {
		return Unspecified
	}
	return c.Classify(summary)
}
