package csp

import "strings"

// WordIndex groups a dictionary by word length, preserving input order
// within each bucket (the Word Index, SPEC_FULL.md §4.2).
type WordIndex struct {
	byLength map[int][]string
}

// BuildWordIndex strips whitespace, skips empty lines, uppercases the rest,
// and groups the result by length. The index is read-only once built.
func BuildWordIndex(rawWords []string) *WordIndex {
	idx := &WordIndex{byLength: make(map[int][]string)}
	for _, raw := range rawWords {
		word := strings.TrimSpace(raw)
		if word == "" {
			continue
		}
		word = strings.ToUpper(word)
		idx.byLength[len(word)] = append(idx.byLength[len(word)], word)
	}
	return idx
}

// Words returns the ordered bucket of words of the given length, or nil if
// the dictionary has none. Callers that need an independently-mutable copy
// (the Domain Store) must copy the returned slice.
func (idx *WordIndex) Words(length int) []string {
	return idx.byLength[length]
}

// Lengths returns the set of lengths present in the index, ascending.
func (idx *WordIndex) Lengths() []int {
	lengths := make([]int, 0, len(idx.byLength))
	for l := range idx.byLength {
		lengths = append(lengths, l)
	}
	for i := 1; i < len(lengths); i++ {
		for j := i; j > 0 && lengths[j-1] > lengths[j]; j-- {
			lengths[j-1], lengths[j] = lengths[j], lengths[j-1]
		}
	}
	return lengths
}

// Count returns the number of words of the given length.
func (idx *WordIndex) Count(length int) int {
	return len(idx.byLength[length])
}
