package csp

import (
	"math/rand"
	"sort"
)

const (
	// largeDomainThreshold is the domain size above which LCV ordering
	// switches to sampling rather than sorting the whole domain
	// (SPEC_FULL.md §4.5).
	largeDomainThreshold = 500
	// sampleSize is how many candidates are drawn and LCV-sorted when a
	// domain exceeds largeDomainThreshold.
	sampleSize = 200
)

// selectSlot picks the next unassigned slot to branch on: minimum-remaining-
// values first, breaking ties by the degree heuristic (most unassigned
// neighbors), itself broken deterministically by slot order (§4.5).
// unassigned must be in a stable, caller-chosen order (slot discovery order).
func selectSlot(unassigned []Slot, domains Domains, overlaps OverlapMap, assignment Assignment) Slot {
	minSize := -1
	for _, s := range unassigned {
		if sz := len(domains[s]); minSize == -1 || sz < minSize {
			minSize = sz
		}
	}

	var candidates []Slot
	for _, s := range unassigned {
		if len(domains[s]) == minSize {
			candidates = append(candidates, s)
		}
	}

	if len(candidates) == 1 {
		return candidates[0]
	}

	best := candidates[0]
	bestDegree := -1
	for _, s := range candidates {
		degree := 0
		for other := range overlaps[s] {
			if _, isAssigned := assignment[other]; !isAssigned {
				degree++
			}
		}
		if degree > bestDegree {
			bestDegree = degree
			best = s
		}
	}
	return best
}

// orderCandidates returns slot's current domain ordered by the
// least-constraining-value heuristic: words that eliminate fewer options
// from unassigned neighbors come first. Domains larger than
// largeDomainThreshold are sampled rather than fully sorted, per §4.5; rng
// must be a single shared, seeded source for the whole search so sampling
// stays reproducible.
func orderCandidates(rng *rand.Rand, slot Slot, domains Domains, assignment Assignment, overlaps OverlapMap) []string {
	domain := domains[slot]
	neighbors := overlaps[slot]

	conflicts := func(word string) int {
		count := 0
		for other, pos := range neighbors {
			if _, isAssigned := assignment[other]; isAssigned {
				continue
			}
			letter := word[pos.Self]
			for _, otherWord := range domains[other] {
				if otherWord[pos.Other] != letter {
					count++
				}
			}
		}
		return count
	}

	if len(domain) <= largeDomainThreshold {
		ordered := make([]string, len(domain))
		copy(ordered, domain)
		scores := make([]int, len(ordered))
		for i, w := range ordered {
			scores[i] = conflicts(w)
		}
		sort.Stable(wordsByConflict{ordered, scores})
		return ordered
	}

	n := len(domain)
	k := sampleSize
	if k > n {
		k = n
	}
	perm := rng.Perm(n)
	sampledIdx := make(map[int]bool, k)
	sample := make([]string, k)
	for i := 0; i < k; i++ {
		idx := perm[i]
		sampledIdx[idx] = true
		sample[i] = domain[idx]
	}
	scores := make([]int, len(sample))
	for i, w := range sample {
		scores[i] = conflicts(w)
	}
	sort.Stable(wordsByConflict{sample, scores})

	rest := make([]string, 0, n-k)
	for i, w := range domain {
		if !sampledIdx[i] {
			rest = append(rest, w)
		}
	}

	return append(sample, rest...)
}

// wordsByConflict sorts words and their precomputed conflict counts in
// tandem, so conflicts() is evaluated once per word rather than once per
// comparison.
type wordsByConflict struct {
	words  []string
	scores []int
}

func (w wordsByConflict) Len() int           { return len(w.words) }
func (w wordsByConflict) Less(i, j int) bool { return w.scores[i] < w.scores[j] }
func (w wordsByConflict) Swap(i, j int) {
	w.words[i], w.words[j] = w.words[j], w.words[i]
	w.scores[i], w.scores[j] = w.scores[j], w.scores[i]
}
