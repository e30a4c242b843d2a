package csp

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Assignment is a partial (during search) or complete (on success) mapping
// from slot to the word chosen for it.
type Assignment map[Slot]string

// ErrUnsolvable is returned when the backtracking search exhausts every
// option without finding a complete, consistent assignment.
var ErrUnsolvable = errors.New("csp: no solution found")

// ErrTimeout is returned when the search is canceled via the context
// before completing (SPEC_FULL.md §5). It is not part of the core's
// mandatory contract — callers that never supply a deadline never see it.
var ErrTimeout = errors.New("csp: search timed out")

// progressEvery controls how often the search reports its assignment size,
// in slots assigned (SPEC_FULL.md §4.7): "emitted when |A| grows past a
// multiple of 5".
const progressEvery = 5

// backtrack is the recursive depth-first search described in SPEC_FULL.md
// §4.6: choose an unassigned slot, try its candidate words in
// least-constraining-value order, forward-check each tentative assignment,
// and recurse. assignment is mutated on descent and restored on backtrack,
// so at every return its value equals its value on entry to this call.
func backtrack(
	ctx context.Context,
	allSlots []Slot,
	assignment Assignment,
	domains Domains,
	overlaps OverlapMap,
	rng *rand.Rand,
	log *EventLog,
	start time.Time,
) (Assignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrTimeout
	}

	if n := len(assignment); n > 0 && n%progressEvery == 0 {
		log.Logf("Current assignment size: %d/%d in %.2f seconds", n, len(allSlots), time.Since(start).Seconds())
	}

	if len(assignment) == len(allSlots) {
		return assignment, nil
	}

	unassigned := make([]Slot, 0, len(allSlots)-len(assignment))
	for _, s := range allSlots {
		if _, ok := assignment[s]; !ok {
			unassigned = append(unassigned, s)
		}
	}

	slot := selectSlot(unassigned, domains, overlaps, assignment)

	for _, word := range orderCandidates(rng, slot, domains, assignment, overlaps) {
		if !consistent(slot, word, assignment, overlaps) {
			continue
		}

		assignment[slot] = word

		reduced, ok := forwardCheck(slot, word, assignment, domains, overlaps)
		if !ok {
			delete(assignment, slot)
			continue
		}

		result, err := backtrack(ctx, allSlots, assignment, domains.WithReplacements(reduced), overlaps, rng, log, start)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, ErrTimeout) {
			delete(assignment, slot)
			return nil, err
		}

		delete(assignment, slot)
	}

	return nil, ErrUnsolvable
}

// consistent checks a candidate word against every already-assigned
// neighbor of slot (SPEC_FULL.md §4.6 step a).
func consistent(slot Slot, word string, assignment Assignment, overlaps OverlapMap) bool {
	for other, pos := range overlaps[slot] {
		if otherWord, ok := assignment[other]; ok {
			if word[pos.Self] != otherWord[pos.Other] {
				return false
			}
		}
	}
	return true
}

// forwardCheck prunes every unassigned neighbor's domain to words
// consistent with slot=word, returning the reduced domains (only for
// neighbors actually narrowed) and false if any neighbor's domain is wiped
// out (SPEC_FULL.md §4.6 step c).
func forwardCheck(slot Slot, word string, assignment Assignment, domains Domains, overlaps OverlapMap) (map[Slot][]string, bool) {
	reduced := make(map[Slot][]string)
	for other, pos := range overlaps[slot] {
		if _, isAssigned := assignment[other]; isAssigned {
			continue
		}
		letter := word[pos.Self]
		current := domains[other]
		narrowed := make([]string, 0, len(current))
		for _, w := range current {
			if w[pos.Other] == letter {
				narrowed = append(narrowed, w)
			}
		}
		if len(narrowed) == 0 {
			return nil, false
		}
		if len(narrowed) < len(current) {
			reduced[other] = narrowed
		}
	}
	return reduced, true
}
