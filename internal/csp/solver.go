package csp

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Config configures a single Solve call. The zero value is a valid,
// deterministic configuration: HonorPrefilled off (pre-filled letters act
// as blocks, matching the original source's behavior), Seed 0, no timeout,
// no event sink.
type Config struct {
	// HonorPrefilled resolves the open question in SPEC_FULL.md §4.1/§9:
	// when true, pre-filled LETTER cells extend fillable runs and seed
	// domains by filtering to matching words; when false they act as
	// blocks for slot-boundary purposes.
	HonorPrefilled bool
	// Seed drives the PRNG used for large-domain LCV sampling (§4.5),
	// making sampled runs reproducible.
	Seed int64
	// EventSink, if set, receives every Event Log line as it's appended.
	EventSink func(string)
	// Timeout, if nonzero, bounds the search; a search that exceeds it
	// returns ErrTimeout instead of ErrUnsolvable (§5).
	Timeout time.Duration
}

// Result is the outcome of a Solve call.
type Result struct {
	Height     int
	Width      int
	Lines      []string
	Slots      []Slot
	Assignment Assignment
	Log        *EventLog
	Elapsed    time.Duration
}

// Solve runs the full pipeline described in SPEC_FULL.md §2: parse the
// grid into slots, index the dictionary, compute overlaps and initial
// domains, then backtrack to a complete assignment. It performs no I/O;
// gridLines and dictionary are already-read text.
func Solve(ctx context.Context, gridLines []string, dictionary []string, cfg Config) (*Result, error) {
	log := NewEventLog(cfg.EventSink)

	height, width, _, slots, err := ParseGrid(gridLines, cfg.HonorPrefilled)
	if err != nil {
		return nil, err
	}

	idx := BuildWordIndex(dictionary)
	logWordIndexSummary(log, idx)

	log.Logf("Grid size: %dx%d", height, width)
	log.Logf("Number of slots: %d", len(slots))

	overlaps := BuildOverlapMap(slots)
	totalConstraints := 0
	for _, s := range slots {
		totalConstraints += len(overlaps[s])
	}
	log.Logf("Total constraints: %d", totalConstraints)

	domains := NewDomains(gridLines, slots, idx, cfg.HonorPrefilled, log)

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	log.Logf("Starting backtracking search with MRV, Degree, and LCV heuristics...")

	start := time.Now()
	assignment, searchErr := backtrack(ctx, slots, Assignment{}, domains, overlaps, rng, log, start)
	elapsed := time.Since(start)

	switch {
	case searchErr == nil:
		log.Logf("Solution found in %.2f seconds!", elapsed.Seconds())
	case errors.Is(searchErr, ErrTimeout):
		log.Logf("Search timed out after %.2f seconds.", elapsed.Seconds())
	default:
		log.Logf("No solution found after %.2f seconds.", elapsed.Seconds())
	}

	return &Result{
		Height:     height,
		Width:      width,
		Lines:      gridLines,
		Slots:      slots,
		Assignment: assignment,
		Log:        log,
		Elapsed:    elapsed,
	}, searchErr
}

func logWordIndexSummary(log *EventLog, idx *WordIndex) {
	total := 0
	lengths := idx.Lengths()
	for _, l := range lengths {
		total += idx.Count(l)
	}
	log.Logf("Loaded %d words grouped by length", total)
	for _, l := range lengths {
		log.Logf("  Length %d: %d words", l, idx.Count(l))
	}
}

// Render returns gridLines with every slot's cells replaced by the
// assigned word's letters; cells not covered by any slot keep their
// original code (SPEC_FULL.md §6).
func Render(gridLines []string, assignment Assignment) []string {
	cells := make([][]byte, len(gridLines))
	for i, line := range gridLines {
		cells[i] = []byte(line)
	}

	for slot, word := range assignment {
		row, col := slot.Row, slot.Col
		for i := 0; i < slot.Length; i++ {
			r, c := row, col
			if slot.Direction == Horizontal {
				c += i
			} else {
				r += i
			}
			if r < len(cells) && c < len(cells[r]) {
				cells[r][c] = word[i]
			}
		}
	}

	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = string(c)
	}
	return out
}
