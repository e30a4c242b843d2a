package csp

// Domains maps each slot to its current ordered sequence of candidate
// words (the Domain Store, SPEC_FULL.md §4.4). A Domains value is never
// mutated in place during search: reductions produce a new map via
// WithReplacements so that a parent frame's view is unaffected by a child
// frame's forward checking.
type Domains map[Slot][]string

// NewDomains builds the initial domain for every slot from the word index,
// copying each bucket so later reductions never touch the index's own
// slices. A slot whose length has no dictionary entries gets an empty
// domain and a warning event.
func NewDomains(lines []string, slots []Slot, idx *WordIndex, honorPrefilled bool, log *EventLog) Domains {
	d := make(Domains, len(slots))
	for _, s := range slots {
		words := idx.Words(s.Length)
		if len(words) == 0 {
			log.Logf("Warning: No words of length %d in the dictionary", s.Length)
			d[s] = nil
			continue
		}
		cp := make([]string, len(words))
		copy(cp, words)
		if honorPrefilled {
			cp = seedPrefilled(lines, s, cp)
		}
		d[s] = cp
	}
	return d
}

// seedPrefilled filters a freshly-built domain down to words agreeing with
// pre-filled letters inside the slot, used only when Config.HonorPrefilled
// resolves the open question in that direction (SPEC_FULL.md §4.1).
func seedPrefilled(lines []string, slot Slot, words []string) []string {
	var filtered []string
	for _, w := range words {
		ok := true
		for i := 0; i < slot.Length; i++ {
			row, col := slot.Row, slot.Col
			if slot.Direction == Horizontal {
				col += i
			} else {
				row += i
			}
			c := cellAt(lines, row, col)
			if c != '?' && c != w[i] {
				ok = false
				break
			}
		}
		if ok {
			filtered = append(filtered, w)
		}
	}
	return filtered
}

// WithReplacements returns a new Domains whose entries agree with d except
// on the slots present in repl, which take their values from repl. d itself
// is left untouched.
func (d Domains) WithReplacements(repl map[Slot][]string) Domains {
	if len(repl) == 0 {
		return d
	}
	nd := make(Domains, len(d))
	for k, v := range d {
		nd[k] = v
	}
	for k, v := range repl {
		nd[k] = v
	}
	return nd
}
