package csp

// OverlapPos records, for one slot's view of a crossing, the index into its
// own word (Self) and the index into the other slot's word (Other) where
// the shared cell falls.
type OverlapPos struct {
	Self  int
	Other int
}

// OverlapMap holds, for each slot, the crossings with every other slot of
// the opposite direction (the Overlap Map, SPEC_FULL.md §4.3). A slot with
// no crossings maps to an empty inner map, never a missing key.
type OverlapMap map[Slot]map[Slot]OverlapPos

// BuildOverlapMap computes every intersection between a horizontal and a
// vertical slot in O(1) per pair from coordinates alone. Overlaps are
// symmetric by construction: both directions are recorded in the same pass.
func BuildOverlapMap(slots []Slot) OverlapMap {
	om := make(OverlapMap, len(slots))
	for _, s := range slots {
		om[s] = make(map[Slot]OverlapPos)
	}

	for _, h := range slots {
		if h.Direction != Horizontal {
			continue
		}
		for _, v := range slots {
			if v.Direction != Vertical {
				continue
			}
			if h.Col <= v.Col && v.Col < h.Col+h.Length && v.Row <= h.Row && h.Row < v.Row+v.Length {
				posInH := v.Col - h.Col
				posInV := h.Row - v.Row
				om[h][v] = OverlapPos{Self: posInH, Other: posInV}
				om[v][h] = OverlapPos{Self: posInV, Other: posInH}
			}
		}
	}

	return om
}
