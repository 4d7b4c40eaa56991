package autodj

// Track is one analyzed file.
type Track struct {
	Path  string     `json:"path"`
	Title string     `json:"title"`
	Key   Camelot    `json:"key"`
	Tonic PitchClass `json:"tonic"`
	Mode  Mode       `json:"mode"`
	Tempo float64    `json:"tempo"`
}

// HarmonicPath orders tracks so that consecutive tracks are key-compatible
// where a simple greedy walk allows it.
//
// The first track anchors the chain. Each step takes the first not-yet-placed
// track, in input order, that is compatible with the current anchor. When no
// remaining track is compatible the walk stops and the rest are appended in
// input order. There is no backtracking, so the result depends on input order
// and is not globally optimal.
//
// Placement is tracked with used flags over the input slice; each step scans
// every track, so the walk is O(n²), fine for playlist-sized inputs.
func HarmonicPath(tracks []Track) []Track {
	if len(tracks) == 0 {
		return []Track{}
	}

	ordered := make([]Track, 0, len(tracks))
	used := make([]bool, len(tracks))

	anchor := 0
	used[anchor] = true
	ordered = append(ordered, tracks[anchor])

	for len(ordered) < len(tracks) {
		next := -1
		for i := range tracks {
			if !used[i] && Compatible(tracks[anchor].Key, tracks[i].Key) {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		used[next] = true
		ordered = append(ordered, tracks[next])
		anchor = next
	}

	for i, t := range tracks {
		if !used[i] {
			ordered = append(ordered, t)
		}
	}
	return ordered
}
