package services

// Colors for the prerequisite-graph depth-first search.
const (
	colorWhite = iota // unvisited
	colorGray         // on the current path
	colorBlack        // fully explored
)

// hasCycle reports whether the prerequisite relation contains a cycle.
// The adjacency map is course id -> direct prerequisite ids, rebuilt from
// the store per validation call, so the check is a pure function over
// primitive ids. The search runs from every unvisited node: an edge into a
// gray node means the current path loops back on itself.
func hasCycle(adjacency map[int64][]int64) bool {
	colors := make(map[int64]int, len(adjacency))

	var visit func(id int64) bool
	visit = func(id int64) bool {
		colors[id] = colorGray
		for _, prereq := range adjacency[id] {
			switch colors[prereq] {
			case colorGray:
				return true
			case colorWhite:
				if visit(prereq) {
					return true
				}
			}
		}
		colors[id] = colorBlack
		return false
	}

	for id := range adjacency {
		if colors[id] == colorWhite && visit(id) {
			return true
		}
	}

	return false
}
