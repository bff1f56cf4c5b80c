// Package layout positions directed acyclic graphs on a plane. It is a small
// Sugiyama-style engine: nodes are assigned to ranks by longest path from the
// sources, ordered within each rank by the barycenter of their neighbors, and
// spaced with fixed gaps. Nothing here knows about traces; it works on plain
// node boxes and edges.
package layout

import "sort"

// Direction selects the axis along which ranks advance.
type Direction string

const (
	DirectionHorizontal Direction = "horizontal"
	DirectionVertical   Direction = "vertical"
)

const (
	rankGap    = 80.0 // distance between consecutive ranks
	nodeGap    = 40.0 // distance between neighbors within a rank
	fitPadding = 48.0
)

// Node is one box to place.
type Node struct {
	ID     string
	Width  float64
	Height float64
}

// Edge is a directed connection between two node ids.
type Edge struct {
	Source string
	Target string
}

// Point is a node's top-left position.
type Point struct {
	X float64
	Y float64
}

// Viewport describes the pan/zoom that frames the laid-out graph.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Assign computes a position for every node. Edges referencing unknown ids
// are ignored; an empty node list yields an empty map. The result is
// deterministic: ties keep the input order.
func Assign(nodes []Node, edges []Edge, dir Direction) map[string]Point {
	positions := make(map[string]Point, len(nodes))
	if len(nodes) == 0 {
		return positions
	}

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	// Incoming adjacency, keeping only edges between known nodes.
	incoming := make(map[string][]string)
	outgoing := make(map[string][]string)
	for _, e := range edges {
		if _, ok := index[e.Source]; !ok {
			continue
		}
		if _, ok := index[e.Target]; !ok {
			continue
		}
		incoming[e.Target] = append(incoming[e.Target], e.Source)
		outgoing[e.Source] = append(outgoing[e.Source], e.Target)
	}

	ranks := longestPathRanks(nodes, incoming)

	maxRank := 0
	for _, r := range ranks {
		if r > maxRank {
			maxRank = r
		}
	}
	byRank := make([][]string, maxRank+1)
	for _, n := range nodes {
		r := ranks[n.ID]
		byRank[r] = append(byRank[r], n.ID)
	}

	orderWithinRanks(byRank, incoming, outgoing, index)

	// Cross-axis extent of a node (perpendicular to rank progression) and
	// main-axis extent (along it).
	cross := func(n Node) float64 {
		if dir == DirectionVertical {
			return n.Width
		}
		return n.Height
	}
	main := func(n Node) float64 {
		if dir == DirectionVertical {
			return n.Height
		}
		return n.Width
	}

	// Ranks advance along the main axis; each rank is as thick as its
	// largest node.
	mainOffset := 0.0
	for _, ids := range byRank {
		thickest := 0.0
		total := 0.0
		for _, id := range ids {
			n := nodes[index[id]]
			if m := main(n); m > thickest {
				thickest = m
			}
			total += cross(n)
		}
		total += nodeGap * float64(len(ids)-1)

		// Center the rank on the cross axis.
		crossOffset := -total / 2
		for _, id := range ids {
			n := nodes[index[id]]
			if dir == DirectionVertical {
				positions[id] = Point{X: crossOffset, Y: mainOffset}
			} else {
				positions[id] = Point{X: mainOffset, Y: crossOffset}
			}
			crossOffset += cross(n) + nodeGap
		}

		mainOffset += thickest + rankGap
	}

	return positions
}

// longestPathRanks puts every source at rank 0 and every other node one past
// its furthest predecessor. A cycle guard treats back-edges as absent so
// malformed input cannot hang the layout.
func longestPathRanks(nodes []Node, incoming map[string][]string) map[string]int {
	ranks := make(map[string]int, len(nodes))
	state := make(map[string]int, len(nodes)) // 0 unseen, 1 visiting, 2 done

	var visit func(id string) int
	visit = func(id string) int {
		switch state[id] {
		case 2:
			return ranks[id]
		case 1:
			return 0 // back-edge, break the cycle
		}
		state[id] = 1
		r := 0
		for _, pred := range incoming[id] {
			if pr := visit(pred) + 1; pr > r {
				r = pr
			}
		}
		ranks[id] = r
		state[id] = 2
		return r
	}

	for _, n := range nodes {
		visit(n.ID)
	}
	return ranks
}

// orderWithinRanks reduces edge crossings with a few barycenter sweeps: each
// node moves toward the mean position of its neighbors in the adjacent rank.
// The initial order is the input order, and sorting is stable, so untied
// nodes never reshuffle arbitrarily.
func orderWithinRanks(byRank [][]string, incoming, outgoing map[string][]string, index map[string]int) {
	pos := make(map[string]int)
	rebuild := func() {
		for _, ids := range byRank {
			for i, id := range ids {
				pos[id] = i
			}
		}
	}
	rebuild()

	sweep := func(neighbors map[string][]string) {
		for r := range byRank {
			ids := byRank[r]
			bary := make(map[string]float64, len(ids))
			for _, id := range ids {
				ns := neighbors[id]
				if len(ns) == 0 {
					bary[id] = float64(pos[id])
					continue
				}
				sum := 0.0
				for _, n := range ns {
					sum += float64(pos[n])
				}
				bary[id] = sum / float64(len(ns))
			}
			sort.SliceStable(ids, func(i, j int) bool {
				if bary[ids[i]] != bary[ids[j]] {
					return bary[ids[i]] < bary[ids[j]]
				}
				return index[ids[i]] < index[ids[j]]
			})
			rebuild()
		}
	}

	for i := 0; i < 4; i++ {
		sweep(incoming)
		sweep(outgoing)
	}
}

// Fit returns the viewport centering the laid-out graph inside a view of the
// given size, zoomed out just enough (never in) to show everything plus
// padding. An empty graph yields the identity viewport.
func Fit(nodes []Node, positions map[string]Point, viewWidth, viewHeight float64) Viewport {
	if len(nodes) == 0 || viewWidth <= 0 || viewHeight <= 0 {
		return Viewport{Zoom: 1}
	}

	minX, minY := positions[nodes[0].ID].X, positions[nodes[0].ID].Y
	maxX, maxY := minX+nodes[0].Width, minY+nodes[0].Height
	for _, n := range nodes[1:] {
		p := positions[n.ID]
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X+n.Width > maxX {
			maxX = p.X + n.Width
		}
		if p.Y+n.Height > maxY {
			maxY = p.Y + n.Height
		}
	}

	graphW := maxX - minX + 2*fitPadding
	graphH := maxY - minY + 2*fitPadding

	zoom := 1.0
	if s := viewWidth / graphW; s < zoom {
		zoom = s
	}
	if s := viewHeight / graphH; s < zoom {
		zoom = s
	}

	centerX := minX + (maxX-minX)/2
	centerY := minY + (maxY-minY)/2
	return Viewport{
		X:    viewWidth/2 - centerX*zoom,
		Y:    viewHeight/2 - centerY*zoom,
		Zoom: zoom,
	}
}
