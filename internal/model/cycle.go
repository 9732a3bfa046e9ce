package model

// CyclePath is the ordered member list of an admitted cycle. All members
// share the same CyclePath instance; each member pops itself off the tail
// as the wakeup chain progresses, so the list is consumed exactly once.
type CyclePath struct {
	members []*Component
}

// NewCyclePath starts a path with its first (deepest) member.
func NewCyclePath(first *Component) *CyclePath {
	return &CyclePath{members: []*Component{first}}
}

// Append adds a member to the tail of the path.
func (p *CyclePath) Append(c *Component) {
	p.members = append(p.members, c)
}

// Len returns the number of members remaining on the path.
func (p *CyclePath) Len() int { return len(p.members) }

// Members returns the remaining members, tail last. The caller must not
// mutate the returned slice.
func (p *CyclePath) Members() []*Component { return p.members }

// popAndBack removes the tail member and returns the new tail, or nil when
// the path is exhausted.
func (p *CyclePath) popAndBack() *Component {
	p.members = p.members[:len(p.members)-1]
	if len(p.members) == 0 {
		return nil
	}
	return p.members[len(p.members)-1]
}

// FindCycle searches the wait-for graph for a closed chain of pending
// moves ending at root's current device. Edges are the pending moves
// queued in each device's waiting list; children are explored in
// insertion order, so earlier waiters win ties and the chosen cycle is
// deterministic. Visited devices are memoized per search, bounding the
// cost at O(V+E) over the graph.
//
// On success every chain member's path field points at one shared
// CyclePath ordered deepest-first with root at the tail, and FindCycle
// returns true.
func FindCycle(root *Component) bool {
	return findCycleFrom(root, root, make(map[*Device]bool))
}

func findCycleFrom(root, current *Component, visited map[*Device]bool) bool {
	if current.Device() == root.Destination() {
		// The chain has closed: current resides on the device root is
		// trying to enter.
		current.SetPath(NewCyclePath(current))
		return true
	}

	device := current.Device()
	visited[device] = true

	for _, next := range device.Waiting() {
		if next.Device() == nil || visited[next.Device()] {
			continue
		}
		findCycleFrom(root, next, visited)
		if next.Path() != nil {
			next.Path().Append(current)
			current.SetPath(next.Path())
			return true
		}
	}
	return false
}
