package types

// A GuardResult reports whether a recursive step may proceed.
type GuardResult int

const (
	// Entered means the key was pushed; the caller must Leave it.
	Entered GuardResult = iota
	// Cycle means this key is already on the stack.
	Cycle
	// DepthExceeded means the stack is at the profile's depth limit.
	DepthExceeded
	// IterationExceeded means the profile's total-work budget is spent.
	IterationExceeded
)

func (r GuardResult) String() string {
	switch r {
	case Entered:
		return "entered"
	case Cycle:
		return "cycle"
	case DepthExceeded:
		return "depth exceeded"
	case IterationExceeded:
		return "iteration exceeded"
	}
	return "unknown"
}

// A Profile names the depth and iteration budget for one family of
// recursive computations. Budgets live here, not at call sites, so a
// guard's intent is visible where it is constructed and the limits
// can be tuned in one place.
type Profile struct {
	Name          string
	MaxDepth      int
	MaxIterations int
}

// Guard profiles. Subtype checking gets the deepest budget: structural
// comparison of recursive types legitimately nests far before a cycle
// appears. Call resolution is kept shallow to cut off runaway overload
// recursion early.
var (
	SubtypeProfile     = Profile{Name: "subtype", MaxDepth: 100, MaxIterations: 100000}
	ExpandProfile      = Profile{Name: "expand", MaxDepth: 50, MaxIterations: 100000}
	InstantiateProfile = Profile{Name: "instantiate", MaxDepth: 50, MaxIterations: 100000}
	CallProfile        = Profile{Name: "call", MaxDepth: 20, MaxIterations: 100000}
)

// A Guard is a keyed recursion guard combining cycle detection,
// depth limiting, and iteration bounding. Every recursive relation
// wraps its recursive step in one, and treats any non-Entered result
// as "assume compatible" or "stop searching" rather than an error:
// a missed diagnostic beats nontermination.
//
// A Guard belongs to the single query that created it. It is never
// shared across goroutines or stashed in global state, so parallel
// per-file checking stays safe.
type Guard[K comparable] struct {
	profile    Profile
	visiting   map[K]bool
	depth      int
	iterations int
}

// NewGuard returns an empty guard with the given profile.
func NewGuard[K comparable](p Profile) *Guard[K] {
	return &Guard[K]{profile: p, visiting: make(map[K]bool)}
}

// Enter attempts to push key. On Entered the caller must call Leave
// with the same key; on any other result it must not.
func (gd *Guard[K]) Enter(key K) GuardResult {
	gd.iterations++
	if gd.iterations > gd.profile.MaxIterations {
		return IterationExceeded
	}
	if gd.visiting[key] {
		return Cycle
	}
	if gd.depth >= gd.profile.MaxDepth {
		return DepthExceeded
	}
	gd.visiting[key] = true
	gd.depth++
	return Entered
}

// Leave pops key.
func (gd *Guard[K]) Leave(key K) {
	if !gd.visiting[key] {
		panic("leave of key that was never entered: guard misuse")
	}
	delete(gd.visiting, key)
	gd.depth--
}

// Depth reports the current stack depth.
func (gd *Guard[K]) Depth() int { return gd.depth }
