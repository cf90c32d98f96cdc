package types

import (
	"fmt"
	"io"
	"os"
	"reflect"
)

// A Config parameterizes a Checker.
type Config struct {
	// Trace enables indented tracing of every relation step.
	Trace bool

	// TraceWriter receives trace output; os.Stderr if nil.
	TraceWriter io.Writer

	// BivariantCallbacks forces bivariant parameter comparison on
	// every function comparison, not just method-position signatures.
	// The triggering condition is compatibility policy, not a type-law;
	// hosts that want stricter checking leave it off.
	BivariantCallbacks bool

	// SoundFreshness keeps the excess-property freshness marker on
	// object types returned from calls instead of widening it away
	// at the call boundary.
	SoundFreshness bool

	// SubtypeProfile and CallProfile override the default recursion
	// budgets when non-zero.
	SubtypeProfile Profile
	CallProfile    Profile
}

// A Checker answers relation and call-resolution queries over one
// Graph and Env. It holds no mutable query state itself: each
// top-level query builds a fresh *state, so results are a pure
// function of the inputs and checkers are safe to reuse.
type Checker struct {
	graph *Graph
	env   *Env
	cfg   Config
}

// NewChecker returns a Checker over g and env.
// env may be nil when no Lazy or Application nodes will be queried.
func NewChecker(g *Graph, env *Env, cfg Config) *Checker {
	if env == nil {
		env = NewEnv(g)
	}
	setConfigDefaults(&cfg)
	return &Checker{graph: g, env: env, cfg: cfg}
}

func setConfigDefaults(cfg *Config) {
	if cfg.TraceWriter == nil {
		cfg.TraceWriter = os.Stderr
	}
	if cfg.SubtypeProfile == (Profile{}) {
		cfg.SubtypeProfile = SubtypeProfile
	}
	if cfg.CallProfile == (Profile{}) {
		cfg.CallProfile = CallProfile
	}
}

// Graph returns the checker's graph.
func (c *Checker) Graph() *Graph { return c.graph }

// Env returns the checker's environment.
func (c *Checker) Env() *Env { return c.env }

// relKey keys the subtype and overlap guards by the pair under
// comparison plus the variance mode, so a bivariant re-check of a
// pair does not collide with the contravariant one.
type relKey struct {
	a, b    TypeID
	variant uint8
}

// state is the per-query working set threaded through every
// recursive relation as x. It never escapes the query that made it.
type state struct {
	*Checker
	relGuard    *Guard[relKey]
	expandGuard *Guard[TypeID]
	callGuard   *Guard[TypeID]

	// lazySeen memoizes Lazy resolution within one query so a cycle
	// through the same declaration cannot re-trigger expansion
	// mid-recursion.
	lazySeen map[DefID]TypeID

	indent string
}

func (c *Checker) newState() *state {
	return &state{
		Checker:     c,
		relGuard:    NewGuard[relKey](c.cfg.SubtypeProfile),
		expandGuard: NewGuard[TypeID](ExpandProfile),
		callGuard:   NewGuard[TypeID](c.cfg.CallProfile),
		lazySeen:    make(map[DefID]TypeID),
	}
}

// tr logs entry into a traced region and returns a function that
// closes it, logging the result it is handed. The argument, if any,
// must be a pointer to the named result so the deferred call sees
// its final value.
func (x *state) tr(f string, vs ...interface{}) func(...interface{}) {
	if !x.cfg.Trace {
		return func(...interface{}) {}
	}
	x.log(f, vs...)
	olddent := x.indent
	x.indent += "---"
	return func(res ...interface{}) {
		defer func() { x.indent = olddent }()
		if len(res) == 0 {
			return
		}
		v := reflect.ValueOf(res[0])
		for v.Kind() == reflect.Ptr {
			v = v.Elem()
		}
		x.log("=%v", v.Interface())
	}
}

func (x *state) log(f string, vs ...interface{}) {
	if !x.cfg.Trace {
		return
	}
	fmt.Fprint(x.cfg.TraceWriter, x.indent)
	fmt.Fprintf(x.cfg.TraceWriter, f, vs...)
	fmt.Fprintln(x.cfg.TraceWriter)
}

// resolve follows Lazy references and expands Application nodes,
// through the expansion guard, until a structural type remains.
// Guard exhaustion leaves the node as-is; relations then fall
// through to their conservative defaults.
func (x *state) resolve(id TypeID) TypeID {
	for i := 0; i < 64; i++ {
		switch d := x.graph.Data(id).(type) {
		case Lazy:
			if seen, ok := x.lazySeen[d.Def]; ok {
				if seen == id {
					return id // unresolved or self-referential
				}
				id = seen
				continue
			}
			body := x.env.ResolveLazy(d.Def)
			if body == None || body == id {
				x.lazySeen[d.Def] = id
				return id
			}
			x.lazySeen[d.Def] = body
			id = body
		case Application:
			if x.expandGuard.Enter(id) != Entered {
				return id
			}
			expanded := x.env.ExpandApplication(d.Base, x.graph.TypeList(d.Args))
			x.expandGuard.Leave(id)
			if expanded == id {
				return id
			}
			id = expanded
		default:
			return id
		}
	}
	return id
}
