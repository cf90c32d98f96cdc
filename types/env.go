package types

import (
	"encoding/binary"
	"strings"
)

// An Env is the side table that gives Lazy and Application nodes
// meaning: it maps DefIDs to declarations and expands generic
// applications on demand, interning each expansion so that
// expansion is idempotent.
type Env struct {
	graph *Graph
	defs  []defInfo

	// apps caches Application expansions keyed by (def, args).
	// Recursive applications find their own in-progress entry here,
	// mirroring how generic instances are cached before their bodies
	// are substituted.
	apps map[string]TypeID
}

type defInfo struct {
	name   string
	params []ParamID
	body   TypeID
}

// NewEnv returns an empty environment over g.
func NewEnv(g *Graph) *Env {
	return &Env{graph: g, apps: make(map[string]TypeID)}
}

// Graph returns the graph this environment resolves into.
func (e *Env) Graph() *Graph { return e.graph }

// Declare registers a non-generic declaration and returns its DefID.
// The body may be set later with Bind to build recursive types.
func (e *Env) Declare(name string) DefID {
	id := DefID(len(e.defs))
	e.defs = append(e.defs, defInfo{name: name, body: None})
	return id
}

// DeclareGeneric registers a generic declaration with its type
// parameters. The body may reference the parameters and is set
// with Bind.
func (e *Env) DeclareGeneric(name string, params []ParamID) DefID {
	id := DefID(len(e.defs))
	e.defs = append(e.defs, defInfo{name: name, params: params, body: None})
	return id
}

// Bind sets the materialized body of a declaration.
func (e *Env) Bind(def DefID, body TypeID) {
	e.defs[def].body = body
}

// DefName returns the declared name of def.
func (e *Env) DefName(def DefID) string { return e.defs[def].name }

// DefParams returns the type parameters of def (nil when non-generic).
func (e *Env) DefParams(def DefID) []ParamID { return e.defs[def].params }

// ResolveLazy returns the body behind a Lazy reference,
// or None if the declaration has not been bound yet.
// Callers resolve once per query and reuse the result so a
// cycle through the same Lazy node cannot re-trigger expansion
// mid-recursion.
func (e *Env) ResolveLazy(def DefID) TypeID {
	return e.defs[def].body
}

// ExpandApplication instantiates a generic application Base<Args...>.
// Base must resolve (possibly through Lazy) to a generic declaration;
// anything else expands to the base itself. Expansions are cached and
// interned, so expanding the same application twice is free and yields
// the same TypeID.
func (e *Env) ExpandApplication(base TypeID, args []TypeID) TypeID {
	def, ok := e.genericDef(base)
	if !ok {
		return base
	}
	info := &e.defs[def]
	if info.body == None {
		return Error // unresolved declaration; reported upstream
	}

	var b strings.Builder
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(def))
	b.Write(buf[:])
	for _, a := range args {
		binary.LittleEndian.PutUint32(buf[:], uint32(a))
		b.Write(buf[:])
	}
	key := b.String()
	if id, ok := e.apps[key]; ok {
		return id
	}

	// Cache the application node itself before substituting the body,
	// so a recursive reference to the same instantiation resolves to
	// the in-progress node instead of recursing forever.
	appID := e.graph.NewApplication(base, args...)
	e.apps[key] = appID

	sub := SubstitutionFromArgs(e.graph, info.params, args)
	expanded := Instantiate(e.graph, info.body, sub)
	e.apps[key] = expanded
	return expanded
}

func (e *Env) genericDef(base TypeID) (DefID, bool) {
	switch d := e.graph.Data(base).(type) {
	case Lazy:
		if len(e.defs[d.Def].params) > 0 {
			return d.Def, true
		}
	}
	return 0, false
}
