package types

// callGeneric resolves a call against a generic signature: infer type
// arguments in two rounds, check them against their constraints, then
// check the instantiated signature like any other.
func callGeneric(x *state, call Call, shape *FuncShape) CallResult {
	minA, maxA := argCountBounds(shape.Params)
	n := len(call.Args)
	if n < minA || (maxA >= 0 && n > maxA) {
		return ArgumentCountMismatch{Min: minA, Max: maxA, N: n}
	}

	inf := newInference(x, shape.TypeParams)

	// Round 1: arguments whose types stand on their own. Sensitive
	// arguments contribute only their context-free parts, if any.
	for i, a := range call.Args {
		want, ok := callParamAt(x, shape.Params, i)
		if !ok {
			break
		}
		t := a.Type
		if a.Sensitive {
			t = a.Partial
		}
		if t != None {
			inf.unify(want, t)
		}
	}
	// The expected return type fills parameters the arguments left
	// open. Exact: a contextual literal type should survive.
	if call.Expected != None {
		inf.unifyExact(shape.Return, call.Expected)
	}

	sub := inf.solve()

	// Round 2: sensitive arguments see their contextual parameter
	// types and feed back what they produce; a callback's return is
	// often the only mention of a parameter.
	again := false
	for i, a := range call.Args {
		if !a.Sensitive {
			continue
		}
		want, ok := callParamAt(x, shape.Params, i)
		if !ok {
			continue
		}
		ctx := Instantiate(x.graph, want, sub)
		if t := argType(a, ctx); t != None {
			inf.unify(want, t)
			again = true
		}
	}
	if again {
		sub = inf.solve()
	}

	inst := instantiateShape(x, shape, sub)

	for _, p := range shape.TypeParams {
		info := x.graph.TypeParamInfo(p)
		if info.Constraint == None {
			continue
		}
		con := Instantiate(x.graph, info.Constraint, sub)
		if !isAssignable(x, sub[p], con, false) {
			return TypeParameterConstraintViolation{
				Inferred:   sub[p],
				Constraint: con,
				Return:     inst.Return,
			}
		}
	}

	return callShape(x, call, inst)
}

func instantiateShape(x *state, shape *FuncShape, sub Substitution) *FuncShape {
	in := instantiator{g: x.graph, sub: sub, guard: NewGuard[TypeID](InstantiateProfile)}
	s, _ := in.funcShape(x.graph.internFuncShape(*shape))
	s.TypeParams = nil
	return &s
}

// inference accumulates candidate bindings for a signature's type
// parameters by structurally matching parameter patterns against
// argument types.
type inference struct {
	x        *state
	order    []ParamID
	inScope  map[ParamID]bool
	cands    map[ParamID][]TypeID
	seen     map[[2]TypeID]bool
	mentions map[TypeID]bool
}

func newInference(x *state, params []ParamID) *inference {
	inf := &inference{
		x:        x,
		order:    params,
		inScope:  make(map[ParamID]bool, len(params)),
		cands:    make(map[ParamID][]TypeID),
		seen:     make(map[[2]TypeID]bool),
		mentions: make(map[TypeID]bool),
	}
	for _, p := range params {
		inf.inScope[p] = true
	}
	return inf
}

// unify matches actual against pattern, widening literal candidates:
// f(0) should infer number, not 0.
func (inf *inference) unify(pattern, actual TypeID) {
	inf.unify1(pattern, actual, true)
}

// unifyExact matches without widening, for contextual types that are
// deliberately narrow.
func (inf *inference) unifyExact(pattern, actual TypeID) {
	inf.unify1(pattern, actual, false)
}

func (inf *inference) unify1(pattern, actual TypeID, widen bool) {
	if pattern == None || actual == None {
		return
	}
	k := [2]TypeID{pattern, actual}
	if inf.seen[k] {
		return
	}
	inf.seen[k] = true
	defer delete(inf.seen, k)

	x := inf.x
	switch p := x.graph.Data(pattern).(type) {
	case TypeParam:
		if inf.inScope[p.Param] {
			inf.add(p.Param, actual, widen)
		}
		return
	case Union:
		inf.unifyUnion(p, actual, widen)
		return
	case Intersection:
		for _, m := range x.graph.TypeList(p.Members) {
			inf.unify1(m, actual, widen)
		}
		return
	case Application:
		// Same applied base: match argument lists positionally
		// without expanding either side.
		if a, ok := x.graph.Data(actual).(Application); ok && p.Base == a.Base {
			pargs := x.graph.TypeList(p.Args)
			aargs := x.graph.TypeList(a.Args)
			for i, pt := range pargs {
				if i < len(aargs) {
					inf.unify1(pt, aargs[i], widen)
				}
			}
			return
		}
		inf.unify1(x.resolve(pattern), x.resolve(actual), widen)
		return
	case Lazy:
		inf.unify1(x.resolve(pattern), x.resolve(actual), widen)
		return
	}

	if !inf.mentionsParams(pattern) {
		return
	}

	actual = x.resolve(actual)
	ad := x.graph.Data(actual)

	switch p := x.graph.Data(pattern).(type) {
	case Array:
		switch a := ad.(type) {
		case Array:
			inf.unify1(p.Elem, a.Elem, widen)
		case Tuple:
			inf.unify1(p.Elem, tupleElemUnion(x, x.graph.TupleList(a.Elems)), widen)
		}
	case Tuple:
		a, ok := ad.(Tuple)
		if !ok {
			return
		}
		pe := x.graph.TupleList(p.Elems)
		ae := x.graph.TupleList(a.Elems)
		n := len(pe)
		if len(ae) > n {
			n = len(ae)
		}
		for i := 0; i < n; i++ {
			pt, pok := tupleElemAt(x, pe, i)
			at, aok := tupleElemAt(x, ae, i)
			if !pok || !aok {
				break
			}
			inf.unify1(pt, at, widen)
		}
	case Object:
		as, ok := objectShapeOf(x, ad)
		if !ok {
			return
		}
		ps := x.graph.ObjectShape(p.Shape)
		for _, pp := range ps.Props {
			if ap, found := findProp(as, pp.Name); found {
				inf.unify1(pp.Type, ap.Type, widen)
			}
		}
		if ps.StringIndex != None && as.StringIndex != None {
			inf.unify1(ps.StringIndex, as.StringIndex, widen)
		}
		if ps.NumberIndex != None && as.NumberIndex != None {
			inf.unify1(ps.NumberIndex, as.NumberIndex, widen)
		}
	case Function:
		a, ok := ad.(Function)
		if !ok {
			return
		}
		pshape := x.graph.FuncShape(p.Shape)
		ashape := x.graph.FuncShape(a.Shape)
		n := len(pshape.Params)
		if len(ashape.Params) > n {
			n = len(ashape.Params)
		}
		for i := 0; i < n; i++ {
			pt, pok := paramAt(pshape.Params, i)
			at, aok := paramAt(ashape.Params, i)
			if !pok || !aok {
				break
			}
			inf.unify1(pt, at, widen)
		}
		inf.unify1(pshape.Return, ashape.Return, widen)
	}
}

// unifyUnion matches against a union pattern: actual members already
// absorbed by the pattern's parameter-free members teach us nothing,
// and what remains binds the parameter-bearing members. T | undefined
// against string | undefined infers T = string.
func (inf *inference) unifyUnion(p Union, actual TypeID, widen bool) {
	x := inf.x
	var free, bound []TypeID
	for _, m := range x.graph.TypeList(p.Members) {
		if inf.mentionsParams(m) {
			bound = append(bound, m)
		} else {
			free = append(free, m)
		}
	}
	if len(bound) == 0 {
		return
	}

	absorbed := func(t TypeID) bool {
		for _, f := range free {
			if isAssignable(x, t, f, false) {
				return true
			}
		}
		return false
	}

	var rest []TypeID
	if u, ok := x.graph.Data(x.resolve(actual)).(Union); ok {
		for _, m := range x.graph.TypeList(u.Members) {
			if !absorbed(m) {
				rest = append(rest, m)
			}
		}
	} else if !absorbed(actual) {
		rest = append(rest, actual)
	}
	if len(rest) == 0 {
		return
	}

	remainder := x.graph.NewUnion(rest...)
	for _, m := range bound {
		inf.unify1(m, remainder, widen)
	}
}

func (inf *inference) add(p ParamID, t TypeID, widen bool) {
	if widen {
		t = inf.x.graph.WithoutFreshness(inf.x.graph.WidenLiteral(t))
	}
	for _, c := range inf.cands[p] {
		if c == t {
			return
		}
	}
	inf.cands[p] = append(inf.cands[p], t)
}

// mentionsParams reports whether any in-scope type parameter occurs
// in t. Parameter-free patterns cannot teach inference anything, so
// the walk prunes them early.
func (inf *inference) mentionsParams(t TypeID) bool {
	if t == None {
		return false
	}
	if v, ok := inf.mentions[t]; ok {
		return v
	}
	inf.mentions[t] = false // cycles do not add mentions
	v := inf.mentionsParamsData(t)
	inf.mentions[t] = v
	return v
}

func (inf *inference) mentionsParamsData(t TypeID) bool {
	g := inf.x.graph
	switch d := g.Data(t).(type) {
	case TypeParam:
		return inf.inScope[d.Param]
	case Union:
		return inf.anyMentions(g.TypeList(d.Members))
	case Intersection:
		return inf.anyMentions(g.TypeList(d.Members))
	case Object:
		s := g.ObjectShape(d.Shape)
		for _, p := range s.Props {
			if inf.mentionsParams(p.Type) {
				return true
			}
		}
		return inf.mentionsParams(s.StringIndex) || inf.mentionsParams(s.NumberIndex)
	case Function:
		return inf.funcMentions(d.Shape)
	case Callable:
		s := g.CallableShape(d.Shape)
		for _, c := range s.Calls {
			if inf.funcMentions(c) {
				return true
			}
		}
		for _, c := range s.Constructs {
			if inf.funcMentions(c) {
				return true
			}
		}
		return false
	case Tuple:
		for _, e := range g.TupleList(d.Elems) {
			if inf.mentionsParams(e.Type) {
				return true
			}
		}
		return false
	case Array:
		return inf.mentionsParams(d.Elem)
	case Application:
		return inf.mentionsParams(d.Base) || inf.anyMentions(g.TypeList(d.Args))
	case Template:
		for _, s := range g.TemplateList(d.Spans) {
			if s.Type != None && inf.mentionsParams(s.Type) {
				return true
			}
		}
		return false
	}
	return false
}

func (inf *inference) anyMentions(ts []TypeID) bool {
	for _, t := range ts {
		if inf.mentionsParams(t) {
			return true
		}
	}
	return false
}

func (inf *inference) funcMentions(id FuncShapeID) bool {
	s := inf.x.graph.FuncShape(id)
	for _, p := range s.Params {
		if inf.mentionsParams(p.Type) {
			return true
		}
	}
	return inf.mentionsParams(s.Return) || inf.mentionsParams(s.This)
}

// solve fixes a binding for every parameter from the candidates seen
// so far: a single candidate stands, several join as a union, and an
// unbound parameter falls back to its constraint, then its default,
// then Unknown.
func (inf *inference) solve() Substitution {
	g := inf.x.graph
	sub := make(Substitution, len(inf.order))
	for _, p := range inf.order {
		cands := inf.cands[p]
		info := g.TypeParamInfo(p)
		switch {
		case len(cands) == 1:
			sub[p] = cands[0]
		case len(cands) > 1:
			sub[p] = g.NewUnion(cands...)
		case info.Constraint != None:
			sub[p] = Instantiate(g, info.Constraint, sub)
		case info.Default != None:
			sub[p] = Instantiate(g, info.Default, sub)
		default:
			sub[p] = Unknown
		}
	}
	return sub
}
