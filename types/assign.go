package types

// AssignableTo reports whether a value of type src is usable where
// dst is expected. The relation is asymmetric and never fails: faced
// with unresolved, cyclic, or partially-erroneous input it degrades
// to true, preferring a missed diagnostic over a false one.
func (c *Checker) AssignableTo(src, dst TypeID) bool {
	x := c.newState()
	defer x.tr("AssignableTo(%s, %s)", c.graph.String(src), c.graph.String(dst))()
	return isAssignable(x, src, dst, false)
}

// AssignableToBivariant is AssignableTo with bivariant function
// parameter comparison, the leniency applied to method-position and
// callback signatures.
func (c *Checker) AssignableToBivariant(src, dst TypeID) bool {
	x := c.newState()
	defer x.tr("AssignableToBivariant(%s, %s)", c.graph.String(src), c.graph.String(dst))()
	return isAssignable(x, src, dst, true)
}

func isAssignable(x *state, src, dst TypeID, bivariant bool) (res bool) {
	defer x.tr("isAssignable(%s, %s)", x.graph.String(src), x.graph.String(dst))(&res)

	// Identity and absorption. Any and Error suppress all further
	// checking in either position so one broken type cannot cascade.
	if src == dst {
		return true
	}
	if src == Any || src == Error || dst == Any || dst == Error {
		return true
	}
	if src == Never {
		return true
	}
	if dst == Unknown {
		return true
	}
	if dst == Never {
		// Only never (handled by identity) is assignable to never,
		// but distribute unions first: a union of nevers is never.
		if u, ok := x.graph.Data(src).(Union); ok {
			for _, m := range x.graph.TypeList(u.Members) {
				if !isAssignable(x, m, dst, bivariant) {
					return false
				}
			}
			return true
		}
		return false
	}

	mode := uint8(0)
	if bivariant {
		mode = 1
	}
	key := relKey{a: src, b: dst, variant: mode}
	switch x.relGuard.Enter(key) {
	case Entered:
		defer x.relGuard.Leave(key)
	default:
		// Cycle or budget exhaustion: assume compatible.
		return true
	}

	src = x.resolve(src)
	dst = x.resolve(dst)
	if src == dst {
		return true
	}

	sd := x.graph.Data(src)
	dd := x.graph.Data(dst)

	// A type parameter stands for anything within its constraint:
	// usable as src through the constraint, never inferable as dst.
	if tp, ok := sd.(TypeParam); ok {
		info := x.graph.TypeParamInfo(tp.Param)
		if info.Constraint != None {
			return isAssignable(x, info.Constraint, dst, bivariant)
		}
		return false
	}
	if _, ok := dd.(TypeParam); ok {
		return false
	}

	// Distribute over unions: source side first.
	if u, ok := sd.(Union); ok {
		for _, m := range x.graph.TypeList(u.Members) {
			if !isAssignable(x, m, dst, bivariant) {
				return false
			}
		}
		return true
	}
	if u, ok := dd.(Union); ok {
		for _, m := range x.graph.TypeList(u.Members) {
			if isAssignable(x, src, m, bivariant) {
				return true
			}
		}
		return false
	}
	if i, ok := sd.(Intersection); ok {
		for _, m := range x.graph.TypeList(i.Members) {
			if isAssignable(x, m, dst, bivariant) {
				return true
			}
		}
		return false
	}
	if i, ok := dd.(Intersection); ok {
		for _, m := range x.graph.TypeList(i.Members) {
			if !isAssignable(x, src, m, bivariant) {
				return false
			}
		}
		return true
	}

	switch d := dd.(type) {
	case Intrinsic:
		return assignableToIntrinsic(x, sd, d)
	case Literal:
		// Literals widen, never narrow: only the identical literal
		// (handled above) is assignable.
		return false
	case Template:
		return assignableToTemplate(x, sd, d)
	case Object:
		return assignableToObject(x, sd, d, bivariant)
	case Function:
		return assignableToFunc(x, sd, x.graph.FuncShape(d.Shape), bivariant)
	case Callable:
		shape := x.graph.CallableShape(d.Shape)
		for _, c := range shape.Calls {
			if !assignableToFunc(x, sd, x.graph.FuncShape(c), bivariant) {
				return false
			}
		}
		for _, c := range shape.Constructs {
			if !assignableToConstruct(x, sd, x.graph.FuncShape(c), bivariant) {
				return false
			}
		}
		return true
	case Tuple:
		return assignableToTuple(x, sd, x.graph.TupleList(d.Elems), bivariant)
	case Array:
		return assignableToArray(x, sd, d.Elem, bivariant)
	case Application, Lazy:
		// Unresolvable through the environment; assume compatible.
		return true
	}
	return false
}

func assignableToIntrinsic(x *state, sd TypeData, d Intrinsic) bool {
	switch s := sd.(type) {
	case Literal:
		return s.Kind == d.Kind
	case Intrinsic:
		// undefined is usable where void is expected.
		if s.Kind == KindUndefined && d.Kind == KindVoid {
			return true
		}
		// Everything non-primitive-void-ish is an object.
		return d.Kind == KindObject && s.Kind == KindObject
	case Template:
		return d.Kind == KindString
	case Object, Function, Callable, Tuple, Array:
		return d.Kind == KindObject
	}
	return false
}

func assignableToTemplate(x *state, sd TypeData, d Template) bool {
	if s, ok := sd.(Literal); ok && s.Kind == KindString {
		return templateMatch(x.graph.TemplateList(d.Spans), s.Str)
	}
	return false
}

// templateMatch reports whether text can be produced by the span
// sequence, treating type holes as wildcards.
func templateMatch(spans []TemplateSpan, text string) bool {
	if len(spans) == 0 {
		return text == ""
	}
	s := spans[0]
	if s.Type == None {
		if len(text) < len(s.Text) || text[:len(s.Text)] != s.Text {
			return false
		}
		return templateMatch(spans[1:], text[len(s.Text):])
	}
	// A hole can consume any number of characters, including none.
	for i := 0; i <= len(text); i++ {
		if templateMatch(spans[1:], text[i:]) {
			return true
		}
	}
	return false
}

func assignableToObject(x *state, sd TypeData, d Object, bivariant bool) bool {
	dshape := x.graph.ObjectShape(d.Shape)

	sshape, srcIsObject := objectShapeOf(x, sd)
	if !srcIsObject {
		// Tuples and arrays satisfy a number index signature and
		// otherwise only match property-free targets.
		switch s := sd.(type) {
		case Tuple:
			return seqAssignableToObject(x, tupleElemUnion(x, x.graph.TupleList(s.Elems)), dshape, bivariant)
		case Array:
			return seqAssignableToObject(x, s.Elem, dshape, bivariant)
		case Intrinsic:
			// unknown is the top type: it flows to unknown and any only,
			// never into an object shape, however permissive.
			if s.Kind == KindUnknown || s.Kind == KindNull || s.Kind == KindUndefined || s.Kind == KindVoid {
				return false
			}
		case Function, Callable, Literal, Template:
			// Fall through to the empty-target check.
		default:
			return false
		}
		return !objectHasRequirements(dshape)
	}

	// A fresh object literal may not carry properties the target does
	// not know about. An index signature on the target knows them all.
	if sshape.Flags&FlagFresh != 0 && dshape.StringIndex == None && dshape.NumberIndex == None {
		for _, sp := range sshape.Props {
			if _, known := findProp(dshape, sp.Name); !known {
				return false
			}
		}
	}

	for _, dp := range dshape.Props {
		sp, found := findProp(sshape, dp.Name)
		if !found {
			if dp.Optional {
				continue
			}
			// Fall back to the source's index signature.
			if sshape.StringIndex != None {
				if !isAssignable(x, sshape.StringIndex, dp.Type, bivariant) {
					return false
				}
				continue
			}
			return false
		}
		if sp.Optional && !dp.Optional {
			return false
		}
		// A readonly target property accepts any source, readonly or
		// not; mutability never narrows the property relation here.
		if !isAssignable(x, sp.Type, dp.Type, bivariant) {
			return false
		}
	}

	if dshape.StringIndex != None {
		for _, sp := range sshape.Props {
			if !isAssignable(x, sp.Type, dshape.StringIndex, bivariant) {
				return false
			}
		}
		if sshape.StringIndex != None && !isAssignable(x, sshape.StringIndex, dshape.StringIndex, bivariant) {
			return false
		}
	}
	if dshape.NumberIndex != None {
		srcNum := sshape.NumberIndex
		if srcNum == None {
			srcNum = sshape.StringIndex
		}
		if srcNum != None && !isAssignable(x, srcNum, dshape.NumberIndex, bivariant) {
			return false
		}
	}
	return true
}

func objectShapeOf(x *state, d TypeData) (*ObjectShape, bool) {
	if o, ok := d.(Object); ok {
		return x.graph.ObjectShape(o.Shape), true
	}
	return nil, false
}

func objectHasRequirements(s *ObjectShape) bool {
	for _, p := range s.Props {
		if !p.Optional {
			return true
		}
	}
	return false
}

func findProp(s *ObjectShape, name string) (Prop, bool) {
	for _, p := range s.Props {
		if p.Name == name {
			return p, true
		}
	}
	return Prop{}, false
}

func tupleElemUnion(x *state, elems []TupleElem) TypeID {
	var members []TypeID
	for _, e := range elems {
		t := e.Type
		if e.Rest {
			if a, ok := x.graph.Data(t).(Array); ok {
				t = a.Elem
			}
		}
		members = append(members, t)
	}
	return x.graph.NewUnion(members...)
}

func seqAssignableToObject(x *state, elem TypeID, dshape *ObjectShape, bivariant bool) bool {
	if objectHasRequirements(dshape) {
		return false
	}
	if dshape.NumberIndex != None && !isAssignable(x, elem, dshape.NumberIndex, bivariant) {
		return false
	}
	if dshape.StringIndex != None && !isAssignable(x, elem, dshape.StringIndex, bivariant) {
		return false
	}
	return true
}

func assignableToFunc(x *state, sd TypeData, dshape *FuncShape, bivariant bool) bool {
	switch s := sd.(type) {
	case Function:
		return funcShapeAssignable(x, x.graph.FuncShape(s.Shape), dshape, bivariant)
	case Callable:
		shape := x.graph.CallableShape(s.Shape)
		for _, c := range shape.Calls {
			if funcShapeAssignable(x, x.graph.FuncShape(c), dshape, bivariant) {
				return true
			}
		}
	}
	return false
}

func assignableToConstruct(x *state, sd TypeData, dshape *FuncShape, bivariant bool) bool {
	if s, ok := sd.(Callable); ok {
		shape := x.graph.CallableShape(s.Shape)
		for _, c := range shape.Constructs {
			if funcShapeAssignable(x, x.graph.FuncShape(c), dshape, bivariant) {
				return true
			}
		}
	}
	return false
}

func funcShapeAssignable(x *state, sshape, dshape *FuncShape, bivariant bool) bool {
	// Generic signatures compare after erasing their parameters to
	// constraints (Unknown when unconstrained), the same fallback an
	// argument-free instantiation would use.
	sErased := eraseTypeParams(x, sshape)
	dErased := eraseTypeParams(x, dshape)

	// The source may not demand more arguments than the target can
	// supply. Extra target parameters are always fine; the source
	// simply ignores them.
	srcRequired := 0
	for _, p := range sErased.Params {
		if !p.Optional && !p.Rest {
			srcRequired++
		}
	}
	dstMax, dstUnbounded := len(dErased.Params), false
	if n := len(dErased.Params); n > 0 && dErased.Params[n-1].Rest {
		dstUnbounded = true
	}
	if !dstUnbounded && srcRequired > dstMax {
		return false
	}

	bivar := bivariant || x.cfg.BivariantCallbacks || dshape.Method

	n := len(sErased.Params)
	if len(dErased.Params) > n {
		n = len(dErased.Params)
	}
	for i := 0; i < n; i++ {
		sp, sok := paramAt(sErased.Params, i)
		dp, dok := paramAt(dErased.Params, i)
		if !sok || !dok {
			break
		}
		// Contravariant by default: the target's parameter must be
		// usable where the source expects its own. Bivariant mode
		// additionally accepts the covariant direction.
		if isAssignable(x, dp, sp, bivar) {
			continue
		}
		if bivar && isAssignable(x, sp, dp, bivar) {
			continue
		}
		return false
	}

	if sErased.This != None && dErased.This != None {
		if !isAssignable(x, dErased.This, sErased.This, bivar) && !(bivar && isAssignable(x, sErased.This, dErased.This, bivar)) {
			return false
		}
	}

	// Return types are covariant; a void-returning target accepts
	// any source return.
	if dErased.Return == Void {
		return true
	}
	return isAssignable(x, sErased.Return, dErased.Return, bivariant)
}

func eraseTypeParams(x *state, shape *FuncShape) *FuncShape {
	if len(shape.TypeParams) == 0 {
		return shape
	}
	sub := SubstitutionFromArgs(x.graph, shape.TypeParams, nil)
	in := instantiator{g: x.graph, sub: sub, guard: NewGuard[TypeID](InstantiateProfile)}
	e, _ := in.funcShape(x.graph.internFuncShape(*shape))
	e.TypeParams = nil
	return &e
}

// paramAt returns the parameter type seen at argument index i,
// expanding a trailing rest parameter over all later indices.
func paramAt(params []Param, i int) (TypeID, bool) {
	if n := len(params); n > 0 && params[n-1].Rest {
		if i < n-1 {
			return params[i].Type, true
		}
		t := params[n-1].Type
		return t, true
	}
	if i < len(params) {
		return params[i].Type, true
	}
	return None, false
}

func assignableToTuple(x *state, sd TypeData, delems []TupleElem, bivariant bool) bool {
	s, ok := sd.(Tuple)
	if !ok {
		// Arrays have unknown length; they never satisfy a tuple.
		return false
	}
	selems := x.graph.TupleList(s.Elems)

	sMin, sMax := tupleLengthBounds(x, selems)
	dMin, dMax := tupleLengthBounds(x, delems)
	if sMin < dMin {
		return false
	}
	if dMax >= 0 && (sMax < 0 || sMax > dMax) {
		return false
	}

	n := len(selems)
	if len(delems) > n {
		n = len(delems)
	}
	for i := 0; i < n; i++ {
		st, sok := tupleElemAt(x, selems, i)
		dt, dok := tupleElemAt(x, delems, i)
		if !sok || !dok {
			break
		}
		if !isAssignable(x, st, dt, bivariant) {
			return false
		}
	}
	return true
}

func assignableToArray(x *state, sd TypeData, elem TypeID, bivariant bool) bool {
	switch s := sd.(type) {
	case Array:
		return isAssignable(x, s.Elem, elem, bivariant)
	case Tuple:
		for _, e := range x.graph.TupleList(s.Elems) {
			t := e.Type
			if e.Rest {
				if a, ok := x.graph.Data(t).(Array); ok {
					t = a.Elem
				}
			}
			if !isAssignable(x, t, elem, bivariant) {
				return false
			}
		}
		return true
	}
	return false
}

// tupleLengthBounds returns the inclusive length range of a tuple;
// max is -1 when a rest element makes it unbounded.
func tupleLengthBounds(x *state, elems []TupleElem) (min, max int) {
	for _, e := range elems {
		if e.Rest {
			return min, -1
		}
		max++
		if !e.Optional {
			min++
		}
	}
	return min, max
}

// tupleElemAt returns the element type seen at index i, expanding a
// trailing rest element over all later indices.
func tupleElemAt(x *state, elems []TupleElem, i int) (TypeID, bool) {
	if n := len(elems); n > 0 && elems[n-1].Rest {
		if i < n-1 {
			return elems[i].Type, true
		}
		t := elems[n-1].Type
		if a, ok := x.graph.Data(t).(Array); ok {
			return a.Elem, true
		}
		return t, true
	}
	if i < len(elems) {
		return elems[i].Type, true
	}
	return None, false
}
