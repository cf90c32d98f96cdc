package types

// Overlapping reports whether some runtime value could inhabit both
// a and b. It is symmetric and distinct from assignability: {a: string}
// and {b: number} overlap although neither is assignable to the other.
// For complex types it has not fully analyzed it answers true; it must
// never manufacture a false "no overlap" verdict.
func (c *Checker) Overlapping(a, b TypeID) bool {
	x := c.newState()
	defer x.tr("Overlapping(%s, %s)", c.graph.String(a), c.graph.String(b))()
	return isOverlapping(x, a, b)
}

func isOverlapping(x *state, a, b TypeID) (res bool) {
	defer x.tr("isOverlapping(%s, %s)", x.graph.String(a), x.graph.String(b))(&res)

	if a == b {
		return a != Never
	}
	if a == Any || a == Unknown || a == Error {
		return b != Never
	}
	if b == Any || b == Unknown || b == Error {
		return a != Never
	}
	if a == Never || b == Never {
		return false
	}

	key := relKey{a: a, b: b, variant: 2}
	switch x.relGuard.Enter(key) {
	case Entered:
		defer x.relGuard.Leave(key)
	default:
		return true
	}

	a = x.resolve(a)
	b = x.resolve(b)

	// Subtyping either way is sufficient (literal against its
	// primitive, narrower object against wider), never necessary.
	if isAssignable(x, a, b, false) || isAssignable(x, b, a, false) {
		return true
	}

	ad := x.graph.Data(a)
	bd := x.graph.Data(b)

	// Unions overlap when any member does.
	if u, ok := ad.(Union); ok {
		for _, m := range x.graph.TypeList(u.Members) {
			if isOverlapping(x, m, b) {
				return true
			}
		}
		return false
	}
	if u, ok := bd.(Union); ok {
		for _, m := range x.graph.TypeList(u.Members) {
			if isOverlapping(x, a, m) {
				return true
			}
		}
		return false
	}

	aKind, aPrim := primitiveKind(ad)
	bKind, bPrim := primitiveKind(bd)
	if aPrim && bPrim {
		// null and undefined compare permissively against anything;
		// void overlaps undefined.
		if aKind == KindNull || aKind == KindUndefined || bKind == KindNull || bKind == KindUndefined {
			return true
		}
		if (aKind == KindVoid && bKind == KindUndefined) || (aKind == KindUndefined && bKind == KindVoid) {
			return true
		}
		if aKind != bKind {
			return false
		}
		// Same primitive kind: disjoint only for two different
		// literal values of that kind.
		al, aIsLit := ad.(Literal)
		bl, bIsLit := bd.(Literal)
		if aIsLit && bIsLit {
			return al == bl
		}
		return true
	}

	if objectLike(x, ad) && objectLike(x, bd) {
		return objectsOverlapping(x, ad, bd)
	}

	at, aIsTemplate := ad.(Template)
	bt, bIsTemplate := bd.(Template)
	if aIsTemplate && bIsTemplate {
		return templatesOverlapping(x.graph.TemplateList(at.Spans), x.graph.TemplateList(bt.Spans))
	}
	if aIsTemplate || bIsTemplate {
		// Template against a string-kinded side was already caught by
		// the subtype check; anything else with fixed text is another
		// kind of value entirely.
		other := bd
		if bIsTemplate {
			other = ad
		}
		if k, prim := primitiveKind(other); prim && k != KindString {
			return k == KindNull || k == KindUndefined
		}
	}

	// Complex or unresolved pairings: conservatively overlapping.
	return true
}

func primitiveKind(d TypeData) (IntrinsicKind, bool) {
	switch t := d.(type) {
	case Intrinsic:
		if t.Kind == KindObject {
			return t.Kind, false
		}
		return t.Kind, true
	case Literal:
		return t.Kind, true
	}
	return 0, false
}

func objectLike(x *state, d TypeData) bool {
	switch d.(type) {
	case Object, Intersection:
		return true
	}
	return false
}

// flatProps is an object-like type flattened to a single property and
// index-signature view. An intersection contributes the union of its
// members' properties.
type flatProps struct {
	props       []Prop
	stringIndex TypeID
	numberIndex TypeID
	opaque      bool // a member we cannot flatten; treat as overlapping
}

func collectProps(x *state, d TypeData) flatProps {
	var f flatProps
	switch t := d.(type) {
	case Object:
		shape := x.graph.ObjectShape(t.Shape)
		f.props = append(f.props, shape.Props...)
		f.stringIndex = shape.StringIndex
		f.numberIndex = shape.NumberIndex
	case Intersection:
		for _, m := range x.graph.TypeList(t.Members) {
			m = x.resolve(m)
			mf := collectProps(x, x.graph.Data(m))
			f.props = append(f.props, mf.props...)
			if f.stringIndex == None {
				f.stringIndex = mf.stringIndex
			}
			if f.numberIndex == None {
				f.numberIndex = mf.numberIndex
			}
			f.opaque = f.opaque || mf.opaque
		}
	default:
		f.opaque = true
	}
	return f
}

func objectsOverlapping(x *state, ad, bd TypeData) bool {
	fa := collectProps(x, ad)
	fb := collectProps(x, bd)
	if fa.opaque || fb.opaque {
		return true
	}

	// A single shared property with non-overlapping types makes the
	// whole pair disjoint. Optional properties widen to include
	// undefined, since either side may omit them.
	for _, pa := range fa.props {
		for _, pb := range fb.props {
			if pa.Name != pb.Name {
				continue
			}
			ta := optionalWiden(x, pa)
			tb := optionalWiden(x, pb)
			if !isOverlapping(x, ta, tb) {
				return false
			}
		}
	}

	// Required properties must also fit the other side's string index
	// signature. Optional properties are exempt: {} satisfies both
	// { a?: string } and { [k: string]: number }.
	if fb.stringIndex != None {
		for _, pa := range fa.props {
			if !pa.Optional && !isOverlapping(x, pa.Type, fb.stringIndex) {
				return false
			}
		}
	}
	if fa.stringIndex != None {
		for _, pb := range fb.props {
			if !pb.Optional && !isOverlapping(x, pb.Type, fa.stringIndex) {
				return false
			}
		}
	}

	// Index-signature value types never cause disjointness on their
	// own: the empty object satisfies any index signature.
	return true
}

func optionalWiden(x *state, p Prop) TypeID {
	if !p.Optional {
		return p.Type
	}
	return x.graph.NewUnion(p.Type, Undefined)
}

// templatesOverlapping reports whether any one string matches both
// template patterns. Each template flattens to a sequence of literal
// bytes and wildcards (type holes, which match any run of characters
// including the empty one); the pair overlaps iff the two wildcard
// patterns have a non-empty intersection. Incompatible fixed text
// anywhere makes them disjoint.
func templatesOverlapping(a, b []TemplateSpan) bool {
	pa := flattenTemplate(a)
	pb := flattenTemplate(b)
	memo := make(map[[2]int]bool)
	var match func(i, j int) bool
	match = func(i, j int) bool {
		k := [2]int{i, j}
		if v, ok := memo[k]; ok {
			return v
		}
		memo[k] = true // break cycles optimistically; overwritten below
		var v bool
		switch {
		case i == len(pa) && j == len(pb):
			v = true
		case i < len(pa) && pa[i] == templateHole:
			v = match(i+1, j) || (j < len(pb) && match(i, j+1))
		case j < len(pb) && pb[j] == templateHole:
			v = match(i, j+1) || (i < len(pa) && match(i+1, j))
		case i < len(pa) && j < len(pb):
			v = pa[i] == pb[j] && match(i+1, j+1)
		default:
			v = false
		}
		memo[k] = v
		return v
	}
	return match(0, 0)
}

// templateHole is the flattened stand-in for a type hole; it is
// outside the byte range so it can never collide with literal text.
const templateHole = rune(-1)

func flattenTemplate(spans []TemplateSpan) []rune {
	var out []rune
	for _, s := range spans {
		if s.Type != None {
			out = append(out, templateHole)
			continue
		}
		out = append(out, []rune(s.Text)...)
	}
	return out
}
