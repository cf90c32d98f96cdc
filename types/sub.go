package types

import (
	"fmt"
	"sort"
	"strings"
)

// A Substitution maps type-parameter identities to concrete types.
// Substitutions are ephemeral: built per generic call or
// instantiation site and discarded after use.
type Substitution map[ParamID]TypeID

// SubstitutionFromArgs builds a substitution binding params to args
// positionally. Missing trailing arguments fall back to the
// parameter's default, then its constraint, then Unknown. Excess
// arguments beyond the declared parameter count are dropped.
func SubstitutionFromArgs(g *Graph, params []ParamID, args []TypeID) Substitution {
	sub := make(Substitution, len(params))
	for i, p := range params {
		switch info := g.TypeParamInfo(p); {
		case i < len(args):
			sub[p] = args[i]
		case info.Default != None:
			sub[p] = Instantiate(g, info.Default, sub)
		case info.Constraint != None:
			sub[p] = Instantiate(g, info.Constraint, sub)
		default:
			sub[p] = Unknown
		}
	}
	return sub
}

func (sub Substitution) debugString(g *Graph) string {
	var ss []string
	for k, v := range sub {
		ss = append(ss, fmt.Sprintf("%s[%d]=%s", g.TypeParamInfo(k).Name, k, g.String(v)))
	}
	sort.Strings(ss)
	return strings.Join(ss, ";")
}

// Instantiate walks id structurally, replacing every TypeParam
// reference in sub's domain and rebuilding the containing nodes.
// Substitution is purely syntactic: Lazy nodes pass through
// untouched (expansion happens separately, through an Env), and a
// type with no in-domain parameter references comes back unchanged
// with its original TypeID.
func Instantiate(g *Graph, id TypeID, sub Substitution) TypeID {
	if len(sub) == 0 {
		return id
	}
	in := instantiator{g: g, sub: sub, guard: NewGuard[TypeID](InstantiateProfile)}
	return in.typ(id)
}

type instantiator struct {
	g     *Graph
	sub   Substitution
	guard *Guard[TypeID]
}

func (in *instantiator) typ(id TypeID) TypeID {
	if id == None {
		return None
	}
	switch in.guard.Enter(id) {
	case Entered:
		defer in.guard.Leave(id)
	default:
		// Depth or cycle exhaustion: give up on this branch and keep
		// the original node. Under-substitution is recoverable; the
		// relations treat leftover parameters conservatively.
		return id
	}

	switch d := in.g.Data(id).(type) {
	case TypeParam:
		if to, ok := in.sub[d.Param]; ok {
			return to
		}
		return id
	case Union:
		members, changed := in.typeList(d.Members)
		if !changed {
			return id
		}
		return in.g.NewUnion(members...)
	case Intersection:
		members, changed := in.typeList(d.Members)
		if !changed {
			return id
		}
		return in.g.NewIntersection(members...)
	case Object:
		shape := in.g.ObjectShape(d.Shape)
		changed := false
		s := ObjectShape{
			Props:       append([]Prop(nil), shape.Props...),
			StringIndex: shape.StringIndex,
			NumberIndex: shape.NumberIndex,
			Flags:       shape.Flags,
		}
		for i := range s.Props {
			if t := in.typ(s.Props[i].Type); t != s.Props[i].Type {
				s.Props[i].Type = t
				changed = true
			}
		}
		if t := in.typ(s.StringIndex); t != s.StringIndex {
			s.StringIndex = t
			changed = true
		}
		if t := in.typ(s.NumberIndex); t != s.NumberIndex {
			s.NumberIndex = t
			changed = true
		}
		if !changed {
			return id
		}
		return in.g.NewObject(s)
	case Function:
		s, changed := in.funcShape(d.Shape)
		if !changed {
			return id
		}
		return in.g.NewFunc(s)
	case Callable:
		shape := in.g.CallableShape(d.Shape)
		changed := false
		var calls, constructs []FuncShape
		for _, c := range shape.Calls {
			s, ch := in.funcShape(c)
			changed = changed || ch
			calls = append(calls, s)
		}
		for _, c := range shape.Constructs {
			s, ch := in.funcShape(c)
			changed = changed || ch
			constructs = append(constructs, s)
		}
		if !changed {
			return id
		}
		return in.g.NewCallable(calls, constructs)
	case Tuple:
		elems := append([]TupleElem(nil), in.g.TupleList(d.Elems)...)
		changed := false
		for i := range elems {
			if t := in.typ(elems[i].Type); t != elems[i].Type {
				elems[i].Type = t
				changed = true
			}
		}
		if !changed {
			return id
		}
		return in.g.NewTuple(elems...)
	case Array:
		if t := in.typ(d.Elem); t != d.Elem {
			return in.g.NewArray(t)
		}
		return id
	case Application:
		args, changed := in.typeList(d.Args)
		base := in.typ(d.Base)
		if !changed && base == d.Base {
			return id
		}
		return in.g.NewApplication(base, args...)
	case Template:
		spans := append([]TemplateSpan(nil), in.g.TemplateList(d.Spans)...)
		changed := false
		for i := range spans {
			if spans[i].Type == None {
				continue
			}
			if t := in.typ(spans[i].Type); t != spans[i].Type {
				spans[i].Type = t
				changed = true
			}
		}
		if !changed {
			return id
		}
		return in.g.NewTemplate(spans...)
	default:
		// Intrinsics, literals, and Lazy references are fixed points.
		return id
	}
}

func (in *instantiator) typeList(id TypeListID) ([]TypeID, bool) {
	members := append([]TypeID(nil), in.g.TypeList(id)...)
	changed := false
	for i, m := range members {
		if t := in.typ(m); t != m {
			members[i] = t
			changed = true
		}
	}
	return members, changed
}

func (in *instantiator) funcShape(id FuncShapeID) (FuncShape, bool) {
	shape := in.g.FuncShape(id)
	s := FuncShape{
		Params:     append([]Param(nil), shape.Params...),
		Return:     shape.Return,
		This:       shape.This,
		TypeParams: shape.TypeParams,
		Method:     shape.Method,
	}
	changed := false
	for i := range s.Params {
		if t := in.typ(s.Params[i].Type); t != s.Params[i].Type {
			s.Params[i].Type = t
			changed = true
		}
	}
	if t := in.typ(s.Return); t != s.Return {
		s.Return = t
		changed = true
	}
	if t := in.typ(s.This); t != s.This {
		s.This = t
		changed = true
	}
	return s, changed
}
