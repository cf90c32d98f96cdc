package types

import (
	"fmt"
	"strings"
)

// String returns a human-readable rendering of id, for debugging
// and diagnostics. Rendering follows display order; it never
// normalizes further.
func (g *Graph) String(id TypeID) string {
	return g.stringSeen(id, make(map[TypeID]bool))
}

func (g *Graph) stringSeen(id TypeID, seen map[TypeID]bool) string {
	if id == None {
		return "<none>"
	}
	if seen[id] {
		return "..."
	}
	seen[id] = true
	defer delete(seen, id)

	switch d := g.Data(id).(type) {
	case Intrinsic:
		return d.Kind.String()
	case Literal:
		switch d.Kind {
		case KindString:
			return fmt.Sprintf("%q", d.Str)
		case KindNumber:
			return d.Str
		case KindBoolean:
			if d.Val {
				return "true"
			}
			return "false"
		case KindBigInt:
			return d.Str + "n"
		}
		return "<literal>"
	case Union:
		return g.joinList(d.Members, " | ", seen)
	case Intersection:
		return g.joinList(d.Members, " & ", seen)
	case Object:
		shape := g.ObjectShape(d.Shape)
		var parts []string
		for _, p := range shape.Props {
			name := p.Name
			if p.Readonly {
				name = "readonly " + name
			}
			if p.Optional {
				name += "?"
			}
			parts = append(parts, name+": "+g.stringSeen(p.Type, seen))
		}
		if shape.StringIndex != None {
			parts = append(parts, "[key: string]: "+g.stringSeen(shape.StringIndex, seen))
		}
		if shape.NumberIndex != None {
			parts = append(parts, "[key: number]: "+g.stringSeen(shape.NumberIndex, seen))
		}
		if len(parts) == 0 {
			return "{}"
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Function:
		return g.funcString(d.Shape, seen)
	case Callable:
		shape := g.CallableShape(d.Shape)
		var parts []string
		for _, c := range shape.Calls {
			parts = append(parts, g.funcString(c, seen))
		}
		for _, c := range shape.Constructs {
			parts = append(parts, "new "+g.funcString(c, seen))
		}
		return "{" + strings.Join(parts, "; ") + "}"
	case Tuple:
		var parts []string
		for _, e := range g.TupleList(d.Elems) {
			s := g.stringSeen(e.Type, seen)
			if e.Rest {
				s = "..." + s
			} else if e.Optional {
				s += "?"
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Array:
		elem := g.stringSeen(d.Elem, seen)
		switch g.Data(d.Elem).(type) {
		case Union, Intersection, Function:
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case Application:
		return g.stringSeen(d.Base, seen) + "<" + g.joinList(d.Args, ", ", seen) + ">"
	case Lazy:
		return fmt.Sprintf("#%d", d.Def)
	case TypeParam:
		return g.TypeParamInfo(d.Param).Name
	case Template:
		var b strings.Builder
		b.WriteByte('`')
		for _, s := range g.TemplateList(d.Spans) {
			if s.Type == None {
				b.WriteString(s.Text)
			} else {
				b.WriteString("${" + g.stringSeen(s.Type, seen) + "}")
			}
		}
		b.WriteByte('`')
		return b.String()
	}
	return "<unknown>"
}

func (g *Graph) joinList(id TypeListID, sep string, seen map[TypeID]bool) string {
	var parts []string
	for _, m := range g.TypeList(id) {
		parts = append(parts, g.stringSeen(m, seen))
	}
	return strings.Join(parts, sep)
}

func (g *Graph) funcString(id FuncShapeID, seen map[TypeID]bool) string {
	shape := g.FuncShape(id)
	var b strings.Builder
	if len(shape.TypeParams) > 0 {
		b.WriteByte('<')
		for i, tp := range shape.TypeParams {
			if i > 0 {
				b.WriteString(", ")
			}
			info := g.TypeParamInfo(tp)
			b.WriteString(info.Name)
			if info.Constraint != None {
				b.WriteString(" extends " + g.stringSeen(info.Constraint, seen))
			}
		}
		b.WriteByte('>')
	}
	b.WriteByte('(')
	for i, p := range shape.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Rest {
			b.WriteString("...")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			if p.Optional {
				b.WriteByte('?')
			}
			b.WriteString(": ")
		}
		b.WriteString(g.stringSeen(p.Type, seen))
	}
	b.WriteString(") => ")
	b.WriteString(g.stringSeen(shape.Return, seen))
	return b.String()
}
