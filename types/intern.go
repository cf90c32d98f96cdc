package types

import (
	"encoding/binary"
	"math"
	"sort"
	"strconv"
	"strings"
)

// A Graph is the canonical, deduplicated store of type nodes.
// It is append-only and immutable after insertion: relation queries
// take it by read-only reference, and its only writer is the single
// checking goroutine driving a compilation unit. Parallel checkers
// must each own their own Graph; TypeIDs are meaningless across Graphs.
type Graph struct {
	nodes []TypeData
	index map[TypeData]TypeID

	typeLists     [][]TypeID
	typeListIndex map[string]TypeListID

	tupleLists     [][]TupleElem
	tupleListIndex map[string]TupleListID

	objectShapes     []ObjectShape
	objectShapeIndex map[string]ObjectShapeID

	funcShapes     []FuncShape
	funcShapeIndex map[string]FuncShapeID

	callableShapes     []CallableShape
	callableShapeIndex map[string]CallableShapeID

	templateLists     [][]TemplateSpan
	templateListIndex map[string]TemplateListID

	// Type parameters are identity-keyed, never deduplicated:
	// two parameters both named T in nested scopes are distinct.
	typeParams []TypeParamInfo
}

// NewGraph returns a Graph seeded with the well-known singleton types.
func NewGraph() *Graph {
	g := &Graph{
		index:              make(map[TypeData]TypeID, 64),
		typeListIndex:      make(map[string]TypeListID),
		tupleListIndex:     make(map[string]TupleListID),
		objectShapeIndex:   make(map[string]ObjectShapeID),
		funcShapeIndex:     make(map[string]FuncShapeID),
		callableShapeIndex: make(map[string]CallableShapeID),
		templateListIndex:  make(map[string]TemplateListID),
	}
	// Order must match the well-known TypeID constants.
	g.nodes = append(g.nodes, nil) // None
	g.seed(Intrinsic{KindError})
	g.seed(Intrinsic{KindNever})
	g.seed(Intrinsic{KindUnknown})
	g.seed(Intrinsic{KindAny})
	g.seed(Intrinsic{KindVoid})
	g.seed(Intrinsic{KindNull})
	g.seed(Intrinsic{KindUndefined})
	g.seed(Intrinsic{KindBoolean})
	g.seed(Intrinsic{KindNumber})
	g.seed(Intrinsic{KindString})
	g.seed(Intrinsic{KindBigInt})
	g.seed(Intrinsic{KindSymbol})
	g.seed(Intrinsic{KindObject})
	g.seed(Literal{Kind: KindBoolean, Val: true})
	g.seed(Literal{Kind: KindBoolean, Val: false})
	if TypeID(len(g.nodes)) != firstFree {
		panic("well-known seeding out of sync")
	}
	return g
}

func (g *Graph) seed(d TypeData) {
	id := TypeID(len(g.nodes))
	g.nodes = append(g.nodes, d)
	g.index[d] = id
}

// Intern returns the existing handle for structurally-equal input
// or allocates a new one. It never fails; interning a TypeData that
// references IDs from another Graph is a programming error.
func (g *Graph) Intern(d TypeData) TypeID {
	if d == nil {
		panic("intern nil TypeData")
	}
	if id, ok := g.index[d]; ok {
		return id
	}
	id := TypeID(len(g.nodes))
	g.nodes = append(g.nodes, d)
	g.index[d] = id
	return id
}

// Data returns the variant behind id in O(1).
func (g *Graph) Data(id TypeID) TypeData {
	if id == None || int(id) >= len(g.nodes) {
		panic("bad TypeID " + strconv.Itoa(int(id)))
	}
	return g.nodes[id]
}

// TypeList returns the member list behind a TypeListID.
// Callers must not mutate the returned slice.
func (g *Graph) TypeList(id TypeListID) []TypeID { return g.typeLists[id] }

// TupleList returns the element list behind a TupleListID.
func (g *Graph) TupleList(id TupleListID) []TupleElem { return g.tupleLists[id] }

// ObjectShape returns the shape behind an ObjectShapeID.
func (g *Graph) ObjectShape(id ObjectShapeID) *ObjectShape { return &g.objectShapes[id] }

// FuncShape returns the shape behind a FuncShapeID.
func (g *Graph) FuncShape(id FuncShapeID) *FuncShape { return &g.funcShapes[id] }

// CallableShape returns the shape behind a CallableShapeID.
func (g *Graph) CallableShape(id CallableShapeID) *CallableShape { return &g.callableShapes[id] }

// TemplateList returns the span list behind a TemplateListID.
func (g *Graph) TemplateList(id TemplateListID) []TemplateSpan { return g.templateLists[id] }

// TypeParamInfo returns the metadata for a type parameter.
func (g *Graph) TypeParamInfo(id ParamID) *TypeParamInfo { return &g.typeParams[id] }

// NewTypeParam allocates a fresh type parameter identity.
func (g *Graph) NewTypeParam(info TypeParamInfo) ParamID {
	id := ParamID(len(g.typeParams))
	g.typeParams = append(g.typeParams, info)
	return id
}

// NewTypeParamRef allocates a type parameter and interns a reference to it.
func (g *Graph) NewTypeParamRef(info TypeParamInfo) TypeID {
	return g.Intern(TypeParam{Param: g.NewTypeParam(info)})
}

func (g *Graph) internTypeList(members []TypeID) TypeListID {
	var b strings.Builder
	var buf [4]byte
	for _, m := range members {
		binary.LittleEndian.PutUint32(buf[:], uint32(m))
		b.Write(buf[:])
	}
	key := b.String()
	if id, ok := g.typeListIndex[key]; ok {
		return id
	}
	id := TypeListID(len(g.typeLists))
	g.typeLists = append(g.typeLists, append([]TypeID(nil), members...))
	g.typeListIndex[key] = id
	return id
}

func (g *Graph) internTupleList(elems []TupleElem) TupleListID {
	var b strings.Builder
	for _, e := range elems {
		writeU32(&b, uint32(e.Type))
		writeBools(&b, e.Optional, e.Rest)
	}
	key := b.String()
	if id, ok := g.tupleListIndex[key]; ok {
		return id
	}
	id := TupleListID(len(g.tupleLists))
	g.tupleLists = append(g.tupleLists, append([]TupleElem(nil), elems...))
	g.tupleListIndex[key] = id
	return id
}

func (g *Graph) internObjectShape(s ObjectShape) ObjectShapeID {
	var b strings.Builder
	for _, p := range s.Props {
		b.WriteString(p.Name)
		b.WriteByte(0)
		writeU32(&b, uint32(p.Type))
		writeBools(&b, p.Optional, p.Readonly)
	}
	writeU32(&b, uint32(s.StringIndex))
	writeU32(&b, uint32(s.NumberIndex))
	b.WriteByte(byte(s.Flags))
	key := b.String()
	if id, ok := g.objectShapeIndex[key]; ok {
		return id
	}
	id := ObjectShapeID(len(g.objectShapes))
	s.Props = append([]Prop(nil), s.Props...)
	g.objectShapes = append(g.objectShapes, s)
	g.objectShapeIndex[key] = id
	return id
}

func (g *Graph) internFuncShape(s FuncShape) FuncShapeID {
	var b strings.Builder
	for _, p := range s.Params {
		b.WriteString(p.Name)
		b.WriteByte(0)
		writeU32(&b, uint32(p.Type))
		writeBools(&b, p.Optional, p.Rest)
	}
	writeU32(&b, uint32(s.Return))
	writeU32(&b, uint32(s.This))
	for _, tp := range s.TypeParams {
		writeU32(&b, uint32(tp))
	}
	writeBools(&b, s.Method)
	key := b.String()
	if id, ok := g.funcShapeIndex[key]; ok {
		return id
	}
	id := FuncShapeID(len(g.funcShapes))
	s.Params = append([]Param(nil), s.Params...)
	s.TypeParams = append([]ParamID(nil), s.TypeParams...)
	g.funcShapes = append(g.funcShapes, s)
	g.funcShapeIndex[key] = id
	return id
}

func (g *Graph) internCallableShape(s CallableShape) CallableShapeID {
	var b strings.Builder
	for _, c := range s.Calls {
		writeU32(&b, uint32(c))
	}
	b.WriteByte(0xff)
	for _, c := range s.Constructs {
		writeU32(&b, uint32(c))
	}
	key := b.String()
	if id, ok := g.callableShapeIndex[key]; ok {
		return id
	}
	id := CallableShapeID(len(g.callableShapes))
	s.Calls = append([]FuncShapeID(nil), s.Calls...)
	s.Constructs = append([]FuncShapeID(nil), s.Constructs...)
	g.callableShapes = append(g.callableShapes, s)
	g.callableShapeIndex[key] = id
	return id
}

func (g *Graph) internTemplateList(spans []TemplateSpan) TemplateListID {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
		b.WriteByte(0)
		writeU32(&b, uint32(s.Type))
	}
	key := b.String()
	if id, ok := g.templateListIndex[key]; ok {
		return id
	}
	id := TemplateListID(len(g.templateLists))
	g.templateLists = append(g.templateLists, append([]TemplateSpan(nil), spans...))
	g.templateListIndex[key] = id
	return id
}

func writeU32(b *strings.Builder, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	b.Write(buf[:])
}

func writeBools(b *strings.Builder, vs ...bool) {
	var v byte
	for i, x := range vs {
		if x {
			v |= 1 << i
		}
	}
	b.WriteByte(v)
}

// NewStringLit interns a string literal type.
func (g *Graph) NewStringLit(s string) TypeID {
	return g.Intern(Literal{Kind: KindString, Str: s})
}

// NewNumberLit interns a number literal type.
func (g *Graph) NewNumberLit(n float64) TypeID {
	return g.Intern(Literal{Kind: KindNumber, Num: n, Str: formatNum(n)})
}

// NewBigIntLit interns a bigint literal type from its digit text.
func (g *Graph) NewBigIntLit(text string) TypeID {
	return g.Intern(Literal{Kind: KindBigInt, Str: text})
}

// NewBoolLit returns one of the pre-seeded boolean literal types.
func (g *Graph) NewBoolLit(v bool) TypeID {
	if v {
		return True
	}
	return False
}

func formatNum(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// NewUnion interns a normalized union of members: nested unions are
// flattened, duplicates dropped, Never removed, Any absorbs the rest.
// An empty result is Never; a single member is returned as itself.
func (g *Graph) NewUnion(members ...TypeID) TypeID {
	var flat []TypeID
	seen := make(map[TypeID]bool)
	var add func(id TypeID)
	add = func(id TypeID) {
		if u, ok := g.Data(id).(Union); ok {
			for _, m := range g.TypeList(u.Members) {
				add(m)
			}
			return
		}
		if id == Never || seen[id] {
			return
		}
		seen[id] = true
		flat = append(flat, id)
	}
	for _, m := range members {
		add(m)
	}
	if seen[Any] {
		return Any
	}
	switch len(flat) {
	case 0:
		return Never
	case 1:
		return flat[0]
	}
	// Sorting makes membership the only thing that matters: A|B and
	// B|A intern to the same TypeID.
	sort.Slice(flat, func(i, j int) bool { return flat[i] < flat[j] })
	return g.Intern(Union{Members: g.internTypeList(flat)})
}

// NewIntersection interns a normalized intersection: nested
// intersections are flattened and duplicates dropped. Never wins
// outright; an empty result is Unknown (the identity); a single
// member is returned as itself.
func (g *Graph) NewIntersection(members ...TypeID) TypeID {
	var flat []TypeID
	seen := make(map[TypeID]bool)
	hasNever := false
	var add func(id TypeID)
	add = func(id TypeID) {
		if x, ok := g.Data(id).(Intersection); ok {
			for _, m := range g.TypeList(x.Members) {
				add(m)
			}
			return
		}
		if id == Never {
			hasNever = true
		}
		if id == Unknown || seen[id] {
			return
		}
		seen[id] = true
		flat = append(flat, id)
	}
	for _, m := range members {
		add(m)
	}
	if hasNever {
		return Never
	}
	switch len(flat) {
	case 0:
		return Unknown
	case 1:
		return flat[0]
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i] < flat[j] })
	return g.Intern(Intersection{Members: g.internTypeList(flat)})
}

// NewObject interns an object shape type.
func (g *Graph) NewObject(shape ObjectShape) TypeID {
	return g.Intern(Object{Shape: g.internObjectShape(shape)})
}

// NewFunc interns a single-signature function type.
func (g *Graph) NewFunc(shape FuncShape) TypeID {
	return g.Intern(Function{Shape: g.internFuncShape(shape)})
}

// NewCallable interns an overloaded callable type from its signatures.
func (g *Graph) NewCallable(calls []FuncShape, constructs []FuncShape) TypeID {
	var s CallableShape
	for _, c := range calls {
		s.Calls = append(s.Calls, g.internFuncShape(c))
	}
	for _, c := range constructs {
		s.Constructs = append(s.Constructs, g.internFuncShape(c))
	}
	return g.Intern(Callable{Shape: g.internCallableShape(s)})
}

// NewTuple interns a tuple type.
func (g *Graph) NewTuple(elems ...TupleElem) TypeID {
	return g.Intern(Tuple{Elems: g.internTupleList(elems)})
}

// NewArray interns an array type.
func (g *Graph) NewArray(elem TypeID) TypeID {
	return g.Intern(Array{Elem: elem})
}

// NewApplication interns a generic application node.
func (g *Graph) NewApplication(base TypeID, args ...TypeID) TypeID {
	return g.Intern(Application{Base: base, Args: g.internTypeList(args)})
}

// NewLazy interns a lazy reference to a declaration.
func (g *Graph) NewLazy(def DefID) TypeID {
	return g.Intern(Lazy{Def: def})
}

// NewTemplate interns a template-literal type. Adjacent text spans
// are merged and empty text spans dropped; a template with no holes
// collapses to a string literal.
func (g *Graph) NewTemplate(spans ...TemplateSpan) TypeID {
	var norm []TemplateSpan
	for _, s := range spans {
		if s.Type == None {
			if s.Text == "" {
				continue
			}
			if n := len(norm); n > 0 && norm[n-1].Type == None {
				norm[n-1].Text += s.Text
				continue
			}
		}
		norm = append(norm, s)
	}
	onlyText := true
	for _, s := range norm {
		if s.Type != None {
			onlyText = false
			break
		}
	}
	if onlyText {
		var text string
		for _, s := range norm {
			text += s.Text
		}
		return g.NewStringLit(text)
	}
	return g.Intern(Template{Spans: g.internTemplateList(norm)})
}

// WidenLiteral returns the primitive a literal type widens to,
// or id unchanged for non-literals.
func (g *Graph) WidenLiteral(id TypeID) TypeID {
	lit, ok := g.Data(id).(Literal)
	if !ok {
		return id
	}
	switch lit.Kind {
	case KindString:
		return String
	case KindNumber:
		return Number
	case KindBoolean:
		return Boolean
	case KindBigInt:
		return BigInt
	}
	return id
}

// WithoutFreshness re-interns an object type with its freshness
// flag cleared; non-fresh and non-object types pass through.
func (g *Graph) WithoutFreshness(id TypeID) TypeID {
	obj, ok := g.Data(id).(Object)
	if !ok {
		return id
	}
	shape := g.ObjectShape(obj.Shape)
	if shape.Flags&FlagFresh == 0 {
		return id
	}
	s := *shape
	s.Flags &^= FlagFresh
	return g.NewObject(s)
}
