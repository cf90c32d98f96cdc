package types

// A TypeID is an opaque handle into a Graph.
// Equal TypeIDs denote structurally identical, normalized types.
// The zero TypeID, None, is not a type; it marks "absent"
// (a missing index signature, a function with no this parameter).
type TypeID uint32

// Well-known TypeIDs, seeded by NewGraph at fixed indices.
const (
	None TypeID = iota
	Error
	Never
	Unknown
	Any
	Void
	Null
	Undefined
	Boolean
	Number
	String
	BigInt
	Symbol
	ObjectTop // the object keyword
	True
	False

	firstFree
)

// A DefID is the stable identity of a declaration,
// used to resolve Lazy type references through an Env.
type DefID uint32

// A ParamID is the stable identity of a type parameter.
// Substitutions are keyed by ParamID, never by name,
// so shadowed or renamed parameters in nested generic
// scopes cannot be confused with one another.
type ParamID uint32

// A NodeRef is an opaque reference to a caller-side AST node.
// The engine never looks inside it; it is carried through
// call resolution so the caller can point a diagnostic
// at the offending argument.
type NodeRef int32

// An IntrinsicKind identifies a built-in type.
type IntrinsicKind int

const (
	KindAny IntrinsicKind = iota
	KindUnknown
	KindNever
	KindError
	KindVoid
	KindNull
	KindUndefined
	KindBoolean
	KindNumber
	KindString
	KindBigInt
	KindSymbol
	KindObject
)

var kindNames = map[IntrinsicKind]string{
	KindAny:       "any",
	KindUnknown:   "unknown",
	KindNever:     "never",
	KindError:     "error",
	KindVoid:      "void",
	KindNull:      "null",
	KindUndefined: "undefined",
	KindBoolean:   "boolean",
	KindNumber:    "number",
	KindString:    "string",
	KindBigInt:    "bigint",
	KindSymbol:    "symbol",
	KindObject:    "object",
}

func (k IntrinsicKind) String() string { return kindNames[k] }

// TypeData is the variant behind a TypeID.
// Every variant is a small comparable struct; aggregate payloads
// (member lists, shapes) live in side arenas on the Graph and are
// referenced by ID, so a TypeData value is usable as a map key
// for hash-consing.
type TypeData interface {
	typeData()
}

// Intrinsic is a built-in type: string, number, never, and so on.
type Intrinsic struct {
	Kind IntrinsicKind
}

// Literal is a frozen literal value, distinct from its widened primitive.
// Kind is the primitive the literal widens to. Str holds string and
// bigint text, Num the numeric value, Val the boolean value.
type Literal struct {
	Kind IntrinsicKind
	Str  string
	Num  float64
	Val  bool
}

// Union is an ordered member list; order affects display only.
type Union struct {
	Members TypeListID
}

// Intersection is an ordered member list; order affects display only.
type Intersection struct {
	Members TypeListID
}

// Object is a structural object shape.
type Object struct {
	Shape ObjectShapeID
}

// Function is a single call signature.
type Function struct {
	Shape FuncShapeID
}

// Callable is a value with call and/or construct signature sets.
type Callable struct {
	Shape CallableShapeID
}

// Tuple is a fixed or variadic positional element list.
type Tuple struct {
	Elems TupleListID
}

// Array is a homogeneous element sequence.
type Array struct {
	Elem TypeID
}

// Application is an uninstantiated generic reference plus
// type arguments, expanded lazily through an Env.
type Application struct {
	Base TypeID
	Args TypeListID
}

// Lazy is a reference to a not-yet-materialized declaration,
// resolved through an Env. Lazy nodes are what make recursive
// types representable without infinite structures; they are
// never inlined eagerly.
type Lazy struct {
	Def DefID
}

// TypeParam is an unbound generic parameter reference,
// meaningful only inside a Substitution context.
type TypeParam struct {
	Param ParamID
}

// Template is a template-literal string type:
// an alternating sequence of fixed text and type holes.
type Template struct {
	Spans TemplateListID
}

func (Intrinsic) typeData()    {}
func (Literal) typeData()      {}
func (Union) typeData()        {}
func (Intersection) typeData() {}
func (Object) typeData()       {}
func (Function) typeData()     {}
func (Callable) typeData()     {}
func (Tuple) typeData()        {}
func (Array) typeData()        {}
func (Application) typeData()  {}
func (Lazy) typeData()         {}
func (TypeParam) typeData()    {}
func (Template) typeData()     {}

// IDs into the Graph's side arenas.
type (
	TypeListID      uint32
	TupleListID     uint32
	ObjectShapeID   uint32
	FuncShapeID     uint32
	CallableShapeID uint32
	TemplateListID  uint32
)

// A Prop is one named object property.
type Prop struct {
	Name     string
	Type     TypeID
	Optional bool
	Readonly bool
}

// ObjectFlags annotate an object shape without changing its identity
// for relation purposes.
type ObjectFlags uint8

const (
	// FlagFresh marks an object literal that has not yet crossed
	// a call or assignment boundary; fresh objects are subject to
	// excess-property checking by callers. Freshness is erased on
	// the return type of a resolved call unless Config.SoundFreshness
	// is set.
	FlagFresh ObjectFlags = 1 << iota
)

// An ObjectShape is the payload of an Object type.
// StringIndex and NumberIndex are None when the shape has
// no corresponding index signature.
type ObjectShape struct {
	Props       []Prop
	StringIndex TypeID
	NumberIndex TypeID
	Flags       ObjectFlags
}

// A Param is one function parameter.
type Param struct {
	Name     string
	Type     TypeID
	Optional bool
	Rest     bool
}

// A FuncShape is the payload of a Function type.
// This is None for functions with no this parameter.
// Method marks signatures declared in method position,
// whose parameters compare bivariantly.
type FuncShape struct {
	Params     []Param
	Return     TypeID
	This       TypeID
	TypeParams []ParamID
	Method     bool
}

// A CallableShape is the payload of a Callable type:
// overload sets for calling and constructing.
type CallableShape struct {
	Calls      []FuncShapeID
	Constructs []FuncShapeID
}

// A TupleElem is one tuple position.
type TupleElem struct {
	Type     TypeID
	Optional bool
	Rest     bool
}

// A TemplateSpan is one piece of a template-literal type:
// fixed text when Type is None, a type hole otherwise.
type TemplateSpan struct {
	Text string
	Type TypeID
}

// A TypeParamInfo records a type parameter's declaration-site
// metadata. Constraint and Default are None when absent.
type TypeParamInfo struct {
	Name       string
	Constraint TypeID
	Default    TypeID
}
