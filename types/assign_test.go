package types

import "testing"

func TestAssignableTo(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	env := NewEnv(g)

	// type Box<T> = { value: T, next: Box<T> | null }
	boxT := g.NewTypeParam(TypeParamInfo{Name: "T"})
	box := env.DeclareGeneric("Box", []ParamID{boxT})
	boxRef := g.NewLazy(box)
	env.Bind(box, g.NewObject(ObjectShape{Props: []Prop{
		{Name: "value", Type: g.Intern(TypeParam{Param: boxT})},
		{Name: "next", Type: g.NewUnion(g.NewApplication(boxRef, g.Intern(TypeParam{Param: boxT})), Null)},
	}}))

	pt := obj(g, Prop{Name: "x", Type: Number}, Prop{Name: "y", Type: Number})
	pt3 := obj(g,
		Prop{Name: "x", Type: Number},
		Prop{Name: "y", Type: Number},
		Prop{Name: "z", Type: Number})

	tests := []struct {
		name     string
		src, dst TypeID
		want     bool
		trace    bool
	}{
		{name: "reflexive primitive", src: Number, dst: Number, want: true},
		{name: "number to string", src: Number, dst: String, want: false},
		{name: "anything to any", src: Number, dst: Any, want: true},
		{name: "any to anything", src: Any, dst: Number, want: true},
		{name: "anything to unknown", src: pt, dst: Unknown, want: true},
		{name: "unknown to number", src: Unknown, dst: Number, want: false},
		{name: "unknown to empty object", src: Unknown, dst: obj(g), want: false},
		{
			name: "unknown to all optional object",
			src:  Unknown,
			dst:  obj(g, Prop{Name: "a", Type: Number, Optional: true}),
			want: false,
		},
		{name: "never to anything", src: Never, dst: String, want: true},
		{name: "number to never", src: Number, dst: Never, want: false},
		{name: "error absorbs", src: Error, dst: Number, want: true},
		{name: "error accepts", src: Number, dst: Error, want: true},
		{name: "undefined to void", src: Undefined, dst: Void, want: true},
		{name: "void to undefined", src: Void, dst: Undefined, want: false},

		{name: "literal widens", src: g.NewStringLit("a"), dst: String, want: true},
		{name: "string does not narrow", src: String, dst: g.NewStringLit("a"), want: false},
		{name: "number literal widens", src: g.NewNumberLit(1), dst: Number, want: true},
		{name: "true to boolean", src: True, dst: Boolean, want: true},
		{name: "boolean to true", src: Boolean, dst: True, want: false},
		{name: "literal to same literal", src: g.NewStringLit("a"), dst: g.NewStringLit("a"), want: true},
		{name: "literal to other literal", src: g.NewStringLit("a"), dst: g.NewStringLit("b"), want: false},

		{
			name: "member to union",
			src:  Number,
			dst:  g.NewUnion(Number, String),
			want: true,
		},
		{
			name: "union to wider union",
			src:  g.NewUnion(Number, String),
			dst:  g.NewUnion(Number, String, Boolean),
			want: true,
		},
		{
			name: "union to member",
			src:  g.NewUnion(Number, String),
			dst:  Number,
			want: false,
		},
		{
			name: "union src needs all members",
			src:  g.NewUnion(g.NewStringLit("a"), Number),
			dst:  String,
			want: false,
		},
		{
			name: "intersection to member",
			src:  g.NewIntersection(pt, obj(g, Prop{Name: "z", Type: Number})),
			dst:  pt,
			want: true,
		},
		{
			name: "member to intersection",
			src:  pt,
			dst:  g.NewIntersection(pt, obj(g, Prop{Name: "z", Type: Number})),
			want: false,
		},
		{
			name: "intersection dst needs all",
			src:  pt3,
			dst:  g.NewIntersection(pt, obj(g, Prop{Name: "z", Type: Number})),
			want: true,
		},

		{name: "width subtyping", src: pt3, dst: pt, want: true},
		{name: "missing property", src: pt, dst: pt3, want: false},
		{name: "anything to empty object", src: Number, dst: obj(g), want: true},
		{name: "null to empty object", src: Null, dst: obj(g), want: false},
		{
			name: "property depth",
			src:  obj(g, Prop{Name: "a", Type: g.NewStringLit("on")}),
			dst:  obj(g, Prop{Name: "a", Type: String}),
			want: true,
		},
		{
			name: "optional dst accepts missing",
			src:  obj(g),
			dst:  obj(g, Prop{Name: "a", Type: Number, Optional: true}),
			want: true,
		},
		{
			name: "optional src fails required dst",
			src:  obj(g, Prop{Name: "a", Type: Number, Optional: true}),
			dst:  obj(g, Prop{Name: "a", Type: Number}),
			want: false,
		},
		{
			name: "string index covers props",
			src: g.NewObject(ObjectShape{
				Props: []Prop{{Name: "a", Type: Number}, {Name: "b", Type: Number}},
			}),
			dst:  g.NewObject(ObjectShape{StringIndex: Number}),
			want: true,
		},
		{
			name: "string index value mismatch",
			src: g.NewObject(ObjectShape{
				Props: []Prop{{Name: "a", Type: String}},
			}),
			dst:  g.NewObject(ObjectShape{StringIndex: Number}),
			want: false,
		},
		{
			name: "source index fills missing prop",
			src:  g.NewObject(ObjectShape{StringIndex: Number}),
			dst:  obj(g, Prop{Name: "a", Type: Number, Optional: true}),
			want: true,
		},

		{
			name: "function reflexive",
			src:  fn(g, String, Number),
			dst:  fn(g, String, Number),
			want: true,
		},
		{
			name: "param contravariance",
			src:  fn(g, Void, g.NewUnion(Number, String)),
			dst:  fn(g, Void, Number),
			want: true,
		},
		{
			name: "param covariance rejected",
			src:  fn(g, Void, Number),
			dst:  fn(g, Void, g.NewUnion(Number, String)),
			want: false,
		},
		{
			name: "return covariance",
			src:  fn(g, g.NewStringLit("a")),
			dst:  fn(g, String),
			want: true,
		},
		{
			name: "return contravariance rejected",
			src:  fn(g, String),
			dst:  fn(g, g.NewStringLit("a")),
			want: false,
		},
		{
			name: "void return accepts any source",
			src:  fn(g, Number),
			dst:  fn(g, Void),
			want: true,
		},
		{
			name: "fewer params ok",
			src:  fn(g, Void),
			dst:  fn(g, Void, Number, String),
			want: true,
		},
		{
			name: "more required params fail",
			src:  fn(g, Void, Number, String),
			dst:  fn(g, Void),
			want: false,
		},

		{
			name: "tuple to tuple",
			src:  g.NewTuple(TupleElem{Type: g.NewNumberLit(1)}, TupleElem{Type: String}),
			dst:  g.NewTuple(TupleElem{Type: Number}, TupleElem{Type: String}),
			want: true,
		},
		{
			name: "tuple too short",
			src:  g.NewTuple(TupleElem{Type: Number}),
			dst:  g.NewTuple(TupleElem{Type: Number}, TupleElem{Type: String}),
			want: false,
		},
		{
			name: "tuple optional tail",
			src:  g.NewTuple(TupleElem{Type: Number}),
			dst:  g.NewTuple(TupleElem{Type: Number}, TupleElem{Type: String, Optional: true}),
			want: true,
		},
		{
			name: "tuple to array",
			src:  g.NewTuple(TupleElem{Type: Number}, TupleElem{Type: g.NewNumberLit(2)}),
			dst:  g.NewArray(Number),
			want: true,
		},
		{
			name: "array covariant",
			src:  g.NewArray(g.NewStringLit("a")),
			dst:  g.NewArray(String),
			want: true,
		},
		{
			name: "array to tuple fails",
			src:  g.NewArray(Number),
			dst:  g.NewTuple(TupleElem{Type: Number}),
			want: false,
		},

		{
			name: "string literal matches template",
			src:  g.NewStringLit("id-123"),
			dst: g.NewTemplate(
				TemplateSpan{Text: "id-"},
				TemplateSpan{Type: String}),
			want: true,
		},
		{
			name: "string literal misses template",
			src:  g.NewStringLit("key-123"),
			dst: g.NewTemplate(
				TemplateSpan{Text: "id-"},
				TemplateSpan{Type: String}),
			want: false,
		},
		{
			name: "template to string",
			src: g.NewTemplate(
				TemplateSpan{Text: "id-"},
				TemplateSpan{Type: String}),
			dst:  String,
			want: true,
		},

		{
			name: "recursive generic reflexive",
			src:  g.NewApplication(boxRef, Number),
			dst:  g.NewApplication(boxRef, Number),
			want: true,
		},
		{
			name: "recursive generic covariant member",
			src:  g.NewApplication(boxRef, g.NewNumberLit(1)),
			dst:  g.NewApplication(boxRef, Number),
			want: true,
		},
		{
			name: "recursive generic mismatched member",
			src:  g.NewApplication(boxRef, String),
			dst:  g.NewApplication(boxRef, Number),
			want: false,
		},
		{
			name: "expansion against structural",
			src:  g.NewApplication(boxRef, Number),
			dst:  obj(g, Prop{Name: "value", Type: Number}),
			want: true,
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			c := newChecker(t, g, env, test.trace)
			if got := c.AssignableTo(test.src, test.dst); got != test.want {
				t.Errorf("AssignableTo(%s, %s)=%v, want %v",
					g.String(test.src), g.String(test.dst), got, test.want)
			}
		})
	}
}

func TestAssignableFreshness(t *testing.T) {
	t.Parallel()
	g := NewGraph()

	target := obj(g, Prop{Name: "a", Type: Number})
	fresh := freshObj(g,
		Prop{Name: "a", Type: Number},
		Prop{Name: "b", Type: String})
	stale := g.WithoutFreshness(fresh)

	c := newChecker(t, g, nil, false)
	if c.AssignableTo(fresh, target) {
		t.Error("fresh literal with excess property was accepted")
	}
	if !c.AssignableTo(stale, target) {
		t.Error("widened object with excess property was rejected")
	}
}

func TestBivariantCallbacks(t *testing.T) {
	t.Parallel()
	g := NewGraph()

	narrower := fn(g, Void, g.NewUnion(Number, String))
	wider := fn(g, Void, Number)

	strict := NewChecker(g, nil, Config{})
	if strict.AssignableTo(wider, narrower) {
		t.Error("covariant parameter accepted without bivariance")
	}

	loose := NewChecker(g, nil, Config{BivariantCallbacks: true})
	if !loose.AssignableTo(wider, narrower) {
		t.Error("covariant parameter rejected under BivariantCallbacks")
	}

	// Method-position signatures compare bivariantly even in strict
	// mode.
	mNarrower := g.NewFunc(FuncShape{
		Params: []Param{{Type: g.NewUnion(Number, String)}},
		Return: Void,
		Method: true,
	})
	if !strict.AssignableTo(wider, mNarrower) {
		t.Error("covariant parameter rejected for method-position target")
	}
}
