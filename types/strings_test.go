package types

import "testing"

func TestString(t *testing.T) {
	t.Parallel()
	g := NewGraph()
	env := NewEnv(g)

	tp := g.NewTypeParam(TypeParamInfo{Name: "T", Constraint: String})
	ref := g.Intern(TypeParam{Param: tp})

	node := env.Declare("Node")
	lazy := g.NewLazy(node)
	env.Bind(node, obj(g, Prop{Name: "next", Type: lazy}))

	tests := []struct {
		name string
		id   TypeID
		want string
	}{
		{"intrinsic", Number, "number"},
		{"string literal", g.NewStringLit("hi"), `"hi"`},
		{"number literal", g.NewNumberLit(3.5), "3.5"},
		{"integral number literal", g.NewNumberLit(3), "3"},
		{"bigint literal", g.NewBigIntLit("12"), "12n"},
		{"true", True, "true"},
		{"union", g.NewUnion(String, Number), "number | string"},
		{"intersection", g.NewIntersection(obj(g, Prop{Name: "a", Type: Number}), obj(g, Prop{Name: "b", Type: String})), "{a: number} & {b: string}"},
		{"empty object", obj(g), "{}"},
		{
			"object",
			g.NewObject(ObjectShape{
				Props: []Prop{
					{Name: "a", Type: Number},
					{Name: "b", Type: String, Optional: true},
					{Name: "c", Type: Boolean, Readonly: true},
				},
				StringIndex: Number,
			}),
			"{a: number, b?: string, readonly c: boolean, [key: string]: number}",
		},
		{"function", fn(g, String, Number), "(number) => string"},
		{
			"named params",
			g.NewFunc(FuncShape{
				Params: []Param{
					{Name: "a", Type: Number},
					{Name: "rest", Type: g.NewArray(String), Rest: true},
				},
				Return: Void,
			}),
			"(a: number, ...rest: string[]) => void",
		},
		{
			"generic function",
			g.NewFunc(FuncShape{
				Params:     []Param{{Name: "x", Type: ref}},
				Return:     ref,
				TypeParams: []ParamID{tp},
			}),
			"<T extends string>(x: T) => T",
		},
		{"tuple", g.NewTuple(TupleElem{Type: Number}, TupleElem{Type: String, Optional: true}), "[number, string?]"},
		{"array", g.NewArray(g.NewUnion(Number, String)), "(number | string)[]"},
		{"template", g.NewTemplate(TemplateSpan{Text: "id-"}, TemplateSpan{Type: String}), "`id-${string}`"},
		{"application", g.NewApplication(lazy, Number), "#0<number>"},
		{"type parameter", ref, "T"},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			if got := g.String(test.id); got != test.want {
				t.Errorf("String=%q, want %q", got, test.want)
			}
		})
	}
}

func TestStringCyclic(t *testing.T) {
	t.Parallel()
	g := NewGraph()

	// A structurally self-referential type renders finitely.
	env := NewEnv(g)
	def := env.Declare("Self")
	lazy := g.NewLazy(def)
	self := obj(g, Prop{Name: "me", Type: lazy})
	env.Bind(def, self)

	if got := g.String(self); got != "{me: #0}" {
		t.Errorf("String=%q, want %q", got, "{me: #0}")
	}
}
