package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveCall(t *testing.T) {
	t.Parallel()
	g := NewGraph()

	toStr := fn(g, String, Number)
	toBool := fn(g, Boolean, Number)
	twoArg := fn(g, Void, Number, String)

	rest := g.NewFunc(FuncShape{
		Params: []Param{
			{Name: "first", Type: Number},
			{Name: "more", Type: g.NewArray(String), Rest: true},
		},
		Return: Number,
	})

	opt := g.NewFunc(FuncShape{
		Params: []Param{
			{Name: "a", Type: Number},
			{Name: "b", Type: String, Optional: true},
		},
		Return: Void,
	})

	recv := obj(g, Prop{Name: "tag", Type: String})
	method := g.NewFunc(FuncShape{This: recv, Return: String})

	overloaded := g.NewCallable([]FuncShape{
		{Params: []Param{{Type: Number}}, Return: Number},
		{Params: []Param{{Type: String}}, Return: String},
	}, nil)

	wideArity := g.NewCallable([]FuncShape{
		{Params: []Param{{Type: Number}}, Return: Number},
		{Params: []Param{{Type: Number}, {Type: Number}, {Type: Number}}, Return: Number},
	}, nil)

	ctor := g.NewCallable(nil, []FuncShape{
		{Params: []Param{{Type: String}}, Return: recv},
	})

	args := func(ts ...TypeID) []Arg {
		var as []Arg
		for _, t := range ts {
			as = append(as, Arg{Type: t})
		}
		return as
	}

	tests := []struct {
		name  string
		call  Call
		want  CallResult
		trace bool
	}{
		{
			name: "simple success",
			call: Call{Callee: toStr, Args: args(g.NewNumberLit(1))},
			want: CallSuccess{Return: String},
		},
		{
			name: "argument type mismatch",
			call: Call{Callee: toStr, Args: args(g.NewStringLit("a"))},
			want: ArgumentTypeMismatch{Index: 0, Expected: Number, Actual: g.NewStringLit("a")},
		},
		{
			name: "no arguments for two params",
			call: Call{Callee: twoArg},
			want: ArgumentCountMismatch{Min: 2, Max: 2, N: 0},
		},
		{
			name: "too many arguments",
			call: Call{Callee: toStr, Args: args(Number, Number)},
			want: ArgumentCountMismatch{Min: 1, Max: 1, N: 2},
		},
		{
			name: "rest accepts a run",
			call: Call{Callee: rest, Args: args(Number, String, String, String)},
			want: CallSuccess{Return: Number},
		},
		{
			name: "rest element mismatch",
			call: Call{Callee: rest, Args: args(Number, String, Boolean)},
			want: ArgumentTypeMismatch{Index: 2, Expected: String, Actual: Boolean},
		},
		{
			name: "rest still needs required",
			call: Call{Callee: rest},
			want: ArgumentCountMismatch{Min: 1, Max: -1, N: 0},
		},
		{
			name: "optional omitted",
			call: Call{Callee: opt, Args: args(Number)},
			want: CallSuccess{Return: Void},
		},
		{
			name: "optional accepts undefined",
			call: Call{Callee: opt, Args: args(Number, Undefined)},
			want: CallSuccess{Return: Void},
		},
		{
			name: "not callable",
			call: Call{Callee: Number, Args: args(Number)},
			want: NotCallable{Type: Number},
		},
		{
			name: "any callee",
			call: Call{Callee: Any, Args: args(Number, String)},
			want: CallSuccess{Return: Any},
		},
		{
			name: "error callee",
			call: Call{Callee: Error, Args: args(Number)},
			want: CallSuccess{Return: Error},
		},
		{
			name: "this accepted",
			call: Call{Callee: method, This: obj(g, Prop{Name: "tag", Type: String}, Prop{Name: "n", Type: Number})},
			want: CallSuccess{Return: String},
		},
		{
			name: "this mismatch",
			call: Call{Callee: method, This: Number},
			want: ThisTypeMismatch{Expected: recv, Actual: Number},
		},
		{
			name: "union callee joins returns",
			call: Call{Callee: g.NewUnion(toStr, toBool), Args: args(Number)},
			want: CallSuccess{Return: g.NewUnion(String, Boolean)},
		},
		{
			name: "union callee with uncallable member",
			call: Call{Callee: g.NewUnion(toStr, Number), Args: args(Number)},
			want: NotCallable{Type: Number},
		},
		{
			name: "intersection callee first match",
			call: Call{Callee: g.NewIntersection(toStr, twoArg), Args: args(Number)},
			want: CallSuccess{Return: String},
		},
		{
			name: "overload first match wins",
			call: Call{Callee: overloaded, Args: args(g.NewNumberLit(7))},
			want: CallSuccess{Return: Number},
		},
		{
			name: "overload second match",
			call: Call{Callee: overloaded, Args: args(g.NewStringLit("a"))},
			want: CallSuccess{Return: String},
		},
		{
			name: "overload no match",
			call: Call{Callee: overloaded, Args: args(Boolean)},
			want: NoOverloadMatch{
				Func: overloaded,
				Failures: []CallResult{
					ArgumentTypeMismatch{Index: 0, Expected: Number, Actual: Boolean},
					ArgumentTypeMismatch{Index: 0, Expected: String, Actual: Boolean},
				},
			},
		},
		{
			name: "overload arity gap",
			call: Call{Callee: wideArity, Args: args(Number, Number)},
			want: OverloadArgumentCountMismatch{N: 2, Low: 1, High: 3},
		},
		{
			name: "sole type failure surfaced",
			call: Call{Callee: wideArity, Args: args(String)},
			want: ArgumentTypeMismatch{Index: 0, Expected: Number, Actual: String},
		},
		{
			name: "construct signature",
			call: Call{Callee: ctor, Args: args(String), Construct: true},
			want: CallSuccess{Return: recv},
		},
		{
			name: "construct on plain function",
			call: Call{Callee: toStr, Args: args(Number), Construct: true},
			want: NotCallable{Type: toStr},
		},
		{
			name: "call signatures ignored for construct",
			call: Call{Callee: overloaded, Args: args(Number), Construct: true},
			want: NotCallable{Type: overloaded},
		},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			c := newChecker(t, g, nil, test.trace)
			got := c.ResolveCall(test.call)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("ResolveCall: %s\n(-want +got):\n%s", c.FormatCallResult(got), diff)
			}
		})
	}
}

func TestCallFreshnessWidening(t *testing.T) {
	t.Parallel()
	g := NewGraph()

	fresh := freshObj(g, Prop{Name: "a", Type: Number})
	f := fn(g, fresh)

	c := NewChecker(g, nil, Config{})
	got := c.ResolveCall(Call{Callee: f})
	want := CallSuccess{Return: g.WithoutFreshness(fresh)}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("return kept freshness (-want +got):\n%s", diff)
	}

	sound := NewChecker(g, nil, Config{SoundFreshness: true})
	got = sound.ResolveCall(Call{Callee: f})
	if diff := cmp.Diff(CallSuccess{Return: fresh}, got); diff != "" {
		t.Errorf("sound mode widened anyway (-want +got):\n%s", diff)
	}
}

func TestResolveCallGeneric(t *testing.T) {
	t.Parallel()
	g := NewGraph()

	// identity<T>(x: T): T
	idT := g.NewTypeParam(TypeParamInfo{Name: "T"})
	idRef := g.Intern(TypeParam{Param: idT})
	identity := g.NewFunc(FuncShape{
		Params:     []Param{{Name: "x", Type: idRef}},
		Return:     idRef,
		TypeParams: []ParamID{idT},
	})

	// first<T>(xs: T[]): T
	fstT := g.NewTypeParam(TypeParamInfo{Name: "T"})
	fstRef := g.Intern(TypeParam{Param: fstT})
	first := g.NewFunc(FuncShape{
		Params:     []Param{{Name: "xs", Type: g.NewArray(fstRef)}},
		Return:     fstRef,
		TypeParams: []ParamID{fstT},
	})

	// bounded<T extends number>(x: T): T
	bT := g.NewTypeParam(TypeParamInfo{Name: "T", Constraint: Number})
	bRef := g.Intern(TypeParam{Param: bT})
	bounded := g.NewFunc(FuncShape{
		Params:     []Param{{Name: "x", Type: bRef}},
		Return:     bRef,
		TypeParams: []ParamID{bT},
	})

	// make<T>(): T
	mT := g.NewTypeParam(TypeParamInfo{Name: "T"})
	mRef := g.Intern(TypeParam{Param: mT})
	make_ := g.NewFunc(FuncShape{Return: mRef, TypeParams: []ParamID{mT}})

	t.Run("literal argument widens", func(t *testing.T) {
		c := newChecker(t, g, nil, false)
		got := c.ResolveCall(Call{Callee: identity, Args: []Arg{{Type: g.NewStringLit("a")}}})
		if diff := cmp.Diff(CallSuccess{Return: String}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("element inference", func(t *testing.T) {
		c := newChecker(t, g, nil, false)
		got := c.ResolveCall(Call{Callee: first, Args: []Arg{{Type: g.NewArray(Boolean)}}})
		if diff := cmp.Diff(CallSuccess{Return: Boolean}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("two arguments join", func(t *testing.T) {
		// join<T>(a: T, b: T): T with number and string infers the
		// union rather than failing on the second argument.
		jT := g.NewTypeParam(TypeParamInfo{Name: "T"})
		jRef := g.Intern(TypeParam{Param: jT})
		join := g.NewFunc(FuncShape{
			Params:     []Param{{Type: jRef}, {Type: jRef}},
			Return:     jRef,
			TypeParams: []ParamID{jT},
		})
		c := newChecker(t, g, nil, false)
		got := c.ResolveCall(Call{Callee: join, Args: []Arg{{Type: Number}, {Type: String}}})
		if diff := cmp.Diff(CallSuccess{Return: g.NewUnion(Number, String)}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("unbound falls back to unknown", func(t *testing.T) {
		c := newChecker(t, g, nil, false)
		got := c.ResolveCall(Call{Callee: make_})
		if diff := cmp.Diff(CallSuccess{Return: Unknown}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("expected return seeds inference", func(t *testing.T) {
		c := newChecker(t, g, nil, false)
		lit := g.NewStringLit("on")
		got := c.ResolveCall(Call{Callee: make_, Expected: lit})
		// Contextual types stay exact: no widening to string.
		if diff := cmp.Diff(CallSuccess{Return: lit}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("constraint violation", func(t *testing.T) {
		c := newChecker(t, g, nil, false)
		got := c.ResolveCall(Call{Callee: bounded, Args: []Arg{{Type: g.NewStringLit("a")}}})
		want := TypeParameterConstraintViolation{
			Inferred:   String,
			Constraint: Number,
			Return:     String,
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("constraint used when unbound", func(t *testing.T) {
		c := newChecker(t, g, nil, false)
		// optional<T extends number>(x?: T): T
		oT := g.NewTypeParam(TypeParamInfo{Name: "T", Constraint: Number})
		oRef := g.Intern(TypeParam{Param: oT})
		optional := g.NewFunc(FuncShape{
			Params:     []Param{{Type: oRef, Optional: true}},
			Return:     oRef,
			TypeParams: []ParamID{oT},
		})
		got := c.ResolveCall(Call{Callee: optional})
		if diff := cmp.Diff(CallSuccess{Return: Number}, got); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})
}

func TestTwoPassInference(t *testing.T) {
	t.Parallel()
	g := NewGraph()

	// map<T, U>(xs: T[], f: (x: T) => U): U[]
	mapT := g.NewTypeParam(TypeParamInfo{Name: "T"})
	mapU := g.NewTypeParam(TypeParamInfo{Name: "U"})
	tRef := g.Intern(TypeParam{Param: mapT})
	uRef := g.Intern(TypeParam{Param: mapU})
	mapFn := g.NewFunc(FuncShape{
		Params: []Param{
			{Name: "xs", Type: g.NewArray(tRef)},
			{Name: "f", Type: fn(g, uRef, tRef)},
		},
		Return:     g.NewArray(uRef),
		TypeParams: []ParamID{mapT, mapU},
	})

	var contextual []TypeID
	lambda := Arg{
		Sensitive: true,
		Retype: func(ctx TypeID) TypeID {
			contextual = append(contextual, ctx)
			// The lambda x => String(x): its parameter comes from
			// context and its body produces a string.
			return fn(g, String, Number)
		},
	}

	c := newChecker(t, g, nil, false)
	got := c.ResolveCall(Call{
		Callee: mapFn,
		Args:   []Arg{{Type: g.NewArray(Number)}, lambda},
	})
	if diff := cmp.Diff(CallSuccess{Return: g.NewArray(String)}, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	if len(contextual) == 0 {
		t.Fatal("sensitive argument was never retyped")
	}
	// Round 2 hands the lambda its contextual signature with T already
	// fixed from the first argument.
	first, ok := g.Data(contextual[0]).(Function)
	if !ok {
		t.Fatalf("contextual type %s is not a function", g.String(contextual[0]))
	}
	shape := g.FuncShape(first.Shape)
	if len(shape.Params) != 1 || shape.Params[0].Type != Number {
		t.Errorf("contextual parameter type = %s, want number", g.String(contextual[0]))
	}
}
