package types

import "fmt"

// An Arg is one argument at a call site.
type Arg struct {
	// Node identifies the argument expression for diagnostics.
	Node NodeRef

	// Type is the argument's type as checked without context.
	Type TypeID

	// Sensitive marks an argument whose type depends on its contextual
	// parameter type, typically a function literal with unannotated
	// parameters. Sensitive arguments sit out the first inference round
	// and are retyped in the second.
	Sensitive bool

	// Partial optionally carries the context-free parts of a sensitive
	// argument (an object literal's annotated properties, say) so round
	// one can still learn from them. None means nothing usable.
	Partial TypeID

	// Retype produces the argument's type given its contextual
	// parameter type. Nil means Type stands as-is.
	Retype func(contextual TypeID) TypeID
}

// A Call describes one call site to resolve.
type Call struct {
	Callee TypeID
	Args   []Arg

	// This is the receiver type; None when the call has no receiver.
	This TypeID

	// Expected is the contextual return type; None when there is none.
	// It seeds inference but never causes a call to fail by itself.
	Expected TypeID

	// Construct selects construct signatures (a new-expression).
	Construct bool
}

// A CallResult is the outcome of resolving a call. Failures are
// values, not errors: they carry the types a diagnostic needs.
type CallResult interface {
	callResult()
}

// CallSuccess is a resolved call and its return type.
type CallSuccess struct {
	Return TypeID
}

// NotCallable reports a callee with no applicable signatures.
type NotCallable struct {
	Type TypeID
}

// ThisTypeMismatch reports a receiver the signature's this-parameter
// rejects.
type ThisTypeMismatch struct {
	Expected TypeID
	Actual   TypeID
}

// ArgumentCountMismatch reports an argument count outside the
// signature's arity range. Max is -1 for a rest signature.
type ArgumentCountMismatch struct {
	Min int
	Max int
	N   int
}

// OverloadArgumentCountMismatch reports an argument count that falls
// strictly between the arities of an overload set: Low is the largest
// acceptable count below N and High the smallest above.
type OverloadArgumentCountMismatch struct {
	N    int
	Low  int
	High int
}

// ArgumentTypeMismatch reports one argument the parameter rejects.
type ArgumentTypeMismatch struct {
	Index    int
	Expected TypeID
	Actual   TypeID
}

// TypeParameterConstraintViolation reports an inferred type argument
// outside its declared constraint. Return still carries the return
// type of the violating instantiation so checking can continue.
type TypeParameterConstraintViolation struct {
	Inferred   TypeID
	Constraint TypeID
	Return     TypeID
}

// NoOverloadMatch reports an overload set in which every candidate
// failed, with the per-candidate failures in declaration order.
type NoOverloadMatch struct {
	Func     TypeID
	Failures []CallResult
}

func (CallSuccess) callResult()                      {}
func (NotCallable) callResult()                      {}
func (ThisTypeMismatch) callResult()                 {}
func (ArgumentCountMismatch) callResult()            {}
func (OverloadArgumentCountMismatch) callResult()    {}
func (ArgumentTypeMismatch) callResult()             {}
func (TypeParameterConstraintViolation) callResult() {}
func (NoOverloadMatch) callResult()                  {}

// ResolveCall resolves call against the checker's graph and
// environment. The result is deterministic: overloads are tried in
// declaration order and the first success wins.
func (c *Checker) ResolveCall(call Call) CallResult {
	x := c.newState()
	defer x.tr("ResolveCall(%s)", c.graph.String(call.Callee))()
	return resolveCall(x, call)
}

// FormatCallResult renders r for diagnostics.
func (c *Checker) FormatCallResult(r CallResult) string {
	g := c.graph
	switch r := r.(type) {
	case CallSuccess:
		return g.String(r.Return)
	case NotCallable:
		return fmt.Sprintf("not callable: %s", g.String(r.Type))
	case ThisTypeMismatch:
		return fmt.Sprintf("this of type %s is not assignable to %s",
			g.String(r.Actual), g.String(r.Expected))
	case ArgumentCountMismatch:
		switch {
		case r.Max < 0:
			return fmt.Sprintf("expected at least %d arguments, got %d", r.Min, r.N)
		case r.Min == r.Max:
			return fmt.Sprintf("expected %d arguments, got %d", r.Min, r.N)
		}
		return fmt.Sprintf("expected %d to %d arguments, got %d", r.Min, r.Max, r.N)
	case OverloadArgumentCountMismatch:
		return fmt.Sprintf("no overload takes %d arguments; nearest take %d or %d",
			r.N, r.Low, r.High)
	case ArgumentTypeMismatch:
		return fmt.Sprintf("argument %d of type %s is not assignable to %s",
			r.Index, g.String(r.Actual), g.String(r.Expected))
	case TypeParameterConstraintViolation:
		return fmt.Sprintf("inferred type %s does not satisfy constraint %s",
			g.String(r.Inferred), g.String(r.Constraint))
	case NoOverloadMatch:
		s := fmt.Sprintf("no overload of %s matches", g.String(r.Func))
		for i, f := range r.Failures {
			s += fmt.Sprintf("\n  overload %d: %s", i+1, c.FormatCallResult(f))
		}
		return s
	}
	return "<unknown result>"
}

func resolveCall(x *state, call Call) (res CallResult) {
	defer x.tr("resolveCall(%s)", x.graph.String(call.Callee))(&res)

	callee := x.resolve(call.Callee)
	if callee == Any {
		return CallSuccess{Return: Any}
	}
	if callee == Error {
		return CallSuccess{Return: Error}
	}

	switch x.callGuard.Enter(callee) {
	case Entered:
		defer x.callGuard.Leave(callee)
	default:
		// Deep self-application; assume it works out rather than
		// reporting a spurious failure.
		return CallSuccess{Return: Any}
	}

	switch d := x.graph.Data(callee).(type) {
	case Function:
		if call.Construct {
			return NotCallable{Type: callee}
		}
		return callOverloads(x, call, callee, []FuncShapeID{d.Shape})
	case Callable:
		shape := x.graph.CallableShape(d.Shape)
		sigs := shape.Calls
		if call.Construct {
			sigs = shape.Constructs
		}
		if len(sigs) == 0 {
			return NotCallable{Type: callee}
		}
		return callOverloads(x, call, callee, sigs)
	case Union:
		// Every member must accept the call; the result is the union
		// of their returns. The first failing member's result stands
		// for the whole union.
		var returns []TypeID
		for _, m := range x.graph.TypeList(d.Members) {
			mc := call
			mc.Callee = m
			r := resolveCall(x, mc)
			ok, isOK := r.(CallSuccess)
			if !isOK {
				return r
			}
			returns = append(returns, ok.Return)
		}
		return CallSuccess{Return: x.graph.NewUnion(returns...)}
	case Intersection:
		// The first member that accepts the call wins. Failing that,
		// report the most specific failure seen.
		var firstFailure CallResult
		for _, m := range x.graph.TypeList(d.Members) {
			mc := call
			mc.Callee = m
			r := resolveCall(x, mc)
			if _, isOK := r.(CallSuccess); isOK {
				return r
			}
			if _, isNC := r.(NotCallable); !isNC && firstFailure == nil {
				firstFailure = r
			}
		}
		if firstFailure != nil {
			return firstFailure
		}
		return NotCallable{Type: callee}
	case TypeParam:
		if con := x.graph.TypeParamInfo(d.Param).Constraint; con != None {
			cc := call
			cc.Callee = con
			return resolveCall(x, cc)
		}
		return NotCallable{Type: callee}
	}
	return NotCallable{Type: callee}
}

func callOverloads(x *state, call Call, callee TypeID, sigs []FuncShapeID) CallResult {
	if len(sigs) == 1 {
		return finishCall(x, callSig(x, call, sigs[0]))
	}

	failures := make([]CallResult, 0, len(sigs))
	for _, sig := range sigs {
		r := callSig(x, call, sig)
		if _, isOK := r.(CallSuccess); isOK {
			return finishCall(x, r)
		}
		failures = append(failures, r)
	}
	return overloadFailure(x, call, callee, failures)
}

// overloadFailure condenses a set of per-candidate failures into the
// most useful single diagnostic.
func overloadFailure(x *state, call Call, callee TypeID, failures []CallResult) CallResult {
	n := len(call.Args)
	arityOnly := true
	var typeFailure CallResult
	typeFailures := 0
	low, high := -1, -1
	haveLow, haveHigh := false, false
	for _, f := range failures {
		acm, isArity := f.(ArgumentCountMismatch)
		if !isArity {
			arityOnly = false
			typeFailures++
			typeFailure = f
			continue
		}
		// Track the nearest acceptable counts on either side of n.
		if acm.Max >= 0 && acm.Max < n && (!haveLow || acm.Max > low) {
			low, haveLow = acm.Max, true
		}
		if acm.Min > n && (!haveHigh || acm.Min < high) {
			high, haveHigh = acm.Min, true
		}
	}

	// Every candidate rejected the count, with candidates both below
	// and above: the count itself is the problem.
	if arityOnly && haveLow && haveHigh {
		return OverloadArgumentCountMismatch{N: n, Low: low, High: high}
	}

	// Exactly one candidate got past arity and failed on types: its
	// failure is the interesting one.
	if typeFailures == 1 {
		return typeFailure
	}

	return NoOverloadMatch{Func: callee, Failures: failures}
}

func callSig(x *state, call Call, sig FuncShapeID) CallResult {
	shape := x.graph.FuncShape(sig)
	if len(shape.TypeParams) > 0 {
		return callGeneric(x, call, shape)
	}
	return callShape(x, call, shape)
}

// callShape checks a call against one non-generic (or already
// instantiated) signature.
func callShape(x *state, call Call, shape *FuncShape) CallResult {
	min, max := argCountBounds(shape.Params)
	n := len(call.Args)
	if n < min || (max >= 0 && n > max) {
		return ArgumentCountMismatch{Min: min, Max: max, N: n}
	}

	if shape.This != None && call.This != None {
		if !isAssignable(x, call.This, shape.This, false) {
			return ThisTypeMismatch{Expected: shape.This, Actual: call.This}
		}
	}

	for i, a := range call.Args {
		want, ok := callParamAt(x, shape.Params, i)
		if !ok {
			break
		}
		got := argType(a, want)
		if !isAssignable(x, got, want, false) {
			return ArgumentTypeMismatch{Index: i, Expected: want, Actual: got}
		}
	}
	return CallSuccess{Return: shape.Return}
}

// argType is the argument type actually checked: sensitive arguments
// are retyped under their contextual parameter type.
func argType(a Arg, contextual TypeID) TypeID {
	if a.Retype != nil {
		return a.Retype(contextual)
	}
	return a.Type
}

// finishCall widens the freshness marker off a successful call's
// return: the object literal has escaped its creation site, so
// excess-property strictness no longer applies.
func finishCall(x *state, r CallResult) CallResult {
	ok, isOK := r.(CallSuccess)
	if !isOK || x.cfg.SoundFreshness {
		return r
	}
	return CallSuccess{Return: x.graph.WithoutFreshness(ok.Return)}
}

// argCountBounds returns the acceptable argument-count range of a
// parameter list; max is -1 when a rest parameter makes it unbounded.
func argCountBounds(params []Param) (min, max int) {
	for _, p := range params {
		if p.Optional || p.Rest {
			break
		}
		min++
	}
	max = len(params)
	if n := len(params); n > 0 && params[n-1].Rest {
		max = -1
	}
	return min, max
}

// callParamAt returns the parameter type an argument at index i is
// checked against. Optional parameters admit undefined; a trailing
// rest parameter contributes its element type at every later index.
func callParamAt(x *state, params []Param, i int) (TypeID, bool) {
	n := len(params)
	rest := n > 0 && params[n-1].Rest
	if i < n-1 || (i < n && !rest) {
		p := params[i]
		if p.Optional {
			return x.graph.NewUnion(p.Type, Undefined), true
		}
		return p.Type, true
	}
	if !rest {
		return None, false
	}
	return restElemAt(x, params[n-1].Type, i-(n-1))
}

// restElemAt projects index i out of a rest parameter's declared
// sequence type.
func restElemAt(x *state, restType TypeID, i int) (TypeID, bool) {
	switch d := x.graph.Data(x.resolve(restType)).(type) {
	case Array:
		return d.Elem, true
	case Tuple:
		return tupleElemAt(x, x.graph.TupleList(d.Elems), i)
	}
	// An unusual rest annotation (string, generic); accept anything
	// rather than invent a failure.
	return Any, true
}
