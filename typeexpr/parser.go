package typeexpr

import (
	"github.com/pkg/errors"

	"github.com/typal-lang/typal/types"
)

var intrinsics = map[string]types.TypeID{
	"error":     types.Error,
	"never":     types.Never,
	"unknown":   types.Unknown,
	"any":       types.Any,
	"void":      types.Void,
	"null":      types.Null,
	"undefined": types.Undefined,
	"boolean":   types.Boolean,
	"number":    types.Number,
	"string":    types.String,
	"bigint":    types.BigInt,
	"symbol":    types.Symbol,
	"object":    types.ObjectTop,
	"true":      types.True,
	"false":     types.False,
}

// A Parser lowers type notation into a Graph and Env. Declarations
// made by Define are visible to every later Define and ParseType call
// on the same Parser.
type Parser struct {
	g    *types.Graph
	env  *types.Env
	defs map[string]types.DefID

	toks   []token
	pos    int
	scopes []map[string]types.TypeID
}

// New returns a Parser lowering into g and env.
func New(g *types.Graph, env *types.Env) *Parser {
	return &Parser{g: g, env: env, defs: make(map[string]types.DefID)}
}

// Lookup returns the declaration a name is bound to.
func (p *Parser) Lookup(name string) (types.DefID, bool) {
	def, ok := p.defs[name]
	return def, ok
}

// ParseType parses src as one type expression.
func (p *Parser) ParseType(src string) (types.TypeID, error) {
	if err := p.start(src); err != nil {
		return types.None, err
	}
	t, err := p.parseType()
	if err != nil {
		return types.None, err
	}
	if tok := p.peek(); tok.kind != tEOF {
		return types.None, p.errAt(tok, "trailing input")
	}
	return t, nil
}

// Define parses a declaration of the form
//
//	type Name = body
//	type Name<T, U extends X = D> = body
//
// and binds it in the environment. The body may reference Name,
// including through applications of it.
func (p *Parser) Define(src string) error {
	if err := p.start(src); err != nil {
		return err
	}
	if tok := p.next(); tok.kind != tIdent || tok.text != "type" {
		return p.errAt(tok, `expected "type"`)
	}
	name, err := p.expect(tIdent)
	if err != nil {
		return err
	}

	var def types.DefID
	if p.accept(tLess) {
		params, frame, err := p.parseTypeParams()
		if err != nil {
			return err
		}
		def = p.env.DeclareGeneric(name.text, params)
		p.defs[name.text] = def
		p.scopes = append(p.scopes, frame)
		defer func() { p.scopes = p.scopes[:len(p.scopes)-1] }()
	} else {
		def = p.env.Declare(name.text)
		p.defs[name.text] = def
	}

	if _, err := p.expect(tEquals); err != nil {
		return err
	}
	body, err := p.parseType()
	if err != nil {
		return err
	}
	if tok := p.peek(); tok.kind != tEOF {
		return p.errAt(tok, "trailing input")
	}
	p.env.Bind(def, body)
	return nil
}

func (p *Parser) start(src string) error {
	toks, err := lex(src)
	if err != nil {
		return errors.Wrap(err, "lex")
	}
	p.toks, p.pos = toks, 0
	return nil
}

func (p *Parser) peek() token { return p.toks[p.pos] }

func (p *Parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tEOF {
		p.pos++
	}
	return t
}

func (p *Parser) accept(k tokenKind) bool {
	if p.peek().kind == k {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) expect(k tokenKind) (token, error) {
	if t := p.peek(); t.kind != k {
		return token{}, p.errAt(t, "expected %s", k)
	}
	return p.next(), nil
}

func (p *Parser) errAt(t token, f string, vs ...interface{}) error {
	args := append(vs, t.pos, t.kind)
	return errors.Errorf(f+" (at offset %d, got %s)", args...)
}

func (p *Parser) lookupParam(name string) (types.TypeID, bool) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if t, ok := p.scopes[i][name]; ok {
			return t, true
		}
	}
	return types.None, false
}

// parseTypeParams parses a <T, U extends C = D> clause after the
// opening angle has been consumed. Later parameters may reference
// earlier ones in their constraints and defaults.
func (p *Parser) parseTypeParams() ([]types.ParamID, map[string]types.TypeID, error) {
	var params []types.ParamID
	frame := make(map[string]types.TypeID)
	p.scopes = append(p.scopes, frame)
	defer func() { p.scopes = p.scopes[:len(p.scopes)-1] }()

	for {
		name, err := p.expect(tIdent)
		if err != nil {
			return nil, nil, err
		}
		info := types.TypeParamInfo{Name: name.text}
		if t := p.peek(); t.kind == tIdent && t.text == "extends" {
			p.next()
			if info.Constraint, err = p.parseType(); err != nil {
				return nil, nil, err
			}
		}
		if p.accept(tEquals) {
			if info.Default, err = p.parseType(); err != nil {
				return nil, nil, err
			}
		}
		id := p.g.NewTypeParam(info)
		params = append(params, id)
		frame[name.text] = p.g.Intern(types.TypeParam{Param: id})

		if p.accept(tComma) {
			continue
		}
		if _, err := p.expect(tGreater); err != nil {
			return nil, nil, err
		}
		return params, frame, nil
	}
}

func (p *Parser) parseType() (types.TypeID, error) {
	return p.parseUnion()
}

func (p *Parser) parseUnion() (types.TypeID, error) {
	first, err := p.parseInter()
	if err != nil {
		return types.None, err
	}
	if p.peek().kind != tPipe {
		return first, nil
	}
	members := []types.TypeID{first}
	for p.accept(tPipe) {
		m, err := p.parseInter()
		if err != nil {
			return types.None, err
		}
		members = append(members, m)
	}
	return p.g.NewUnion(members...), nil
}

func (p *Parser) parseInter() (types.TypeID, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return types.None, err
	}
	if p.peek().kind != tAmp {
		return first, nil
	}
	members := []types.TypeID{first}
	for p.accept(tAmp) {
		m, err := p.parsePostfix()
		if err != nil {
			return types.None, err
		}
		members = append(members, m)
	}
	return p.g.NewIntersection(members...), nil
}

func (p *Parser) parsePostfix() (types.TypeID, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return types.None, err
	}
	for p.peek().kind == tLBrack && p.toks[p.pos+1].kind == tRBrack {
		p.pos += 2
		t = p.g.NewArray(t)
	}
	return t, nil
}

func (p *Parser) parsePrimary() (types.TypeID, error) {
	switch tok := p.peek(); tok.kind {
	case tString:
		p.next()
		return p.g.NewStringLit(tok.text), nil
	case tNumber:
		p.next()
		return p.g.NewNumberLit(tok.num), nil
	case tBigInt:
		p.next()
		return p.g.NewBigIntLit(tok.text), nil
	case tMinus:
		p.next()
		switch n := p.next(); n.kind {
		case tNumber:
			return p.g.NewNumberLit(-n.num), nil
		case tBigInt:
			return p.g.NewBigIntLit("-" + n.text), nil
		default:
			return types.None, p.errAt(n, "expected number after -")
		}
	case tBacktick:
		return p.parseTemplate()
	case tLBrace:
		return p.parseObject()
	case tLBrack:
		return p.parseTuple()
	case tLParen:
		return p.parseFunc(nil)
	case tLess:
		p.next()
		params, frame, err := p.parseTypeParams()
		if err != nil {
			return types.None, err
		}
		p.scopes = append(p.scopes, frame)
		defer func() { p.scopes = p.scopes[:len(p.scopes)-1] }()
		return p.parseFunc(params)
	case tIdent:
		return p.parseName()
	}
	return types.None, p.errAt(p.peek(), "expected a type")
}

func (p *Parser) parseName() (types.TypeID, error) {
	tok := p.next()
	if tok.text == "new" {
		// new (args) => T is a construct signature.
		shape, err := p.parseFuncShape(nil)
		if err != nil {
			return types.None, err
		}
		return p.g.NewCallable(nil, []types.FuncShape{shape}), nil
	}
	if t, ok := intrinsics[tok.text]; ok {
		return t, nil
	}
	if t, ok := p.lookupParam(tok.text); ok {
		return t, nil
	}
	def, ok := p.defs[tok.text]
	if !ok {
		return types.None, errors.Errorf("undefined type %q (at offset %d)", tok.text, tok.pos)
	}
	base := p.g.NewLazy(def)
	if !p.accept(tLess) {
		return base, nil
	}
	var args []types.TypeID
	for {
		a, err := p.parseType()
		if err != nil {
			return types.None, err
		}
		args = append(args, a)
		if p.accept(tComma) {
			continue
		}
		if _, err := p.expect(tGreater); err != nil {
			return types.None, err
		}
		return p.g.NewApplication(base, args...), nil
	}
}

// parseFunc parses either a function type (name: T, ...) => R or a
// parenthesized type. Function parameters are always named, so one
// token of lookahead past the paren decides.
func (p *Parser) parseFunc(typeParams []types.ParamID) (types.TypeID, error) {
	if !p.isFuncAhead() {
		if typeParams != nil {
			return types.None, p.errAt(p.peek(), "expected a parameter list")
		}
		p.next() // (
		t, err := p.parseType()
		if err != nil {
			return types.None, err
		}
		if _, err := p.expect(tRParen); err != nil {
			return types.None, err
		}
		return t, nil
	}
	shape, err := p.parseFuncShape(typeParams)
	if err != nil {
		return types.None, err
	}
	return p.g.NewFunc(shape), nil
}

// isFuncAhead reports whether the ( at the cursor opens a parameter
// list: (), (...x, or (name: or (name?: and nothing else.
func (p *Parser) isFuncAhead() bool {
	k := func(i int) tokenKind {
		if p.pos+i >= len(p.toks) {
			return tEOF
		}
		return p.toks[p.pos+i].kind
	}
	if k(0) != tLParen {
		return false
	}
	if k(1) == tRParen || k(1) == tEllipsis {
		return true
	}
	if k(1) != tIdent {
		return false
	}
	if k(2) == tColon {
		return true
	}
	return k(2) == tQuestion && k(3) == tColon
}

func (p *Parser) parseFuncShape(typeParams []types.ParamID) (types.FuncShape, error) {
	shape := types.FuncShape{TypeParams: typeParams}
	if _, err := p.expect(tLParen); err != nil {
		return shape, err
	}
	for !p.accept(tRParen) {
		var param types.Param
		if p.accept(tEllipsis) {
			param.Rest = true
		}
		name, err := p.expect(tIdent)
		if err != nil {
			return shape, err
		}
		param.Name = name.text
		param.Optional = p.accept(tQuestion)
		if _, err := p.expect(tColon); err != nil {
			return shape, err
		}
		if param.Type, err = p.parseType(); err != nil {
			return shape, err
		}
		if name.text == "this" && !param.Rest {
			shape.This = param.Type
		} else {
			shape.Params = append(shape.Params, param)
		}
		if !p.accept(tComma) {
			if _, err := p.expect(tRParen); err != nil {
				return shape, err
			}
			break
		}
	}
	if _, err := p.expect(tArrow); err != nil {
		return shape, err
	}
	ret, err := p.parseType()
	if err != nil {
		return shape, err
	}
	shape.Return = ret
	return shape, nil
}

func (p *Parser) parseObject() (types.TypeID, error) {
	p.next() // {
	var shape types.ObjectShape
	for !p.accept(tRBrace) {
		if p.accept(tLBrack) {
			// [key: string]: T or [key: number]: T
			if _, err := p.expect(tIdent); err != nil {
				return types.None, err
			}
			if _, err := p.expect(tColon); err != nil {
				return types.None, err
			}
			kind, err := p.expect(tIdent)
			if err != nil {
				return types.None, err
			}
			if _, err := p.expect(tRBrack); err != nil {
				return types.None, err
			}
			if _, err := p.expect(tColon); err != nil {
				return types.None, err
			}
			val, err := p.parseType()
			if err != nil {
				return types.None, err
			}
			switch kind.text {
			case "string":
				shape.StringIndex = val
			case "number":
				shape.NumberIndex = val
			default:
				return types.None, errors.Errorf("index signature key must be string or number, not %q (at offset %d)", kind.text, kind.pos)
			}
		} else {
			var prop types.Prop
			name := p.next()
			if name.kind == tIdent && name.text == "readonly" && p.peek().kind != tColon && p.peek().kind != tQuestion {
				prop.Readonly = true
				name = p.next()
			}
			if name.kind != tIdent && name.kind != tString {
				return types.None, p.errAt(name, "expected a property name")
			}
			prop.Name = name.text
			prop.Optional = p.accept(tQuestion)
			if _, err := p.expect(tColon); err != nil {
				return types.None, err
			}
			var err error
			if prop.Type, err = p.parseType(); err != nil {
				return types.None, err
			}
			shape.Props = append(shape.Props, prop)
		}
		if !p.accept(tComma) && !p.accept(tSemi) {
			if _, err := p.expect(tRBrace); err != nil {
				return types.None, err
			}
			break
		}
	}
	return p.g.NewObject(shape), nil
}

func (p *Parser) parseTuple() (types.TypeID, error) {
	p.next() // [
	var elems []types.TupleElem
	for !p.accept(tRBrack) {
		var elem types.TupleElem
		if p.accept(tEllipsis) {
			elem.Rest = true
		}
		var err error
		if elem.Type, err = p.parseType(); err != nil {
			return types.None, err
		}
		elem.Optional = p.accept(tQuestion)
		elems = append(elems, elem)
		if !p.accept(tComma) {
			if _, err := p.expect(tRBrack); err != nil {
				return types.None, err
			}
			break
		}
	}
	return p.g.NewTuple(elems...), nil
}

func (p *Parser) parseTemplate() (types.TypeID, error) {
	p.next() // opening backtick
	var spans []types.TemplateSpan
	for {
		switch tok := p.next(); tok.kind {
		case tText:
			spans = append(spans, types.TemplateSpan{Text: tok.text})
		case tHole:
			t, err := p.parseType()
			if err != nil {
				return types.None, err
			}
			spans = append(spans, types.TemplateSpan{Type: t})
		case tBacktick:
			return p.g.NewTemplate(spans...), nil
		default:
			return types.None, p.errAt(tok, "expected template text or closing backtick")
		}
	}
}
