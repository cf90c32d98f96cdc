// Typal is an interactive front end to the type-relation engine.
// Every operand is a type; there is no value language.
//
//	type Pair<A, B> = { first: A, second: B }
//	Pair<number, string> <: { first: number }
//	"id-7" ~ `id-${string}`
//	call Pick(1, "a") : number
//	:dump Pair<number, string>
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eaburns/pretty"
	"github.com/jessevdk/go-flags"
	"github.com/peterh/liner"

	"github.com/typal-lang/typal/typeexpr"
	"github.com/typal-lang/typal/types"
)

const (
	historyFile = ".typal_history"
	prompt      = "typal> "
)

const helpText = `statements:
  type Name<T, ...> = TYPE    declare a (possibly generic) alias
  TYPE <: TYPE                is the left assignable to the right?
  TYPE ~ TYPE                 could a value inhabit both?
  call TYPE(TYPE, ...)        resolve a call; append : TYPE for an
                              expected return type
commands:
  :dump TYPE   show the interned structure of a type
  :help        this text
  :quit        exit
`

type options struct {
	Trace     bool     `short:"t" long:"trace" description:"trace relation steps to stderr"`
	Bivariant bool     `long:"bivariant" description:"compare all function parameters bivariantly"`
	Sound     bool     `long:"sound-freshness" description:"keep freshness markers across call boundaries"`
	Eval      []string `short:"e" long:"eval" value-name:"STMT" description:"evaluate a statement and exit"`
}

func main() {
	pretty.Indent = "    "

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return
		}
		os.Exit(2)
	}

	s := newSession(opts)
	if len(opts.Eval) > 0 {
		for _, stmt := range opts.Eval {
			if !s.eval(stmt) {
				os.Exit(1)
			}
		}
		return
	}
	repl(s)
}

type session struct {
	graph   *types.Graph
	env     *types.Env
	parser  *typeexpr.Parser
	checker *types.Checker
}

func newSession(opts options) *session {
	g := types.NewGraph()
	env := types.NewEnv(g)
	return &session{
		graph:  g,
		env:    env,
		parser: typeexpr.New(g, env),
		checker: types.NewChecker(g, env, types.Config{
			Trace:              opts.Trace,
			BivariantCallbacks: opts.Bivariant,
			SoundFreshness:     opts.Sound,
		}),
	}
}

func repl(s *session) {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("typal: structural type relations. :help for help, :quit to exit.")
	for {
		line, err := ln.Prompt(prompt)
		if err != nil {
			fmt.Println()
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ":quit" || line == ":q" {
			return
		}
		ln.AppendHistory(line)
		s.eval(line)
	}
}

// eval runs one statement, printing its result or error. It reports
// whether the statement succeeded.
func (s *session) eval(line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == ":help":
		fmt.Print(helpText)
		return true
	case strings.HasPrefix(line, ":dump"):
		return s.dump(strings.TrimSpace(strings.TrimPrefix(line, ":dump")))
	case strings.HasPrefix(line, ":"):
		fmt.Println("unknown command; :help lists them")
		return false
	case strings.HasPrefix(line, "type ") || strings.HasPrefix(line, "type\t"):
		if err := s.parser.Define(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return false
		}
		return true
	case strings.HasPrefix(line, "call ") || strings.HasPrefix(line, "call\t"):
		return s.call(strings.TrimSpace(line[len("call"):]))
	}

	if left, right, ok := splitTopLevel(line, "<:"); ok {
		return s.relate(left, right, func(a, b types.TypeID) bool {
			return s.checker.AssignableTo(a, b)
		})
	}
	if left, right, ok := splitTopLevel(line, "~"); ok {
		return s.relate(left, right, s.checker.Overlapping)
	}

	// A bare type expression echoes its normal form.
	id, err := s.parser.ParseType(line)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	fmt.Println(s.graph.String(id))
	return true
}

func (s *session) relate(left, right string, rel func(a, b types.TypeID) bool) bool {
	a, err := s.parser.ParseType(left)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	b, err := s.parser.ParseType(right)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	fmt.Println(rel(a, b))
	return true
}

func (s *session) dump(src string) bool {
	id, err := s.parser.ParseType(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	fmt.Printf("%s = #%d\n", s.graph.String(id), id)
	pretty.Print(s.graph.Data(id))
	fmt.Println()
	return true
}

// call evaluates "Callee(Arg, ...)" with an optional ": Expected"
// suffix. The callee must not contain a top-level parenthesis; name
// function types first when calling them.
func (s *session) call(src string) bool {
	open := indexTopLevel(src, '(')
	if open < 0 {
		fmt.Fprintln(os.Stderr, "call: expected Callee(Args...)")
		return false
	}
	closing := matchingParen(src, open)
	if closing < 0 {
		fmt.Fprintln(os.Stderr, "call: unbalanced parentheses")
		return false
	}

	call := types.Call{}
	var err error
	if call.Callee, err = s.parser.ParseType(strings.TrimSpace(src[:open])); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return false
	}
	for _, arg := range splitArgs(src[open+1 : closing]) {
		t, err := s.parser.ParseType(arg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return false
		}
		call.Args = append(call.Args, types.Arg{Type: t})
	}
	if rest := strings.TrimSpace(src[closing+1:]); rest != "" {
		if !strings.HasPrefix(rest, ":") {
			fmt.Fprintln(os.Stderr, "call: trailing input after argument list")
			return false
		}
		if call.Expected, err = s.parser.ParseType(strings.TrimSpace(rest[1:])); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return false
		}
	}

	fmt.Println(s.checker.FormatCallResult(s.checker.ResolveCall(call)))
	return true
}

// splitTopLevel splits s at the first occurrence of sep outside any
// brackets, quotes, or template literals.
func splitTopLevel(s, sep string) (left, right string, ok bool) {
	i := scanTopLevel(s, 0, func(s string, i int) bool {
		return strings.HasPrefix(s[i:], sep)
	})
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):]), true
}

func indexTopLevel(s string, c byte) int {
	return scanTopLevel(s, 0, func(s string, i int) bool { return s[i] == c })
}

// scanTopLevel walks s from index start and returns the first index
// at depth zero where stop reports a hit, or -1. Depth counts (), [],
// and {}; quoted strings and backtick templates are opaque.
func scanTopLevel(s string, start int, stop func(string, int) bool) int {
	depth := 0
	for i := start; i < len(s); i++ {
		if depth == 0 && stop(s, i) {
			return i
		}
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '"', '\'', '`':
			q := s[i]
			for i++; i < len(s) && s[i] != q; i++ {
				if s[i] == '\\' {
					i++
				}
			}
			if i >= len(s) {
				return -1
			}
		}
	}
	return -1
}

func matchingParen(s string, open int) int {
	return scanTopLevel(s, open+1, func(s string, i int) bool { return s[i] == ')' })
}

func splitArgs(s string) []string {
	var args []string
	for {
		i := indexTopLevel(s, ',')
		if i < 0 {
			break
		}
		args = append(args, strings.TrimSpace(s[:i]))
		s = s[i+1:]
	}
	if t := strings.TrimSpace(s); t != "" {
		args = append(args, t)
	}
	return args
}
