package script

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/token"

	"github.com/vovakirdan/tui-codequest/internal/engine"
)

type control uint8

const (
	ctlNormal control = iota
	ctlBreak
	ctlContinue
	ctlReturn
)

type binding struct {
	value    Value
	constant bool
}

type scope struct {
	vars     map[string]*binding
	parent   *scope
	function bool
}

func newScope(parent *scope, function bool) *scope {
	return &scope{vars: make(map[string]*binding), parent: parent, function: function}
}

func (s *scope) lookup(name string) *binding {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.vars[name]; ok {
			return b
		}
	}
	return nil
}

// functionScope returns the nearest scope var declarations belong to.
func (s *scope) functionScope() *scope {
	sc := s
	for sc.parent != nil && !sc.function {
		sc = sc.parent
	}
	return sc
}

func (s *scope) root() *scope {
	sc := s
	for sc.parent != nil {
		sc = sc.parent
	}
	return sc
}

// interp walks a parsed program. Only the node types handled below are
// accepted; everything else is reported as unsupported.
type interp struct {
	prog     *ast.Program
	host     Host
	resolver *engine.Resolver
	limits   Limits
	builtins map[string]*hostFunc

	global   *scope
	steps    int
	commands int
	depth    int
	retVal   Value
}

func newInterp(prog *ast.Program, host Host, resolver *engine.Resolver, limits Limits) *interp {
	in := &interp{
		prog:     prog,
		host:     host,
		resolver: resolver,
		limits:   limits,
		global:   newScope(nil, true),
		retVal:   undefined{},
	}
	in.builtins = builtins()
	return in
}

func (in *interp) run() error {
	if err := in.hoist(in.prog.Body, in.global); err != nil {
		return err
	}
	_, err := in.execList(in.prog.Body, in.global)
	return err
}

func (in *interp) step(node ast.Node) error {
	in.steps++
	if in.limits.MaxSteps > 0 && in.steps > in.limits.MaxSteps {
		return in.errorAt(node, KindOther, "your program ran for too long; is there a loop that never ends")
	}
	return nil
}

func (in *interp) isBuiltin(name string) bool {
	_, ok := in.builtins[name]
	return ok
}

// warnBuiltin reports a skipped attempt to redefine a host action.
func (in *interp) warnBuiltin(node ast.Node, name string) error {
	return in.warnAt(node, fmt.Sprintf("%s is a built-in action and can't be redefined, so that part was skipped.", name))
}

// warnAt logs a warning prefixed with the line of node.
func (in *interp) warnAt(node ast.Node, msg string) error {
	if e := in.errorAt(node, KindOther, ""); e.Line > 0 {
		msg = fmt.Sprintf("Line %d: %s", e.Line, msg)
	}
	return in.host.Log(msg, log.WarnLevel)
}

// hoist declares the function declarations of a statement list up front.
func (in *interp) hoist(list []ast.Statement, sc *scope) error {
	for _, stmt := range list {
		fd, ok := stmt.(*ast.FunctionDeclaration)
		if !ok || fd.Function.Name == nil {
			continue
		}
		name := string(fd.Function.Name.Name)
		if in.isBuiltin(name) {
			if err := in.warnBuiltin(fd.Function, name); err != nil {
				return err
			}
			continue
		}
		fn, err := in.makeFunc(fd.Function, sc)
		if err != nil {
			return err
		}
		sc.vars[name] = &binding{value: fn}
	}
	return nil
}

func (in *interp) makeFunc(lit *ast.FunctionLiteral, sc *scope) (*userFunc, error) {
	if lit.Async || lit.Generator {
		return nil, in.errorAt(lit, KindSyntax, "async and generator functions are not supported here")
	}
	if lit.ParameterList != nil && lit.ParameterList.Rest != nil {
		return nil, in.errorAt(lit, KindSyntax, "rest parameters are not supported here")
	}
	fn := &userFunc{name: "anonymous", body: lit.Body, closure: sc}
	if lit.Name != nil {
		fn.name = string(lit.Name.Name)
	}
	if lit.ParameterList != nil {
		for _, p := range lit.ParameterList.List {
			id, ok := p.Target.(*ast.Identifier)
			if !ok {
				return nil, in.errorAt(lit, KindSyntax, "destructuring parameters are not supported here")
			}
			if in.isBuiltin(string(id.Name)) {
				return nil, in.errorAt(id, KindSyntax, "%s can't be used as a parameter name", id.Name)
			}
			fn.params = append(fn.params, p)
		}
	}
	return fn, nil
}

func (in *interp) execList(list []ast.Statement, sc *scope) (control, error) {
	for _, stmt := range list {
		ctl, err := in.exec(stmt, sc)
		if err != nil || ctl != ctlNormal {
			return ctl, err
		}
	}
	return ctlNormal, nil
}

func (in *interp) execBlock(list []ast.Statement, sc *scope) (control, error) {
	if err := in.hoist(list, sc); err != nil {
		return ctlNormal, err
	}
	return in.execList(list, sc)
}

func (in *interp) exec(stmt ast.Statement, sc *scope) (control, error) {
	if err := in.step(stmt); err != nil {
		return ctlNormal, err
	}

	switch s := stmt.(type) {
	case *ast.EmptyStatement, *ast.FunctionDeclaration:
		return ctlNormal, nil

	case *ast.ExpressionStatement:
		_, err := in.eval(s.Expression, sc)
		return ctlNormal, err

	case *ast.BlockStatement:
		return in.execBlock(s.List, newScope(sc, false))

	case *ast.VariableStatement:
		return ctlNormal, in.declare(s.List, sc.functionScope(), sc, false)

	case *ast.LexicalDeclaration:
		return ctlNormal, in.declare(s.List, sc, sc, s.Token == token.CONST)

	case *ast.IfStatement:
		test, err := in.eval(s.Test, sc)
		if err != nil {
			return ctlNormal, err
		}
		if truthy(test) {
			return in.exec(s.Consequent, sc)
		}
		if s.Alternate != nil {
			return in.exec(s.Alternate, sc)
		}
		return ctlNormal, nil

	case *ast.WhileStatement:
		for {
			test, err := in.eval(s.Test, sc)
			if err != nil {
				return ctlNormal, err
			}
			if !truthy(test) {
				return ctlNormal, nil
			}
			ctl, err := in.exec(s.Body, sc)
			if err != nil || ctl == ctlReturn {
				return ctl, err
			}
			if ctl == ctlBreak {
				return ctlNormal, nil
			}
		}

	case *ast.DoWhileStatement:
		for {
			ctl, err := in.exec(s.Body, sc)
			if err != nil || ctl == ctlReturn {
				return ctl, err
			}
			if ctl == ctlBreak {
				return ctlNormal, nil
			}
			test, err := in.eval(s.Test, sc)
			if err != nil {
				return ctlNormal, err
			}
			if !truthy(test) {
				return ctlNormal, nil
			}
		}

	case *ast.ForStatement:
		return in.execFor(s, sc)

	case *ast.BranchStatement:
		if s.Label != nil {
			return ctlNormal, in.errorAt(s, KindSyntax, "labels are not supported here")
		}
		if s.Token == token.CONTINUE {
			return ctlContinue, nil
		}
		return ctlBreak, nil

	case *ast.ReturnStatement:
		if in.depth == 0 {
			return ctlNormal, in.errorAt(s, KindSyntax, "return can only be used inside a function")
		}
		in.retVal = undefined{}
		if s.Argument != nil {
			v, err := in.eval(s.Argument, sc)
			if err != nil {
				return ctlNormal, err
			}
			in.retVal = v
		}
		return ctlReturn, nil
	}

	return ctlNormal, in.unsupported(stmt)
}

func (in *interp) execFor(s *ast.ForStatement, sc *scope) (control, error) {
	loop := newScope(sc, false)

	switch init := s.Initializer.(type) {
	case nil:
	case *ast.ForLoopInitializerExpression:
		if _, err := in.eval(init.Expression, loop); err != nil {
			return ctlNormal, err
		}
	case *ast.ForLoopInitializerVarDeclList:
		if err := in.declare(init.List, sc.functionScope(), loop, false); err != nil {
			return ctlNormal, err
		}
	case *ast.ForLoopInitializerLexicalDecl:
		if err := in.declare(init.LexicalDeclaration.List, loop, loop, init.LexicalDeclaration.Token == token.CONST); err != nil {
			return ctlNormal, err
		}
	default:
		return ctlNormal, in.unsupported(s)
	}

	for {
		if s.Test != nil {
			test, err := in.eval(s.Test, loop)
			if err != nil {
				return ctlNormal, err
			}
			if !truthy(test) {
				return ctlNormal, nil
			}
		}
		ctl, err := in.exec(s.Body, loop)
		if err != nil || ctl == ctlReturn {
			return ctl, err
		}
		if ctl == ctlBreak {
			return ctlNormal, nil
		}
		if s.Update != nil {
			if _, err := in.eval(s.Update, loop); err != nil {
				return ctlNormal, err
			}
		}
		// An empty loop with no test, body or update still has to burn steps.
		if err := in.step(s); err != nil {
			return ctlNormal, err
		}
	}
}

// declare handles var, let and const bindings. Bindings land in target;
// initializers are evaluated in sc.
func (in *interp) declare(list []*ast.Binding, target, sc *scope, constant bool) error {
	for _, b := range list {
		id, ok := b.Target.(*ast.Identifier)
		if !ok {
			return in.errorAt(b.Target, KindSyntax, "destructuring is not supported here")
		}
		name := string(id.Name)
		if in.isBuiltin(name) {
			if err := in.warnBuiltin(id, name); err != nil {
				return err
			}
			continue
		}

		var v Value = undefined{}
		if b.Initializer != nil {
			var err error
			if v, err = in.eval(b.Initializer, sc); err != nil {
				return err
			}
		}
		if existing, ok := target.vars[name]; ok && existing.constant {
			return in.errorAt(id, KindOther, "%s is a constant and can't be declared again", name)
		}
		target.vars[name] = &binding{value: v, constant: constant}
	}
	return nil
}

func (in *interp) eval(expr ast.Expression, sc *scope) (Value, error) {
	if err := in.step(expr); err != nil {
		return nil, err
	}

	switch e := expr.(type) {
	case *ast.NumberLiteral:
		switch n := e.Value.(type) {
		case int64:
			return float64(n), nil
		case float64:
			return n, nil
		}
		f, err := strconv.ParseFloat(e.Literal, 64)
		if err != nil {
			return nil, in.errorAt(e, KindSyntax, "%s is not a number I can use", e.Literal)
		}
		return f, nil

	case *ast.StringLiteral:
		return string(e.Value), nil

	case *ast.BooleanLiteral:
		return e.Value, nil

	case *ast.NullLiteral:
		return null{}, nil

	case *ast.Identifier:
		return in.lookup(e, sc)

	case *ast.BinaryExpression:
		return in.evalBinary(e, sc)

	case *ast.UnaryExpression:
		return in.evalUnary(e, sc)

	case *ast.AssignExpression:
		return in.evalAssign(e, sc)

	case *ast.ConditionalExpression:
		test, err := in.eval(e.Test, sc)
		if err != nil {
			return nil, err
		}
		if truthy(test) {
			return in.eval(e.Consequent, sc)
		}
		return in.eval(e.Alternate, sc)

	case *ast.SequenceExpression:
		var last Value = undefined{}
		for _, item := range e.Sequence {
			v, err := in.eval(item, sc)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil

	case *ast.CallExpression:
		return in.evalCall(e, sc)

	case *ast.FunctionLiteral:
		return in.makeFunc(e, sc)

	case *ast.DotExpression, *ast.BracketExpression, *ast.PrivateDotExpression:
		return nil, in.errorAt(e, KindPropertyAccess, "%s is not available", describe(e))
	}

	return nil, in.unsupported(expr)
}

func (in *interp) lookup(id *ast.Identifier, sc *scope) (Value, error) {
	name := string(id.Name)
	if b := sc.lookup(name); b != nil {
		return b.value, nil
	}
	if fn, ok := in.builtins[name]; ok {
		return fn, nil
	}
	switch name {
	case "undefined":
		return undefined{}, nil
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	}
	return nil, in.errorAt(id, KindReference, "%s is not defined", name)
}

func (in *interp) evalBinary(e *ast.BinaryExpression, sc *scope) (Value, error) {
	left, err := in.eval(e.Left, sc)
	if err != nil {
		return nil, err
	}

	switch e.Operator {
	case token.LOGICAL_AND:
		if !truthy(left) {
			return left, nil
		}
		return in.eval(e.Right, sc)
	case token.LOGICAL_OR:
		if truthy(left) {
			return left, nil
		}
		return in.eval(e.Right, sc)
	case token.COALESCE:
		switch left.(type) {
		case undefined, null:
			return in.eval(e.Right, sc)
		}
		return left, nil
	}

	right, err := in.eval(e.Right, sc)
	if err != nil {
		return nil, err
	}
	return in.binaryOp(e, e.Operator, left, right)
}

func (in *interp) binaryOp(node ast.Node, op token.Token, left, right Value) (Value, error) {
	switch op {
	case token.PLUS:
		_, ls := left.(string)
		_, rs := right.(string)
		if ls || rs {
			return toString(left) + toString(right), nil
		}
		return toNumber(left) + toNumber(right), nil
	case token.MINUS:
		return toNumber(left) - toNumber(right), nil
	case token.MULTIPLY:
		return toNumber(left) * toNumber(right), nil
	case token.SLASH:
		return toNumber(left) / toNumber(right), nil
	case token.REMAINDER:
		return math.Mod(toNumber(left), toNumber(right)), nil
	case token.EXPONENT:
		return math.Pow(toNumber(left), toNumber(right)), nil
	case token.EQUAL:
		return looseEquals(left, right), nil
	case token.NOT_EQUAL:
		return !looseEquals(left, right), nil
	case token.STRICT_EQUAL:
		return strictEquals(left, right), nil
	case token.STRICT_NOT_EQUAL:
		return !strictEquals(left, right), nil
	case token.LESS, token.GREATER, token.LESS_OR_EQUAL, token.GREATER_OR_EQUAL:
		return compare(op, left, right), nil
	case token.LOGICAL_AND:
		if !truthy(left) {
			return left, nil
		}
		return right, nil
	case token.LOGICAL_OR:
		if truthy(left) {
			return left, nil
		}
		return right, nil
	case token.COALESCE:
		switch left.(type) {
		case undefined, null:
			return right, nil
		}
		return left, nil
	}
	return nil, in.errorAt(node, KindSyntax, "the %s operator is not supported here", op)
}

func compare(op token.Token, left, right Value) bool {
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case token.LESS:
			return ls < rs
		case token.GREATER:
			return ls > rs
		case token.LESS_OR_EQUAL:
			return ls <= rs
		default:
			return ls >= rs
		}
	}
	l, r := toNumber(left), toNumber(right)
	switch op {
	case token.LESS:
		return l < r
	case token.GREATER:
		return l > r
	case token.LESS_OR_EQUAL:
		return l <= r
	default:
		return l >= r
	}
}

func (in *interp) evalUnary(e *ast.UnaryExpression, sc *scope) (Value, error) {
	switch e.Operator {
	case token.INCREMENT, token.DECREMENT:
		return in.evalUpdate(e, sc)
	case token.TYPEOF:
		if id, ok := e.Operand.(*ast.Identifier); ok && sc.lookup(string(id.Name)) == nil && !in.isBuiltin(string(id.Name)) {
			return "undefined", nil
		}
	}

	v, err := in.eval(e.Operand, sc)
	if err != nil {
		return nil, err
	}
	switch e.Operator {
	case token.NOT:
		return !truthy(v), nil
	case token.MINUS:
		return -toNumber(v), nil
	case token.PLUS:
		return toNumber(v), nil
	case token.TYPEOF:
		return typeName(v), nil
	case token.VOID:
		return undefined{}, nil
	}
	return nil, in.errorAt(e, KindSyntax, "the %s operator is not supported here", e.Operator)
}

func (in *interp) evalUpdate(e *ast.UnaryExpression, sc *scope) (Value, error) {
	id, ok := e.Operand.(*ast.Identifier)
	if !ok {
		if isMember(e.Operand) {
			return nil, in.errorAt(e.Operand, KindPropertyAccess, "%s is not available", describe(e.Operand))
		}
		return nil, in.errorAt(e, KindSyntax, "%s can only change a variable", e.Operator)
	}
	name := string(id.Name)
	if in.isBuiltin(name) {
		return undefined{}, in.warnBuiltin(id, name)
	}
	b := sc.lookup(name)
	if b == nil {
		return nil, in.errorAt(id, KindReference, "%s is not defined", name)
	}
	if b.constant {
		return nil, in.errorAt(id, KindOther, "%s is a constant and can't be changed", name)
	}

	old := toNumber(b.value)
	next := old + 1
	if e.Operator == token.DECREMENT {
		next = old - 1
	}
	b.value = next
	if e.Postfix {
		return old, nil
	}
	return next, nil
}

func (in *interp) evalAssign(e *ast.AssignExpression, sc *scope) (Value, error) {
	id, ok := e.Left.(*ast.Identifier)
	if !ok {
		if isMember(e.Left) {
			return nil, in.errorAt(e.Left, KindPropertyAccess, "%s is not available", describe(e.Left))
		}
		return nil, in.unsupported(e.Left)
	}
	name := string(id.Name)
	if in.isBuiltin(name) {
		return undefined{}, in.warnBuiltin(id, name)
	}

	b := sc.lookup(name)
	var v Value
	if e.Operator == token.ASSIGN {
		var err error
		if v, err = in.eval(e.Right, sc); err != nil {
			return nil, err
		}
	} else {
		if b == nil {
			return nil, in.errorAt(id, KindReference, "%s is not defined", name)
		}
		right, err := in.eval(e.Right, sc)
		if err != nil {
			return nil, err
		}
		if v, err = in.binaryOp(e, e.Operator, b.value, right); err != nil {
			return nil, err
		}
	}

	if b == nil {
		// Assigning an undeclared name creates a global.
		sc.root().vars[name] = &binding{value: v}
		return v, nil
	}
	if b.constant {
		return nil, in.errorAt(id, KindOther, "%s is a constant and can't be changed", name)
	}
	b.value = v
	return v, nil
}

func (in *interp) evalCall(e *ast.CallExpression, sc *scope) (Value, error) {
	var callee Value
	switch c := e.Callee.(type) {
	case *ast.Identifier:
		v, err := in.lookup(c, sc)
		if err != nil {
			return nil, err
		}
		callee = v
	case *ast.DotExpression, *ast.BracketExpression, *ast.PrivateDotExpression:
		return nil, in.errorAt(c, KindPropertyAccess, "%s is not available", describe(c))
	default:
		v, err := in.eval(c, sc)
		if err != nil {
			return nil, err
		}
		callee = v
	}

	args := make([]Value, 0, len(e.ArgumentList))
	for _, a := range e.ArgumentList {
		if _, spread := a.(*ast.SpreadElement); spread {
			return nil, in.unsupported(a)
		}
		v, err := in.eval(a, sc)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	switch fn := callee.(type) {
	case *hostFunc:
		return fn.call(in, e, args)
	case *userFunc:
		return in.callUser(e, fn, args)
	}
	return nil, in.errorAt(e, KindOther, "%s is not a function", describe(e.Callee))
}

func (in *interp) callUser(node ast.Node, fn *userFunc, args []Value) (Value, error) {
	in.depth++
	defer func() { in.depth-- }()
	if in.limits.MaxDepth > 0 && in.depth > in.limits.MaxDepth {
		return nil, in.errorAt(node, KindOther, "too many functions calling each other; does %s call itself forever", fn.name)
	}

	sc := newScope(fn.closure, true)
	for i, p := range fn.params {
		id := p.Target.(*ast.Identifier)
		var v Value = undefined{}
		if i < len(args) {
			v = args[i]
		}
		if _, missing := v.(undefined); missing && p.Initializer != nil {
			var err error
			if v, err = in.eval(p.Initializer, sc); err != nil {
				return nil, err
			}
		}
		sc.vars[string(id.Name)] = &binding{value: v}
	}

	ctl, err := in.execBlock(fn.body.List, sc)
	if err != nil {
		return nil, err
	}
	if ctl == ctlReturn {
		v := in.retVal
		in.retVal = undefined{}
		return v, nil
	}
	return undefined{}, nil
}

func isMember(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.DotExpression, *ast.BracketExpression, *ast.PrivateDotExpression:
		return true
	}
	return false
}

// describe renders an expression the way a learner wrote it, roughly.
func describe(expr ast.Expression) string {
	switch e := expr.(type) {
	case *ast.Identifier:
		return string(e.Name)
	case *ast.DotExpression:
		return describe(e.Left) + "." + string(e.Identifier.Name)
	case *ast.PrivateDotExpression:
		return describe(e.Left) + ".#" + string(e.Identifier.Name)
	case *ast.BracketExpression:
		return describe(e.Left) + "[...]"
	case *ast.CallExpression:
		return describe(e.Callee) + "()"
	case *ast.StringLiteral:
		return strconv.Quote(string(e.Value))
	case *ast.NumberLiteral:
		return e.Literal
	}
	return "that value"
}

func (in *interp) unsupported(node ast.Node) error {
	var what string
	switch node.(type) {
	case *ast.ObjectLiteral, *ast.ObjectPattern:
		what = "objects"
	case *ast.ArrayLiteral, *ast.ArrayPattern:
		what = "arrays"
	case *ast.ArrowFunctionLiteral:
		what = "arrow functions"
	case *ast.NewExpression:
		what = "new"
	case *ast.ThisExpression:
		what = "this"
	case *ast.TemplateLiteral:
		what = "template strings"
	case *ast.RegExpLiteral:
		what = "regular expressions"
	case *ast.ClassLiteral, *ast.ClassDeclaration:
		what = "classes"
	case *ast.SwitchStatement:
		what = "switch"
	case *ast.TryStatement:
		what = "try/catch"
	case *ast.ThrowStatement:
		what = "throw"
	case *ast.ForInStatement:
		what = "for...in loops"
	case *ast.ForOfStatement:
		what = "for...of loops"
	case *ast.LabelledStatement:
		what = "labels"
	case *ast.WithStatement:
		what = "with"
	case *ast.DebuggerStatement:
		what = "debugger"
	case *ast.SpreadElement:
		what = "spread arguments"
	case *ast.YieldExpression, *ast.AwaitExpression:
		what = "async code"
	default:
		what = strings.TrimPrefix(fmt.Sprintf("%T", node), "*ast.")
	}
	return in.errorAt(node, KindSyntax, "%s is not supported here", what)
}
