package script

import (
	"math"
	"strconv"
	"strings"

	"github.com/dop251/goja/ast"
)

// Value is a runtime value: float64, string, bool, undefined, null,
// *userFunc or *hostFunc.
type Value any

type undefined struct{}

type null struct{}

// userFunc is a function declared by the learner.
type userFunc struct {
	name    string
	params  []*ast.Binding
	body    *ast.BlockStatement
	closure *scope
}

// hostFunc is one of the built-in actions.
type hostFunc struct {
	name string
	call func(in *interp, node *ast.CallExpression, args []Value) (Value, error)
}

func truthy(v Value) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	case undefined, null:
		return false
	default:
		return true
	}
}

func toNumber(v Value) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case null:
		return 0
	default:
		return math.NaN()
	}
}

func toString(v Value) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return formatNumber(x)
	case bool:
		return strconv.FormatBool(x)
	case undefined:
		return "undefined"
	case null:
		return "null"
	case *userFunc:
		return "function " + x.name + "() { ... }"
	case *hostFunc:
		return "function " + x.name + "() { [built-in] }"
	default:
		return ""
	}
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func typeName(v Value) string {
	switch v.(type) {
	case float64:
		return "number"
	case string:
		return "string"
	case bool:
		return "boolean"
	case undefined:
		return "undefined"
	case null:
		return "object"
	case *userFunc, *hostFunc:
		return "function"
	default:
		return "unknown"
	}
}

func strictEquals(a, b Value) bool {
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case undefined:
		_, ok := b.(undefined)
		return ok
	case null:
		_, ok := b.(null)
		return ok
	default:
		return a == b
	}
}

func looseEquals(a, b Value) bool {
	if typeName(a) == typeName(b) {
		return strictEquals(a, b)
	}
	_, aNil := a.(undefined)
	_, aNull := a.(null)
	_, bNil := b.(undefined)
	_, bNull := b.(null)
	if (aNil || aNull) && (bNil || bNull) {
		return true
	}
	if aNil || aNull || bNil || bNull {
		return false
	}
	switch a.(type) {
	case *userFunc, *hostFunc:
		return false
	}
	switch b.(type) {
	case *userFunc, *hostFunc:
		return false
	}
	return toNumber(a) == toNumber(b)
}
