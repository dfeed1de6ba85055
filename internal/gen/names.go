// # internal/gen/names.go
package gen

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/dave/jennifer/jen"
)

// enginePkg is the runtime package every generated file imports.
const enginePkg = "scriptbridge/pkg/engine"

// exportedName converts a snake_case script member name to the exported Go
// name it is forwarded under. health_changed -> HealthChanged.
func exportedName(s string) string {
	var b strings.Builder
	upper := true
	for _, r := range s {
		if r == '_' || r == '-' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var goReserved = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

// paramName converts a script parameter name to a Go parameter name,
// stepping around Go keywords.
func paramName(s string) string {
	name := exportedName(s)
	if name == "" {
		return "arg"
	}
	name = strings.ToLower(name[:1]) + name[1:]
	if goReserved[name] {
		return name + "Arg"
	}
	return name
}

// typeKind is the small set of Go shapes script annotations map onto.
// Everything without a direct mapping travels as engine.Variant.
type typeKind int

const (
	tVariant typeKind = iota
	tInt
	tFloat
	tBool
	tString
	tVoid
)

func mapType(annotation string) typeKind {
	switch annotation {
	case "int":
		return tInt
	case "float":
		return tFloat
	case "bool":
		return tBool
	case "String", "StringName", "NodePath":
		return tString
	case "void":
		return tVoid
	default:
		return tVariant
	}
}

// goType renders the Go type for a kind. tVoid has no rendering; callers
// omit the result clause instead.
func (k typeKind) goType() *jen.Statement {
	switch k {
	case tInt:
		return jen.Int64()
	case tFloat:
		return jen.Float64()
	case tBool:
		return jen.Bool()
	case tString:
		return jen.String()
	default:
		return jen.Qual(enginePkg, "Variant")
	}
}

// fromVariant wraps a Variant-producing expression in the coercion helper
// for the kind. Variants pass through untouched.
func (k typeKind) fromVariant(expr *jen.Statement) *jen.Statement {
	switch k {
	case tInt:
		return jen.Qual(enginePkg, "AsInt").Call(expr)
	case tFloat:
		return jen.Qual(enginePkg, "AsFloat").Call(expr)
	case tBool:
		return jen.Qual(enginePkg, "AsBool").Call(expr)
	case tString:
		return jen.Qual(enginePkg, "AsString").Call(expr)
	default:
		return expr
	}
}

// resourcePath turns a normalized source path into the engine resource
// reference echoed into generated output.
func resourcePath(path string) string {
	path = filepath.ToSlash(path)
	if strings.HasPrefix(path, "res://") {
		return path
	}
	return "res://" + strings.TrimPrefix(path, "/")
}

// fileName is the output file name for a generated type, snake_cased.
// Node2DProxy -> node2d_proxy.go.
func fileName(typeName string) string {
	runes := []rune(typeName)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prevLower := unicode.IsLower(runes[i-1])
			acronymEnd := unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || acronymEnd {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String() + ".go"
}
