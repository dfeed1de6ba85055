// # internal/parser/parser.go

// Package parser turns GDScript source into ScriptClass declaration records.
// Parsing is declaration oriented: only unindented class_name/extends/var/
// func/signal lines are read, statement bodies are never interpreted.
package parser

import (
	"path/filepath"
	"strings"
	"unicode"

	"scriptbridge/internal/errors"
)

// Parse extracts the declaration surface of one script. A file without a
// class_name declaration yields CodeNoClassName, which callers treat as
// "skip this file"; structurally broken declarations yield CodeParseFailed.
// Either way a failure is local to the file.
func Parse(path string, src []byte) (*ScriptClass, error) {
	cls := &ScriptClass{
		Path: filepath.ToSlash(path),
	}

	lines := strings.Split(string(src), "\n")
	pendingExport := false
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimRight(stripComment(raw), " \t\r")
		if line == "" {
			continue
		}
		// Members live at the top level of the script; indented lines are
		// statement bodies or inner classes.
		if line[0] == ' ' || line[0] == '\t' {
			continue
		}

		exported := pendingExport
		pendingExport = false
		rest := line
		for strings.HasPrefix(rest, "@") {
			ann, after, err := splitAnnotation(rest)
			if err != nil {
				return nil, errors.AddContext(err, errors.CtxPath, cls.Path)
			}
			if strings.HasPrefix(ann, "@export") {
				exported = true
			}
			rest = strings.TrimSpace(after)
		}
		if rest == "" {
			// Annotations may stand on their own line above the declaration
			// they qualify.
			pendingExport = exported
			continue
		}

		keyword, tail := splitKeyword(rest)
		switch keyword {
		case "class_name":
			if err := parseClassName(cls, tail); err != nil {
				return nil, errors.AddContext(err, errors.CtxPath, cls.Path)
			}
		case "extends":
			base, err := parseBase(tail)
			if err != nil {
				return nil, errors.AddContext(err, errors.CtxPath, cls.Path)
			}
			cls.Base = base
		case "var", "const":
			v, err := parseVar(tail, lineNo)
			if err != nil {
				return nil, errors.AddContext(err, errors.CtxPath, cls.Path)
			}
			v.Exported = exported
			v.Constant = keyword == "const"
			cls.Variables = append(cls.Variables, v)
		case "func":
			fn, err := parseFunc(tail, lineNo)
			if err != nil {
				return nil, errors.AddContext(err, errors.CtxPath, cls.Path)
			}
			cls.Functions = append(cls.Functions, fn)
		case "signal":
			sig, err := parseSignal(tail, lineNo)
			if err != nil {
				return nil, errors.AddContext(err, errors.CtxPath, cls.Path)
			}
			cls.Signals = append(cls.Signals, sig)
		case "static":
			// Static functions are not part of the instance surface.
			continue
		}
	}

	if cls.Name == "" {
		return nil, errors.New(errors.CodeNoClassName, "no class_name declaration").WithContext(errors.CtxPath, cls.Path)
	}
	return cls, nil
}

func parseClassName(cls *ScriptClass, tail string) error {
	if cls.Name != "" {
		return errors.New(errors.CodeParseFailed, "duplicate class_name declaration")
	}
	fields := strings.Fields(tail)
	if len(fields) == 0 || !isIdent(fields[0]) {
		return errors.New(errors.CodeParseFailed, "class_name requires an identifier")
	}
	cls.Name = fields[0]
	// Godot 4 allows "class_name X extends Y" on one line.
	if len(fields) >= 2 {
		if fields[1] != "extends" || len(fields) < 3 {
			return errors.New(errors.CodeParseFailed, "malformed class_name declaration")
		}
		base, err := parseBase(strings.Join(fields[2:], " "))
		if err != nil {
			return err
		}
		cls.Base = base
	}
	return nil
}

func parseBase(tail string) (BaseRef, error) {
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return BaseRef{}, errors.New(errors.CodeParseFailed, "extends requires a base")
	}

	// extends "res://enemy.gd" references a script by path; the file stem in
	// PascalCase is how such classes name themselves.
	if tail[0] == '"' || tail[0] == '\'' {
		quote := tail[0]
		end := strings.IndexByte(tail[1:], quote)
		if end < 0 {
			return BaseRef{}, errors.New(errors.CodeParseFailed, "unterminated extends path")
		}
		stem := strings.TrimSuffix(filepath.Base(tail[1:1+end]), ".gd")
		if stem == "" {
			return BaseRef{}, errors.New(errors.CodeParseFailed, "empty extends path")
		}
		return BaseRef{Kind: BaseNamed, Name: pascal(stem)}, nil
	}

	name := strings.Fields(tail)[0]
	if !isIdent(name) {
		return BaseRef{}, errors.New(errors.CodeParseFailed, "malformed extends declaration").WithContext(errors.CtxBase, name)
	}
	if kind, ok := NativeKindByName(name); ok {
		return BaseRef{Kind: BaseNative, Native: kind}, nil
	}
	return BaseRef{Kind: BaseNamed, Name: name}, nil
}

func parseVar(tail string, line int) (Variable, error) {
	name, rest := takeIdent(tail)
	if name == "" {
		return Variable{}, errors.New(errors.CodeParseFailed, "var requires a name")
	}
	v := Variable{Name: name, Line: line}

	rest = strings.TrimSpace(rest)
	switch {
	case rest == "" || strings.HasPrefix(rest, "="), strings.HasPrefix(rest, ":="):
		// untyped, possibly with initializer
	case strings.HasPrefix(rest, ":"):
		typ, _ := takeIdent(strings.TrimSpace(rest[1:]))
		if typ == "" {
			return Variable{}, errors.New(errors.CodeParseFailed, "malformed type annotation").WithContext(errors.CtxMember, name)
		}
		v.Type = typ
	default:
		return Variable{}, errors.New(errors.CodeParseFailed, "malformed var declaration").WithContext(errors.CtxMember, name)
	}
	return v, nil
}

func parseFunc(tail string, line int) (Function, error) {
	name, rest := takeIdent(tail)
	if name == "" {
		return Function{}, errors.New(errors.CodeParseFailed, "func requires a name")
	}
	fn := Function{Name: name, Line: line}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, "(") {
		return Function{}, errors.New(errors.CodeParseFailed, "func requires a parameter list").WithContext(errors.CtxMember, name)
	}
	inner, after, err := matchParens(rest)
	if err != nil {
		return Function{}, errors.AddContext(err, errors.CtxMember, name)
	}
	fn.Params, err = parseParams(inner)
	if err != nil {
		return Function{}, errors.AddContext(err, errors.CtxMember, name)
	}

	after = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(after), ":"))
	if strings.HasPrefix(after, "->") {
		ret, _ := takeIdent(strings.TrimSpace(after[2:]))
		if ret == "" {
			return Function{}, errors.New(errors.CodeParseFailed, "malformed return annotation").WithContext(errors.CtxMember, name)
		}
		fn.ReturnType = ret
	}
	return fn, nil
}

func parseSignal(tail string, line int) (Signal, error) {
	name, rest := takeIdent(tail)
	if name == "" {
		return Signal{}, errors.New(errors.CodeParseFailed, "signal requires a name")
	}
	sig := Signal{Name: name, Line: line}

	rest = strings.TrimSpace(rest)
	if rest == "" {
		return sig, nil
	}
	if !strings.HasPrefix(rest, "(") {
		return Signal{}, errors.New(errors.CodeParseFailed, "malformed signal declaration").WithContext(errors.CtxMember, name)
	}
	inner, _, err := matchParens(rest)
	if err != nil {
		return Signal{}, errors.AddContext(err, errors.CtxMember, name)
	}
	sig.Params, err = parseParams(inner)
	if err != nil {
		return Signal{}, errors.AddContext(err, errors.CtxMember, name)
	}
	return sig, nil
}

func parseParams(list string) ([]Param, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}

	var params []Param
	for _, item := range splitTop(list, ',') {
		item = strings.TrimSpace(item)
		if item == "" {
			return nil, errors.New(errors.CodeParseFailed, "empty parameter")
		}

		name, rest := takeIdent(item)
		if name == "" {
			return nil, errors.New(errors.CodeParseFailed, "parameter requires a name")
		}
		p := Param{Name: name}

		rest = strings.TrimSpace(rest)
		if strings.HasPrefix(rest, ":=") {
			p.Default = strings.TrimSpace(rest[2:])
			params = append(params, p)
			continue
		}
		if strings.HasPrefix(rest, ":") {
			typ, after := takeIdent(strings.TrimSpace(rest[1:]))
			if typ == "" {
				return nil, errors.New(errors.CodeParseFailed, "malformed parameter annotation").WithContext(errors.CtxMember, name)
			}
			p.Type = typ
			rest = strings.TrimSpace(after)
		}
		if strings.HasPrefix(rest, "=") {
			p.Default = strings.TrimSpace(rest[1:])
		}
		params = append(params, p)
	}
	return params, nil
}

// stripComment removes a trailing # comment, honoring string literals.
func stripComment(line string) string {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}

// splitAnnotation peels one leading @annotation, with optional arguments,
// off the line.
func splitAnnotation(line string) (ann, rest string, err error) {
	i := 1
	for i < len(line) && (isIdentByte(line[i]) || line[i] == '.') {
		i++
	}
	if i == 1 {
		return "", "", errors.New(errors.CodeParseFailed, "annotation requires a name")
	}
	if i < len(line) && line[i] == '(' {
		_, after, err := matchParens(line[i:])
		if err != nil {
			return "", "", err
		}
		return line[:i], after, nil
	}
	return line[:i], line[i:], nil
}

// matchParens returns the contents of the balanced group that s opens with
// and everything after it.
func matchParens(s string) (inner, after string, err error) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		}
	}
	return "", "", errors.New(errors.CodeParseFailed, "unbalanced parentheses")
}

// splitTop splits on sep at nesting depth zero.
func splitTop(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func splitKeyword(line string) (keyword, tail string) {
	i := 0
	for i < len(line) && isIdentByte(line[i]) {
		i++
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// takeIdent reads a leading identifier and returns it with the remainder.
func takeIdent(s string) (ident, rest string) {
	i := 0
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	if i == 0 || unicode.IsDigit(rune(s[0])) {
		return "", s
	}
	return s[:i], s[i:]
}

func isIdent(s string) bool {
	ident, rest := takeIdent(s)
	return ident == s && rest == ""
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// pascal converts a snake_case or kebab-case name to PascalCase.
func pascal(s string) string {
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
