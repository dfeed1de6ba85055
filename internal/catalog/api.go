// # internal/catalog/api.go
package catalog

import (
	_ "embed"
	"encoding/json"
	"os"

	"scriptbridge/internal/errors"
)

// Trimmed engine API document shipped with the tool. Hosts targeting a
// different engine build point api_path at their own dump.
//
//go:embed godot_api.json
var defaultAPI []byte

type apiDocument struct {
	Classes []apiClass `json:"classes"`
}

type apiClass struct {
	Name       string        `json:"name"`
	Inherits   string        `json:"inherits,omitempty"`
	Properties []apiProperty `json:"properties,omitempty"`
	Methods    []apiMethod   `json:"methods,omitempty"`
	Signals    []apiSignal   `json:"signals,omitempty"`
}

type apiProperty struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Getter string `json:"getter,omitempty"`
	Setter string `json:"setter,omitempty"`
	// nil means not deprecated; an empty string is a deprecation without a
	// message, which still must survive into generated output.
	Deprecated *string `json:"deprecated,omitempty"`
}

type apiMethod struct {
	Name       string   `json:"name"`
	Args       []apiArg `json:"args,omitempty"`
	Return     string   `json:"return,omitempty"`
	Static     bool     `json:"static,omitempty"`
	Deprecated *string  `json:"deprecated,omitempty"`
}

type apiSignal struct {
	Name string   `json:"name"`
	Args []apiArg `json:"args,omitempty"`
}

type apiArg struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Build loads the engine API document (apiPath, or the embedded default when
// empty) and scans the target Go project directory for already-declared
// types. The result is the immutable snapshot every later stage reads.
func Build(apiPath, projectDir string) (*Catalog, error) {
	raw := defaultAPI
	if apiPath != "" {
		data, err := os.ReadFile(apiPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "read engine API document")
		}
		raw = data
	}

	var doc apiDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode engine API document")
	}

	natives := make(map[string]*NativeClass, len(doc.Classes))
	for _, ac := range doc.Classes {
		natives[ac.Name] = convertClass(ac)
	}

	project, err := scanProject(projectDir)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		natives:     natives,
		project:     project,
		fingerprint: fingerprint(raw, project),
	}, nil
}

func convertClass(ac apiClass) *NativeClass {
	cls := &NativeClass{Name: ac.Name, Inherits: ac.Inherits}

	for _, p := range ac.Properties {
		if reserved(p.Name) {
			continue
		}
		cls.Properties = append(cls.Properties, NativeMember{
			Kind:               KindProperty,
			Name:               p.Name,
			DeclaredBy:         ac.Name,
			Type:               p.Type,
			HasGetter:          p.Getter != "",
			HasSetter:          p.Setter != "",
			Deprecated:         p.Deprecated != nil,
			DeprecationMessage: deref(p.Deprecated),
		})
	}
	for _, m := range ac.Methods {
		if reserved(m.Name) || m.Static {
			continue
		}
		cls.Methods = append(cls.Methods, NativeMember{
			Kind:               KindMethod,
			Name:               m.Name,
			DeclaredBy:         ac.Name,
			Params:             convertArgs(m.Args),
			Return:             m.Return,
			Deprecated:         m.Deprecated != nil,
			DeprecationMessage: deref(m.Deprecated),
		})
	}
	for _, s := range ac.Signals {
		if reserved(s.Name) {
			continue
		}
		cls.Signals = append(cls.Signals, NativeMember{
			Kind:       KindSignal,
			Name:       s.Name,
			DeclaredBy: ac.Name,
			Params:     convertArgs(s.Args),
		})
	}
	return cls
}

func convertArgs(args []apiArg) []NativeParam {
	out := make([]NativeParam, 0, len(args))
	for _, a := range args {
		out = append(out, NativeParam{Name: a.Name, Type: a.Type})
	}
	return out
}

func reserved(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
