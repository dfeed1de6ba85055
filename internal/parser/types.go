// # internal/parser/types.go
package parser

import "strings"

// ScriptClass is the declaration surface of one GDScript file. It is
// immutable after parsing; bodies are never inspected.
type ScriptClass struct {
	Name      string
	Path      string // originating path, separators normalized to '/'
	Base      BaseRef
	Variables []Variable
	Functions []Function
	Signals   []Signal
}

// BaseKind distinguishes how a script declared its base.
type BaseKind int

const (
	// BaseDefault means no extends clause; the engine default base applies.
	BaseDefault BaseKind = iota
	// BaseNative is an extends clause naming one of the built-in root kinds.
	BaseNative
	// BaseNamed is an extends clause naming another script class, resolved
	// later against the parsed set or the native catalog.
	BaseNamed
)

type BaseRef struct {
	Kind   BaseKind
	Native NativeKind // valid when Kind == BaseNative
	Name   string     // textual base name when Kind == BaseNamed
}

// NativeKind enumerates the built-in root engine classes the parser
// recognizes directly. Anything else read from an extends clause becomes a
// named reference and is matched against the catalog during resolution.
type NativeKind int

const (
	NativeObject NativeKind = iota
	NativeRefCounted
	NativeResource
	NativeNode
	NativeCanvasItem
	NativeNode2D
	NativeNode3D
	NativeControl
)

var nativeKindNames = map[NativeKind]string{
	NativeObject:     "Object",
	NativeRefCounted: "RefCounted",
	NativeResource:   "Resource",
	NativeNode:       "Node",
	NativeCanvasItem: "CanvasItem",
	NativeNode2D:     "Node2D",
	NativeNode3D:     "Node3D",
	NativeControl:    "Control",
}

var nativeKindsByName = func() map[string]NativeKind {
	m := make(map[string]NativeKind, len(nativeKindNames))
	for k, name := range nativeKindNames {
		m[name] = k
	}
	return m
}()

func (k NativeKind) String() string { return nativeKindNames[k] }

// NativeKindByName looks up a built-in root kind by class name.
func NativeKindByName(name string) (NativeKind, bool) {
	k, ok := nativeKindsByName[name]
	return k, ok
}

type Variable struct {
	Name     string
	Type     string // optional annotation, free-form
	Exported bool   // declared with @export
	Constant bool   // declared with const; forwarded read-only
	Line     int
}

type Function struct {
	Name       string
	Params     []Param
	ReturnType string // optional annotation
	Line       int
}

type Signal struct {
	Name   string
	Params []Param
	Line   int
}

type Param struct {
	Name    string
	Type    string // optional annotation
	Default string // optional default expression, kept verbatim
}

// IsPrivateName reports the private-by-convention filter: members whose name
// starts with an underscore never appear in host-facing output.
func IsPrivateName(name string) bool {
	return strings.HasPrefix(name, "_")
}
