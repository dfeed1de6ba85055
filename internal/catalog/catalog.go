// # internal/catalog/catalog.go

// Package catalog is the read-only type snapshot one generation run works
// against: the native engine class surface on one side, the types already
// declared in the target Go project on the other. It is built once per run
// and never mutated afterwards.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"scriptbridge/internal/errors"
)

// UniversalRoot is the engine's root class. Member walks stop before it and
// a script may never be rebased above it.
const UniversalRoot = "Object"

// DefaultBase is the class a script without an extends clause inherits.
const DefaultBase = "RefCounted"

type MemberKind int

const (
	KindProperty MemberKind = iota
	KindMethod
	KindSignal
)

func (k MemberKind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindMethod:
		return "method"
	default:
		return "signal"
	}
}

// AvailableType is one type visible to generation before it starts.
type AvailableType struct {
	Name    string
	Package string // import path for project types, empty for natives
	Native  bool
}

// NativeParam is one parameter of a native method or signal.
type NativeParam struct {
	Name string
	Type string
}

// NativeMember is one entry of a native class's public instance surface.
type NativeMember struct {
	Kind       MemberKind
	Name       string
	DeclaredBy string // ancestor that declared the member

	// Property accessors; methods and signals leave these false.
	Type      string
	HasGetter bool
	HasSetter bool

	Params []NativeParam
	Return string

	Deprecated         bool
	DeprecationMessage string
}

// NativeClass is one engine class as loaded from the API document.
type NativeClass struct {
	Name       string
	Inherits   string
	Properties []NativeMember
	Methods    []NativeMember
	Signals    []NativeMember
}

// Catalog is the immutable per-run type snapshot.
type Catalog struct {
	natives     map[string]*NativeClass
	project     map[string]AvailableType
	fingerprint string
}

// LookupNative returns a native engine class by name.
func (c *Catalog) LookupNative(name string) (*NativeClass, bool) {
	cls, ok := c.natives[name]
	return cls, ok
}

// LookupProject returns a type already declared in the target project.
func (c *Catalog) LookupProject(name string) (AvailableType, bool) {
	t, ok := c.project[name]
	return t, ok
}

// IsNativeRoot reports whether name is the universal root class.
func (c *Catalog) IsNativeRoot(name string) bool {
	return name == UniversalRoot
}

// Fingerprint identifies the snapshot contents; it feeds the incremental
// cache so catalog changes invalidate previous outputs.
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

// MembersOf collects the public instance surface of a native class by
// walking its ancestor chain, stopping before the universal root. Members
// with the implementation-reserved underscore prefix and static methods are
// dropped at load time; here, a member redeclared by a more derived class
// shadows the ancestor's entry. Order is: base-most ancestor first, each
// class's members in declaration order.
func (c *Catalog) MembersOf(name string) ([]NativeMember, error) {
	var chain []*NativeClass
	for cur := name; cur != "" && !c.IsNativeRoot(cur); {
		cls, ok := c.natives[cur]
		if !ok {
			return nil, errors.New(errors.CodeValidationError, "unknown native class").WithContext(errors.CtxClass, cur)
		}
		chain = append(chain, cls)
		cur = cls.Inherits
	}

	var members []NativeMember
	seen := make(map[string]int) // kind|name -> index in members
	for i := len(chain) - 1; i >= 0; i-- {
		cls := chain[i]
		for _, group := range [][]NativeMember{cls.Properties, cls.Methods, cls.Signals} {
			for _, m := range group {
				key := m.Kind.String() + "|" + m.Name
				if at, ok := seen[key]; ok {
					members[at] = m // most derived declaration wins
					continue
				}
				seen[key] = len(members)
				members = append(members, m)
			}
		}
	}
	return members, nil
}

func fingerprint(apiRaw []byte, project map[string]AvailableType) string {
	h := sha256.New()
	h.Write(apiRaw)
	names := make([]string, 0, len(project))
	for name, t := range project {
		names = append(names, name+"@"+t.Package)
	}
	sort.Strings(names)
	h.Write([]byte(strings.Join(names, ",")))
	return hex.EncodeToString(h.Sum(nil))
}
