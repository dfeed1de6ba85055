// # internal/resolver/resolver.go

// Package resolver reconciles parsed script classes with the type catalog.
// It builds the class-to-base graph up front, rejects cyclic chains before
// any emission work, then resolves every class bottom-up to its immediate
// base type name and ultimate native root. The deduplicated set of native
// classes reached anywhere drives proxy emission.
package resolver

import (
	"fmt"
	"sort"

	"scriptbridge/internal/catalog"
	"scriptbridge/internal/errors"
	"scriptbridge/internal/parser"
)

// DefaultSuffix is appended to bridge type names when suffixing is on.
const DefaultSuffix = "Bridge"

// Sentinel returns the visibly invalid type name embedded in output when a
// base reference cannot be resolved. It is never a declared type, so code
// referencing the broken bridge fails to compile instead of misbehaving.
func Sentinel(missing string) string {
	return "UNRESOLVED_" + missing
}

// ResolvedClass is the per-class outcome of resolution. Derived, never
// stored across runs.
type ResolvedClass struct {
	Class        *parser.ScriptClass
	BridgeName   string // generated bridge type name, suffixed per options
	BaseName     string // immediate base bridge or proxy type name
	NativeRoot   string // native class at the root of the chain
	BaseIsNative bool
	Invalid      bool   // base chain broken; sentinel names embedded
	MissingBase  string // the reference that failed, when Invalid
	Cyclic       bool   // on or above a cyclic chain; excluded from emission
}

// Diagnostic is a localized, non-fatal resolution failure.
type Diagnostic struct {
	Class  string
	Code   errors.ErrorCode
	Detail string
}

// Resolution is the finalized, read-only product consumed by emission.
type Resolution struct {
	Classes     map[string]*ResolvedClass
	Order       []string // class names in deterministic emission order
	UsedNatives []string // sorted native classes requiring a proxy
	Diagnostics []Diagnostic
}

// Options mirrors the configuration policy resolution has to honor.
type Options struct {
	AppendSuffix bool
	Suffix       string // defaults to DefaultSuffix
}

type resolver struct {
	scripts  map[string]*parser.ScriptClass
	cat      *catalog.Catalog
	opts     Options
	resolved map[string]*ResolvedClass
	cyclic   map[string]bool
	natives  map[string]bool
	diags    []Diagnostic
}

// Resolve computes the full resolution for one run. Failures never abort:
// unresolved bases yield sentinel-marked classes, cyclic chains yield
// diagnostics, and every other class resolves normally.
func Resolve(classes []*parser.ScriptClass, cat *catalog.Catalog, opts Options) *Resolution {
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}

	r := &resolver{
		scripts:  make(map[string]*parser.ScriptClass, len(classes)),
		cat:      cat,
		opts:     opts,
		resolved: make(map[string]*ResolvedClass),
		cyclic:   make(map[string]bool),
		natives:  make(map[string]bool),
	}

	for _, cls := range classes {
		if prev, ok := r.scripts[cls.Name]; ok {
			r.diags = append(r.diags, Diagnostic{
				Class:  cls.Name,
				Code:   errors.CodeDuplicateClass,
				Detail: fmt.Sprintf("%s also declared in %s; keeping the first", cls.Path, prev.Path),
			})
			continue
		}
		r.scripts[cls.Name] = cls
	}

	r.markCycles()

	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		r.resolve(name)
	}

	used := make([]string, 0, len(r.natives))
	for name := range r.natives {
		used = append(used, name)
	}
	sort.Strings(used)

	sort.Slice(r.diags, func(i, j int) bool {
		if r.diags[i].Class != r.diags[j].Class {
			return r.diags[i].Class < r.diags[j].Class
		}
		return r.diags[i].Code < r.diags[j].Code
	})

	return &Resolution{
		Classes:     r.resolved,
		Order:       names,
		UsedNatives: used,
		Diagnostics: r.diags,
	}
}

// markCycles walks the named-base edges with an in-progress set and flags
// every class sitting on a cycle. Doing this before resolution keeps the
// recursive walk below bounded.
func (r *resolver) markCycles() {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var visit func(name string, path []string)
	visit = func(name string, path []string) {
		visited[name] = true
		onStack[name] = true
		path = append(path, name)

		if next, ok := r.namedBase(name); ok {
			if onStack[next] {
				start := 0
				for i, n := range path {
					if n == next {
						start = i
						break
					}
				}
				cycle := path[start:]
				for _, n := range cycle {
					r.cyclic[n] = true
				}
				r.diags = append(r.diags, Diagnostic{
					Class:  next,
					Code:   errors.CodeCyclicInheritance,
					Detail: fmt.Sprintf("inheritance cycle: %s", formatCycle(cycle)),
				})
			} else if !visited[next] {
				visit(next, path)
			}
		}

		onStack[name] = false
	}

	names := make([]string, 0, len(r.scripts))
	for name := range r.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !visited[name] {
			visit(name, nil)
		}
	}
}

// namedBase returns the base edge when it points at another parsed script.
func (r *resolver) namedBase(name string) (string, bool) {
	cls, ok := r.scripts[name]
	if !ok || cls.Base.Kind != parser.BaseNamed {
		return "", false
	}
	if _, ok := r.scripts[cls.Base.Name]; !ok {
		return "", false
	}
	return cls.Base.Name, true
}

func (r *resolver) resolve(name string) *ResolvedClass {
	if rc, ok := r.resolved[name]; ok {
		return rc
	}

	cls := r.scripts[name]
	rc := &ResolvedClass{
		Class:      cls,
		BridgeName: r.bridgeName(name),
	}
	r.resolved[name] = rc

	if r.cyclic[name] {
		rc.Cyclic = true
		return rc
	}

	switch cls.Base.Kind {
	case parser.BaseDefault:
		r.resolveNativeBase(rc, catalog.DefaultBase)
	case parser.BaseNative:
		r.resolveNativeBase(rc, cls.Base.Native.String())
	case parser.BaseNamed:
		r.resolveNamedBase(rc, cls.Base.Name)
	}
	return rc
}

// resolveNativeBase terminates a chain at a native engine class: the
// immediate base becomes that class's generated proxy.
func (r *resolver) resolveNativeBase(rc *ResolvedClass, native string) {
	if _, ok := r.cat.LookupNative(native); !ok {
		r.invalidate(rc, native)
		return
	}
	rc.BaseName = native + "Proxy"
	rc.NativeRoot = native
	rc.BaseIsNative = true
	r.natives[native] = true
}

func (r *resolver) resolveNamedBase(rc *ResolvedClass, base string) {
	if target, ok := r.scripts[base]; ok {
		parent := r.resolve(target.Name)
		if parent.Cyclic {
			// A chain through a cycle never reaches a native root.
			rc.Cyclic = true
			r.diags = append(r.diags, Diagnostic{
				Class:  rc.Class.Name,
				Code:   errors.CodeCyclicInheritance,
				Detail: fmt.Sprintf("base %s sits on an inheritance cycle", base),
			})
			return
		}
		rc.BaseName = parent.BridgeName
		rc.NativeRoot = parent.NativeRoot
		rc.Invalid = parent.Invalid
		rc.MissingBase = parent.MissingBase
		return
	}

	// Not a script; a named reference may still hit a native class outside
	// the built-in root enumeration.
	if _, ok := r.cat.LookupNative(base); ok {
		r.resolveNativeBase(rc, base)
		return
	}

	r.invalidate(rc, base)
}

func (r *resolver) invalidate(rc *ResolvedClass, missing string) {
	rc.Invalid = true
	rc.MissingBase = missing
	rc.BaseName = Sentinel(missing)
	rc.NativeRoot = Sentinel(missing)
	r.diags = append(r.diags, Diagnostic{
		Class:  rc.Class.Name,
		Code:   errors.CodeUnresolvedBase,
		Detail: fmt.Sprintf("base %q matches neither a parsed script nor a native class", missing),
	})
}

func (r *resolver) bridgeName(name string) string {
	if r.opts.AppendSuffix {
		return name + r.opts.Suffix
	}
	return name
}

func formatCycle(cycle []string) string {
	out := ""
	for _, n := range cycle {
		out += n + " -> "
	}
	return out + cycle[0]
}
