// # internal/gen/proxy.go
package gen

import (
	"bytes"

	"github.com/dave/jennifer/jen"

	"scriptbridge/internal/catalog"
	"scriptbridge/internal/errors"
)

// Proxy renders the generated proxy for one native engine class: the wrapped
// instance, the guarded script-attach operation, forwarding members for the
// class's full walked surface, and the three rooted name containers.
func Proxy(native string, cat *catalog.Catalog, pkg string) (File, error) {
	members, err := cat.MembersOf(native)
	if err != nil {
		return File{}, err
	}

	proxyName := native + "Proxy"
	f := jen.NewFile(pkg)
	f.HeaderComment(generatedHeader)
	f.ImportName(enginePkg, "engine")

	f.Commentf("%s wraps one native %s instance and is the ultimate ancestor of every bridge rooted at it.", proxyName, native)
	f.Type().Id(proxyName).Struct(jen.Id("inner").Qual(enginePkg, "Object"))

	f.Commentf("New%s wraps an existing native instance.", proxyName)
	f.Func().Id("New"+proxyName).Params(jen.Id("obj").Qual(enginePkg, "Object")).Op("*").Id(proxyName).Block(
		jen.Return(jen.Op("&").Id(proxyName).Values(jen.Dict{jen.Id("inner"): jen.Id("obj")})),
	)

	recv := jen.Id("p").Op("*").Id(proxyName)

	f.Comment("Inner exposes the wrapped native instance for downcasting.")
	f.Func().Params(recv.Clone()).Id("Inner").Params().Qual(enginePkg, "Object").Block(
		jen.Return(jen.Id("p").Dot("inner")),
	)

	// Attaching a script can hand back a fresh native handle for the same
	// logical object, so the wrapped reference is re-resolved by the
	// instance ID captured before the call.
	f.Comment("SetScript attaches the script at path to the wrapped instance.")
	f.Func().Params(recv.Clone()).Id("SetScript").Params(jen.Id("path").String()).Block(
		jen.Id("id").Op(":=").Id("p").Dot("inner").Dot("InstanceID").Call(),
		jen.Id("p").Dot("inner").Dot("Call").Call(jen.Lit("set_script"), jen.Qual(enginePkg, "LoadResource").Call(jen.Id("path"))),
		jen.If(jen.List(jen.Id("cur"), jen.Id("ok")).Op(":=").Qual(enginePkg, "FromInstanceID").Call(jen.Id("id")), jen.Id("ok")).Block(
			jen.Id("p").Dot("inner").Op("=").Id("cur"),
		),
	)

	f.Commentf("String forwards the engine's string conversion of the wrapped %s.", native)
	f.Func().Params(recv.Clone()).Id("String").Params().String().Block(
		jen.Return(jen.Qual(enginePkg, "AsString").Call(jen.Id("p").Dot("inner").Dot("Call").Call(jen.Lit("to_string")))),
	)

	used := map[string]bool{"Inner": true, "SetScript": true, "String": true}
	for _, m := range members {
		switch m.Kind {
		case catalog.KindProperty:
			emitProxyProperty(f, recv, proxyName, m, used)
		case catalog.KindMethod:
			emitProxyMethod(f, recv, m, used)
		case catalog.KindSignal:
			emitProxySignal(f, recv, m, used)
		}
	}

	emitContainer(f, proxyName, "", "PropertyNames", "Properties", nil)
	emitContainer(f, proxyName, "", "MethodNames", "Methods", nil)
	emitContainer(f, proxyName, "", "SignalNames", "Signals", nil)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return File{}, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "render proxy"), errors.CtxClass, native)
	}
	return File{Name: fileName(proxyName), Source: buf.Bytes()}, nil
}

// memberDoc writes a forwarding member's doc comment. Deprecated members
// keep their marker and message verbatim, plus the lint suppression that
// keeps the proxy's own build quiet about forwarding them.
func memberDoc(f *jen.File, m catalog.NativeMember, format string, args ...interface{}) {
	f.Commentf(format, args...)
	if !m.Deprecated {
		return
	}
	msg := m.DeprecationMessage
	if msg == "" {
		msg = "deprecated by the engine."
	}
	f.Comment("//")
	f.Commentf("Deprecated: %s", msg)
	f.Comment("//nolint:staticcheck // forwards a deprecated engine member")
}

func emitProxyProperty(f *jen.File, recv *jen.Statement, proxyName string, m catalog.NativeMember, used map[string]bool) {
	kind := mapType(m.Type)
	goName := exportedName(m.Name)

	if m.HasGetter && !used[goName] {
		used[goName] = true
		memberDoc(f, m, "%s reads the native %q property declared by %s.", goName, m.Name, m.DeclaredBy)
		f.Func().Params(recv.Clone()).Id(goName).Params().Add(kind.goType()).Block(
			jen.Return(kind.fromVariant(jen.Id("p").Dot("inner").Dot("Get").Call(jen.Lit(m.Name)))),
		)
	}
	if m.HasSetter && !used["Set"+goName] {
		used["Set"+goName] = true
		memberDoc(f, m, "Set%s writes the native %q property declared by %s.", goName, m.Name, m.DeclaredBy)
		f.Func().Params(recv.Clone()).Id("Set"+goName).Params(jen.Id("v").Add(kind.goType())).Block(
			jen.Id("p").Dot("inner").Dot("Set").Call(jen.Lit(m.Name), jen.Id("v")),
		)
	}
}

func emitProxyMethod(f *jen.File, recv *jen.Statement, m catalog.NativeMember, used map[string]bool) {
	// The universal string conversion is covered by the String override.
	if m.Name == "to_string" {
		return
	}
	goName := exportedName(m.Name)
	if used[goName] {
		return
	}
	used[goName] = true

	params := make([]jen.Code, 0, len(m.Params))
	args := []jen.Code{jen.Lit(m.Name)}
	for _, p := range m.Params {
		pk := mapType(p.Type)
		pn := paramName(p.Name)
		params = append(params, jen.Id(pn).Add(pk.goType()))
		args = append(args, jen.Id(pn))
	}

	call := jen.Id("p").Dot("inner").Dot("Call").Call(args...)
	ret := mapType(m.Return)
	if m.Return == "" {
		ret = tVoid
	}

	memberDoc(f, m, "%s calls the native %q method declared by %s.", goName, m.Name, m.DeclaredBy)
	decl := f.Func().Params(recv.Clone()).Id(goName).Params(params...)
	if ret == tVoid {
		decl.Block(call)
	} else {
		decl.Add(ret.goType()).Block(jen.Return(ret.fromVariant(call)))
	}
}

func emitProxySignal(f *jen.File, recv *jen.Statement, m catalog.NativeMember, used map[string]bool) {
	goName := exportedName(m.Name)
	if used["On"+goName] {
		return
	}
	used["On"+goName] = true
	emitSignalPair(f, recv, "p", m.Name)
}
