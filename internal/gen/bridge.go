// # internal/gen/bridge.go

// Package gen emits Go source for bridges and proxies from resolved classes
// and the type catalog. Emission is pure: identical inputs render
// byte-identical files.
package gen

import (
	"bytes"

	"github.com/dave/jennifer/jen"

	"scriptbridge/internal/errors"
	"scriptbridge/internal/parser"
	"scriptbridge/internal/resolver"
)

// File is one complete generated source unit.
type File struct {
	Name   string // file name within the output package
	Source []byte
}

const generatedHeader = "Code generated by scriptbridge. DO NOT EDIT."

// Bridge renders the bridge type for one resolved class: the embedded base,
// constructor, script path constant, forwarding members and the three
// name-constant containers.
func Bridge(rc *resolver.ResolvedClass, pkg string) (File, error) {
	if rc.Cyclic {
		return File{}, errors.New(errors.CodeCyclicInheritance, "cyclic classes are not emitted").WithContext(errors.CtxClass, rc.Class.Name)
	}

	cls := rc.Class
	f := jen.NewFile(pkg)
	f.HeaderComment(generatedHeader)
	f.ImportName(enginePkg, "engine")

	if rc.Invalid {
		f.Commentf("NOTE: base %q could not be resolved; this file cannot compile until it is.", rc.MissingBase)
	}
	f.Commentf("%s bridges the script class %s declared in %s.", rc.BridgeName, cls.Name, resourcePath(cls.Path))
	f.Type().Id(rc.BridgeName).Struct(jen.Id(rc.BaseName))

	f.Commentf("%sScriptPath locates the backing script resource.", rc.BridgeName)
	f.Const().Id(rc.BridgeName + "ScriptPath").Op("=").Lit(resourcePath(cls.Path))

	f.Commentf("New%s wraps an existing native instance carrying the script.", rc.BridgeName)
	f.Func().Id("New"+rc.BridgeName).Params(jen.Id("obj").Qual(enginePkg, "Object")).Op("*").Id(rc.BridgeName).Block(
		jen.Return(jen.Op("&").Id(rc.BridgeName).Values(jen.Dict{
			jen.Id(rc.BaseName): jen.Op("*").Id("New" + rc.BaseName).Call(jen.Id("obj")),
		})),
	)

	emitBridgeProperties(f, rc)
	emitBridgeMethods(f, rc)
	emitBridgeSignals(f, rc)
	emitNameContainers(f, rc)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return File{}, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "render bridge"), errors.CtxClass, cls.Name)
	}
	return File{Name: fileName(rc.BridgeName), Source: buf.Bytes()}, nil
}

// emitBridgeProperties forwards each declared variable through Get/Set on
// the wrapped instance, with the scripted name used verbatim as the key.
func emitBridgeProperties(f *jen.File, rc *resolver.ResolvedClass) {
	recv := jen.Id("b").Op("*").Id(rc.BridgeName)
	for _, v := range rc.Class.Variables {
		if parser.IsPrivateName(v.Name) {
			continue
		}
		kind := mapType(v.Type)
		goName := exportedName(v.Name)

		if v.Exported {
			f.Commentf("%s reads the scripted %q property, exported to the editor.", goName, v.Name)
		} else {
			f.Commentf("%s reads the scripted %q property.", goName, v.Name)
		}
		f.Func().Params(recv.Clone()).Id(goName).Params().Add(kind.goType()).Block(
			jen.Return(kind.fromVariant(jen.Id("b").Dot("Inner").Call().Dot("Get").Call(jen.Lit(v.Name)))),
		)

		// Constants get no setter.
		if v.Constant {
			continue
		}

		f.Commentf("Set%s writes the scripted %q property.", goName, v.Name)
		f.Func().Params(recv.Clone()).Id("Set"+goName).Params(jen.Id("v").Add(kind.goType())).Block(
			jen.Id("b").Dot("Inner").Call().Dot("Set").Call(jen.Lit(v.Name), jen.Id("v")),
		)
	}
}

// emitBridgeMethods forwards each declared function as a typed Call.
func emitBridgeMethods(f *jen.File, rc *resolver.ResolvedClass) {
	recv := jen.Id("b").Op("*").Id(rc.BridgeName)
	for _, fn := range rc.Class.Functions {
		if parser.IsPrivateName(fn.Name) {
			continue
		}
		goName := exportedName(fn.Name)

		params := make([]jen.Code, 0, len(fn.Params))
		args := []jen.Code{jen.Lit(fn.Name)}
		for _, p := range fn.Params {
			pk := mapType(p.Type)
			pn := paramName(p.Name)
			params = append(params, jen.Id(pn).Add(pk.goType()))
			args = append(args, jen.Id(pn))
		}

		call := jen.Id("b").Dot("Inner").Call().Dot("Call").Call(args...)
		ret := mapType(fn.ReturnType)
		if fn.ReturnType == "" {
			ret = tVoid
		}

		f.Commentf("%s calls the scripted %q function.", goName, fn.Name)
		decl := f.Func().Params(recv.Clone()).Id(goName).Params(params...)
		if ret == tVoid {
			decl.Block(call)
		} else {
			decl.Add(ret.goType()).Block(jen.Return(ret.fromVariant(call)))
		}
	}
}

// emitBridgeSignals pairs a Connect forwarder with a Disconnect forwarder
// per declared signal.
func emitBridgeSignals(f *jen.File, rc *resolver.ResolvedClass) {
	recv := jen.Id("b").Op("*").Id(rc.BridgeName)
	for _, sig := range rc.Class.Signals {
		if parser.IsPrivateName(sig.Name) {
			continue
		}
		emitSignalPair(f, recv, "b", sig.Name)
	}
}

func emitSignalPair(f *jen.File, recv *jen.Statement, recvName, signal string) {
	goName := exportedName(signal)

	f.Commentf("On%s attaches a handler to the %q signal.", goName, signal)
	f.Func().Params(recv.Clone()).Id("On"+goName).
		Params(jen.Id("handler").Qual(enginePkg, "SignalHandler")).
		Qual(enginePkg, "Connection").Block(
		jen.Return(jen.Id(recvName).Dot("Inner").Call().Dot("Connect").Call(jen.Lit(signal), jen.Id("handler"))),
	)

	f.Commentf("Off%s detaches a previously attached %q handler.", goName, signal)
	f.Func().Params(recv.Clone()).Id("Off"+goName).
		Params(jen.Id("conn").Qual(enginePkg, "Connection")).Block(
		jen.Id(recvName).Dot("Inner").Call().Dot("Disconnect").Call(jen.Id("conn")),
	)
}

// emitNameContainers renders the three nested name-constant containers. Each
// embeds the base type's matching container, so the container chain mirrors
// the class chain and inherited members are never re-listed.
func emitNameContainers(f *jen.File, rc *resolver.ResolvedClass) {
	props := make([]string, 0, len(rc.Class.Variables))
	for _, v := range rc.Class.Variables {
		props = append(props, v.Name)
	}
	methods := make([]string, 0, len(rc.Class.Functions))
	for _, fn := range rc.Class.Functions {
		methods = append(methods, fn.Name)
	}
	signals := make([]string, 0, len(rc.Class.Signals))
	for _, sig := range rc.Class.Signals {
		signals = append(signals, sig.Name)
	}

	emitContainer(f, rc.BridgeName, rc.BaseName, "PropertyNames", "Properties", props)
	emitContainer(f, rc.BridgeName, rc.BaseName, "MethodNames", "Methods", methods)
	emitContainer(f, rc.BridgeName, rc.BaseName, "SignalNames", "Signals", signals)
}

// emitContainer writes one name container type plus its package-level
// instance. base is empty for the rooted containers on proxies.
func emitContainer(f *jen.File, owner, base, typeSuffix, varSuffix string, members []string) {
	typeName := owner + typeSuffix

	fields := []jen.Code{}
	values := jen.Dict{}
	if base != "" {
		baseType := base + typeSuffix
		fields = append(fields, jen.Id(baseType))
		values[jen.Id(baseType)] = jen.Id(base + varSuffix)
	}
	for _, name := range members {
		if parser.IsPrivateName(name) {
			continue
		}
		goName := exportedName(name)
		fields = append(fields, jen.Id(goName).String())
		values[jen.Id(goName)] = jen.Lit(name)
	}

	f.Commentf("%s lists the %s the class itself declares, by scripted name.", typeName, containerNoun(varSuffix))
	f.Type().Id(typeName).Struct(fields...)
	f.Var().Id(owner + varSuffix).Op("=").Id(typeName).Values(values)
}

func containerNoun(varSuffix string) string {
	switch varSuffix {
	case "Properties":
		return "properties"
	case "Methods":
		return "methods"
	default:
		return "signals"
	}
}
