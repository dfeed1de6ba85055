// # internal/gen/gen_test.go
package gen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptbridge/internal/catalog"
	"scriptbridge/internal/parser"
	"scriptbridge/internal/resolver"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Build("", "")
	require.NoError(t, err)
	return c
}

func resolvePlayer(t *testing.T, opts resolver.Options) *resolver.ResolvedClass {
	t.Helper()
	cls := &parser.ScriptClass{
		Name: "Player",
		Path: "scripts/player.gd",
		Base: parser.BaseRef{Kind: parser.BaseNamed, Name: "CharacterBody2D"},
		Variables: []parser.Variable{
			{Name: "health", Type: "int", Exported: true},
			{Name: "speed", Type: "float"},
			{Name: "title", Type: "String"},
			{Name: "loot"},
			{Name: "gravity", Type: "float", Constant: true},
			{Name: "_invulnerable", Type: "bool"},
		},
		Functions: []parser.Function{
			{Name: "take_damage", Params: []parser.Param{{Name: "amount", Type: "int"}}},
			{Name: "heal", Params: []parser.Param{{Name: "amount", Type: "int"}}, ReturnType: "int"},
			{Name: "describe", ReturnType: "String"},
			{Name: "_ready"},
		},
		Signals: []parser.Signal{
			{Name: "health_changed", Params: []parser.Param{{Name: "old_value", Type: "int"}, {Name: "new_value", Type: "int"}}},
			{Name: "died"},
		},
	}
	res := resolver.Resolve([]*parser.ScriptClass{cls}, testCatalog(t), opts)
	return res.Classes["Player"]
}

func TestBridgeEmitsForwardingMembers(t *testing.T) {
	file, err := Bridge(resolvePlayer(t, resolver.Options{}), "bridges")
	require.NoError(t, err)
	src := string(file.Source)

	assert.Equal(t, "player.go", file.Name)
	assert.Contains(t, src, "Code generated by scriptbridge. DO NOT EDIT.")
	assert.Contains(t, src, "package bridges")

	// Type, constructor, script path.
	assert.Contains(t, src, "type Player struct {\n\tCharacterBody2DProxy\n}")
	assert.Contains(t, src, `const PlayerScriptPath = "res://scripts/player.gd"`)
	assert.Contains(t, src, "CharacterBody2DProxy: *NewCharacterBody2DProxy(obj)")

	// Typed property forwarding, scripted names used verbatim as keys.
	assert.Contains(t, src, `// Health reads the scripted "health" property, exported to the editor.`)
	assert.Contains(t, src, `// Speed reads the scripted "speed" property.`)
	assert.Contains(t, src, "func (b *Player) Health() int64 {")
	assert.Contains(t, src, `return engine.AsInt(b.Inner().Get("health"))`)
	assert.Contains(t, src, "func (b *Player) SetHealth(v int64) {")
	assert.Contains(t, src, `b.Inner().Set("health", v)`)
	assert.Contains(t, src, "func (b *Player) Speed() float64 {")
	assert.Contains(t, src, "func (b *Player) Title() string {")

	// Unannotated variables travel as Variant.
	assert.Contains(t, src, "func (b *Player) Loot() engine.Variant {")
	assert.Contains(t, src, `return b.Inner().Get("loot")`)

	// Constants are read-only.
	assert.Contains(t, src, "func (b *Player) Gravity() float64 {")
	assert.NotContains(t, src, "SetGravity")

	// Method forwarding.
	assert.Contains(t, src, "func (b *Player) TakeDamage(amount int64) {")
	assert.Contains(t, src, `b.Inner().Call("take_damage", amount)`)
	assert.Contains(t, src, "func (b *Player) Heal(amount int64) int64 {")
	assert.Contains(t, src, `return engine.AsInt(b.Inner().Call("heal", amount))`)
	assert.Contains(t, src, "func (b *Player) Describe() string {")

	// Signal subscribe/unsubscribe pairs.
	assert.Contains(t, src, "func (b *Player) OnHealthChanged(handler engine.SignalHandler) engine.Connection {")
	assert.Contains(t, src, `return b.Inner().Connect("health_changed", handler)`)
	assert.Contains(t, src, "func (b *Player) OffHealthChanged(conn engine.Connection) {")
	assert.Contains(t, src, "b.Inner().Disconnect(conn)")
}

func TestBridgeFiltersPrivateMembers(t *testing.T) {
	file, err := Bridge(resolvePlayer(t, resolver.Options{}), "bridges")
	require.NoError(t, err)
	src := string(file.Source)

	assert.NotContains(t, src, "_invulnerable")
	assert.NotContains(t, src, "Invulnerable")
	assert.NotContains(t, src, "_ready")
	assert.NotContains(t, src, "func (b *Player) Ready")
}

func TestBridgeNameContainers(t *testing.T) {
	file, err := Bridge(resolvePlayer(t, resolver.Options{}), "bridges")
	require.NoError(t, err)
	src := string(file.Source)

	// Containers embed the base's container so the chain mirrors the class
	// chain; only own non-private members are listed.
	assert.Contains(t, src, "type PlayerPropertyNames struct {")
	assert.Contains(t, src, "CharacterBody2DProxyPropertyNames")
	assert.Contains(t, src, `Health: "health"`)
	assert.Contains(t, src, `HealthChanged: "health_changed"`)
	assert.Contains(t, src, `TakeDamage: "take_damage"`)
	assert.Contains(t, src, "CharacterBody2DProxyPropertyNames: CharacterBody2DProxyProperties")
	assert.Contains(t, src, "var PlayerProperties = PlayerPropertyNames{")
	assert.Contains(t, src, "var PlayerMethods = PlayerMethodNames{")
	assert.Contains(t, src, "var PlayerSignals = PlayerSignalNames{")
}

func TestBridgeSuffixedNames(t *testing.T) {
	file, err := Bridge(resolvePlayer(t, resolver.Options{AppendSuffix: true}), "bridges")
	require.NoError(t, err)
	src := string(file.Source)

	assert.Equal(t, "player_bridge.go", file.Name)
	assert.Contains(t, src, "type PlayerBridge struct {")
	assert.Contains(t, src, "func NewPlayerBridge(obj engine.Object) *PlayerBridge {")
	assert.Contains(t, src, "const PlayerBridgeScriptPath")
}

func TestBridgeUnresolvedBaseSentinel(t *testing.T) {
	cls := &parser.ScriptClass{
		Name: "Orphan",
		Path: "scripts/orphan.gd",
		Base: parser.BaseRef{Kind: parser.BaseNamed, Name: "Missing"},
	}
	res := resolver.Resolve([]*parser.ScriptClass{cls}, testCatalog(t), resolver.Options{})

	file, err := Bridge(res.Classes["Orphan"], "bridges")
	require.NoError(t, err, "an unresolved base must still emit")
	src := string(file.Source)

	assert.Contains(t, src, "type Orphan struct {\n\tUNRESOLVED_Missing\n}")
	assert.Contains(t, src, `base "Missing" could not be resolved`)
}

func TestBridgeRefusesCyclicClass(t *testing.T) {
	a := &parser.ScriptClass{Name: "A", Path: "a.gd", Base: parser.BaseRef{Kind: parser.BaseNamed, Name: "B"}}
	b := &parser.ScriptClass{Name: "B", Path: "b.gd", Base: parser.BaseRef{Kind: parser.BaseNamed, Name: "A"}}
	res := resolver.Resolve([]*parser.ScriptClass{a, b}, testCatalog(t), resolver.Options{})

	_, err := Bridge(res.Classes["A"], "bridges")
	require.Error(t, err)
}

func TestBridgeDeterministic(t *testing.T) {
	rc := resolvePlayer(t, resolver.Options{})
	first, err := Bridge(rc, "bridges")
	require.NoError(t, err)
	second, err := Bridge(rc, "bridges")
	require.NoError(t, err)
	assert.Equal(t, first.Source, second.Source, "identical inputs must render byte-identical output")
}

func TestProxyEmitsSurface(t *testing.T) {
	file, err := Proxy("CharacterBody2D", testCatalog(t), "bridges")
	require.NoError(t, err)
	src := string(file.Source)

	assert.Equal(t, "character_body2d_proxy.go", file.Name)
	assert.Contains(t, src, "type CharacterBody2DProxy struct {\n\tinner engine.Object\n}")
	assert.Contains(t, src, "func NewCharacterBody2DProxy(obj engine.Object) *CharacterBody2DProxy {")
	assert.Contains(t, src, "func (p *CharacterBody2DProxy) Inner() engine.Object {")

	// Own and inherited members, across the whole walked chain.
	assert.Contains(t, src, "func (p *CharacterBody2DProxy) MoveAndSlide() bool {")
	assert.Contains(t, src, "func (p *CharacterBody2DProxy) QueueFree() {")
	assert.Contains(t, src, "func (p *CharacterBody2DProxy) Position() engine.Variant {")
	assert.Contains(t, src, "func (p *CharacterBody2DProxy) OnTreeEntered(handler engine.SignalHandler) engine.Connection {")

	// Rooted, empty name containers.
	assert.Contains(t, src, "type CharacterBody2DProxyPropertyNames struct{}")
	assert.Contains(t, src, "var CharacterBody2DProxyProperties = CharacterBody2DProxyPropertyNames{}")
}

func TestProxyGuardedSetScript(t *testing.T) {
	file, err := Proxy("Node", testCatalog(t), "bridges")
	require.NoError(t, err)
	src := string(file.Source)

	assert.Contains(t, src, "func (p *NodeProxy) SetScript(path string) {")
	assert.Contains(t, src, "id := p.inner.InstanceID()")
	assert.Contains(t, src, `p.inner.Call("set_script", engine.LoadResource(path))`)
	assert.Contains(t, src, "if cur, ok := engine.FromInstanceID(id); ok {")
	assert.Contains(t, src, "p.inner = cur")
}

func TestProxyStringOverrideSuppressesToString(t *testing.T) {
	file, err := Proxy("Node", testCatalog(t), "bridges")
	require.NoError(t, err)
	src := string(file.Source)

	assert.Contains(t, src, "func (p *NodeProxy) String() string {")
	assert.Contains(t, src, `return engine.AsString(p.inner.Call("to_string"))`)
	assert.NotContains(t, src, "func (p *NodeProxy) ToString", "to_string must not be forwarded twice")
}

func TestProxyDeprecatedMember(t *testing.T) {
	file, err := Proxy("CanvasItem", testCatalog(t), "bridges")
	require.NoError(t, err)
	src := string(file.Source)

	assert.Contains(t, src, "// Deprecated: Use queue_redraw() instead.")
	assert.Contains(t, src, "//nolint:staticcheck // forwards a deprecated engine member")
	assert.Contains(t, src, "func (p *CanvasItemProxy) Update() {")
}

func TestProxyReadOnlyProperty(t *testing.T) {
	file, err := Proxy("Timer", testCatalog(t), "bridges")
	require.NoError(t, err)
	src := string(file.Source)

	assert.Contains(t, src, "func (p *TimerProxy) TimeLeft() float64 {")
	assert.NotContains(t, src, "func (p *TimerProxy) SetTimeLeft", "setter must not exist for a getter-only property")
	assert.Contains(t, src, "func (p *TimerProxy) SetWaitTime(v float64) {")
}

func TestProxyUnknownNative(t *testing.T) {
	_, err := Proxy("NotAClass", testCatalog(t), "bridges")
	require.Error(t, err)
}

func TestFileNames(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Player", "player.go"},
		{"PlayerBridge", "player_bridge.go"},
		{"Node2DProxy", "node2d_proxy.go"},
		{"CharacterBody2DProxy", "character_body2d_proxy.go"},
		{"HUD", "hud.go"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fileName(tt.in), tt.in)
	}
}

func TestExportedName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"health", "Health"},
		{"health_changed", "HealthChanged"},
		{"move_and_slide", "MoveAndSlide"},
		{"flip_h", "FlipH"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exportedName(tt.in), tt.in)
	}
}

func TestParamNameAvoidsKeywords(t *testing.T) {
	assert.Equal(t, "typeArg", paramName("type"))
	assert.Equal(t, "oldValue", paramName("old_value"))
	assert.Equal(t, "arg", paramName(""))
}
