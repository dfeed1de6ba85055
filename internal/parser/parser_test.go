// # internal/parser/parser_test.go
package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptbridge/internal/errors"
)

const playerScript = `class_name Player
extends CharacterBody2D

signal health_changed(old_value: int, new_value: int)
signal died

@export var max_health: int = 100
var health: int = 100
var speed := 300.0
const MAX_HEALTH: int = 200
var _invulnerable := false # private by convention

func take_damage(amount: int) -> void:
	health -= amount
	health_changed.emit(health + amount, health)

func heal(amount: int = 1) -> int:
	return health

func _ready():
	pass

static func from_save(data) -> Player:
	return null
`

func TestParsePlayerScript(t *testing.T) {
	cls, err := Parse(`scripts\player.gd`, []byte(playerScript))
	require.NoError(t, err)

	assert.Equal(t, "Player", cls.Name)
	assert.Equal(t, "scripts/player.gd", cls.Path, "separators must be normalized")

	require.Equal(t, BaseNamed, cls.Base.Kind, "CharacterBody2D is outside the built-in root set")
	assert.Equal(t, "CharacterBody2D", cls.Base.Name)

	require.Len(t, cls.Variables, 5)
	assert.Equal(t, Variable{Name: "max_health", Type: "int", Exported: true, Line: 7}, cls.Variables[0])
	assert.Equal(t, "health", cls.Variables[1].Name)
	assert.Empty(t, cls.Variables[2].Type, "inferred types stay unannotated")
	assert.Equal(t, Variable{Name: "MAX_HEALTH", Type: "int", Constant: true, Line: 10}, cls.Variables[3])
	assert.True(t, IsPrivateName(cls.Variables[4].Name))

	require.Len(t, cls.Functions, 3, "static funcs are not instance members")
	take := cls.Functions[0]
	assert.Equal(t, "take_damage", take.Name)
	require.Len(t, take.Params, 1)
	assert.Equal(t, Param{Name: "amount", Type: "int"}, take.Params[0])
	assert.Empty(t, take.ReturnType, "void return is treated as no return")

	heal := cls.Functions[1]
	assert.Equal(t, "int", heal.ReturnType)
	require.Len(t, heal.Params, 1)
	assert.Equal(t, "1", heal.Params[0].Default)

	require.Len(t, cls.Signals, 2)
	assert.Equal(t, "health_changed", cls.Signals[0].Name)
	require.Len(t, cls.Signals[0].Params, 2)
	assert.Equal(t, Param{Name: "old_value", Type: "int"}, cls.Signals[0].Params[0])
	assert.Empty(t, cls.Signals[1].Params)
}

func TestParseBaseForms(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want BaseRef
	}{
		{"native root", "class_name A\nextends Node2D\n", BaseRef{Kind: BaseNative, Native: NativeNode2D}},
		{"named script", "class_name A\nextends Enemy\n", BaseRef{Kind: BaseNamed, Name: "Enemy"}},
		{"inline extends", "class_name A extends Control\n", BaseRef{Kind: BaseNative, Native: NativeControl}},
		{"path extends", "class_name A\nextends \"res://actors/base_enemy.gd\"\n", BaseRef{Kind: BaseNamed, Name: "BaseEnemy"}},
		{"absent", "class_name A\n", BaseRef{Kind: BaseDefault}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls, err := Parse("a.gd", []byte(tt.src))
			require.NoError(t, err)
			assert.Equal(t, tt.want, cls.Base)
		})
	}
}

func TestParseStandaloneExportAnnotation(t *testing.T) {
	src := "class_name A\n" +
		"@export\n" +
		"var health: int = 100\n" +
		"@export_range(0, 10)\n" +
		"var speed: float\n" +
		"var plain: int\n"

	cls, err := Parse("a.gd", []byte(src))
	require.NoError(t, err)
	require.Len(t, cls.Variables, 3)
	assert.True(t, cls.Variables[0].Exported, "annotation on its own line qualifies the next declaration")
	assert.True(t, cls.Variables[1].Exported)
	assert.False(t, cls.Variables[2].Exported, "the carried annotation must not leak past one declaration")
}

func TestParseSkipsBodiesAndComments(t *testing.T) {
	src := "class_name A\n" +
		"func run():\n" +
		"\tvar local = 1\n" +
		"\tsignal_not_really()\n" +
		"# var commented_out: int\n" +
		"var real_one # signal trailing comment\n"

	cls, err := Parse("a.gd", []byte(src))
	require.NoError(t, err)
	assert.Len(t, cls.Variables, 1)
	assert.Equal(t, "real_one", cls.Variables[0].Name)
	assert.Len(t, cls.Signals, 0)
	assert.Len(t, cls.Functions, 1)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code errors.ErrorCode
	}{
		{"no class name", "extends Node\nvar x\n", errors.CodeNoClassName},
		{"empty file", "", errors.CodeNoClassName},
		{"class_name without ident", "class_name\n", errors.CodeParseFailed},
		{"duplicate class_name", "class_name A\nclass_name B\n", errors.CodeParseFailed},
		{"unbalanced func parens", "class_name A\nfunc go(a, b:\n", errors.CodeParseFailed},
		{"bad extends", "class_name A\nextends 123abc\n", errors.CodeParseFailed},
		{"unterminated extends path", "class_name A\nextends \"res://x.gd\n", errors.CodeParseFailed},
		{"bad var annotation", "class_name A\nvar x:\n", errors.CodeParseFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.gd", []byte(tt.src))
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestNativeKindRoundTrip(t *testing.T) {
	for name := range map[string]bool{"Object": true, "RefCounted": true, "Node": true, "Control": true} {
		kind, ok := NativeKindByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, kind.String())
	}
	_, ok := NativeKindByName("CharacterBody2D")
	assert.False(t, ok)
}
