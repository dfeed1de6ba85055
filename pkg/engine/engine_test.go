// # pkg/engine/engine_test.go
package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstancePropertyRoundTrip(t *testing.T) {
	inst := NewInstance("Node")
	defer Unregister(inst.InstanceID())

	inst.Set("health", int64(42))
	assert.Equal(t, int64(42), AsInt(inst.Get("health")))
	assert.Equal(t, int64(0), AsInt(inst.Get("missing")))
}

func TestInstanceSignals(t *testing.T) {
	inst := NewInstance("Node")
	defer Unregister(inst.InstanceID())

	var got []Variant
	conn := inst.Connect("health_changed", func(args ...Variant) {
		got = append(got, args...)
	})

	inst.EmitSignal("health_changed", int64(10), int64(5))
	require.Len(t, got, 2)
	assert.Equal(t, int64(10), AsInt(got[0]))

	inst.Disconnect(conn)
	inst.EmitSignal("health_changed", int64(1))
	assert.Len(t, got, 2, "disconnected handler must not fire")
}

func TestRegistryResolvesByInstanceID(t *testing.T) {
	inst := NewInstance("Sprite2D")
	defer Unregister(inst.InstanceID())

	found, ok := FromInstanceID(inst.InstanceID())
	require.True(t, ok)
	assert.Same(t, Object(inst), found)

	Unregister(inst.InstanceID())
	_, ok = FromInstanceID(inst.InstanceID())
	assert.False(t, ok)
}

func TestInstanceDefaultToString(t *testing.T) {
	inst := NewInstance("Node")
	defer Unregister(inst.InstanceID())

	s := AsString(inst.Call("to_string"))
	assert.Contains(t, s, "Node")
}

func TestVariantCoercions(t *testing.T) {
	tests := []struct {
		name string
		got  any
		want any
	}{
		{"int from int", AsInt(7), int64(7)},
		{"int from float", AsInt(3.9), int64(3)},
		{"float from int64", AsFloat(int64(2)), 2.0},
		{"string miss", AsString(12), ""},
		{"bool hit", AsBool(true), true},
		{"bool miss", AsBool("yes"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
