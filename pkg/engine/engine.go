// # pkg/engine/engine.go

// Package engine is the runtime boundary between generated bridge code and
// the actual game engine. Generated bridges and proxies only ever talk to
// the Object interface, the Variant helpers and the instance registry, so a
// host embedding this package decides how calls reach the real engine.
package engine

import "sync"

// Variant is a dynamically typed engine value. Script member types that have
// no direct Go mapping travel through this.
type Variant any

// SignalHandler receives the arguments a signal was emitted with.
type SignalHandler func(args ...Variant)

// Connection identifies one signal subscription so it can be detached later.
type Connection struct {
	Signal string
	ID     uint64
}

// Object is the public surface of one live engine instance. Generated code
// forwards every property read/write, method call and signal subscription
// through this interface.
type Object interface {
	ClassName() string
	InstanceID() uint64
	Get(property string) Variant
	Set(property string, value Variant)
	Call(method string, args ...Variant) Variant
	Connect(signal string, handler SignalHandler) Connection
	Disconnect(conn Connection)
}

// LoadResource resolves a res:// path to an engine resource. Hosts replace
// this hook; the default returns the path itself, which is enough for tests.
var LoadResource = func(path string) Variant { return path }

var registry = struct {
	sync.RWMutex
	byID map[uint64]Object
}{byID: make(map[uint64]Object)}

// Register makes obj resolvable through FromInstanceID. Attaching a script
// may hand back a fresh handle for the same logical object, so hosts must
// re-register under the original instance ID when that happens.
func Register(obj Object) {
	registry.Lock()
	defer registry.Unlock()
	registry.byID[obj.InstanceID()] = obj
}

// Unregister drops an instance from the registry.
func Unregister(id uint64) {
	registry.Lock()
	defer registry.Unlock()
	delete(registry.byID, id)
}

// FromInstanceID returns the current live object for an instance ID.
func FromInstanceID(id uint64) (Object, bool) {
	registry.RLock()
	defer registry.RUnlock()
	obj, ok := registry.byID[id]
	return obj, ok
}
