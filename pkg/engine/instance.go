// # pkg/engine/instance.go
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var nextInstanceID atomic.Uint64

// Instance is an in-memory Object implementation. It backs tests and demo
// hosts; production hosts supply their own Object wired to the real engine.
type Instance struct {
	mu       sync.RWMutex
	class    string
	id       uint64
	props    map[string]Variant
	methods  map[string]func(args ...Variant) Variant
	handlers map[string]map[uint64]SignalHandler
	nextConn uint64
}

// NewInstance creates a registered instance of the given engine class.
func NewInstance(class string) *Instance {
	inst := &Instance{
		class:    class,
		id:       nextInstanceID.Add(1),
		props:    make(map[string]Variant),
		methods:  make(map[string]func(args ...Variant) Variant),
		handlers: make(map[string]map[uint64]SignalHandler),
	}
	Register(inst)
	return inst
}

func (i *Instance) ClassName() string  { return i.class }
func (i *Instance) InstanceID() uint64 { return i.id }

func (i *Instance) Get(property string) Variant {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.props[property]
}

func (i *Instance) Set(property string, value Variant) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.props[property] = value
}

// Bind installs a method implementation callable through Call.
func (i *Instance) Bind(method string, fn func(args ...Variant) Variant) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.methods[method] = fn
}

func (i *Instance) Call(method string, args ...Variant) Variant {
	i.mu.RLock()
	fn := i.methods[method]
	i.mu.RUnlock()
	if fn == nil {
		if method == "to_string" {
			return fmt.Sprintf("<%s#%d>", i.class, i.id)
		}
		return nil
	}
	return fn(args...)
}

func (i *Instance) Connect(signal string, handler SignalHandler) Connection {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.handlers[signal] == nil {
		i.handlers[signal] = make(map[uint64]SignalHandler)
	}
	i.nextConn++
	i.handlers[signal][i.nextConn] = handler
	return Connection{Signal: signal, ID: i.nextConn}
}

func (i *Instance) Disconnect(conn Connection) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if hs := i.handlers[conn.Signal]; hs != nil {
		delete(hs, conn.ID)
	}
}

// EmitSignal invokes every handler connected to the signal.
func (i *Instance) EmitSignal(signal string, args ...Variant) {
	i.mu.RLock()
	hs := make([]SignalHandler, 0, len(i.handlers[signal]))
	for _, h := range i.handlers[signal] {
		hs = append(hs, h)
	}
	i.mu.RUnlock()
	for _, h := range hs {
		h(args...)
	}
}
