package v8shim

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/dop251/goja"
	"github.com/hashicorp/go-multierror"
	"github.com/imdario/mergo"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of an Isolate.
type State uint8

const (
	StateUninitialized State = iota
	StateReady
	StateDisposed
	kNumStates
)

var stateStrings = [kNumStates]string{"Uninitialized", "Ready", "Disposed"}

func (s State) String() string {
	if s >= kNumStates {
		return fmt.Sprintf("InvalidState:%d", int(s))
	}
	return stateStrings[s]
}

// Config holds the settings of an Isolate. Zero fields are filled in from
// DefaultConfig.
type Config struct {
	// MaxScopeDepth bounds how many HandleScopes may be open at once.
	// Negative means unlimited.
	MaxScopeDepth int `json:"maxScopeDepth"`
	// StrictMode compiles every script as strict mode code.
	StrictMode bool `json:"strictMode"`
	// Logger receives lifecycle, leak and uncaught exception messages.
	Logger logrus.FieldLogger `json:"-"`
}

// DefaultConfig returns the settings used for any field left unset.
func DefaultConfig() Config {
	return Config{
		MaxScopeDepth: 1024,
		Logger:        logrus.StandardLogger(),
	}
}

// HandleStatistics describe the handle bookkeeping of an isolate. They are
// the bridge's equivalent of heap statistics: the wrapped engine can only
// collect a value once no cell refers to it anymore.
type HandleStatistics struct {
	OpenScopes      int
	OpenTryCatches  int
	LiveLocals      int
	LivePersistents int
	// AccessorObjects counts the objects with an API accessor table that
	// has not been swept yet.
	AccessorObjects int
	Contexts        int
	CellsAllocated  uint64
	CellsReleased   uint64
}

var nextIsolateId uint64

// Isolate is a single engine instance. It owns the handle scope stack, the
// TryCatch stack, the persistent roots and every Context created from it.
//
// An isolate is not safe for concurrent use; the only method that may be
// called from another goroutine is Terminate.
type Isolate struct {
	id    uint64
	cfg   Config
	log   logrus.FieldLogger
	state State

	scopes      []*HandleScope
	tryCatches  []*TryCatch
	entered     []*Context
	persistents map[*cell]struct{}

	// callbackDepth counts the native callbacks currently on the stack.
	// pendingThrow holds an exception to raise when the innermost one
	// returns, and pendingTerminate re-arms an interrupt swallowed by it.
	callbackDepth    int
	pendingThrow     goja.Value
	pendingTerminate bool

	nextScopeId    uint64
	cellsAllocated uint64
	cellsReleased  uint64

	contextsMutex sync.Mutex
	contexts      map[int]*Context
	nextContextId int
}

// NewIsolate creates an isolate in the Uninitialized state. Call Initialize
// before using it.
func NewIsolate(cfg Config) *Isolate {
	if err := mergo.Merge(&cfg, DefaultConfig()); err != nil {
		// Both sides are the same plain struct type, so this cannot fail.
		panic(fmt.Errorf("cannot merge isolate config: %v", err))
	}
	id := atomic.AddUint64(&nextIsolateId, 1)
	return &Isolate{
		id:          id,
		cfg:         cfg,
		log:         cfg.Logger.WithField("isolate", id),
		persistents: map[*cell]struct{}{},
		contexts:    map[int]*Context{},
	}
}

// Initialize moves the isolate to the Ready state. Calling it again while the
// isolate is Ready does nothing; calling it after Dispose returns
// ErrIsolateDisposed.
func (iso *Isolate) Initialize() error {
	switch iso.state {
	case StateReady:
		iso.log.Debug("isolate already initialized")
		return nil
	case StateDisposed:
		return ErrIsolateDisposed
	}
	iso.state = StateReady
	iso.log.Debug("isolate initialized")
	return nil
}

// State reports the lifecycle state of the isolate.
func (iso *Isolate) State() State { return iso.state }

// Config returns the effective configuration of the isolate.
func (iso *Isolate) Config() Config { return iso.cfg }

// Dispose tears the isolate down. Every context is disposed and every cell
// still alive is released. HandleScopes, TryCatches and entered contexts
// that were never closed are reported in the returned error; leaked
// persistent handles are only logged. The isolate is unusable afterwards.
func (iso *Isolate) Dispose() error {
	if iso.state == StateDisposed {
		return ErrIsolateDisposed
	}

	var result *multierror.Error
	for i := len(iso.tryCatches) - 1; i >= 0; i-- {
		result = multierror.Append(result, fmt.Errorf("try/catch #%d was never closed", i))
		iso.tryCatches[i].closed = true
	}
	iso.tryCatches = nil

	for i := len(iso.entered) - 1; i >= 0; i-- {
		result = multierror.Append(result, fmt.Errorf("context #%d is still entered", iso.entered[i].id))
	}
	iso.entered = nil

	for i := len(iso.scopes) - 1; i >= 0; i-- {
		s := iso.scopes[i]
		result = multierror.Append(result, fmt.Errorf("handle scope #%d was never closed", s.id))
		s.release()
		s.closed = true
	}
	iso.scopes = nil

	iso.contextsMutex.Lock()
	contexts := make([]*Context, 0, len(iso.contexts))
	for _, ctx := range iso.contexts {
		contexts = append(contexts, ctx)
	}
	iso.contextsMutex.Unlock()
	for _, ctx := range contexts {
		ctx.Dispose()
	}

	if n := len(iso.persistents); n > 0 {
		iso.log.WithField("count", n).Warn("disposing isolate with live persistent handles")
		for c := range iso.persistents {
			iso.release(c)
		}
		iso.persistents = map[*cell]struct{}{}
	}

	iso.state = StateDisposed
	iso.log.Debug("isolate disposed")
	return result.ErrorOrNil()
}

func (iso *Isolate) checkReady(op string) {
	if iso.state != StateReady {
		usagef(op, "isolate is %s", iso.state)
	}
}

// Stats returns the current handle bookkeeping counters.
func (iso *Isolate) Stats() HandleStatistics {
	hs := HandleStatistics{
		OpenScopes:      len(iso.scopes),
		OpenTryCatches:  len(iso.tryCatches),
		LivePersistents: len(iso.persistents),
		CellsAllocated:  iso.cellsAllocated,
		CellsReleased:   iso.cellsReleased,
	}
	for _, s := range iso.scopes {
		hs.LiveLocals += len(s.cells)
	}
	iso.contextsMutex.Lock()
	hs.Contexts = len(iso.contexts)
	for _, ctx := range iso.contexts {
		hs.AccessorObjects += len(ctx.objects)
	}
	iso.contextsMutex.Unlock()
	return hs
}

// Terminate interrupts every running script in every context of this
// isolate. This may be called from any goroutine at any time.
func (iso *Isolate) Terminate() {
	iso.contextsMutex.Lock()
	defer iso.contextsMutex.Unlock()
	for _, ctx := range iso.contexts {
		ctx.vm.Interrupt("execution terminated")
	}
}

// IdleNotification is an advisory hint that the embedder is idle. It
// disposes the accessor tables of objects already collected by the Go
// runtime and always returns true.
func (iso *Isolate) IdleNotification() bool {
	n := iso.sweep()
	iso.log.WithField("swept", n).Debug("idle notification")
	return true
}

// LowMemoryNotification asks the Go runtime to collect garbage, disposes the
// accessor tables of the objects it collected and returns memory to the
// operating system.
func (iso *Isolate) LowMemoryNotification() {
	runtime.GC()
	n := iso.sweep()
	debug.FreeOSMemory()
	iso.log.WithField("swept", n).Debug("low memory notification")
}

func (iso *Isolate) sweep() int {
	iso.contextsMutex.Lock()
	contexts := make([]*Context, 0, len(iso.contexts))
	for _, ctx := range iso.contexts {
		contexts = append(contexts, ctx)
	}
	iso.contextsMutex.Unlock()
	n := 0
	for _, ctx := range contexts {
		n += ctx.sweep()
	}
	return n
}

// CurrentContext returns the most recently entered context, or nil if no
// context is entered.
func (iso *Isolate) CurrentContext() *Context {
	if len(iso.entered) == 0 {
		return nil
	}
	return iso.entered[len(iso.entered)-1]
}

// ThrowException schedules v to be thrown. Inside a native callback the
// exception is raised in javascript once the callback returns; elsewhere it
// is recorded by the innermost TryCatch immediately. It returns undefined so
// callbacks can write `return iso.ThrowException(err)`.
func (iso *Isolate) ThrowException(v Value) Value {
	iso.checkReady("ThrowException")
	gv := v.native("ThrowException")
	ctx := v.c.ctx
	if iso.callbackDepth > 0 {
		iso.pendingThrow = gv
	} else {
		iso.record(ctx, gv, "", false)
	}
	return ctx.Undefined()
}

func (iso *Isolate) takePendingThrow() goja.Value {
	v := iso.pendingThrow
	iso.pendingThrow = nil
	return v
}
