// Package attr dispatches independently authored effect units ("attributes")
// bound to an ability or move at a typed extension point.
//
// Every point carries its own context type, so an attribute only ever sees
// the parameter object of the point it was registered for. There is no
// common attribute interface across points.
package attr

import (
	"fmt"
	"sync"
)

// Result is what one attribute invocation reports back to the pipeline.
type Result int

const (
	// Skipped means the attribute's condition did not hold; nothing changed.
	Skipped Result = iota
	// Applied means the attribute ran.
	Applied
	// Stop means the attribute ran and no later attribute at this point may run.
	Stop
)

// Kind tells abilities, moves and held items apart in the registry key.
type Kind uint8

const (
	KindAbility Kind = iota + 1
	KindMove
	KindItem
)

func (k Kind) String() string {
	switch k {
	case KindAbility:
		return "ability"
	case KindMove:
		return "move"
	case KindItem:
		return "item"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Source identifies the ability, move or item an attribute belongs to.
type Source struct {
	Kind Kind
	ID   int
}

func Ability(id int) Source { return Source{Kind: KindAbility, ID: id} }
func Move(id int) Source    { return Source{Kind: KindMove, ID: id} }
func Item(id int) Source    { return Source{Kind: KindItem, ID: id} }

func (s Source) String() string { return fmt.Sprintf("%s:%d", s.Kind, s.ID) }

// Point is an extension point whose attributes receive a *C.
type Point[C any] struct {
	name string
}

// NewPoint declares an extension point. Names must be unique per registry.
func NewPoint[C any](name string) Point[C] { return Point[C]{name: name} }

func (p Point[C]) Name() string { return p.name }

// Handler is the narrow interface an attribute implements for one point.
type Handler[C any] interface {
	Apply(ctx *C) Result
}

// HandlerFunc adapts a function to Handler. Attributes that serve more than
// one point register a method value per point through it.
type HandlerFunc[C any] func(ctx *C) Result

func (f HandlerFunc[C]) Apply(ctx *C) Result { return f(ctx) }

type key struct {
	src   Source
	point string
}

type entry struct {
	name    string
	handler any
}

// Registry maps (source, point) to the ordered attributes declared there.
// It is built once and may then be shared read-only by many battles.
type Registry struct {
	mu      sync.RWMutex
	entries map[key][]entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[key][]entry)}
}

// Register appends h to the attributes of src at point p. Declaration order
// is invocation order. name is used for Unregister and for logging.
func Register[C any](r *Registry, src Source, p Point[C], name string, h Handler[C]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{src: src, point: p.name}
	r.entries[k] = append(r.entries[k], entry{name: name, handler: h})
}

// Unregister removes every attribute with the given name from src.
func (r *Registry) Unregister(src Source, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, list := range r.entries {
		if k.src != src {
			continue
		}
		n := 0
		for _, e := range list {
			if e.name != name {
				list[n] = e
				n++
			}
		}
		if n == 0 {
			delete(r.entries, k)
			continue
		}
		r.entries[k] = list[:n]
	}
}

// Has reports whether src declares any attribute at p.
func Has[C any](r *Registry, src Source, p Point[C]) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries[key{src: src, point: p.name}]) > 0
}

// Names lists the attribute names src declares at p, in order.
func Names[C any](r *Registry, src Source, p Point[C]) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.entries[key{src: src, point: p.name}]
	names := make([]string, len(list))
	for i, e := range list {
		names[i] = e.name
	}
	return names
}

// Outcome summarises one pipeline pass.
type Outcome struct {
	Applied int
	Stopped bool
}

// Apply invokes the attributes src declares at p in declaration order,
// stopping after the first one that returns Stop. A nil ctx is a programming
// error and panics.
func Apply[C any](r *Registry, src Source, p Point[C], ctx *C) Outcome {
	if ctx == nil {
		panic(fmt.Errorf("attr: nil context for point %s (%s)", p.name, src))
	}
	r.mu.RLock()
	list := r.entries[key{src: src, point: p.name}]
	handlers := make([]Handler[C], len(list))
	for i, e := range list {
		h, ok := e.handler.(Handler[C])
		if !ok {
			r.mu.RUnlock()
			panic(fmt.Errorf("attr: %s at %s has handler %T for another context", e.name, p.name, e.handler))
		}
		handlers[i] = h
	}
	r.mu.RUnlock()

	var out Outcome
	for _, h := range handlers {
		switch h.Apply(ctx) {
		case Applied:
			out.Applied++
		case Stop:
			out.Applied++
			out.Stopped = true
			return out
		}
	}
	return out
}

// ApplyAll runs Apply for each source in order. A Stop from one source also
// skips every later source.
func ApplyAll[C any](r *Registry, srcs []Source, p Point[C], ctx *C) Outcome {
	var total Outcome
	for _, src := range srcs {
		out := Apply(r, src, p, ctx)
		total.Applied += out.Applied
		if out.Stopped {
			total.Stopped = true
			return total
		}
	}
	return total
}
