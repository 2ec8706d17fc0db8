package v8shim

import (
	"fmt"
	"iter"
	"strings"
)

// PropertyAttribute is a bit set of the V8 property attributes.
type PropertyAttribute uint8

const (
	None PropertyAttribute = 0
	// ReadOnly properties cannot be assigned, from script or through Set.
	ReadOnly PropertyAttribute = 1 << (iota - 1)
	// DontEnum properties are skipped by for-in and GetPropertyNames.
	DontEnum
	// DontDelete properties cannot be deleted.
	DontDelete
)

func (a PropertyAttribute) String() string {
	if a == None {
		return "None"
	}
	var parts []string
	for _, f := range []struct {
		bit  PropertyAttribute
		name string
	}{{ReadOnly, "ReadOnly"}, {DontEnum, "DontEnum"}, {DontDelete, "DontDelete"}} {
		if a&f.bit != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// AccessorGetter is called when script reads an API accessor property.
type AccessorGetter func(property String, info AccessorInfo) Value

// AccessorSetter is called when script assigns an API accessor property.
type AccessorSetter func(property String, value Value, info AccessorInfo)

// PropertyData is one accessor registration.
type PropertyData struct {
	Getter     AccessorGetter
	Setter     AccessorSetter
	Data       *Persistent
	Attributes PropertyAttribute
}

func (d PropertyData) dispose() { disposeIfSet(d.Data) }

// AttributeEntry is one value registered with attributes.
type AttributeEntry struct {
	Value      *Persistent
	Attributes PropertyAttribute
}

func (e AttributeEntry) dispose() { disposeIfSet(e.Value) }

func disposeIfSet(p *Persistent) {
	if p != nil && !p.IsEmpty() {
		p.Dispose()
	}
}

// table maps property names to entries that own a persistent handle. It
// keeps insertion order so that iteration is deterministic.
type table[E interface{ dispose() }] struct {
	entries  map[string]E
	order    []string
	disposed bool
}

func newTable[E interface{ dispose() }]() table[E] {
	return table[E]{entries: map[string]E{}}
}

func (t *table[E]) check(op string) {
	if t.disposed {
		usagef(op, "storage has been disposed")
	}
}

// add stores e under name. The entry it replaces is disposed first, exactly
// once.
func (t *table[E]) add(name string, e E) {
	if old, ok := t.entries[name]; ok {
		old.dispose()
	} else {
		t.order = append(t.order, name)
	}
	t.entries[name] = e
}

func (t *table[E]) get(name string) (E, error) {
	e, ok := t.entries[name]
	if !ok {
		return e, fmt.Errorf("%w: %q", ErrPropertyNotFound, name)
	}
	return e, nil
}

func (t *table[E]) remove(name string) bool {
	e, ok := t.entries[name]
	if !ok {
		return false
	}
	e.dispose()
	delete(t.entries, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// all yields the entries in insertion order. It reads the table lazily, so
// every range over the result sees the current contents.
func (t *table[E]) all() iter.Seq2[string, E] {
	return func(yield func(string, E) bool) {
		for _, name := range t.order {
			if !yield(name, t.entries[name]) {
				return
			}
		}
	}
}

func (t *table[E]) dispose() {
	for _, name := range t.order {
		t.entries[name].dispose()
	}
	t.entries = nil
	t.order = nil
	t.disposed = true
}

// AccessorStorage records the accessor callbacks registered on an object or
// template, keyed by property name.
type AccessorStorage struct {
	t table[PropertyData]
}

func NewAccessorStorage() *AccessorStorage {
	return &AccessorStorage{newTable[PropertyData]()}
}

// AddAccessor registers an accessor under name, replacing any existing one.
// data is copied into a persistent handle owned by the storage; an empty
// data handle is stored as a nil Persistent.
func (s *AccessorStorage) AddAccessor(name string, getter AccessorGetter, setter AccessorSetter, data Value, attrs PropertyAttribute) {
	s.t.check("AccessorStorage.AddAccessor")
	var p *Persistent
	if !data.IsEmpty() {
		p = NewPersistent(data)
	}
	s.t.add(name, PropertyData{getter, setter, p, attrs})
}

// Get returns the accessor registered under name, or ErrPropertyNotFound.
func (s *AccessorStorage) Get(name string) (PropertyData, error) {
	s.t.check("AccessorStorage.Get")
	return s.t.get(name)
}

// lookup is Get for dispatch from script, where a disposed storage just
// has no entries.
func (s *AccessorStorage) lookup(name string) (PropertyData, bool) {
	if s.t.disposed {
		return PropertyData{}, false
	}
	d, ok := s.t.entries[name]
	return d, ok
}

func (s *AccessorStorage) Has(name string) bool {
	_, err := s.Get(name)
	return err == nil
}

// Remove deletes and disposes the entry for name, if any.
func (s *AccessorStorage) Remove(name string) bool {
	s.t.check("AccessorStorage.Remove")
	return s.t.remove(name)
}

func (s *AccessorStorage) Len() int { return len(s.t.order) }

// All iterates the registrations in the order they were first added.
func (s *AccessorStorage) All() iter.Seq2[string, PropertyData] {
	s.t.check("AccessorStorage.All")
	return s.t.all()
}

// Dispose disposes every data handle. The storage cannot be used afterwards.
func (s *AccessorStorage) Dispose() {
	s.t.check("AccessorStorage.Dispose")
	s.t.dispose()
}

// AttributeStorage records values that were set together with property
// attributes, keyed by property name.
type AttributeStorage struct {
	t table[AttributeEntry]
}

func NewAttributeStorage() *AttributeStorage {
	return &AttributeStorage{newTable[AttributeEntry]()}
}

// AddAttribute records value and attrs under name, replacing and disposing
// any existing entry.
func (s *AttributeStorage) AddAttribute(name string, value Value, attrs PropertyAttribute) {
	s.t.check("AttributeStorage.AddAttribute")
	s.t.add(name, AttributeEntry{NewPersistent(value), attrs})
}

// Get returns the entry for name, or ErrPropertyNotFound.
func (s *AttributeStorage) Get(name string) (AttributeEntry, error) {
	s.t.check("AttributeStorage.Get")
	return s.t.get(name)
}

// Attributes returns the attributes recorded for name, or None.
func (s *AttributeStorage) Attributes(name string) PropertyAttribute {
	e, err := s.Get(name)
	if err != nil {
		return None
	}
	return e.Attributes
}

func (s *AttributeStorage) Remove(name string) bool {
	s.t.check("AttributeStorage.Remove")
	return s.t.remove(name)
}

func (s *AttributeStorage) Len() int { return len(s.t.order) }

func (s *AttributeStorage) All() iter.Seq2[string, AttributeEntry] {
	s.t.check("AttributeStorage.All")
	return s.t.all()
}

func (s *AttributeStorage) Dispose() {
	s.t.check("AttributeStorage.Dispose")
	s.t.dispose()
}
