package store

import (
	"fmt"
	"iter"
	"sort"
)

// GroupKey addresses a key inside a named member of a Group.
type GroupKey struct {
	Store string
	Key   string
}

// String formats k as store/key.
func (k GroupKey) String() string { return k.Store + "/" + k.Key }

// Group is a fixed set of named stores addressed with (name, key) pairs.
// The remote server serves a Group.
type Group struct {
	stores map[string]Store
}

// NewGroup copies the name -> store mapping.
func NewGroup(stores map[string]Store) *Group {
	g := &Group{stores: make(map[string]Store, len(stores))}
	for name, s := range stores {
		g.stores[name] = s
	}
	return g
}

// Has reports whether name is a member of the group.
func (g *Group) Has(name string) bool {
	_, ok := g.stores[name]
	return ok
}

// Store returns the named member.
func (g *Group) Store(name string) (Store, error) {
	s, ok := g.stores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, name)
	}
	return s, nil
}

// Names returns the member names in sorted order.
func (g *Group) Names() []string {
	names := make([]string, 0, len(g.stores))
	for name := range g.stores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadRaw reads k.Key from the store named k.Store.
func (g *Group) LoadRaw(k GroupKey) ([]byte, error) {
	s, err := g.Store(k.Store)
	if err != nil {
		return nil, err
	}
	return s.LoadRaw(k.Key)
}

// StoreRaw writes k.Key in the store named k.Store.
func (g *Group) StoreRaw(k GroupKey, data []byte) error {
	s, err := g.Store(k.Store)
	if err != nil {
		return err
	}
	return s.StoreRaw(k.Key, data)
}

// Delete removes k.Key from the store named k.Store.
func (g *Group) Delete(k GroupKey) error {
	s, err := g.Store(k.Store)
	if err != nil {
		return err
	}
	return s.Delete(k.Key)
}

// Contains is false for unknown member names.
func (g *Group) Contains(k GroupKey) (bool, error) {
	s, ok := g.stores[k.Store]
	if !ok {
		return false, nil
	}
	return s.Contains(k.Key)
}

// Keys yields the keys of every member, member by member in name order.
func (g *Group) Keys() iter.Seq2[GroupKey, error] {
	return func(yield func(GroupKey, error) bool) {
		for _, name := range g.Names() {
			for k, err := range g.stores[name].Keys() {
				if err != nil {
					yield(GroupKey{Store: name}, err)
					return
				}
				if !yield(GroupKey{Store: name, Key: k}, nil) {
					return
				}
			}
		}
	}
}

// GroupGet decodes the value at k with the member store's codec.
func GroupGet[T any](g *Group, k GroupKey) (T, error) {
	s, err := g.Store(k.Store)
	if err != nil {
		var zero T
		return zero, err
	}
	return Get[T](s, k.Key)
}

// GroupSet encodes v with the member store's codec.
func GroupSet[T any](g *Group, k GroupKey, v T) error {
	s, err := g.Store(k.Store)
	if err != nil {
		return err
	}
	return Set(s, k.Key, v)
}
