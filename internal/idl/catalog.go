package idl

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Catalog is an in-memory Source. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{schemas: map[string]*Schema{}}
}

// Add stores s. Adding a schema whose name is already taken is a no-op when
// both are identical and an error otherwise.
func (c *Catalog) Add(s *Schema) error {
	if _, _, _, err := SplitName(s.Name); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.schemas[s.Name]; ok {
		if reflect.DeepEqual(prev, s) {
			return nil
		}
		return fmt.Errorf("%w: conflicting definitions for %s", ErrInvalidSchema, s.Name)
	}
	c.schemas[s.Name] = s
	return nil
}

// AddMsg parses text as a .msg description and adds it under name.
func (c *Catalog) AddMsg(name, text string) error {
	s, err := ParseMsg(name, text)
	if err != nil {
		return err
	}
	return c.Add(s)
}

// Lookup returns the schema registered under name.
func (c *Catalog) Lookup(name string) (*Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.schemas[name]
	return s, ok
}

// Names returns every stored name in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.schemas))
	for n := range c.schemas {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
