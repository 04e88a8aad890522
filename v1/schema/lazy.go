package schema

import (
	"fmt"
	"sync"
)

// Lazy builds a Registry on first use. Concurrent first callers trigger exactly
// one build and all observe the same registry, or the same error.
type Lazy struct {
	once  sync.Once
	build func() (*Registry, error)
	reg   *Registry
	err   error
}

// NewLazy returns a Lazy that runs build once, on the first Get.
func NewLazy(build func() (*Registry, error)) *Lazy {
	return &Lazy{build: build}
}

// Get returns the registry, building it if this is the first call. A build
// that panics is reported as an error to every caller.
func (l *Lazy) Get() (*Registry, error) {
	l.once.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				l.reg, l.err = nil, fmt.Errorf("schema: registry build panicked: %v", r)
			}
		}()
		l.reg, l.err = l.build()
	})
	return l.reg, l.err
}
