// Package registry wires deferred-value providers at startup. It replaces
// the install-a-global pattern: an application registers named factories and
// picks one as the default, consumers ask for the default instead of
// reaching for an ambient type.
package registry

import (
	"context"
	"sync"

	"github.com/phuslu/shardmap"
	"github.com/pkg/errors"

	"github.com/dhcmrlchtdj/godeferred/promise"
)

// Factory produces a fresh pending deferred.
type Factory func(ctx context.Context) *promise.Deferred[any]

// Native names the factory backed by this module, registered at init and
// used as the initial default.
const Native = "godeferred"

var (
	ErrNilFactory        = errors.New("nil factory")
	ErrDuplicateProvider = errors.New("provider already registered")
	ErrUnknownProvider   = errors.New("unknown provider")
)

var (
	providers = shardmap.New[string, Factory](8)

	defaultMu   sync.Mutex
	defaultName string
)

func init() {
	Install(Native, func(ctx context.Context) *promise.Deferred[any] {
		return promise.New[any](ctx, nil)
	}, false)
	defaultName = Native
}

// Register installs a factory under name, failing if the name is taken.
func Register(name string, factory Factory) error {
	if factory == nil {
		return errors.Wrap(ErrNilFactory, name)
	}
	installed := false
	providers.Mutate(name, func(old Factory, found bool) (Factory, bool) {
		if found {
			return old, true
		}
		installed = true
		return factory, true
	})
	if !installed {
		return errors.Wrap(ErrDuplicateProvider, name)
	}
	return nil
}

// Install is an idempotent Register: an existing factory is kept unless
// force is set.
func Install(name string, factory Factory, force bool) {
	if factory == nil {
		return
	}
	providers.Mutate(name, func(old Factory, found bool) (Factory, bool) {
		if found && !force {
			return old, true
		}
		return factory, true
	})
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, error) {
	factory, found := providers.Get(name)
	if !found {
		return nil, errors.Wrap(ErrUnknownProvider, name)
	}
	return factory, nil
}

// SetDefault picks an already-registered factory as the default.
func SetDefault(name string) error {
	if _, found := providers.Get(name); !found {
		return errors.Wrap(ErrUnknownProvider, name)
	}
	defaultMu.Lock()
	defaultName = name
	defaultMu.Unlock()
	return nil
}

// Default returns the current default factory.
func Default() (Factory, error) {
	defaultMu.Lock()
	name := defaultName
	defaultMu.Unlock()
	return Lookup(name)
}
