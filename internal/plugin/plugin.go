// Package plugin loads a storage.Backend from a Go plugin (.so), per
// spec.md §6's plugin ABI: two exported symbols, create_storage(config_path)
// and destroy_storage(backend). Used when config.storage.storage_library
// names a shared object instead of one of the built-in back-ends.
package plugin

import (
	"fmt"
	"plugin"

	"github.com/chatrelay/chat-relay/internal/concurrent/errs"
	"github.com/chatrelay/chat-relay/internal/storage"
)

// CreateFunc is the shape of the exported create_storage symbol.
type CreateFunc func(configPath string) (storage.Backend, error)

// DestroyFunc is the shape of the exported destroy_storage symbol.
type DestroyFunc func(storage.Backend)

// Loaded is a plugin-provided backend paired with its teardown hook.
// Loaded.Close calls Destroy; storage.Wrapper.Close calls only
// Backend.Close and never calls Destroy, so destroy_storage runs only
// when Loaded.Close is called.
type Loaded struct {
	Backend storage.Backend
	Destroy DestroyFunc
}

// Load opens the shared object at soPath, resolves create_storage and
// destroy_storage, and invokes create_storage(configPath).
func Load(soPath, configPath string) (*Loaded, error) {
	p, err := plugin.Open(soPath)
	if err != nil {
		return nil, errs.NewKind(errs.KindConfig, "plugin: open").Append(soPath).Append(err)
	}

	createSym, err := p.Lookup("create_storage")
	if err != nil {
		return nil, errs.NewKind(errs.KindConfig, "plugin: missing create_storage symbol").Append(soPath)
	}
	create, ok := createSym.(func(string) (storage.Backend, error))
	if !ok {
		return nil, errs.NewKind(errs.KindConfig, fmt.Sprintf("plugin: create_storage has unexpected signature in %s", soPath))
	}

	destroySym, err := p.Lookup("destroy_storage")
	if err != nil {
		return nil, errs.NewKind(errs.KindConfig, "plugin: missing destroy_storage symbol").Append(soPath)
	}
	destroy, ok := destroySym.(func(storage.Backend))
	if !ok {
		return nil, errs.NewKind(errs.KindConfig, fmt.Sprintf("plugin: destroy_storage has unexpected signature in %s", soPath))
	}

	backend, err := create(configPath)
	if err != nil {
		return nil, errs.NewKind(errs.KindStorage, "plugin: create_storage failed").Append(err)
	}

	return &Loaded{Backend: backend, Destroy: destroy}, nil
}

// Close invokes the plugin's destroy_storage on the loaded backend.
func (l *Loaded) Close() error {
	l.Destroy(l.Backend)
	return nil
}
