package nw

import "sync"

// ServerPlugin is a cross-cutting behaviour attached to a ServerWrapper:
// something that wants its own callback layer and a periodic tick, such
// as the idle-timeout reference plugin. No teacher analogue exists;
// built in the teacher's small-struct, explicit-lifecycle style.
type ServerPlugin interface {
	Name() string
	OnAttach(w *ServerWrapper) error
	OnDetach()
	Tick()
	// RequiresConnection reports whether Tick should be skipped while
	// the owning server is not healthy.
	RequiresConnection() bool
}

// ClientPlugin mirrors ServerPlugin for the client side.
type ClientPlugin interface {
	Name() string
	OnAttach(c *ClientWrapper) error
	OnDetach()
	Tick()
	RequiresConnection() bool
}

// ServerPluginManager owns the set of plugins attached to one
// ServerWrapper, keyed by a stable name so the same plugin type is never
// attached twice. It has no background goroutine of its own: tick() is
// driven by the wrapper's Update(), the caller's polling hook, per
// spec.md §4.6.
type ServerPluginManager struct {
	mu      sync.Mutex
	owner   *ServerWrapper
	order   []string
	plugins map[string]ServerPlugin
}

func newServerPluginManager(owner *ServerWrapper) *ServerPluginManager {
	return &ServerPluginManager{
		owner:   owner,
		plugins: make(map[string]ServerPlugin),
	}
}

// tick runs every attached plugin once, in attachment order, skipping
// any that require a connection while the owner is not healthy.
func (this_ *ServerPluginManager) tick() {
	this_.mu.Lock()
	plugins := make([]ServerPlugin, 0, len(this_.order))
	for _, name := range this_.order {
		if p, ok := this_.plugins[name]; ok {
			plugins = append(plugins, p)
		}
	}
	this_.mu.Unlock()

	for _, p := range plugins {
		if p.RequiresConnection() && !this_.owner.IsHealthy() {
			continue
		}
		p.Tick()
	}
}

// Attach installs a plugin under its Name(), calling OnAttach so it can
// install its own callback layer on the owning wrapper.
func (this_ *ServerPluginManager) Attach(p ServerPlugin) error {
	this_.mu.Lock()
	if _, exists := this_.plugins[p.Name()]; exists {
		this_.mu.Unlock()
		return ErrPluginExists
	}
	this_.mu.Unlock()

	if err := p.OnAttach(this_.owner); err != nil {
		return err
	}

	this_.mu.Lock()
	this_.plugins[p.Name()] = p
	this_.order = append(this_.order, p.Name())
	this_.mu.Unlock()
	return nil
}

// Detach removes and calls OnDetach on the named plugin.
func (this_ *ServerPluginManager) Detach(name string) error {
	this_.mu.Lock()
	p, exists := this_.plugins[name]
	if !exists {
		this_.mu.Unlock()
		return ErrPluginMissing
	}
	delete(this_.plugins, name)
	for i, n := range this_.order {
		if n == name {
			this_.order = append(this_.order[:i], this_.order[i+1:]...)
			break
		}
	}
	this_.mu.Unlock()

	p.OnDetach()
	return nil
}

func (this_ *ServerPluginManager) detachAll() {
	this_.mu.Lock()
	names := append([]string(nil), this_.order...)
	this_.mu.Unlock()

	for _, n := range names {
		this_.Detach(n)
	}
}

// ClientPluginManager mirrors ServerPluginManager for ClientWrapper.
type ClientPluginManager struct {
	mu      sync.Mutex
	owner   *ClientWrapper
	order   []string
	plugins map[string]ClientPlugin
}

func newClientPluginManager(owner *ClientWrapper) *ClientPluginManager {
	return &ClientPluginManager{
		owner:   owner,
		plugins: make(map[string]ClientPlugin),
	}
}

func (this_ *ClientPluginManager) tick() {
	this_.mu.Lock()
	plugins := make([]ClientPlugin, 0, len(this_.order))
	for _, name := range this_.order {
		if p, ok := this_.plugins[name]; ok {
			plugins = append(plugins, p)
		}
	}
	this_.mu.Unlock()

	for _, p := range plugins {
		if p.RequiresConnection() && !this_.owner.IsHealthy() {
			continue
		}
		p.Tick()
	}
}

func (this_ *ClientPluginManager) Attach(p ClientPlugin) error {
	this_.mu.Lock()
	if _, exists := this_.plugins[p.Name()]; exists {
		this_.mu.Unlock()
		return ErrPluginExists
	}
	this_.mu.Unlock()

	if err := p.OnAttach(this_.owner); err != nil {
		return err
	}

	this_.mu.Lock()
	this_.plugins[p.Name()] = p
	this_.order = append(this_.order, p.Name())
	this_.mu.Unlock()
	return nil
}

func (this_ *ClientPluginManager) Detach(name string) error {
	this_.mu.Lock()
	p, exists := this_.plugins[name]
	if !exists {
		this_.mu.Unlock()
		return ErrPluginMissing
	}
	delete(this_.plugins, name)
	for i, n := range this_.order {
		if n == name {
			this_.order = append(this_.order[:i], this_.order[i+1:]...)
			break
		}
	}
	this_.mu.Unlock()

	p.OnDetach()
	return nil
}

func (this_ *ClientPluginManager) detachAll() {
	this_.mu.Lock()
	names := append([]string(nil), this_.order...)
	this_.mu.Unlock()

	for _, n := range names {
		this_.Detach(n)
	}
}
