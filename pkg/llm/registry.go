package llm

import (
	"fmt"
	"sync"

	"github.com/creatorcore/creatorcore/pkg/config"
)

// Slot names the logical model roles the engine selects between.
type Slot string

const (
	SlotDefault  Slot = "default"
	SlotFast     Slot = "fast"
	SlotDeep     Slot = "deep"
	SlotFallback Slot = "fallback"
)

// Registry holds concrete providers keyed by canonical name, plus the
// logical slot assignments. It is process-wide and read-mostly.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	slots     map[Slot]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		slots:     make(map[Slot]string),
	}
}

// NewRegistryFromConfig builds providers for every configured LLM and binds
// the slot assignments.
func NewRegistryFromConfig(llms map[string]config.LLMProviderConfig, slots config.SlotConfig) (*Registry, error) {
	r := NewRegistry()
	for name := range llms {
		cfg := llms[name]
		provider, err := NewProvider(&cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider %q: %w", name, err)
		}
		if err := r.Register(name, provider); err != nil {
			return nil, err
		}
	}

	for slot, name := range map[Slot]string{
		SlotDefault:  slots.Default,
		SlotFast:     slots.Fast,
		SlotDeep:     slots.Deep,
		SlotFallback: slots.Fallback,
	} {
		if name == "" {
			continue
		}
		if err := r.Bind(slot, name); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// NewProvider creates a provider for the config's type.
func NewProvider(cfg *config.LLMProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM type: %s (supported: openai, anthropic, ollama)", cfg.Type)
	}
}

// Register adds a provider under its canonical name.
func (r *Registry) Register(name string, provider Provider) error {
	if name == "" {
		return fmt.Errorf("LLM name cannot be empty")
	}
	if provider == nil {
		return fmt.Errorf("LLM provider cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
	return nil
}

// Bind assigns a registered provider to a logical slot.
func (r *Registry) Bind(slot Slot, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("cannot bind slot %s: LLM %q not registered", slot, name)
	}
	r.slots[slot] = name
	return nil
}

// Get returns the provider registered under a canonical name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// GetSlot returns the provider bound to a logical slot.
func (r *Registry) GetSlot(slot Slot) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.slots[slot]
	if !ok {
		return nil, false
	}
	p, ok := r.providers[name]
	return p, ok
}

// Names returns all registered canonical names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Select picks a provider for the given options:
//
//  1. explicit model name override wins when registered,
//  2. latency hint "fast" prefers the fast slot,
//  3. complexity "deep" or an analysis/code/reasoning task prefers deep,
//  4. cost preference: "speed" -> fast, "budget" -> fallback then fast,
//     "performance" -> deep then default,
//  5. otherwise default -> fast -> fallback -> first registered.
func (r *Registry) Select(opts Options) (Provider, Slot) {
	if opts.ModelName != "" {
		if p, ok := r.Get(opts.ModelName); ok {
			return p, r.slotOf(opts.ModelName)
		}
	}

	if opts.Latency == "fast" {
		if p, ok := r.GetSlot(SlotFast); ok {
			return p, SlotFast
		}
	}

	deepTask := opts.TaskType == "analysis" || opts.TaskType == "code" || opts.TaskType == "reasoning"
	if opts.Complexity == "deep" || deepTask {
		if p, ok := r.GetSlot(SlotDeep); ok {
			return p, SlotDeep
		}
	}

	switch opts.CostPreference {
	case "speed":
		if p, ok := r.GetSlot(SlotFast); ok {
			return p, SlotFast
		}
	case "budget":
		for _, slot := range []Slot{SlotFallback, SlotFast} {
			if p, ok := r.GetSlot(slot); ok {
				return p, slot
			}
		}
	case "performance":
		for _, slot := range []Slot{SlotDeep, SlotDefault} {
			if p, ok := r.GetSlot(slot); ok {
				return p, slot
			}
		}
	}

	for _, slot := range []Slot{SlotDefault, SlotFast, SlotFallback} {
		if p, ok := r.GetSlot(slot); ok {
			return p, slot
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for name, p := range r.providers {
		_ = name
		return p, ""
	}
	return nil, ""
}

// CascadeFor returns the fallback chain for a selected provider in order
// [selected, default, fast, fallback, deep], deduplicated.
func (r *Registry) CascadeFor(selected Provider) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chain []Provider
	seen := make(map[string]bool)

	add := func(p Provider) {
		if p == nil {
			return
		}
		if seen[p.ModelName()] {
			return
		}
		seen[p.ModelName()] = true
		chain = append(chain, p)
	}

	add(selected)
	for _, slot := range []Slot{SlotDefault, SlotFast, SlotFallback, SlotDeep} {
		if name, ok := r.slots[slot]; ok {
			add(r.providers[name])
		}
	}
	return chain
}

func (r *Registry) slotOf(name string) Slot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for slot, bound := range r.slots {
		if bound == name {
			return slot
		}
	}
	return ""
}

// Close closes every registered provider.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.providers {
		_ = p.Close()
	}
	return nil
}
