package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a scriptable in-memory provider.
type fakeProvider struct {
	name   string
	kind   string
	invoke func(ctx context.Context, messages []Message) (*Result, error)
}

var _ Provider = (*fakeProvider)(nil)

func (f *fakeProvider) Invoke(ctx context.Context, messages []Message) (*Result, error) {
	if f.invoke != nil {
		return f.invoke(ctx, messages)
	}
	return &Result{Content: "ok from " + f.name}, nil
}

func (f *fakeProvider) Kind() string {
	if f.kind == "" {
		return "fake"
	}
	return f.kind
}
func (f *fakeProvider) ModelName() string { return f.name }
func (f *fakeProvider) Close() error      { return nil }

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, name := range []string{"gpt-main", "gpt-mini", "claude-deep", "local-fallback"} {
		require.NoError(t, r.Register(name, &fakeProvider{name: name}))
	}
	require.NoError(t, r.Bind(SlotDefault, "gpt-main"))
	require.NoError(t, r.Bind(SlotFast, "gpt-mini"))
	require.NoError(t, r.Bind(SlotDeep, "claude-deep"))
	require.NoError(t, r.Bind(SlotFallback, "local-fallback"))
	return r
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register("", &fakeProvider{name: "x"}))
	assert.Error(t, r.Register("x", nil))
}

func TestBindUnknownProvider(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Bind(SlotDefault, "ghost"))
}

func TestSelectExplicitModelWins(t *testing.T) {
	r := newTestRegistry(t)

	p, slot := r.Select(Options{ModelName: "claude-deep", Latency: "fast"})
	require.NotNil(t, p)
	assert.Equal(t, "claude-deep", p.ModelName())
	assert.Equal(t, SlotDeep, slot)
}

func TestSelectLatencyHint(t *testing.T) {
	r := newTestRegistry(t)

	p, slot := r.Select(Options{Latency: "fast"})
	require.NotNil(t, p)
	assert.Equal(t, "gpt-mini", p.ModelName())
	assert.Equal(t, SlotFast, slot)
}

func TestSelectDeepRouting(t *testing.T) {
	r := newTestRegistry(t)

	for _, opts := range []Options{
		{Complexity: "deep"},
		{TaskType: "analysis"},
		{TaskType: "code"},
		{TaskType: "reasoning"},
	} {
		p, slot := r.Select(opts)
		require.NotNil(t, p)
		assert.Equal(t, "claude-deep", p.ModelName(), "opts %+v", opts)
		assert.Equal(t, SlotDeep, slot)
	}
}

func TestSelectCostPreference(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		pref string
		want string
		slot Slot
	}{
		{"speed", "gpt-mini", SlotFast},
		{"budget", "local-fallback", SlotFallback},
		{"performance", "claude-deep", SlotDeep},
		{"balanced", "gpt-main", SlotDefault},
		{"", "gpt-main", SlotDefault},
	}
	for _, tt := range tests {
		p, slot := r.Select(Options{CostPreference: tt.pref})
		require.NotNil(t, p, tt.pref)
		assert.Equal(t, tt.want, p.ModelName(), "pref %q", tt.pref)
		assert.Equal(t, tt.slot, slot, "pref %q", tt.pref)
	}

	// Deep-task routing outranks the cost hint.
	p, slot := r.Select(Options{TaskType: "analysis", CostPreference: "budget"})
	require.NotNil(t, p)
	assert.Equal(t, "claude-deep", p.ModelName())
	assert.Equal(t, SlotDeep, slot)
}

func TestSelectCostPreferenceBudgetWithoutFallbackSlot(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("gpt-mini", &fakeProvider{name: "gpt-mini"}))
	require.NoError(t, r.Bind(SlotFast, "gpt-mini"))

	p, slot := r.Select(Options{CostPreference: "budget"})
	require.NotNil(t, p)
	assert.Equal(t, "gpt-mini", p.ModelName(), "budget falls back to the fast slot")
	assert.Equal(t, SlotFast, slot)
}

func TestSelectDefaultChain(t *testing.T) {
	r := newTestRegistry(t)

	p, slot := r.Select(Options{})
	require.NotNil(t, p)
	assert.Equal(t, "gpt-main", p.ModelName())
	assert.Equal(t, SlotDefault, slot)
}

func TestSelectFallsBackToAnyRegistered(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("only", &fakeProvider{name: "only"}))

	p, slot := r.Select(Options{})
	require.NotNil(t, p)
	assert.Equal(t, "only", p.ModelName())
	assert.Empty(t, slot)
}

func TestSelectEmptyRegistry(t *testing.T) {
	p, _ := NewRegistry().Select(Options{})
	assert.Nil(t, p)
}

func TestCascadeForOrderAndDedup(t *testing.T) {
	r := newTestRegistry(t)

	selected, _ := r.Get("gpt-mini")
	chain := r.CascadeFor(selected)

	names := make([]string, len(chain))
	for i, p := range chain {
		names[i] = p.ModelName()
	}
	assert.Equal(t, []string{"gpt-mini", "gpt-main", "local-fallback", "claude-deep"}, names,
		"selected first, then default/fast/fallback/deep without repeats")
}
