package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRegistry(t *testing.T) {
	registry, err := Build(petHandlerSet())
	require.NoError(t, err)

	names := make([]string, 0, registry.Len())
	for _, tool := range registry.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"Calc_Add", "Calc_Divide", "Pet_Create", "Pet_Get", "Pet_Paint"}, names)

	tool, ok := registry.Lookup("Pet_Get")
	require.True(t, ok)
	assert.Equal(t, "Pet", tool.HandlerID)
	assert.Equal(t, "Get", tool.MethodName)
	assert.True(t, tool.WantsContext)
	assert.Equal(t, "Fetch a pet by id", tool.Description)
	require.Len(t, tool.Params, 1)
	assert.Equal(t, SourceRoute, tool.Params[0].Source)

	_, ok = registry.Lookup("Pet_Delete")
	assert.False(t, ok)
}

func TestListOrderIsStable(t *testing.T) {
	registry, err := Build(petHandlerSet())
	require.NoError(t, err)

	first := registry.List()
	second := registry.List()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}
}

func TestBuildRejectsDuplicateToolNames(t *testing.T) {
	hs := NewHandlerSet()
	hs.RegisterFunc("now", func() string { return "" })
	hs.RegisterFunc("now", func() string { return "" })

	_, err := Build(hs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate tool name "now"`)
}

func TestBuildRejectsUnnamedParameters(t *testing.T) {
	hs := NewHandlerSet()
	hs.Register(CalcService{}, WithMethods("Add")) // two ints, no names

	_, err := Build(hs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WithParamNames")
}

func TestBuildToolFilter(t *testing.T) {
	registry, err := Build(petHandlerSet(), WithToolFilter(func(toolName, handlerID string) bool {
		return handlerID != "Calc" && toolName != "Pet_Paint"
	}))
	require.NoError(t, err)

	names := make([]string, 0, registry.Len())
	for _, tool := range registry.List() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"Pet_Create", "Pet_Get"}, names)
}

func TestRegisterFuncIsStatic(t *testing.T) {
	hs := NewHandlerSet()
	hs.RegisterFunc("greet", func(name string) string { return "hello " + name },
		WithParamNames("greet", "name"),
		WithDescription("Greet someone"),
	)
	registry, err := Build(hs)
	require.NoError(t, err)

	tool, ok := registry.Lookup("greet")
	require.True(t, ok)
	assert.True(t, tool.Static)
	assert.Empty(t, tool.HandlerID)
}

func TestHandlerNameTrimsSuffixes(t *testing.T) {
	hs := NewHandlerSet()
	hs.Register(CalcService{}, tWithNames("Add"), tWithNames("Divide"))

	registry, err := Build(hs)
	require.NoError(t, err)
	_, ok := registry.Lookup("Calc_Add")
	assert.True(t, ok)
}

func TestRegisterCollectsErrors(t *testing.T) {
	hs := NewHandlerSet()
	hs.Register(nil)

	_, err := Build(hs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nil handler")
}
