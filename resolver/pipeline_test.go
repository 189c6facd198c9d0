package resolver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkwright/stl/model"
)

type fakeExternalEvent struct{}

func (fakeExternalEvent) Fire(ctx *model.EventContext, args ...any) (bool, error) { return true, nil }
func (fakeExternalEvent) Wait(ctx *model.EventContext, args ...any) (bool, error) { return true, nil }

func pingModule() *model.Module {
	mod := model.NewModule("Mod")
	mod.Roles["Client"] = model.NewRole("Client")
	mod.Roles["Server"] = model.NewRole("Server")
	mod.Events["Ping"] = &model.Event{
		Name:         "Ping",
		Kind:         model.EventExternal,
		ExternalName: "event.Ping",
		External:     fakeExternalEvent{},
	}
	mod.Transitions["Connect"] = &model.Transition{
		Name: "Connect",
		Kind: model.TransitionFull,
		Events: []*model.EventInTransition{
			{SourceRoleName: "Client", EventName: "Ping", TargetRoleName: "Server"},
		},
	}
	return mod
}

func TestFillInModuleRolesSetsFieldValues(t *testing.T) {
	mod := model.NewModule("Mod")
	mod.Roles["Client"] = model.NewRole("Client")
	mod.Roles["Client"].Fields["address"] = &model.Field{Name: "address", Type: "string"}

	modules := map[string]*model.Module{"Mod": mod}
	err := FillInModuleRoles(modules, []RoleInit{
		{Module: "Mod", Role: "Client", Fields: map[string]any{"address": "10.0.0.1"}},
	})
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", mod.Roles["Client"].FieldValues["address"])
}

func TestFillInModuleRolesErrorsOnUnknownField(t *testing.T) {
	mod := model.NewModule("Mod")
	mod.Roles["Client"] = model.NewRole("Client")
	modules := map[string]*model.Module{"Mod": mod}

	err := FillInModuleRoles(modules, []RoleInit{
		{Module: "Mod", Role: "Client", Fields: map[string]any{"nope": 1}},
	})
	require.Error(t, err)
}

func TestFillInModuleRolesSuggestsCloseModuleName(t *testing.T) {
	mod := model.NewModule("Mod")
	modules := map[string]*model.Module{"Mod": mod}

	err := FillInModuleRoles(modules, []RoleInit{{Module: "Mpd", Role: "Client"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "did you mean")
}

func TestFillInConstantsFillsAndValidatesCompleteness(t *testing.T) {
	mod := model.NewModule("Mod")
	mod.Consts["Timeout"] = &model.Const{Name: "Timeout", Type: "int"}
	modules := map[string]*model.Module{"Mod": mod}

	err := FillInConstants(modules, map[string]any{"Mod::Timeout": int64(30)})
	require.NoError(t, err)
	require.NotNil(t, mod.Consts["Timeout"].Value)
}

func TestFillInConstantsErrorsIfAnyConstUnfilled(t *testing.T) {
	mod := model.NewModule("Mod")
	mod.Consts["Timeout"] = &model.Const{Name: "Timeout", Type: "int"}
	modules := map[string]*model.Module{"Mod": mod}

	err := FillInConstants(modules, map[string]any{})
	require.Error(t, err)
}

func TestGetRolesToTestErrorsOnEmptyList(t *testing.T) {
	_, err := GetRolesToTest(map[string]*model.Module{}, nil)
	require.Error(t, err)
}

func TestGetRolesToTestReturnsUnqualifiedNames(t *testing.T) {
	mod := pingModule()
	modules := map[string]*model.Module{"Mod": mod}

	out, err := GetRolesToTest(modules, []string{"Mod::Client"})
	require.NoError(t, err)
	require.True(t, out["Client"])
	require.False(t, out["Server"])
}

func TestResolveTransitionsKeepsOnlyObservableEvents(t *testing.T) {
	mod := pingModule()
	modules := map[string]*model.Module{"Mod": mod}

	resolved, err := ResolveTransitions(modules, map[string]bool{"Client": true})
	require.NoError(t, err)
	require.Contains(t, resolved, "Connect")
	require.Len(t, resolved["Connect"].Events, 1)
}

func TestResolveTransitionsDropsTransitionObservableByNeitherSide(t *testing.T) {
	mod := pingModule()
	modules := map[string]*model.Module{"Mod": mod}

	resolved, err := ResolveTransitions(modules, map[string]bool{})
	require.NoError(t, err)
	require.NotContains(t, resolved, "Connect")
}

func TestResolveTransitionsErrorsWhenBothSidesUnderTest(t *testing.T) {
	mod := pingModule()
	modules := map[string]*model.Module{"Mod": mod}

	_, err := ResolveTransitions(modules, map[string]bool{"Client": true, "Server": true})
	require.Error(t, err)
}

func TestInitializeStatesDedupesByName(t *testing.T) {
	st := &model.State{Name: "Conn", Values: []string{"closed", "open"}}
	transitions := map[string]*model.TransitionResolved{
		"A": {PreStates: [][]*model.StateValue{{{State: st, Value: "closed"}}}},
		"B": {PostStates: []*model.StateValue{{State: st, Value: "open"}}},
	}

	states, err := InitializeStates(transitions)
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.Same(t, st, states["Conn"])
}

func TestInitializeStatesErrorsOnConflictingDeclarations(t *testing.T) {
	a := &model.State{Name: "Conn", Values: []string{"closed"}}
	b := &model.State{Name: "Conn", Values: []string{"open"}}
	transitions := map[string]*model.TransitionResolved{
		"A": {PreStates: [][]*model.StateValue{{{State: a, Value: "closed"}}}},
		"B": {PostStates: []*model.StateValue{{State: b, Value: "open"}}},
	}

	_, err := InitializeStates(transitions)
	require.Error(t, err)
}
