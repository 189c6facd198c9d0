package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLiteralValueResolve(t *testing.T) {
	v := &LiteralValue{Val: int64(42)}
	r, err := v.Resolve(&Env{}, nil)
	require.NoError(t, err)
	require.Equal(t, int64(42), r)
}

func TestListValueResolve(t *testing.T) {
	v := &ListValue{Elems: []Value{&LiteralValue{Val: int64(1)}, &LiteralValue{Val: int64(2)}}}
	r, err := v.Resolve(&Env{}, nil)
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), int64(2)}, r)
}

func TestStructValueResolve(t *testing.T) {
	v := &StructValue{Fields: []NamedValue{
		{Name: "a", Value: &LiteralValue{Val: int64(1)}},
		{Name: "b", Value: &LiteralValue{Val: "x"}},
	}}
	r, err := v.Resolve(&Env{}, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"a": int64(1), "b": "x"}, r)
}

func TestRefValueResolvesConst(t *testing.T) {
	mod := NewModule("Mod")
	mod.Consts["timeout"] = &Const{Name: "timeout", Type: "int", Value: &LiteralValue{Val: int64(30)}}
	env := &Env{Modules: map[string]*Module{"Mod": mod}, CurrentModule: mod}

	ref := &RefValue{Path: []string{"timeout"}}
	r, err := ref.Resolve(env, map[string]any{})
	require.NoError(t, err)
	require.Equal(t, int64(30), r)
}

func TestRefValueResolvesRoleField(t *testing.T) {
	mod := NewModule("Mod")
	role := NewRole("Client")
	role.Fields["address"] = &Field{Name: "address", Type: "string"}
	require.NoError(t, role.Set("address", "10.0.0.1"))
	mod.Roles["Client"] = role
	env := &Env{Modules: map[string]*Module{"Mod": mod}, CurrentModule: mod}

	ref := &RefValue{Path: []string{"Client", "address"}}
	r, err := ref.Resolve(env, map[string]any{})
	require.NoError(t, err)
	getField, ok := r.(*FuncGetField)
	require.True(t, ok)
	v, err := getField.Run()
	require.NoError(t, err)
	require.Equal(t, "10.0.0.1", v)
}

func TestRefValueResolveWriteReturnsFuncSet(t *testing.T) {
	mod := NewModule("Mod")
	role := NewRole("Client")
	role.Fields["address"] = &Field{Name: "address", Type: "string"}
	mod.Roles["Client"] = role
	env := &Env{Modules: map[string]*Module{"Mod": mod}, CurrentModule: mod}

	ref := &RefValue{Path: []string{"Client", "address"}, Write: true}
	r, err := ref.Resolve(env, map[string]any{})
	require.NoError(t, err)
	fs, ok := r.(*FuncSet)
	require.True(t, ok)
	require.NoError(t, fs.SetValue("192.168.0.1"))
	got, err := role.Get("address")
	require.NoError(t, err)
	require.Equal(t, "192.168.0.1", got)
}

func TestStateHasValue(t *testing.T) {
	st := &State{Name: "Conn", Values: []string{"closed", "open"}}
	require.True(t, st.HasValue("open"))
	require.False(t, st.HasValue("broken"))
}

func TestStateValueKey(t *testing.T) {
	st := &State{Name: "Conn", Values: []string{"closed", "open"}}
	sv := &StateValue{State: st, Args: []any{int64(1), "x"}, Value: "open"}
	require.Equal(t, "Conn(1,x).open", sv.Key())
}

func TestStateRefResolveUnknownStateSuggests(t *testing.T) {
	mod := NewModule("Mod")
	mod.States["Conn"] = &State{Name: "Conn", Values: []string{"closed", "open"}}
	env := &Env{Modules: map[string]*Module{"Mod": mod}, CurrentModule: mod}

	ref := &StateRef{StateName: "Conm", Value: "open"}
	_, err := ref.Resolve(env, map[string]any{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "did you mean")
}

func TestStateRefResolveInvalidValue(t *testing.T) {
	mod := NewModule("Mod")
	mod.States["Conn"] = &State{Name: "Conn", Values: []string{"closed", "open"}}
	env := &Env{Modules: map[string]*Module{"Mod": mod}, CurrentModule: mod}

	ref := &StateRef{StateName: "Conn", Value: "broken"}
	_, err := ref.Resolve(env, map[string]any{})
	require.Error(t, err)
}

func TestModuleHasDefinitionAndAllNames(t *testing.T) {
	mod := NewModule("Mod")
	require.False(t, mod.HasDefinition("Conn"))
	mod.States["Conn"] = &State{Name: "Conn", Values: []string{"closed"}}
	require.True(t, mod.HasDefinition("Conn"))
	require.Contains(t, mod.AllNames(), "Conn")
}

func TestTransitionIsResolved(t *testing.T) {
	plain := &Transition{Name: "Connect"}
	require.True(t, plain.IsResolved())

	withParams := &Transition{Name: "Connect", Params: []*Param{{Name: "timeout", Type: "int"}}}
	require.False(t, withParams.IsResolved())

	alias := &Transition{Name: "ConnectAlias", Kind: TransitionExpand, ExpandName: "Connect"}
	require.False(t, alias.IsResolved())
}

func TestTransitionResolveBindsPreAndPostStates(t *testing.T) {
	mod := NewModule("Mod")
	conn := &State{Name: "Conn", Values: []string{"closed", "open"}}
	mod.States["Conn"] = conn
	env := &Env{Modules: map[string]*Module{"Mod": mod}, CurrentModule: mod, RolesToTest: map[string]bool{}}

	tr := &Transition{
		Name:       "Connect",
		PreStates:  []*PreStateGroup{{StateName: "Conn", Values: []string{"closed"}}},
		PostStates: []*StateRef{{StateName: "Conn", Value: "open"}},
	}

	resolved, err := tr.Resolve(env, nil, map[string]any{})
	require.NoError(t, err)
	require.Len(t, resolved.PreStates, 1)
	require.Equal(t, "closed", resolved.PreStates[0][0].Value)
	require.Len(t, resolved.PostStates, 1)
	require.Equal(t, "open", resolved.PostStates[0].Value)
}

func TestMessageResolveMandatoryFieldMissing(t *testing.T) {
	msg := NewMessage("Greeting", "Greeting", false)
	msg.Fields = []*Field{{Name: "text", Type: "string"}}
	_, err := msg.Resolve(map[string]any{})
	require.Error(t, err)
}

func TestMessageResolveOptionalFieldAllowedMissing(t *testing.T) {
	msg := NewMessage("Greeting", "Greeting", false)
	msg.Fields = []*Field{{Name: "text", Type: "string", Optional: true}}
	mv, err := msg.Resolve(map[string]any{})
	require.NoError(t, err)
	require.Equal(t, map[string]any{}, mv.Value)
}
