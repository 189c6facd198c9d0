package executor

import (
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/arkwright/stl/graph"
	"github.com/arkwright/stl/model"
)

var errBoom = errors.New("boom")

type fakeFunc struct {
	result bool
	err    error
	calls  *int
}

func (f *fakeFunc) Run() (any, error) {
	if f.calls != nil {
		*f.calls++
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func sv(st *model.State, value string) *model.StateValue {
	return &model.StateValue{State: st, Value: value}
}

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestTraverseSucceedsWhenEveryEventPasses(t *testing.T) {
	st := &model.State{Name: "Conn", Values: []string{"closed", "open"}}
	calls := 0

	transitions := map[string]*model.TransitionResolved{
		"Connect": {
			Name:       "Connect",
			PreStates:  [][]*model.StateValue{{sv(st, "closed")}},
			PostStates: []*model.StateValue{sv(st, "open")},
			Events:     []model.Func{&fakeFunc{result: true, calls: &calls}},
		},
		"Disconnect": {
			Name:       "Disconnect",
			PreStates:  [][]*model.StateValue{{sv(st, "open")}},
			PostStates: []*model.StateValue{sv(st, "closed")},
			Events:     []model.Func{&fakeFunc{result: true, calls: &calls}},
		},
	}

	g, err := graph.Build(transitions, map[string]*model.State{"Conn": st})
	require.NoError(t, err)

	success, err := Traverse(testLogger(), g)
	require.NoError(t, err)
	require.True(t, success)
	require.Greater(t, calls, 0)
}

func TestTraverseReportsFailedTransition(t *testing.T) {
	st := &model.State{Name: "Conn", Values: []string{"closed", "open", "error"}}

	transitions := map[string]*model.TransitionResolved{
		"Connect": {
			Name:       "Connect",
			PreStates:  [][]*model.StateValue{{sv(st, "closed")}},
			PostStates: []*model.StateValue{sv(st, "open")},
			Events:     []model.Func{&fakeFunc{result: false}},
		},
		"Fault": {
			Name:       "Fault",
			PreStates:  [][]*model.StateValue{{sv(st, "open")}},
			PostStates: []*model.StateValue{sv(st, "error")},
			Events:     []model.Func{&fakeFunc{result: true}},
		},
		"Reset": {
			Name:       "Reset",
			PreStates:  [][]*model.StateValue{{sv(st, "error")}},
			PostStates: []*model.StateValue{sv(st, "closed")},
			Events:     []model.Func{&fakeFunc{result: true}},
		},
	}

	g, err := graph.Build(transitions, map[string]*model.State{"Conn": st})
	require.NoError(t, err)

	success, err := Traverse(testLogger(), g)
	require.NoError(t, err)
	require.False(t, success, "Connect's event always reports failure")
}

func TestTraversePropagatesEventErrors(t *testing.T) {
	st := &model.State{Name: "Conn", Values: []string{"closed", "open"}}

	transitions := map[string]*model.TransitionResolved{
		"Connect": {
			Name:       "Connect",
			PreStates:  [][]*model.StateValue{{sv(st, "closed")}},
			PostStates: []*model.StateValue{sv(st, "open")},
			Events:     []model.Func{&fakeFunc{err: errBoom}},
		},
		"Disconnect": {
			Name:       "Disconnect",
			PreStates:  [][]*model.StateValue{{sv(st, "open")}},
			PostStates: []*model.StateValue{sv(st, "closed")},
			Events:     []model.Func{&fakeFunc{result: true}},
		},
	}

	g, err := graph.Build(transitions, map[string]*model.State{"Conn": st})
	require.NoError(t, err)

	_, err = Traverse(testLogger(), g)
	require.ErrorIs(t, err, errBoom)
}
