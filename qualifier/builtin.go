// Package qualifier implements the built-in model.ExternalQualifier plugins
// every STL module may reference by name, ported from
// original_source/stl/lib.py's AnyOf/RandomString/UniqueString/UniqueInt/
// DifferentFrom/RandomBool.
package qualifier

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/google/uuid"
)

// AnyOf validates that a value is one of the fixed set of arguments passed
// to it, and generates by picking one at random.
type AnyOf struct{}

func (AnyOf) Validate(value any, args ...any) (bool, error) {
	for _, a := range args {
		if a == value {
			return true, nil
		}
	}
	return false, nil
}

func (AnyOf) Generate(args ...any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("anyOf requires at least one argument")
	}
	return args[rand.Intn(len(args))], nil
}

// RandomString validates any string and generates a random-looking one.
// Uniqueness is not guaranteed; see UniqueString for that.
type RandomString struct{}

func (RandomString) Validate(value any, _ ...any) (bool, error) {
	_, ok := value.(string)
	return ok, nil
}

func (RandomString) Generate(_ ...any) (any, error) {
	return "random-" + uuid.NewString(), nil
}

// UniqueString validates that a string has never been seen before (by this
// qualifier instance) and generates fresh strings. Generated strings come
// from google/uuid rather than a counter, so Generate does not consult the
// set of seen values.
type UniqueString struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (q *UniqueString) Validate(value any, _ ...any) (bool, error) {
	s, ok := value.(string)
	if !ok {
		return false, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.seen == nil {
		q.seen = map[string]bool{}
	}
	if q.seen[s] {
		return false, nil
	}
	q.seen[s] = true
	return true, nil
}

func (q *UniqueString) Generate(_ ...any) (any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.seen == nil {
		q.seen = map[string]bool{}
	}
	value := "unique-" + uuid.NewString()
	return value, nil
}

// UniqueInt validates that an integer has never been seen before (by this
// qualifier instance) and generates guaranteed-fresh integers.
type UniqueInt struct {
	mu   sync.Mutex
	next int64
	seen map[int64]bool
}

func (q *UniqueInt) Validate(value any, _ ...any) (bool, error) {
	n, ok := value.(int64)
	if !ok {
		return false, nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.seen == nil {
		q.seen = map[int64]bool{}
	}
	if q.seen[n] {
		return false, nil
	}
	q.seen[n] = true
	return true, nil
}

func (q *UniqueInt) Generate(_ ...any) (any, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.seen == nil {
		q.seen = map[int64]bool{}
	}
	for q.seen[q.next] {
		q.next++
	}
	value := q.next
	q.next++
	return value, nil
}

// DifferentFrom validates that a string differs from the single argument
// passed to it (the previous value), and generates a random string
// guaranteed to differ from it.
type DifferentFrom struct{}

func (DifferentFrom) Validate(value any, args ...any) (bool, error) {
	if len(args) != 1 {
		return false, fmt.Errorf("differentFrom requires exactly one argument")
	}
	return value != args[0], nil
}

func (DifferentFrom) Generate(args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("differentFrom requires exactly one argument")
	}
	value := "random-" + uuid.NewString()
	for value == args[0] {
		value = "random-" + uuid.NewString()
	}
	return value, nil
}

// RandomBool validates any bool and generates a random one.
type RandomBool struct{}

func (RandomBool) Validate(value any, _ ...any) (bool, error) {
	_, ok := value.(bool)
	return ok, nil
}

func (RandomBool) Generate(_ ...any) (any, error) {
	return rand.Intn(2) == 0, nil
}
