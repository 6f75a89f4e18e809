package di

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue(t *testing.T) {
	f := Value(42)
	for i := 0; i < 3; i++ {
		v, err := f()
		assert.NoError(t, err)
		assert.Equal(t, 42, v)
	}
}

func TestTransientRunsEveryResolve(t *testing.T) {
	calls := 0
	f := Transient(func() (int, error) {
		calls++
		return calls, nil
	})

	v1, _ := f()
	v2, _ := f()
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)
	assert.Equal(t, 2, calls)
}

func TestSingletonRunsOnce(t *testing.T) {
	calls := 0
	f := Singleton(func() (string, error) {
		calls++
		return "built", nil
	})

	v1, err1 := f()
	v2, err2 := f()
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, "built", v1)
	assert.Equal(t, "built", v2)
	assert.Equal(t, 1, calls)
}

func TestSingletonCachesError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	f := Singleton(func() (int, error) {
		calls++
		return 0, boom
	})

	_, err1 := f()
	_, err2 := f()
	assert.ErrorIs(t, err1, boom)
	assert.ErrorIs(t, err2, boom)
	assert.Equal(t, 1, calls)
}

func TestScopeDisposesInReverseOrder(t *testing.T) {
	var order []string
	res := func(name string) Resource[string] {
		return Resource[string]{
			Acquire: func(ctx context.Context) (string, error) { return name, nil },
			Release: func(v string, outcome error) error {
				order = append(order, v)
				return nil
			},
		}
	}

	s := NewScope()
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c"} {
		v, err := Acquire(ctx, s, res(name))
		assert.NoError(t, err)
		assert.Equal(t, name, v)
	}

	assert.NoError(t, s.Close(nil))
	assert.Equal(t, []string{"c", "b", "a"}, order)

	// Second close is a no-op.
	order = nil
	assert.NoError(t, s.Close(nil))
	assert.Empty(t, order)
}

func TestScopePassesOutcomeAndAggregatesReleaseErrors(t *testing.T) {
	outcome := errors.New("scope failed")
	rel1 := errors.New("release 1")
	rel2 := errors.New("release 2")

	var seen []error
	res := func(err error) Resource[int] {
		return Resource[int]{
			Acquire: func(ctx context.Context) (int, error) { return 0, nil },
			Release: func(_ int, got error) error {
				seen = append(seen, got)
				return err
			},
		}
	}

	s := NewScope()
	ctx := context.Background()
	_, _ = Acquire(ctx, s, res(rel1))
	_, _ = Acquire(ctx, s, res(rel2))

	err := s.Close(outcome)
	assert.ErrorIs(t, err, rel1)
	assert.ErrorIs(t, err, rel2)
	for _, got := range seen {
		assert.ErrorIs(t, got, outcome)
	}
}

func TestAcquireError(t *testing.T) {
	boom := errors.New("no pool for you")
	r := Resource[int]{
		Acquire: func(ctx context.Context) (int, error) { return 0, boom },
	}

	s := NewScope()
	_, err := Acquire(context.Background(), s, r)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, s.Close(nil))
}
