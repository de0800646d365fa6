package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHookRegistry_RunsInOrderAndStopsOnError(t *testing.T) {
	r := NewHookRegistry[*[]string]()
	r.OnBeforeUpdate(func(_ context.Context, log *[]string) error {
		*log = append(*log, "first")
		return nil
	})
	r.OnBeforeUpdate(func(_ context.Context, log *[]string) error {
		*log = append(*log, "second")
		return errors.New("stop")
	})
	r.OnBeforeUpdate(func(_ context.Context, log *[]string) error {
		*log = append(*log, "third")
		return nil
	})

	var log []string
	err := r.RunBeforeUpdate(context.Background(), &log)

	assert.EqualError(t, err, "stop")
	assert.Equal(t, []string{"first", "second"}, log)
	assert.NoError(t, r.RunAfterCreate(context.Background(), &log))
}
