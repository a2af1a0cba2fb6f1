package bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type echoQuery struct{ text string }

func (q echoQuery) Validate() error {
	if q.text == "" {
		return errors.New("text is required")
	}
	return nil
}

func TestAskReturnsHandlerResult(t *testing.T) {
	b := NewQueryBus(zaptest.NewLogger(t))
	require.NoError(t, b.Register(echoQuery{}, QueryHandlerFunc(func(_ context.Context, q Query) (interface{}, error) {
		return q.(echoQuery).text, nil
	})))

	out, err := b.Ask(context.Background(), echoQuery{text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestAskRejectsInvalidQuery(t *testing.T) {
	b := NewQueryBus(nil)
	require.NoError(t, b.Register(echoQuery{}, QueryHandlerFunc(func(context.Context, Query) (interface{}, error) {
		t.Fatal("handler must not run")
		return nil, nil
	})))

	_, err := b.Ask(context.Background(), echoQuery{})
	assert.EqualError(t, err, "text is required")
}

func TestAskErrors(t *testing.T) {
	b := NewQueryBus(zaptest.NewLogger(t))
	_, err := b.Ask(context.Background(), echoQuery{text: "x"})
	assert.ErrorContains(t, err, "no handler registered")

	boom := errors.New("boom")
	require.NoError(t, b.Register(echoQuery{}, QueryHandlerFunc(func(context.Context, Query) (interface{}, error) {
		return nil, boom
	})))
	assert.Error(t, b.Register(echoQuery{}, QueryHandlerFunc(nil)))

	_, err = b.Ask(context.Background(), echoQuery{text: "x"})
	assert.ErrorIs(t, err, boom)
}
