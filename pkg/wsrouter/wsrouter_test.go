package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type playInput struct {
	CurrentTime *float64 `json:"current_time" validate:"required"`
}

type fakeReader struct {
	frames [][]byte
}

func (r *fakeReader) ReadMessage() (int, []byte, error) {
	if len(r.frames) == 0 {
		return 0, nil, io.EOF
	}

	frame := r.frames[0]
	r.frames = r.frames[1:]

	return websocket.TextMessage, frame, nil
}

func TestDispatchDecodesFlatFrame(t *testing.T) {
	r := New(nil, nil)

	var got float64
	Handle(r, "play", func(ctx context.Context, input playInput) error {
		got = *input.CurrentTime
		assert.Equal(t, "play", GetMessageTypeFromCtx(ctx))
		return nil
	})

	require.NoError(t, r.Dispatch(context.Background(), []byte(`{"type":"play","current_time":10.5}`)))
	assert.Equal(t, 10.5, got)
}

func TestDispatchIgnoresBadFrames(t *testing.T) {
	r := New(nil, nil)
	called := false
	Handle(r, "play", func(_ context.Context, _ playInput) error {
		called = true
		return nil
	})

	tests := []struct {
		name  string
		frame string
		want  error
	}{
		{"not json", `not json`, ErrMalformedMessage},
		{"array", `[1,2]`, ErrMalformedMessage},
		{"unknown type", `{"type":"dance"}`, ErrUnknownMessageType},
		{"missing type", `{"current_time":1}`, ErrUnknownMessageType},
		{"missing field", `{"type":"play"}`, ErrMalformedMessage},
		{"wrong field type", `{"type":"play","current_time":"ten"}`, ErrMalformedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Dispatch(context.Background(), []byte(tt.frame))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsIgnorable(err))
		})
	}

	assert.False(t, called)
}

func TestServeConnKeepsReadingAfterErrors(t *testing.T) {
	var reported []error
	r := New(nil, func(_ context.Context, err error) {
		reported = append(reported, err)
	})

	var times []float64
	Handle(r, "play", func(_ context.Context, input playInput) error {
		times = append(times, *input.CurrentTime)
		return nil
	})
	Handle(r, "fail", func(_ context.Context, _ struct{}) error {
		return errors.New("store down")
	})

	reader := &fakeReader{frames: [][]byte{
		[]byte(`{"type":"play","current_time":1}`),
		[]byte(`garbage`),
		[]byte(`{"type":"fail"}`),
		[]byte(`{"type":"play","current_time":2}`),
	}}

	err := r.ServeConn(context.Background(), reader)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []float64{1, 2}, times)
	require.Len(t, reported, 2)
	assert.True(t, IsIgnorable(reported[0]))
	assert.False(t, IsIgnorable(reported[1]))
}

func TestMiddlewareOrder(t *testing.T) {
	r := New(nil, nil)

	var order []string
	mw := func(name string) Middleware {
		return func(next HandlerFunc[json.RawMessage]) HandlerFunc[json.RawMessage] {
			return func(ctx context.Context, payload json.RawMessage) error {
				order = append(order, name)
				return next(ctx, payload)
			}
		}
	}
	r.Use(mw("first"), mw("second"))
	Handle(r, "noop", func(_ context.Context, _ struct{}) error {
		order = append(order, "handler")
		return nil
	})

	require.NoError(t, r.Dispatch(context.Background(), []byte(`{"type":"noop"}`)))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}
