package wsrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tandem/server/pkg/validator"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrMalformedMessage   = errors.New("malformed message")
)

type message struct {
	Type string `json:"type"`
}

// HandlerFunc handles one decoded frame. Frames are flat JSON objects, so
// input is decoded from the whole frame including its "type" field.
type HandlerFunc[T any] func(ctx context.Context, input T) error

type Middleware func(next HandlerFunc[json.RawMessage]) HandlerFunc[json.RawMessage]

// ErrorHandler receives every error produced while dispatching a frame. It
// never ends the read loop.
type ErrorHandler func(ctx context.Context, err error)

type Reader interface {
	ReadMessage() (messageType int, p []byte, err error)
}

type WSRouter struct {
	routes      map[string]HandlerFunc[json.RawMessage]
	middlewares []Middleware
	validate    *validator.Validator
	onError     ErrorHandler
}

func New(validate *validator.Validator, onError ErrorHandler) *WSRouter {
	if validate == nil {
		validate = validator.NewValidator()
	}

	return &WSRouter{
		routes:   make(map[string]HandlerFunc[json.RawMessage]),
		validate: validate,
		onError:  onError,
	}
}

func (r *WSRouter) Use(mws ...Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

// Handle registers handler for messageType. Frames that fail to decode into T
// or fail its validate tags are reported as ErrMalformedMessage.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = func(ctx context.Context, payload json.RawMessage) error {
		var input T
		if err := json.Unmarshal(payload, &input); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
		}

		if validationErrors, ok := r.validate.Validate(input); !ok {
			return fmt.Errorf("%w: %s", ErrMalformedMessage, validationErrors[0].Message)
		}

		return handler(ctx, input)
	}
}

// Dispatch routes a single frame to its handler.
func (r *WSRouter) Dispatch(ctx context.Context, data []byte) error {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	handler, exists := r.routes[msg.Type]
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	ctx = context.WithValue(ctx, messageTypeKey, msg.Type)

	return handler(ctx, data)
}

// ServeConn reads frames until the reader fails and dispatches them in order.
func (r *WSRouter) ServeConn(ctx context.Context, conn Reader) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		if err := r.Dispatch(ctx, data); err != nil && r.onError != nil {
			r.onError(ctx, err)
		}
	}
}

// IsIgnorable reports whether err means the frame itself was not acceptable.
func IsIgnorable(err error) bool {
	return errors.Is(err, ErrUnknownMessageType) || errors.Is(err, ErrMalformedMessage)
}
