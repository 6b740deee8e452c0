package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Invoker is the single request/response channel to the native backend.
// args is encoded as JSON; when dest is non-nil the reply's result is decoded
// into it.
type Invoker interface {
	Invoke(ctx context.Context, command string, args any, dest any) error
}

// ErrBackendRejected matches every *RejectedError.
var ErrBackendRejected = errors.New("backend rejected request")

// RejectedError reports a reply whose envelope said ok=false.
type RejectedError struct {
	Command string
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected %s", e.Command)
	}
	return fmt.Sprintf("backend rejected %s: %s", e.Command, e.Message)
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrBackendRejected
}

// envelope wraps every backend reply.
type envelope struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
}

func decodeReply(command string, body []byte, dest any) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode %s reply: %w", command, err)
	}
	return env.into(command, dest)
}

func (env envelope) into(command string, dest any) error {
	if !env.OK {
		return &RejectedError{Command: command, Message: env.Error}
	}
	if dest == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, dest); err != nil {
		return fmt.Errorf("decode %s result: %w", command, err)
	}
	return nil
}

func encodeArgs(command string, args any) ([]byte, error) {
	if args == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode %s args: %w", command, err)
	}
	return data, nil
}
