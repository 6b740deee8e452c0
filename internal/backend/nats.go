package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const defaultSubjectPrefix = "ntdash.invoke"

// NATSInvoker sends each command as a request on <prefix>.<command>.
type NATSInvoker struct {
	nc     *nats.Conn
	prefix string
}

var _ Invoker = (*NATSInvoker)(nil)

// DialNATS connects to url. Connection state changes are logged on logger.
func DialNATS(url, prefix string, logger *zap.Logger) (*NATSInvoker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []nats.Option{
		nats.Name("ntdash"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return NewNATSInvoker(nc, prefix), nil
}

// NewNATSInvoker wraps an existing connection.
func NewNATSInvoker(nc *nats.Conn, prefix string) *NATSInvoker {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	return &NATSInvoker{nc: nc, prefix: prefix}
}

// Subject returns the request subject used for command.
func (n *NATSInvoker) Subject(command string) string {
	return n.prefix + "." + command
}

func (n *NATSInvoker) Invoke(ctx context.Context, command string, args any, dest any) error {
	if n == nil || n.nc == nil || n.nc.IsClosed() {
		return fmt.Errorf("nats not connected")
	}
	payload, err := encodeArgs(command, args)
	if err != nil {
		return err
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}
	msg, err := n.nc.RequestWithContext(ctx, n.Subject(command), payload)
	if err != nil {
		return fmt.Errorf("request %s: %w", n.Subject(command), err)
	}
	return decodeReply(command, msg.Data, dest)
}

// Close drains pending requests and closes the connection.
func (n *NATSInvoker) Close() error {
	if n == nil || n.nc == nil {
		return nil
	}
	if err := n.nc.Drain(); err != nil {
		n.nc.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	return nil
}
