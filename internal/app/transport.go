package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/ntdash/internal/backend"
	"github.com/five82/ntdash/internal/config"
)

// dialBackend opens the invoker selected by cfg. The returned close func is
// never nil.
func dialBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (backend.Invoker, func(), error) {
	switch cfg.Transport {
	case config.TransportNATS:
		inv, err := backend.DialNATS(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return inv, func() { _ = inv.Close() }, nil
	case config.TransportWebSocket:
		inv, err := backend.DialWS(ctx, websocketURL(cfg.BackendAddr), nil)
		if err != nil {
			return nil, func() {}, err
		}
		return inv, func() { _ = inv.Close() }, nil
	case config.TransportHTTP:
		inv, err := backend.NewHTTPInvoker(cfg.BackendAddr)
		if err != nil {
			return nil, func() {}, err
		}
		return inv, func() {}, nil
	}
	return nil, func() {}, fmt.Errorf("unknown transport %q", cfg.Transport)
}

// websocketURL accepts a host:port or a full ws:// URL. Bare addresses get
// the bridge's default /ws path.
func websocketURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, "://") {
		return addr
	}
	return "ws://" + addr + "/ws"
}
