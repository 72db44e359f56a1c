package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event as a debug line on a charmbracelet logger.
// It implements all three hook interfaces.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnLoadStart(_ context.Context, format string) {
	h.logger.Debug("loading graph", "format", format)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, format string, packages int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("load failed", "format", format, "duration", d, "err", err)
		return
	}
	h.logger.Debug("loaded graph", "format", format, "packages", packages, "duration", d)
}

func (h *LogHooks) OnExpandStart(_ context.Context, roots int) {
	h.logger.Debug("expanding", "roots", roots)
}

func (h *LogHooks) OnExpandComplete(_ context.Context, nodes int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("expansion stopped", "nodes", nodes, "duration", d, "err", err)
		return
	}
	h.logger.Debug("expanded", "nodes", nodes, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "key", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "key", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "key", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
