// internal/diagnostics/recorder.go
//
// Plugin error recording.
//
// Context
// -------
// Faults inside the Runtime Context are swallowed at the boundary so a
// misbehaving plugin cannot take a request down.  They are not lost: every
// one of them goes through a Recorder, tagged with the owning plugin.  The
// zap implementation writes one ERROR line per fault with a fresh uuid so
// operators can correlate a user report with the log.
//
// Notes
// -----
//   - Nil errors are ignored.
//   - Oxford commas, two spaces after periods.
package diagnostics

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yanizio/adept/internal/metrics"
)

// Source identifies the plugin a fault belongs to.
type Source struct {
	PluginID   string
	PluginName string
}

// Recorder is the diagnostics collaborator.
type Recorder interface {
	// RecordError stores err for src and returns a correlation id.
	RecordError(src Source, err error) string
}

// ZapRecorder logs through a zap.Logger.  A nil logger means zap.L().
type ZapRecorder struct {
	log *zap.Logger
}

// NewZapRecorder wraps log.
func NewZapRecorder(log *zap.Logger) *ZapRecorder {
	return &ZapRecorder{log: log}
}

// RecordError implements Recorder.
func (r *ZapRecorder) RecordError(src Source, err error) string {
	if err == nil {
		return ""
	}
	id := uuid.NewString()
	l := r.log
	if l == nil {
		l = zap.L()
	}
	l.Error("plugin: "+src.PluginName,
		zap.String("error_id", id),
		zap.String("plugin_id", src.PluginID),
		zap.String("plugin", src.PluginName),
		zap.Error(err))
	metrics.PluginErrorsTotal.WithLabelValues(src.PluginID).Inc()
	return id
}
