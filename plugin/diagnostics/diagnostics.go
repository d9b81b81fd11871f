// Package diagnostics is a server-side plugin that samples host CPU and
// memory usage on every tick and warns through a Tracer when either
// crosses a configured threshold. Grounded on sys/monitor.go's
// gopsutil-backed GetCpuUsage/GetMemUsage helpers.
package diagnostics

import (
	"github.com/gox/netrt/nw"
	"github.com/gox/netrt/sys"
)

const layerName = "diagnostics"

// Plugin samples host resource usage and reports it through tracer.
type Plugin struct {
	tracer       nw.Tracer
	cpuThreshold float64
	memThreshold float64
	wrapper      *nw.ServerWrapper
}

// NewPlugin creates a diagnostics plugin. A cpuThreshold/memThreshold of
// zero disables that check.
func NewPlugin(tracer nw.Tracer, cpuThreshold, memThreshold float64) *Plugin {
	if tracer == nil {
		tracer = nw.DefaultTracer()
	}
	return &Plugin{tracer: tracer, cpuThreshold: cpuThreshold, memThreshold: memThreshold}
}

func (this_ *Plugin) Name() string { return layerName }

func (this_ *Plugin) OnAttach(w *nw.ServerWrapper) error {
	this_.wrapper = w
	return nil
}

func (this_ *Plugin) OnDetach() {}

func (this_ *Plugin) Tick() {
	if this_.cpuThreshold > 0 {
		if pct, err := sys.GetCpuUsage(); err == nil && pct > this_.cpuThreshold {
			this_.tracer.Warn("cpu usage %.1f%% exceeds threshold %.1f%%", pct, this_.cpuThreshold)
		}
	}

	if this_.memThreshold > 0 {
		if total, used, err := sys.GetMemUsage(); err == nil && total > 0 {
			pct := float64(used) / float64(total) * 100
			if pct > this_.memThreshold {
				this_.tracer.Warn("memory usage %.1f%% exceeds threshold %.1f%%", pct, this_.memThreshold)
			}
		}
	}
}

func (this_ *Plugin) RequiresConnection() bool { return false }
