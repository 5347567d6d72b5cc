package influxdb

import (
	"github.com/printhive/printhive-core/internal/bridge"
	"github.com/printhive/printhive-core/internal/events"
)

// pointWriter is the subset of Client the sink needs. Narrowed for testing.
type pointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]interface{})
}

// Sink converts outward-facing printer events into time-series points.
// It plugs into the API server's relay loop.
//
// Terminal reads are scanned for temperature reports; lines without
// temperature fields are ignored, which keeps the write volume
// proportional to the firmware's report interval rather than its
// overall chattiness.
type Sink struct {
	writer pointWriter
}

// NewSink creates a telemetry sink writing through the given client.
func NewSink(writer pointWriter) *Sink {
	return &Sink{writer: writer}
}

// Publish records the event if it carries telemetry value.
func (s *Sink) Publish(ev events.WebsocketEvent) {
	switch e := ev.(type) {
	case events.WebsocketTerminalRead:
		report, ok := bridge.ParseTemperatures(e.Message)
		if !ok {
			return
		}
		s.writer.WritePoint("temperature", nil, map[string]interface{}{
			"hotend":        report.Hotend,
			"hotend_target": report.HotendTarget,
			"bed":           report.Bed,
			"bed_target":    report.BedTarget,
		})

	case events.WebsocketStateUpdate:
		fields := map[string]interface{}{"value": int64(1)}
		if job, ok := e.Description.(events.JobDescription); ok {
			fields["job_progress"] = job.Progress
		}
		s.writer.WritePoint("connection_state",
			map[string]string{"state": string(e.State)}, fields)
	}
}
