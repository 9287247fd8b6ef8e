package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRelayMetric records a single relay cycle.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - strategy: Staging strategy that handled the message ("heap" or "store")
//   - bytes: Payload size in bytes
//   - duration: End-to-end relay time for the cycle
//   - success: Whether the payload reached the outbound topic
//
// Example:
//
//	client.WriteRelayMetric("heap", 42, 3*time.Millisecond, true)
func (c *Client) WriteRelayMetric(strategy string, bytes int, duration time.Duration, success bool) {
	c.WritePoint(
		"relay_cycles",
		map[string]string{
			"strategy": strategy,
		},
		map[string]interface{}{
			"bytes":       bytes,
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
			"success":     success,
		},
	)
}

// WriteBootstrapStage records the outcome of a network bootstrap stage.
//
// Used after startup to track how long association and DHCP acquisition
// took, and whether a stage had to be retried. The point carries the
// stage's completion time, not the write time, since the telemetry sink
// connects after bootstrap finishes.
//
// Parameters:
//   - stage: Bootstrap stage name (e.g., "associate", "await-dhcp")
//   - duration: Time spent in the stage
//   - attempts: Number of attempts the stage needed
//   - completedAt: When the stage finished
func (c *Client) WriteBootstrapStage(stage string, duration time.Duration, attempts int, completedAt time.Time) {
	c.WritePointWithTime(
		"bootstrap_stages",
		map[string]string{
			"stage": stage,
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Microseconds()) / 1000.0,
			"attempts":    attempts,
		},
		completedAt,
	)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"gateway": "gatelink-01"},
//	    map[string]interface{}{"relayed": 120, "failed": 2})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
