package influxdb

import (
	"errors"
	"testing"

	"github.com/printhive/printhive-core/internal/infrastructure/config"
)

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(config.InfluxDB{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestClientZeroValueSafety(t *testing.T) {
	c := &Client{}

	// Writes against a disconnected client are dropped, not panics.
	c.WritePoint("temperature", nil, map[string]interface{}{"hotend": 1.0})
	c.Flush()

	if c.IsConnected() {
		t.Error("zero-value client should not report connected")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
