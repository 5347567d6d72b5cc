// Package influxdb records printer telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with PrintHive
// patterns for connection management, point writing, and health checks.
//
// # Purpose
//
// This package handles time-series storage for:
//   - Hotend and bed temperatures parsed from device output
//   - Connection state transitions
//   - Print job progress
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	sink := influxdb.NewSink(client)
//	// sink.Publish is called by the API server's relay loop
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are delivered via a
// callback. Connection and health check errors are returned directly.
package influxdb
