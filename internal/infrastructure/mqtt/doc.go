// Package mqtt publishes printer activity to an MQTT broker and accepts
// remote terminal commands from it.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained state publishing so new subscribers see the current state
//   - Terminal traffic mirroring on printhive/terminal/#
//   - A command topic that feeds remote g-code into the event pipeline
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// MQTT is an optional integration surface. The API server's relay loop
// hands every outward-facing event to the Sink, which maps it onto the
// printhive/ topic hierarchy. Inbound commands flow the other way: a
// subscription on printhive/command/terminal enqueues terminal sends
// onto the distribution queue, exactly as if they came from the REST API.
//
//	event pipeline -> Sink -> MQTT broker -> home automation / dashboards
//	MQTT broker -> command subscription -> distribution queue
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	sink := mqtt.NewSink(client, byte(cfg.MQTT.QoS), logger)
//	sink.SubscribeCommands(dist)
package mqtt
