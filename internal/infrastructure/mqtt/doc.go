// Package mqtt provides the broker session for Gatelink Core.
//
// This package manages:
//   - Connection to the fixed broker endpoint with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - The retained online/offline announcement on gatelink/system/status
//   - Connection health monitoring
//
// # Architecture
//
// Gatelink is a relay gateway: messages received on the inbound topic are
// republished on the outbound topic through a staging strategy (see the
// relay package). This package owns the session either side of that relay.
//
//	Inbound topic → Gatelink relay → Outbound topic
//
// The paho library pumps keep-alive and incoming dispatch on its own
// goroutines; callers only need to keep the process alive.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	rel.Bind(client)
//	err = client.Subscribe(cfg.Relay.InboundTopic, byte(cfg.MQTT.QoS), rel.HandleMessage)
//
// Note the ordering: the relay is bound to the live session before the
// subscription is created, so a message can never reach a handler that
// has no session to publish with.
package mqtt
