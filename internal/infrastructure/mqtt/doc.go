// Package mqtt publishes itemvault events to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// Every successful item mutation is published to
// <prefix>/items/<id>/<action> as JSON. The service announces itself on the
// retained <prefix>/system/status topic.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := client.Topics().ItemEvent(id, "created")
//	err = client.PublishJSON(topic, event)
package mqtt
