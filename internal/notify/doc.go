// Package notify forwards item events to the optional outbound backends.
//
// MQTTSink publishes every create, update and delete to
// <prefix>/items/<id>/<action> from a background worker, so a slow or
// disconnected broker never holds up an HTTP request. InfluxSink records
// each event as an item_event point through the InfluxDB client's own
// non-blocking write API.
//
// Both types implement item.EventSink and are combined with the WebSocket
// hub and the metrics gauge through item.MultiSink.
package notify
