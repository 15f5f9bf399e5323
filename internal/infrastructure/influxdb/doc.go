// Package influxdb provides InfluxDB connectivity for itemvault.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, batched point writing and health monitoring.
//
// # Measurements
//
//   - auth_event: tags event (signup, login, refresh) and outcome
//     (success, failure); field count
//   - item_event: tag action (created, updated, deleted); field id
//
// Both carry the service and instance tags from the service config.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB, cfg.Service)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteAuthEvent("login", influxdb.OutcomeSuccess)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// Writes are non-blocking and dropped after Close; batch errors are
// delivered via SetOnError.
package influxdb
