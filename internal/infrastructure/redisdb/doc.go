// Package redisdb connects itemvault to Redis when storage.backend is
// "redis". Users, items and audit entries share the configured key prefix.
package redisdb
