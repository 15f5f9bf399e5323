package mqtt

import "fmt"

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "itemvault"

// Topics builds itemvault MQTT topics under a common prefix.
//
//	topics := mqtt.NewTopics("itemvault")
//	topics.ItemEvent("3f2a...", "created")
//	// Returns: "itemvault/items/3f2a.../created"
type Topics struct {
	prefix string
}

// NewTopics returns a topic builder rooted at prefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	return t.prefix
}

// ItemEvent returns the topic for a mutation of one item.
//
// Example: itemvault/items/3f2a.../updated
func (t Topics) ItemEvent(itemID, action string) string {
	return fmt.Sprintf("%s/items/%s/%s", t.prefix, itemID, action)
}

// AllItemEvents returns a wildcard subscription for every item event.
//
// Example: itemvault/items/+/+
func (t Topics) AllItemEvents() string {
	return fmt.Sprintf("%s/items/+/+", t.prefix)
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: itemvault/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.prefix)
}
