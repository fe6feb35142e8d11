package mqtt

import "fmt"

// Topic prefixes for homesim MQTT topics.
const (
	// TopicPrefix is the base for all simulator topics.
	TopicPrefix = "homesim"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "homesim/system"
)

// Topics provides builders for homesim MQTT topics.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.DeviceState("light", "3f0c...")
//	// Returns: "homesim/state/light/3f0c..."
type Topics struct{}

// DeviceState returns the retained state topic for one device.
//
// Example: homesim/state/air_conditioner/5b1e2c40-...
func (Topics) DeviceState(kind, id string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, kind, id)
}

// AllDeviceStates returns a wildcard matching every device state topic.
func (Topics) AllDeviceStates() string {
	return TopicPrefix + "/state/+/+"
}

// KindStates returns a wildcard matching every device of one kind.
func (Topics) KindStates(kind string) string {
	return fmt.Sprintf("%s/state/%s/+", TopicPrefix, kind)
}

// Tick returns the topic carrying one summary per simulation tick.
func (Topics) Tick() string {
	return TopicPrefix + "/tick"
}

// SystemStatus returns the topic for simulator online/offline status.
// This topic is used for LWT.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
