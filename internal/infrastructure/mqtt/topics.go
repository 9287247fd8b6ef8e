package mqtt

import "fmt"

// Topic prefixes for the Gatelink MQTT namespace.
//
// The relay's inbound and outbound topics are configuration values
// (relay.inbound_topic / relay.outbound_topic); the builders here cover
// the fixed system topics the session itself uses.
const (
	// TopicPrefix is the base for all Gatelink topics.
	TopicPrefix = "gatelink"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "gatelink/system"
)

// Topics provides builders for Gatelink MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// SystemStatus returns the gateway status topic. The online announcement,
// graceful offline status, and LWT are all published here, retained.
//
// Example: gatelink/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// RelayInbound returns the default inbound relay topic.
//
// Example: gatelink/relay/in
func (Topics) RelayInbound() string {
	return fmt.Sprintf("%s/relay/in", TopicPrefix)
}

// RelayOutbound returns the default outbound relay topic.
//
// Example: gatelink/relay/out
func (Topics) RelayOutbound() string {
	return fmt.Sprintf("%s/relay/out", TopicPrefix)
}
