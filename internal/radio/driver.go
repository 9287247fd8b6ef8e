package radio

import (
	"fmt"
	"strings"
)

// SecurityMode is the access point security mode used during association.
type SecurityMode int

// Supported security modes, in order of introduction.
const (
	SecurityOpen SecurityMode = iota
	SecurityWEP
	SecurityWPA
	SecurityWPA2
)

// String returns the lowercase mode name used in configuration files.
func (m SecurityMode) String() string {
	switch m {
	case SecurityOpen:
		return "open"
	case SecurityWEP:
		return "wep"
	case SecurityWPA:
		return "wpa"
	case SecurityWPA2:
		return "wpa2"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseSecurityMode converts a configuration string into a SecurityMode.
func ParseSecurityMode(s string) (SecurityMode, error) {
	switch strings.ToLower(s) {
	case "open", "none", "unsecured":
		return SecurityOpen, nil
	case "wep":
		return SecurityWEP, nil
	case "wpa":
		return SecurityWPA, nil
	case "wpa2", "":
		// WPA2 is the default when unspecified.
		return SecurityWPA2, nil
	default:
		return SecurityOpen, fmt.Errorf("unknown security mode %q", s)
	}
}

// Credentials identify the access point to join. Supplied at configuration
// time and immutable afterwards.
type Credentials struct {
	SSID       string
	Passphrase string
	Security   SecurityMode
}

// AddressRecord is the full set of network parameters the driver reports
// once a DHCP lease is held.
type AddressRecord struct {
	IP         Octets
	Netmask    Octets
	Gateway    Octets
	DHCPServer Octets
	DNSServer  Octets
}

// Driver is the narrow contract Gatelink consumes from the radio.
//
// All calls are synchronous and fallible. CheckDHCP and AddressRecord are
// polling-oriented: the bootstrap layer calls them repeatedly until they
// report readiness or its deadline expires.
type Driver interface {
	// Begin powers up and resets the radio. Must be the first call.
	Begin() error

	// DeleteProfiles removes persisted association profiles so the
	// explicit credentials passed to ConnectToAP are authoritative.
	DeleteProfiles() error

	// ConnectToAP attempts to join the configured access point.
	ConnectToAP(creds Credentials) error

	// CheckDHCP reports whether a DHCP lease has been obtained.
	CheckDHCP() (bool, error)

	// AddressRecord returns the resolved network parameters. The second
	// return is false while the record is incomplete.
	AddressRecord() (AddressRecord, bool, error)

	// FirmwareVersion returns the radio firmware identification string.
	// Diagnostic only.
	FirmwareVersion() (string, error)

	// MACAddress returns the radio's hardware address. Diagnostic only.
	MACAddress() (string, error)

	// ConnectTCP probes TCP reachability of the given endpoint. The
	// session layer dials its own connection; this is the pre-connect
	// reachability check.
	ConnectTCP(endpoint Endpoint) error
}
