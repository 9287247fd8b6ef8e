package radio

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"time"
)

// dialTimeout is the timeout for TCP reachability probes.
const dialTimeout = 5 * time.Second

// ErrNoInterface is returned when no usable network interface is found.
var ErrNoInterface = errors.New("radio: no usable network interface")

// HostDriver implements Driver on a gateway whose WiFi link is managed by
// the host operating system. Association and DHCP happen outside the
// process (wpa_supplicant, NetworkManager, or similar); the driver answers
// the bootstrap contract by inspecting interface state through the net
// package.
//
// Begin must be called before any other method.
type HostDriver struct {
	// Interface is the network interface to inspect (e.g. "wlan0").
	// When empty, Begin selects the first non-loopback interface that
	// is up.
	Interface string

	iface *net.Interface
}

// NewHostDriver creates a HostDriver bound to the named interface.
// An empty name means auto-select on Begin.
func NewHostDriver(ifaceName string) *HostDriver {
	return &HostDriver{Interface: ifaceName}
}

// Begin locates the configured interface and verifies it exists.
func (d *HostDriver) Begin() error {
	if d.Interface != "" {
		iface, err := net.InterfaceByName(d.Interface)
		if err != nil {
			return fmt.Errorf("radio: interface %q: %w", d.Interface, err)
		}
		d.iface = iface
		return nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return fmt.Errorf("radio: listing interfaces: %w", err)
	}
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		d.iface = iface
		d.Interface = iface.Name
		return nil
	}
	return ErrNoInterface
}

// DeleteProfiles is a no-op: association profiles are owned by the host OS,
// not by this process. The explicit credentials are still validated against
// the live link in ConnectToAP.
func (d *HostDriver) DeleteProfiles() error {
	if d.iface == nil {
		return ErrNoInterface
	}
	return nil
}

// ConnectToAP verifies the link is up. The OS performs association itself;
// a down link is reported as an association failure so the bootstrap
// sequence behaves identically on hosted and embedded targets.
func (d *HostDriver) ConnectToAP(creds Credentials) error {
	if d.iface == nil {
		return ErrNoInterface
	}

	// Refresh flags: the interface may have gone down since Begin.
	iface, err := net.InterfaceByName(d.iface.Name)
	if err != nil {
		return fmt.Errorf("radio: interface %q: %w", d.iface.Name, err)
	}
	d.iface = iface

	if iface.Flags&net.FlagUp == 0 {
		return fmt.Errorf("radio: interface %q is down (ssid %q)", iface.Name, creds.SSID)
	}
	return nil
}

// CheckDHCP reports whether the interface holds a non-loopback IPv4 address.
func (d *HostDriver) CheckDHCP() (bool, error) {
	addr, err := d.ipv4Addr()
	if err != nil {
		return false, err
	}
	return addr != nil, nil
}

// AddressRecord builds the record from the interface's IPv4 address.
//
// Gateway, DHCP server, and DNS server are not knowable portably from
// interface state; they are reported as zero octets. The record is complete
// once an IP and netmask are held, which is the readiness condition the
// bootstrap layer polls for.
func (d *HostDriver) AddressRecord() (AddressRecord, bool, error) {
	addr, err := d.ipv4Addr()
	if err != nil {
		return AddressRecord{}, false, err
	}
	if addr == nil {
		return AddressRecord{}, false, nil
	}

	var rec AddressRecord
	copy(rec.IP[:], addr.IP.To4())
	mask := addr.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	copy(rec.Netmask[:], mask)
	return rec, true, nil
}

// FirmwareVersion reports the host network stack identification.
func (d *HostDriver) FirmwareVersion() (string, error) {
	return fmt.Sprintf("host-netstack/%s", runtime.GOOS), nil
}

// MACAddress returns the interface hardware address.
func (d *HostDriver) MACAddress() (string, error) {
	if d.iface == nil {
		return "", ErrNoInterface
	}
	if len(d.iface.HardwareAddr) == 0 {
		return "", fmt.Errorf("radio: interface %q has no hardware address", d.iface.Name)
	}
	return d.iface.HardwareAddr.String(), nil
}

// ConnectTCP probes TCP reachability of the endpoint and closes the probe
// connection immediately. Safe to call repeatedly.
func (d *HostDriver) ConnectTCP(endpoint Endpoint) error {
	conn, err := net.DialTimeout("tcp", endpoint.String(), dialTimeout)
	if err != nil {
		return fmt.Errorf("radio: probing %s: %w", endpoint, err)
	}
	return conn.Close()
}

// ipv4Addr returns the first non-loopback IPv4 address on the interface,
// or nil if none is held yet.
func (d *HostDriver) ipv4Addr() (*net.IPNet, error) {
	if d.iface == nil {
		return nil, ErrNoInterface
	}

	addrs, err := d.iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("radio: reading addresses for %q: %w", d.iface.Name, err)
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil || ip4.IsLoopback() {
			continue
		}
		return &net.IPNet{IP: ip4, Mask: ipNet.Mask}, nil
	}
	return nil, nil
}
