// Package radio defines the contract Gatelink consumes from the WiFi radio
// driver, plus the address types shared across the bootstrap and session
// layers.
//
// The radio itself (association internals, DHCP client, profile storage) is
// an external collaborator. Gatelink only ever talks to it through the Driver
// interface: synchronous, fallible, polling-oriented calls. Two
// implementations ship with the core:
//
//   - HostDriver: for gateways whose link is managed by the host OS. The
//     operating system has already associated and leased an address, so the
//     driver answers the same contract by inspecting the network interface.
//   - Test fakes live alongside the bootstrap tests; they script failures
//     the real hardware produces (init failure, DHCP never completing).
//
// Address handling deliberately avoids layout aliasing: a broker address is
// four explicit octets, and conversion to a 32-bit form goes through
// Octets.Uint32 with stated big-endian order.
package radio
