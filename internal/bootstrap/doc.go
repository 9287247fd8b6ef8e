// Package bootstrap drives the radio from power-on to a DHCP-leased,
// network-ready state.
//
// The sequence is a linear state machine:
//
//	Uninitialized → RadioReady → Associated → DhcpBound
//
// Each transition is guarded by one driver operation. Radio init, profile
// clearing, and association failures are fatal: nothing downstream can make
// progress without a link, so the error carries a Fatal flag and the caller
// decides whether to exit, reboot, or alert. DHCP and address-record waits
// are polled at a fixed interval under an explicit deadline; expiry yields
// ErrStageTimeout rather than blocking forever.
//
// Run blocks its caller: nothing useful can run before the network is up,
// so there is no work to interleave with the polling waits.
package bootstrap
