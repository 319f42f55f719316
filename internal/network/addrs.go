package network

import (
	"net"
	"net/netip"
	"slices"
)

// InterfaceTargets is ClientTargets over the addresses of this host.
func InterfaceTargets(bound *net.UDPAddr) ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	return ClientTargets(bound, addrs), nil
}

// ClientTargets lists the host:port values a client can pass as --server to
// reach a receiver bound to bound. A wildcard bind expands to every routable
// IPv4 address in addrs, sorted and without duplicates.
func ClientTargets(bound *net.UDPAddr, addrs []net.Addr) []string {
	if bound == nil {
		return nil
	}
	port := uint16(bound.Port)
	if ip, ok := netip.AddrFromSlice(bound.IP); ok {
		if ip = ip.Unmap(); !ip.IsUnspecified() {
			return []string{netip.AddrPortFrom(ip, port).String()}
		}
	}

	var ips []netip.Addr
	for _, addr := range addrs {
		if ip, ok := routableIPv4(addr); ok {
			ips = append(ips, ip)
		}
	}
	slices.SortFunc(ips, netip.Addr.Compare)
	ips = slices.Compact(ips)

	targets := make([]string, 0, len(ips))
	for _, ip := range ips {
		targets = append(targets, netip.AddrPortFrom(ip, port).String())
	}
	return targets
}

// routableIPv4 extracts an IPv4 address another host could send to.
func routableIPv4(addr net.Addr) (netip.Addr, bool) {
	var ip netip.Addr
	switch v := addr.(type) {
	case *net.IPNet:
		ip, _ = netip.AddrFromSlice(v.IP)
	case *net.IPAddr:
		ip, _ = netip.AddrFromSlice(v.IP)
	default:
		prefix, err := netip.ParsePrefix(addr.String())
		if err != nil {
			return netip.Addr{}, false
		}
		ip = prefix.Addr()
	}
	ip = ip.Unmap()
	if !ip.Is4() || ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
		return netip.Addr{}, false
	}
	return ip, true
}
