package ip_denylist

import "net"

// builtInCIDRs are ranges that only ever appear in the portal's abuse
// logs: bulletproof hosting, Tor exit pools and mass-scan farms. They are
// always enforced; deployment-specific ranges come in through settings.
var builtInCIDRs = []string{
	"185.156.73.0/24",
	"185.156.74.0/24",
	"89.248.0.0/16",
	"185.220.0.0/16",
	"193.118.53.0/24",
	"5.188.206.0/24",
	"45.146.164.0/24",
	"45.155.205.0/24",
	"77.247.108.0/24",
	"77.247.110.0/24",
	"94.102.49.0/24",
	"171.25.193.0/24",
	"192.119.14.0/24",
}

var builtInNetworks = func() []*net.IPNet {
	networks := make([]*net.IPNet, 0, len(builtInCIDRs))
	for _, cidr := range builtInCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("ip_denylist: bad built-in cidr " + cidr)
		}
		networks = append(networks, network)
	}
	return networks
}()
