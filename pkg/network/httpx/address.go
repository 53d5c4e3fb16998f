package httpx

import (
	"net"
	"strconv"
)

// buildAddress joins the network host from the first param
// with the port value from the second param.
//
// As an example, address host.com:8080 and port 8888
// will be transformed to host.com:8888.
func buildAddress(address string, port int) string {
	addr, _, err := net.SplitHostPort(address)
	if err != nil {
		addr = address
	}
	if addr == "" {
		addr = "localhost"
	}
	if port > 0 && port != 80 && port != 443 {
		addr += ":" + strconv.Itoa(port)
	}
	return addr
}

func extractHost(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}
	return host
}

func splitHostPort(address string) (string, int) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return address, 0
	}
	p, _ := strconv.Atoi(port)
	return host, p
}
