package topology

import (
	"net"
	"strconv"
)

const (
	DefaultControllerIP   = "127.0.0.1"
	DefaultControllerPort = 6633
	DefaultProtocol       = "OpenFlow13"
)

// ControllerBinding is the remote OpenFlow controller every switch of a
// network connects to.
type ControllerBinding struct {
	IP       string
	Port     int
	Protocol string
}

// DefaultBinding returns the binding for a controller at ip on the
// standard port and protocol.
func DefaultBinding(ip string) ControllerBinding {
	if ip == "" {
		ip = DefaultControllerIP
	}
	return ControllerBinding{
		IP:       ip,
		Port:     DefaultControllerPort,
		Protocol: DefaultProtocol,
	}
}

// Target renders the binding as an OVS controller target, tcp:IP:PORT.
func (b ControllerBinding) Target() string {
	return "tcp:" + net.JoinHostPort(b.IP, strconv.Itoa(b.Port))
}
