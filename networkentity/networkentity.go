package networkentity

import (
	"net"

	"actornet/internal/netcode"
)

// NetworkEntity is the transport end of one client connection.
type NetworkEntity interface {
	Send(frame netcode.Frame) error
	Close() error
	RemoteAddr() net.Addr
}
