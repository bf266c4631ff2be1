package net

import (
	"fmt"
	"net"
)

// CheckListenAddr returns an error if a TCP listener can't be bound on addr, which usually means something is already using it.
func CheckListenAddr(addr string) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", addr, err)
	}
	listener, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return listener.Close()
}
