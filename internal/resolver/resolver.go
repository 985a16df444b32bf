// Package resolver discovers the current public IP address.
package resolver

import (
	"context"
	"fmt"
	"net/netip"
	"strings"
)

// Resolver produces the current IP address or fails
type Resolver interface {
	Resolve(ctx context.Context) (netip.Addr, error)
}

// Func adapts a plain function to a Resolver
type Func func(ctx context.Context) (netip.Addr, error)

// Resolve implements Resolver.
func (f Func) Resolve(ctx context.Context) (netip.Addr, error) {
	return f(ctx)
}

// Family selects which address family the resolver connects over
type Family int

const (
	// Any lets the dialer pick
	Any Family = iota
	// IPv4 forces tcp4
	IPv4
	// IPv6 forces tcp6
	IPv6
)

// ParseFamily parses an address family name. Besides the canonical names
// it accepts the common spellings IPv4, v4, 4, IPv6, v6 and 6.
func ParseFamily(s string) (Family, error) {
	switch strings.TrimSpace(s) {
	case "", "any":
		return Any, nil
	case "ipv4", "IPv4", "v4", "4":
		return IPv4, nil
	case "ipv6", "IPv6", "v6", "6":
		return IPv6, nil
	default:
		return Any, fmt.Errorf("invalid requested address type: %s", s)
	}
}

// String returns the canonical family name
func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return "any"
	}
}

// Network returns the dial network for the family
func (f Family) Network() string {
	switch f {
	case IPv4:
		return "tcp4"
	case IPv6:
		return "tcp6"
	default:
		return "tcp"
	}
}
