package remote

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Endpoint fully identifies a remote store. A Client can be rebuilt from
// its Endpoint alone. Endpoints marshal as text (store@host:port), which
// JSON and YAML encoders pick up.
type Endpoint struct {
	Store string
	Host  string
	Port  uint16
}

// Addr returns host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// String renders the endpoint as store@host:port.
func (e Endpoint) String() string {
	return e.Store + "@" + e.Addr()
}

// Dial connects a client to the endpoint.
func (e Endpoint) Dial(opts ...ClientOption) (*Client, error) {
	return Dial(e.Store, e.Host, e.Port, opts...)
}

// MarshalText implements encoding.TextMarshaler.
func (e Endpoint) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Endpoint) UnmarshalText(text []byte) error {
	parsed, err := ParseEndpoint(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseEndpoint parses store@host[:port]. A missing port means DefaultPort.
func ParseEndpoint(s string) (Endpoint, error) {
	name, hostport, ok := strings.Cut(s, "@")
	if !ok || name == "" || hostport == "" {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrInvalidEndpoint, s)
	}

	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return Endpoint{Store: name, Host: strings.Trim(hostport, "[]"), Port: DefaultPort}, nil
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: port %q: %w", ErrInvalidEndpoint, portStr, err)
	}
	return Endpoint{Store: name, Host: host, Port: uint16(port)}, nil
}
