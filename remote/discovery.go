package remote

import (
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// SRVService is the SRV service label servers are published under:
// _hoard._tcp.<domain>.
const SRVService = "hoard"

const (
	defaultUpstream = "127.0.0.1:53"
	dnsTimeout      = 5 * time.Second
)

// SRVResolver looks up SRV records. It matches net.LookupSRV so tests and
// callers can substitute their own.
type SRVResolver interface {
	LookupSRV(service, proto, name string) (string, []*net.SRV, error)
}

// DNSResolver queries a specific DNS server directly.
type DNSResolver struct {
	// Upstream is the server address, e.g. "10.0.0.2:53".
	Upstream string
	Timeout  time.Duration
}

var _ SRVResolver = (*DNSResolver)(nil)

// NewDNSResolver returns a resolver for upstream. An empty upstream means
// the local resolver on 127.0.0.1:53.
func NewDNSResolver(upstream string) *DNSResolver {
	if upstream == "" {
		upstream = defaultUpstream
	}
	return &DNSResolver{Upstream: upstream, Timeout: dnsTimeout}
}

// LookupSRV implements SRVResolver. The canonical name is always empty.
func (r *DNSResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	qname := dns.Fqdn(fmt.Sprintf("_%s._%s.%s", service, proto, name))

	msg := new(dns.Msg)
	msg.SetQuestion(qname, dns.TypeSRV)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: r.Timeout}
	resp, _, err := client.Exchange(msg, r.Upstream)
	if err != nil {
		return "", nil, fmt.Errorf("%w: query %s: %w", ErrDNSLookupFailed, qname, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return "", nil, fmt.Errorf("%w: query %s: rcode %s", ErrDNSLookupFailed, qname, dns.RcodeToString[resp.Rcode])
	}

	var srvs []*net.SRV
	for _, rr := range resp.Answer {
		if srv, ok := rr.(*dns.SRV); ok {
			srvs = append(srvs, &net.SRV{
				Target:   srv.Target,
				Port:     srv.Port,
				Priority: srv.Priority,
				Weight:   srv.Weight,
			})
		}
	}
	return "", srvs, nil
}

type systemResolver struct{}

func (systemResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return net.LookupSRV(service, proto, name)
}

// SystemResolver uses the operating system's resolver.
var SystemResolver SRVResolver = systemResolver{}

// LookupEndpoints resolves the servers published for domain and returns an
// Endpoint for storeName on each, sorted by priority (ascending) then
// weight (descending). A nil resolver means SystemResolver.
func LookupEndpoints(storeName, domain string, resolver SRVResolver) ([]Endpoint, error) {
	if domain == "" {
		return nil, fmt.Errorf("%w: empty domain", ErrDNSLookupFailed)
	}
	if resolver == nil {
		resolver = SystemResolver
	}

	_, addrs, err := resolver.LookupSRV(SRVService, "tcp", domain)
	if err != nil {
		return nil, fmt.Errorf("%w: _%s._tcp.%s: %w", ErrDNSLookupFailed, SRVService, domain, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: _%s._tcp.%s", ErrNoEndpoints, SRVService, domain)
	}

	sort.SliceStable(addrs, func(i, j int) bool {
		if addrs[i].Priority != addrs[j].Priority {
			return addrs[i].Priority < addrs[j].Priority
		}
		return addrs[i].Weight > addrs[j].Weight
	})

	endpoints := make([]Endpoint, len(addrs))
	for i, srv := range addrs {
		endpoints[i] = Endpoint{
			Store: storeName,
			Host:  strings.TrimSuffix(srv.Target, "."),
			Port:  srv.Port,
		}
	}
	return endpoints, nil
}

// DialAny tries endpoints in order and returns the first client that connects.
func DialAny(endpoints []Endpoint, opts ...ClientOption) (*Client, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	var lastErr error
	for _, ep := range endpoints {
		c, err := ep.Dial(opts...)
		if err == nil {
			return c, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
