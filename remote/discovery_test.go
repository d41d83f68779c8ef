package remote

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/hoard-go/store"
)

type fakeResolver struct {
	srvs []*net.SRV
	err  error
}

func (f fakeResolver) LookupSRV(service, proto, name string) (string, []*net.SRV, error) {
	return "", f.srvs, f.err
}

func TestLookupEndpointsOrder(t *testing.T) {
	r := fakeResolver{srvs: []*net.SRV{
		{Target: "c.example.com.", Port: 3, Priority: 20, Weight: 5},
		{Target: "a.example.com.", Port: 1, Priority: 10, Weight: 10},
		{Target: "b.example.com.", Port: 2, Priority: 10, Weight: 50},
	}}

	eps, err := LookupEndpoints("foo", "example.com", r)
	require.NoError(t, err)
	assert.Equal(t, []Endpoint{
		{Store: "foo", Host: "b.example.com", Port: 2},
		{Store: "foo", Host: "a.example.com", Port: 1},
		{Store: "foo", Host: "c.example.com", Port: 3},
	}, eps)
}

func TestLookupEndpointsErrors(t *testing.T) {
	_, err := LookupEndpoints("foo", "", fakeResolver{})
	assert.ErrorIs(t, err, ErrDNSLookupFailed)

	_, err = LookupEndpoints("foo", "example.com", fakeResolver{})
	assert.ErrorIs(t, err, ErrNoEndpoints)

	_, err = LookupEndpoints("foo", "example.com", fakeResolver{err: errors.New("boom")})
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

// startDNS serves SRV answers for _hoard._tcp.<zone> on a local UDP port.
func startDNS(t *testing.T, zone string, records ...string) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		if r.Question[0].Name == dns.Fqdn("_hoard._tcp."+zone) {
			for _, rec := range records {
				rr, err := dns.NewRR(fmt.Sprintf("%s 60 IN SRV %s", r.Question[0].Name, rec))
				if err == nil {
					m.Answer = append(m.Answer, rr)
				}
			}
		} else {
			m.Rcode = dns.RcodeNameError
		}
		w.WriteMsg(m)
	})

	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: handler, NotifyStartedFunc: func() { close(started) }}
	go srv.ActivateAndServe()
	<-started
	t.Cleanup(func() { srv.Shutdown() })

	return pc.LocalAddr().String()
}

func TestDNSResolver(t *testing.T) {
	upstream := startDNS(t, "example.com", "10 5 52000 a.example.com.", "5 0 52001 b.example.com.")
	r := NewDNSResolver(upstream)

	eps, err := LookupEndpoints("foo", "example.com", r)
	require.NoError(t, err)
	assert.Equal(t, []Endpoint{
		{Store: "foo", Host: "b.example.com", Port: 52001},
		{Store: "foo", Host: "a.example.com", Port: 52000},
	}, eps)

	_, err = LookupEndpoints("foo", "missing.org", r)
	assert.ErrorIs(t, err, ErrDNSLookupFailed)
}

func TestDiscoverAndDial(t *testing.T) {
	srv := startServer(t, map[string]store.Store{"foo": store.NewMemory()})
	port := srv.Addr().(*net.TCPAddr).Port

	upstream := startDNS(t, "local.test",
		"1 0 1 127.0.0.1.", // nothing listens on port 1
		fmt.Sprintf("2 0 %d 127.0.0.1.", port),
	)

	eps, err := LookupEndpoints("foo", "local.test", NewDNSResolver(upstream))
	require.NoError(t, err)
	require.Len(t, eps, 2)

	c, err := DialAny(eps)
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, uint16(port), c.Endpoint().Port)

	_, err = DialAny(nil)
	assert.ErrorIs(t, err, ErrNoEndpoints)
}
