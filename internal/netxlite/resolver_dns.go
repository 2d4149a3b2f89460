package netxlite

//
// DNS-over-UDP and DNS-over-TCP resolver
//

import (
	"context"
	"time"

	"github.com/miekg/dns"
	"github.com/ooni/netconnect/internal/model"
)

// DefaultDNSTimeout is the default timeout for each DNS round trip.
const DefaultDNSTimeout = 5 * time.Second

// resolverDNS is a resolver that talks the DNS protocol with a
// server using github.com/miekg/dns over UDP or TCP.
type resolverDNS struct {
	// network is either "udp" or "tcp".
	network string

	// address is the server endpoint.
	address string

	// exchange allows to override the round trip in tests.
	exchange func(ctx context.Context, query *dns.Msg) (*dns.Msg, error)
}

func newResolverDNS(network, address string) *resolverDNS {
	return &resolverDNS{network: network, address: address}
}

var _ model.Resolver = &resolverDNS{}

// LookupHost implements model.Resolver. We query for A and then for
// AAAA and return the union of the results. A failure of the A query
// other than the lack of answers terminates the lookup.
func (r *resolverDNS) LookupHost(ctx context.Context, hostname string) ([]string, error) {
	addrsA, errA := r.lookup(ctx, hostname, dns.TypeA)
	if errA != nil && errA != ErrDNSNoAnswer {
		return nil, errA
	}
	addrsAAAA, errAAAA := r.lookup(ctx, hostname, dns.TypeAAAA)
	addrs := append(addrsA, addrsAAAA...)
	if len(addrs) <= 0 {
		if errA != nil {
			return nil, errA
		}
		return nil, errAAAA
	}
	return addrs, nil
}

// lookup performs a single query for the given type.
func (r *resolverDNS) lookup(ctx context.Context, hostname string, qtype uint16) ([]string, error) {
	query := new(dns.Msg)
	query.SetQuestion(dns.Fqdn(hostname), qtype)
	query.RecursionDesired = true
	reply, err := r.exchangefn()(ctx, query)
	if err != nil {
		if err == dns.ErrId {
			return nil, ErrDNSReplyWithWrongQueryID
		}
		return nil, err
	}
	return decodeLookupHost(qtype, reply, query.Id)
}

func (r *resolverDNS) exchangefn() func(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
	if r.exchange != nil {
		return r.exchange
	}
	return func(ctx context.Context, query *dns.Msg) (*dns.Msg, error) {
		clnt := &dns.Client{Net: r.network, Timeout: DefaultDNSTimeout}
		reply, _, err := clnt.ExchangeContext(ctx, query, r.address)
		return reply, err
	}
}

// decodeLookupHost maps the reply to a list of addresses or to an error.
func decodeLookupHost(qtype uint16, reply *dns.Msg, queryID uint16) ([]string, error) {
	if reply.Id != queryID {
		return nil, ErrDNSReplyWithWrongQueryID
	}
	switch reply.Rcode {
	case dns.RcodeSuccess:
		// decode the answers below
	case dns.RcodeNameError:
		return nil, ErrDNSNoSuchHost
	case dns.RcodeRefused:
		return nil, ErrDNSRefused
	case dns.RcodeServerFailure:
		return nil, ErrDNSServfail
	default:
		return nil, ErrDNSMisbehaving
	}
	var addrs []string
	for _, answer := range reply.Answer {
		switch rr := answer.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				addrs = append(addrs, rr.A.String())
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				addrs = append(addrs, rr.AAAA.String())
			}
		}
	}
	if len(addrs) <= 0 {
		return nil, ErrDNSNoAnswer
	}
	return addrs, nil
}

func (r *resolverDNS) Network() string {
	return r.network
}

func (r *resolverDNS) Address() string {
	return r.address
}

func (r *resolverDNS) CloseIdleConnections() {
	// nothing to do
}
