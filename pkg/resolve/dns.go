package resolve

import (
	"context"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// dnsClient queries one DNS server directly instead of going through the
// system resolver.
type dnsClient struct {
	client *dns.Client
	server string
}

func newDNSClient(server string, timeout time.Duration) *dnsClient {
	return &dnsClient{
		client: &dns.Client{Timeout: timeout},
		server: server,
	}
}

// LookupIP sends an A ("ip4") or AAAA ("ip6") query for host.
func (c *dnsClient) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	qtype := dns.TypeA
	if network == "ip6" {
		qtype = dns.TypeAAAA
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true

	resp, _, err := c.client.ExchangeContext(ctx, m, c.server)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s (%s)", host, dns.TypeToString[qtype])
	}
	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, ErrNotFound
	default:
		return nil, errors.Errorf("query %s (%s): rcode %s", host, dns.TypeToString[qtype], dns.RcodeToString[resp.Rcode])
	}

	return answerIPs(resp, qtype), nil
}

func answerIPs(resp *dns.Msg, qtype uint16) []net.IP {
	var ips []net.IP
	for _, ans := range resp.Answer {
		switch rr := ans.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				ips = append(ips, rr.A)
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				ips = append(ips, rr.AAAA)
			}
		}
	}
	return ips
}
