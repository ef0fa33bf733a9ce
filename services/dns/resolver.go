package dns

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/storelift/domainstack/interfaces"
	"github.com/storelift/domainstack/internal/tracing"
	"github.com/storelift/domainstack/internal/utils"
)

type resolverService struct {
	resolver *net.Resolver
	timeout  time.Duration
}

// NewResolverService returns a DNS resolver adapter. Every Lookup is a fresh
// recursive query bounded by the configured timeout.
func NewResolverService(timeout time.Duration) interfaces.DNSResolver {
	return &resolverService{
		resolver: net.DefaultResolver,
		timeout:  timeout,
	}
}

func (s *resolverService) Lookup(ctx context.Context, hostname string, recordType interfaces.DNSRecordType) ([]string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "DNSResolver.Lookup")
	defer span.Finish()
	tracing.TagComponentResolver(span)
	span.LogKV("hostname", hostname, "recordType", recordType.String())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var values []string
	var err error

	switch recordType {
	case interfaces.DNSRecordTypeTXT:
		values, err = s.resolver.LookupTXT(ctx, hostname)
	case interfaces.DNSRecordTypeCNAME:
		var cname string
		cname, err = s.resolver.LookupCNAME(ctx, hostname)
		if err == nil {
			cname = utils.NormalizeDomain(cname)
			// LookupCNAME echoes the queried name back when no CNAME exists
			if cname != "" && cname != utils.NormalizeDomain(hostname) {
				values = []string{cname}
			}
		}
	case interfaces.DNSRecordTypeA:
		var addrs []net.IPAddr
		addrs, err = s.resolver.LookupIPAddr(ctx, hostname)
		if err == nil {
			for _, addr := range addrs {
				if v4 := addr.IP.To4(); v4 != nil {
					values = append(values, v4.String())
				}
			}
		}
	}

	if err != nil {
		return nil, classifyLookupError(hostname, recordType, err)
	}
	if len(values) == 0 {
		return nil, interfaces.NewDefinitiveAbsentError(hostname, recordType)
	}

	for i, v := range values {
		if recordType != interfaces.DNSRecordTypeTXT {
			values[i] = utils.NormalizeDomain(v)
		} else {
			values[i] = strings.TrimSpace(v)
		}
	}

	return values, nil
}

// classifyLookupError splits resolver failures into the two kinds the
// verification algorithm distinguishes. Anything ambiguous is treated as
// transient; a cancelled or timed-out attempt must never read as "record
// absent".
func classifyLookupError(hostname string, recordType interfaces.DNSRecordType, err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return interfaces.NewDefinitiveAbsentError(hostname, recordType)
	}
	return interfaces.NewTransientResolutionError(hostname, recordType, err)
}
