package verification

import (
	"fmt"
	"strings"

	"github.com/storelift/domainstack/config"
	"github.com/storelift/domainstack/interfaces"
	"github.com/storelift/domainstack/internal/enum"
	"github.com/storelift/domainstack/internal/utils"
)

// ExpectedConfig is the DNS configuration a domain must satisfy to verify.
type ExpectedConfig struct {
	Domain      string
	Apex        bool
	CNAMETarget string
	EdgeIPs     []string
	TXTHost     string
	Token       string
}

// BuildExpected derives the required records for a normalized domain name.
// A CNAME cannot coexist with other records at a zone apex, so apex domains
// are required to route with A records instead.
func BuildExpected(cfg *config.DomainConfig, domain string) ExpectedConfig {
	return ExpectedConfig{
		Domain:      domain,
		Apex:        utils.IsApexDomain(domain),
		CNAMETarget: utils.NormalizeDomain(cfg.CNAMETarget),
		EdgeIPs:     cfg.EdgeIPs,
		TXTHost:     cfg.TXTLabel + "." + domain,
		Token:       "",
	}
}

// RoutingRecordType returns the record type the domain must route with.
func (e ExpectedConfig) RoutingRecordType() interfaces.DNSRecordType {
	if e.Apex {
		return interfaces.DNSRecordTypeA
	}
	return interfaces.DNSRecordTypeCNAME
}

// Lookup carries the values or classified error of one DNS query.
type Lookup struct {
	Values []string
	Err    error
}

// Evaluation is the decision for one verification attempt.
type Evaluation struct {
	Outcome  enum.VerificationOutcome
	Reason   string
	Observed []string
}

// Evaluate is a pure decision function over the expected configuration and
// the observed lookups. It never performs I/O and never decides when to run.
//
// routing is the CNAME lookup for a subdomain or the A lookup for an apex;
// ownership is the TXT lookup at the _<platform> host; apexCNAME is an
// optional diagnostic CNAME lookup performed when an apex A lookup found
// nothing, used only to produce a better reason.
//
// Any transient lookup failure makes the whole attempt inconclusive: flipping
// a domain to failed because a resolver hiccuped would cause flapping.
func Evaluate(expected ExpectedConfig, routing, ownership, apexCNAME Lookup) Evaluation {
	if interfaces.IsTransientResolution(routing.Err) || interfaces.IsTransientResolution(ownership.Err) {
		return Evaluation{
			Outcome: enum.OutcomeInconclusive,
			Reason:  "DNS resolution temporarily unavailable, will retry",
		}
	}

	var reasons []string
	observed := append(append([]string{}, routing.Values...), ownership.Values...)

	if reason := evaluateRouting(expected, routing, apexCNAME); reason != "" {
		reasons = append(reasons, reason)
	}
	if reason := evaluateOwnership(expected, ownership); reason != "" {
		reasons = append(reasons, reason)
	}

	if len(reasons) > 0 {
		return Evaluation{
			Outcome:  enum.OutcomeMismatch,
			Reason:   strings.Join(reasons, "; "),
			Observed: observed,
		}
	}

	return Evaluation{
		Outcome:  enum.OutcomeMatch,
		Observed: observed,
	}
}

func evaluateRouting(expected ExpectedConfig, routing, apexCNAME Lookup) string {
	if expected.Apex {
		return evaluateApexRouting(expected, routing, apexCNAME)
	}
	return evaluateSubdomainRouting(expected, routing)
}

func evaluateSubdomainRouting(expected ExpectedConfig, routing Lookup) string {
	if interfaces.IsDefinitiveAbsent(routing.Err) || len(routing.Values) == 0 {
		return fmt.Sprintf("no CNAME record found for %s", expected.Domain)
	}
	for _, value := range routing.Values {
		if strings.EqualFold(utils.NormalizeDomain(value), expected.CNAMETarget) {
			return ""
		}
	}
	return fmt.Sprintf("CNAME record for %s points to %s, expected %s",
		expected.Domain, strings.Join(routing.Values, ", "), expected.CNAMETarget)
}

func evaluateApexRouting(expected ExpectedConfig, routing, apexCNAME Lookup) string {
	if interfaces.IsDefinitiveAbsent(routing.Err) || len(routing.Values) == 0 {
		if len(apexCNAME.Values) > 0 {
			return "apex domain cannot use CNAME; configure A records to the platform edge instead"
		}
		return fmt.Sprintf("no A record found for %s", expected.Domain)
	}
	for _, value := range routing.Values {
		for _, edgeIP := range expected.EdgeIPs {
			if value == edgeIP {
				return ""
			}
		}
	}
	if len(apexCNAME.Values) > 0 {
		return "apex domain cannot use CNAME; configure A records to the platform edge instead"
	}
	return fmt.Sprintf("A record for %s resolves to %s, expected %s",
		expected.Domain, strings.Join(routing.Values, ", "), strings.Join(expected.EdgeIPs, " or "))
}

func evaluateOwnership(expected ExpectedConfig, ownership Lookup) string {
	if interfaces.IsDefinitiveAbsent(ownership.Err) || len(ownership.Values) == 0 {
		return fmt.Sprintf("no ownership TXT record found at %s", expected.TXTHost)
	}
	for _, value := range ownership.Values {
		if value == expected.Token {
			return ""
		}
	}
	return fmt.Sprintf("ownership TXT record at %s has an incorrect value", expected.TXTHost)
}
