package dns

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/storelift/domainstack/interfaces"
)

func TestClassifyLookupError_NotFound(t *testing.T) {
	dnsErr := &net.DNSError{
		Err:        "no such host",
		Name:       "missing.example.com",
		IsNotFound: true,
	}

	err := classifyLookupError("missing.example.com", interfaces.DNSRecordTypeCNAME, dnsErr)

	assert.True(t, interfaces.IsDefinitiveAbsent(err))
	assert.False(t, interfaces.IsTransientResolution(err))
}

func TestClassifyLookupError_Timeout(t *testing.T) {
	dnsErr := &net.DNSError{
		Err:         "i/o timeout",
		Name:        "slow.example.com",
		IsTimeout:   true,
		IsTemporary: true,
	}

	err := classifyLookupError("slow.example.com", interfaces.DNSRecordTypeTXT, dnsErr)

	assert.True(t, interfaces.IsTransientResolution(err))
	assert.False(t, interfaces.IsDefinitiveAbsent(err))
}

func TestClassifyLookupError_UnknownIsTransient(t *testing.T) {
	err := classifyLookupError("example.com", interfaces.DNSRecordTypeA, assert.AnError)

	assert.True(t, interfaces.IsTransientResolution(err))
}
