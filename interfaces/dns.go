package interfaces

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

type DNSRecordType string

const (
	DNSRecordTypeTXT   DNSRecordType = "TXT"
	DNSRecordTypeCNAME DNSRecordType = "CNAME"
	DNSRecordTypeA     DNSRecordType = "A"
)

func (t DNSRecordType) String() string {
	return string(t)
}

type ResolutionErrorKind int

const (
	// ResolutionTransient covers timeouts, network failures and unavailable
	// resolvers. Safe to retry; verification state must not change.
	ResolutionTransient ResolutionErrorKind = iota
	// ResolutionDefinitiveAbsent covers NXDOMAIN and empty answers of the
	// requested type. The record is not configured; this is a real outcome.
	ResolutionDefinitiveAbsent
)

// ResolutionError is a classified DNS lookup failure.
type ResolutionError struct {
	Kind       ResolutionErrorKind
	Hostname   string
	RecordType DNSRecordType
	Err        error
}

func (e *ResolutionError) Error() string {
	kind := "transient"
	if e.Kind == ResolutionDefinitiveAbsent {
		kind = "not configured"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s lookup for %s (%s): %v", e.RecordType, e.Hostname, kind, e.Err)
	}
	return fmt.Sprintf("%s lookup for %s: %s", e.RecordType, e.Hostname, kind)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

func NewTransientResolutionError(hostname string, recordType DNSRecordType, err error) error {
	return &ResolutionError{Kind: ResolutionTransient, Hostname: hostname, RecordType: recordType, Err: err}
}

func NewDefinitiveAbsentError(hostname string, recordType DNSRecordType) error {
	return &ResolutionError{Kind: ResolutionDefinitiveAbsent, Hostname: hostname, RecordType: recordType}
}

func IsTransientResolution(err error) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr) && resErr.Kind == ResolutionTransient
}

func IsDefinitiveAbsent(err error) bool {
	var resErr *ResolutionError
	return errors.As(err, &resErr) && resErr.Kind == ResolutionDefinitiveAbsent
}

// DNSResolver performs a fresh DNS query on every call. No caching; a stale
// positive would let a detached domain keep verifying.
type DNSResolver interface {
	Lookup(ctx context.Context, hostname string, recordType DNSRecordType) ([]string, error)
}
