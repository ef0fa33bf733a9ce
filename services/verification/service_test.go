package verification

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storelift/domainstack/config"
	"github.com/storelift/domainstack/interfaces"
	"github.com/storelift/domainstack/internal/enum"
	internalerrors "github.com/storelift/domainstack/internal/errors"
	"github.com/storelift/domainstack/internal/logger"
	"github.com/storelift/domainstack/internal/models"
	"github.com/storelift/domainstack/internal/repository"
	"github.com/storelift/domainstack/internal/utils"
)

// fakeResolver serves canned lookup results keyed by hostname and type.
// When block is set, lookups signal looking once and then wait on it.
type fakeResolver struct {
	values  map[string][]string
	errs    map[string]error
	block   chan struct{}
	looking chan struct{}
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		values: make(map[string][]string),
		errs:   make(map[string]error),
	}
}

func key(hostname string, recordType interfaces.DNSRecordType) string {
	return hostname + "/" + recordType.String()
}

func (f *fakeResolver) set(hostname string, recordType interfaces.DNSRecordType, values ...string) {
	f.values[key(hostname, recordType)] = values
	delete(f.errs, key(hostname, recordType))
}

func (f *fakeResolver) fail(hostname string, recordType interfaces.DNSRecordType, err error) {
	f.errs[key(hostname, recordType)] = err
	delete(f.values, key(hostname, recordType))
}

func (f *fakeResolver) Lookup(ctx context.Context, hostname string, recordType interfaces.DNSRecordType) ([]string, error) {
	if f.looking != nil {
		select {
		case f.looking <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
	if err, ok := f.errs[key(hostname, recordType)]; ok {
		return nil, err
	}
	if values, ok := f.values[key(hostname, recordType)]; ok {
		return values, nil
	}
	return nil, interfaces.NewDefinitiveAbsentError(hostname, recordType)
}

type verifyFixture struct {
	service  interfaces.VerificationService
	repos    *repository.Repositories
	resolver *fakeResolver
}

func setupVerification(t *testing.T) *verifyFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Domain{}))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()

	cfg := &config.DomainConfig{
		CNAMETarget:        "edge.storelift.app",
		EdgeIPs:            []string{"76.76.21.21"},
		TXTLabel:           "_storelift",
		LookupTimeout:      time.Second,
		MinRecheckInterval: time.Hour,
		VerifyConcurrency:  4,
	}

	repos := repository.InitRepositories(db)
	resolver := newFakeResolver()

	return &verifyFixture{
		service:  NewVerificationService(cfg, appLogger, repos, resolver, nil),
		repos:    repos,
		resolver: resolver,
	}
}

func (f *verifyFixture) addDomain(t *testing.T, domainName string) *models.Domain {
	t.Helper()

	domain := &models.Domain{
		Tenant: "tenant-a",
		Domain: domainName,
	}
	require.NoError(t, f.repos.DomainRepository.Create(context.Background(), domain))
	return domain
}

// configure points the fake resolver at a correct setup for the domain.
func (f *verifyFixture) configure(domain *models.Domain) {
	if utils.IsApexDomain(domain.Domain) {
		f.resolver.set(domain.Domain, interfaces.DNSRecordTypeA, "76.76.21.21")
	} else {
		f.resolver.set(domain.Domain, interfaces.DNSRecordTypeCNAME, "edge.storelift.app")
	}
	f.resolver.set("_storelift."+domain.Domain, interfaces.DNSRecordTypeTXT, domain.VerificationToken)
}

func TestRequestVerification_Success(t *testing.T) {
	f := setupVerification(t)
	ctx := context.Background()

	domain := f.addDomain(t, "shop.example.com")
	f.configure(domain)

	result, err := f.service.RequestVerification(ctx, domain.ID, true)
	require.NoError(t, err)

	assert.Equal(t, enum.OutcomeMatch, result.Outcome)
	assert.Equal(t, enum.DomainStatusVerified, result.Status)

	loaded, err := f.repos.DomainRepository.GetByID(ctx, domain.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainStatusVerified, loaded.Status)
	assert.NotNil(t, loaded.VerifiedAt)
	assert.NotNil(t, loaded.LastCheckedAt)
}

func TestRequestVerification_Mismatch(t *testing.T) {
	f := setupVerification(t)
	ctx := context.Background()

	domain := f.addDomain(t, "shop.example.com")
	// ownership record present, routing record missing
	f.resolver.set("_storelift."+domain.Domain, interfaces.DNSRecordTypeTXT, domain.VerificationToken)

	result, err := f.service.RequestVerification(ctx, domain.ID, true)
	require.NoError(t, err)

	assert.Equal(t, enum.OutcomeMismatch, result.Outcome)
	assert.Equal(t, enum.DomainStatusFailed, result.Status)
	assert.Equal(t, "no CNAME record found for shop.example.com", result.Reason)

	loaded, err := f.repos.DomainRepository.GetByID(ctx, domain.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainStatusFailed, loaded.Status)
	assert.Equal(t, "no CNAME record found for shop.example.com", loaded.LastFailureReason)
}

func TestRequestVerification_TransientKeepsState(t *testing.T) {
	f := setupVerification(t)
	ctx := context.Background()

	domain := f.addDomain(t, "shop.example.com")
	f.resolver.fail(domain.Domain, interfaces.DNSRecordTypeCNAME,
		interfaces.NewTransientResolutionError(domain.Domain, interfaces.DNSRecordTypeCNAME, assert.AnError))
	f.resolver.set("_storelift."+domain.Domain, interfaces.DNSRecordTypeTXT, domain.VerificationToken)

	result, err := f.service.RequestVerification(ctx, domain.ID, true)
	require.NoError(t, err)

	assert.Equal(t, enum.OutcomeInconclusive, result.Outcome)
	assert.Equal(t, enum.DomainStatusPending, result.Status)
	assert.Equal(t, "still checking", result.Reason)

	loaded, err := f.repos.DomainRepository.GetByID(ctx, domain.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainStatusPending, loaded.Status)
	assert.Nil(t, loaded.VerifiedAt)
	assert.NotNil(t, loaded.LastCheckedAt)
}

func TestRequestVerification_NotFound(t *testing.T) {
	f := setupVerification(t)

	_, err := f.service.RequestVerification(context.Background(), "dom_missing", true)
	assert.ErrorIs(t, err, internalerrors.ErrDomainNotFound)
}

func TestRequestVerification_RateLimited(t *testing.T) {
	f := setupVerification(t)
	ctx := context.Background()

	domain := f.addDomain(t, "shop.example.com")
	f.configure(domain)

	_, err := f.service.RequestVerification(ctx, domain.ID, false)
	require.NoError(t, err)

	// second automatic check within the interval is refused
	_, err = f.service.RequestVerification(ctx, domain.ID, false)
	assert.ErrorIs(t, err, internalerrors.ErrRecentlyChecked)

	// a manual check goes through anyway
	result, err := f.service.RequestVerification(ctx, domain.ID, true)
	require.NoError(t, err)
	assert.Equal(t, enum.OutcomeMatch, result.Outcome)
}

func TestRequestVerification_ConcurrentAutomaticJoinsInFlight(t *testing.T) {
	f := setupVerification(t)
	ctx := context.Background()

	domain := f.addDomain(t, "shop.example.com")
	f.configure(domain)
	f.resolver.block = make(chan struct{})
	f.resolver.looking = make(chan struct{}, 1)

	var wg sync.WaitGroup
	var firstResult, secondResult *interfaces.VerificationResult
	var firstErr, secondErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		firstResult, firstErr = f.service.RequestVerification(ctx, domain.ID, false)
	}()
	<-f.resolver.looking

	// the first attempt holds the domain's rate limit token and is mid-lookup
	wg.Add(1)
	go func() {
		defer wg.Done()
		secondResult, secondErr = f.service.RequestVerification(ctx, domain.ID, false)
	}()
	time.Sleep(100 * time.Millisecond)
	close(f.resolver.block)
	wg.Wait()

	// the second caller shares the in-flight result instead of being refused
	require.NoError(t, firstErr)
	require.NoError(t, secondErr)
	assert.Equal(t, enum.OutcomeMatch, firstResult.Outcome)
	assert.Equal(t, enum.OutcomeMatch, secondResult.Outcome)

	// a fresh automatic request after completion is still rate limited
	_, err := f.service.RequestVerification(ctx, domain.ID, false)
	assert.ErrorIs(t, err, internalerrors.ErrRecentlyChecked)
}

func TestRequestVerification_RevocationClearsPrimary(t *testing.T) {
	f := setupVerification(t)
	ctx := context.Background()

	domain := f.addDomain(t, "shop.example.com")
	f.configure(domain)

	_, err := f.service.RequestVerification(ctx, domain.ID, true)
	require.NoError(t, err)
	require.NoError(t, f.repos.DomainRepository.SetPrimary(ctx, "tenant-a", domain.ID))

	// the tenant removes the CNAME record
	f.resolver.fail(domain.Domain, interfaces.DNSRecordTypeCNAME,
		interfaces.NewDefinitiveAbsentError(domain.Domain, interfaces.DNSRecordTypeCNAME))

	result, err := f.service.RequestVerification(ctx, domain.ID, true)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainStatusFailed, result.Status)

	loaded, err := f.repos.DomainRepository.GetByID(ctx, domain.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainStatusFailed, loaded.Status)
	assert.False(t, loaded.IsPrimary)
	assert.Nil(t, loaded.VerifiedAt)
}

func TestRequestVerification_ApexUsesARecords(t *testing.T) {
	f := setupVerification(t)
	ctx := context.Background()

	domain := f.addDomain(t, "example.com")
	// apex misconfigured with a CNAME instead of A records
	f.resolver.set(domain.Domain, interfaces.DNSRecordTypeCNAME, "edge.storelift.app")
	f.resolver.set("_storelift."+domain.Domain, interfaces.DNSRecordTypeTXT, domain.VerificationToken)

	result, err := f.service.RequestVerification(ctx, domain.ID, true)
	require.NoError(t, err)

	assert.Equal(t, enum.OutcomeMismatch, result.Outcome)
	assert.Equal(t, "apex domain cannot use CNAME; configure A records to the platform edge instead", result.Reason)

	// pointing A records at the edge fixes it
	f.resolver.set(domain.Domain, interfaces.DNSRecordTypeA, "76.76.21.21")
	result, err = f.service.RequestVerification(ctx, domain.ID, true)
	require.NoError(t, err)
	assert.Equal(t, enum.OutcomeMatch, result.Outcome)
}

func TestVerifyPendingDomains_Sweep(t *testing.T) {
	f := setupVerification(t)
	ctx := context.Background()

	good := f.addDomain(t, "one.example.com")
	f.configure(good)
	bad := f.addDomain(t, "two.example.com")

	require.NoError(t, f.service.VerifyPendingDomains(ctx))

	loaded, err := f.repos.DomainRepository.GetByID(ctx, good.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainStatusVerified, loaded.Status)

	loaded, err = f.repos.DomainRepository.GetByID(ctx, bad.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainStatusFailed, loaded.Status)
}

func TestRecheckVerifiedDomains_Sweep(t *testing.T) {
	f := setupVerification(t)
	ctx := context.Background()

	domain := f.addDomain(t, "shop.example.com")
	f.configure(domain)

	_, err := f.service.RequestVerification(ctx, domain.ID, true)
	require.NoError(t, err)

	// DNS drifts away after verification
	f.resolver.fail(domain.Domain, interfaces.DNSRecordTypeCNAME,
		interfaces.NewDefinitiveAbsentError(domain.Domain, interfaces.DNSRecordTypeCNAME))
	f.service.Forget(domain.ID)

	require.NoError(t, f.service.RecheckVerifiedDomains(ctx))

	loaded, err := f.repos.DomainRepository.GetByID(ctx, domain.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.DomainStatusFailed, loaded.Status)
}
