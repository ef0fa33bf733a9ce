package domain

import (
	"context"
	"fmt"
	"testing"

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

type stubVerificationService struct {
	forgotten []string
}

func (s *stubVerificationService) RequestVerification(ctx context.Context, domainID string, manual bool) (*interfaces.VerificationResult, error) {
	return &interfaces.VerificationResult{DomainID: domainID, Outcome: enum.OutcomeInconclusive}, nil
}

func (s *stubVerificationService) VerifyPendingDomains(ctx context.Context) error   { return nil }
func (s *stubVerificationService) RecheckVerifiedDomains(ctx context.Context) error { return nil }

func (s *stubVerificationService) Forget(domainID string) {
	s.forgotten = append(s.forgotten, domainID)
}

type fixture struct {
	service      interfaces.DomainService
	repos        *repository.Repositories
	verification *stubVerificationService
}

func setup(t *testing.T) *fixture {
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
		CNAMETarget: "edge.storelift.app",
		EdgeIPs:     []string{"76.76.21.21", "76.76.21.22"},
		TXTLabel:    "_storelift",
	}

	repos := repository.InitRepositories(db)
	verification := &stubVerificationService{}

	return &fixture{
		service:      NewDomainService(cfg, appLogger, repos, verification, nil),
		repos:        repos,
		verification: verification,
	}
}

func tenantCtx(tenant string) context.Context {
	return utils.WithCustomContext(context.Background(), &utils.CustomContext{
		AppSource: "domainstack",
		Tenant:    tenant,
	})
}

func TestAddDomain(t *testing.T) {
	f := setup(t)

	domain, err := f.service.AddDomain(tenantCtx("tenant-a"), "Shop.Example.COM.", "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, "shop.example.com", domain.Domain)
	assert.Equal(t, "tenant-a", domain.Tenant)
	assert.Equal(t, enum.DomainStatusPending, domain.Status)
	assert.NotEmpty(t, domain.VerificationToken)
	assert.Equal(t, "https://example.com", domain.RedirectURL)
}

func TestAddDomain_TenantMissing(t *testing.T) {
	f := setup(t)

	_, err := f.service.AddDomain(context.Background(), "shop.example.com", "")
	assert.ErrorIs(t, err, internalerrors.ErrTenantMissing)
}

func TestAddDomain_InvalidHostname(t *testing.T) {
	f := setup(t)

	for _, hostname := range []string{"", "not a domain", "*.example.com", "nodots"} {
		_, err := f.service.AddDomain(tenantCtx("tenant-a"), hostname, "")
		assert.ErrorIs(t, err, internalerrors.ErrInvalidHostname, "hostname %q", hostname)
	}
}

func TestAddDomain_Duplicate(t *testing.T) {
	f := setup(t)

	_, err := f.service.AddDomain(tenantCtx("tenant-a"), "shop.example.com", "")
	require.NoError(t, err)

	// duplicates are global, not per tenant
	_, err = f.service.AddDomain(tenantCtx("tenant-b"), "shop.example.com", "")
	assert.ErrorIs(t, err, internalerrors.ErrDuplicateDomain)
}

func TestGetDomain_CrossTenantHidden(t *testing.T) {
	f := setup(t)

	domain, err := f.service.AddDomain(tenantCtx("tenant-a"), "shop.example.com", "")
	require.NoError(t, err)

	loaded, err := f.service.GetDomain(tenantCtx("tenant-a"), domain.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ID, loaded.ID)

	_, err = f.service.GetDomain(tenantCtx("tenant-b"), domain.ID)
	assert.ErrorIs(t, err, internalerrors.ErrDomainNotFound)
}

func TestUpdateDomain(t *testing.T) {
	f := setup(t)

	domain, err := f.service.AddDomain(tenantCtx("tenant-a"), "shop.example.com", "")
	require.NoError(t, err)

	updated, err := f.service.UpdateDomain(tenantCtx("tenant-a"), domain.ID, utils.StringPtr("https://example.com/new"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new", updated.RedirectURL)

	// nil redirect means no change
	updated, err = f.service.UpdateDomain(tenantCtx("tenant-a"), domain.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new", updated.RedirectURL)
}

func TestDeleteDomain(t *testing.T) {
	f := setup(t)

	domain, err := f.service.AddDomain(tenantCtx("tenant-a"), "shop.example.com", "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.DeleteDomain(tenantCtx("tenant-b"), domain.ID), internalerrors.ErrDomainNotFound)

	require.NoError(t, f.service.DeleteDomain(tenantCtx("tenant-a"), domain.ID))
	assert.Equal(t, []string{domain.ID}, f.verification.forgotten)

	_, err = f.service.GetDomain(tenantCtx("tenant-a"), domain.ID)
	assert.ErrorIs(t, err, internalerrors.ErrDomainNotFound)
}

func TestSetPrimaryDomain(t *testing.T) {
	f := setup(t)
	ctx := tenantCtx("tenant-a")

	domain, err := f.service.AddDomain(ctx, "shop.example.com", "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.SetPrimaryDomain(ctx, domain.ID), internalerrors.ErrNotVerified)

	_, err = f.repos.DomainRepository.ApplyVerificationResult(ctx, domain.ID, enum.DomainStatusVerified, "", utils.Now())
	require.NoError(t, err)

	require.NoError(t, f.service.SetPrimaryDomain(ctx, domain.ID))

	loaded, err := f.service.GetDomain(ctx, domain.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsPrimary)
}

func TestRequiredDNSRecords_Subdomain(t *testing.T) {
	f := setup(t)
	ctx := tenantCtx("tenant-a")

	domain, err := f.service.AddDomain(ctx, "shop.example.com", "")
	require.NoError(t, err)

	records, err := f.service.RequiredDNSRecords(ctx, domain.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, interfaces.DomainDNSRecord{
		Type:  "CNAME",
		Name:  "shop.example.com",
		Value: "edge.storelift.app",
	}, records[0])
	assert.Equal(t, interfaces.DomainDNSRecord{
		Type:  "TXT",
		Name:  "_storelift.shop.example.com",
		Value: domain.VerificationToken,
	}, records[1])
}

func TestRequiredDNSRecords_Apex(t *testing.T) {
	f := setup(t)
	ctx := tenantCtx("tenant-a")

	domain, err := f.service.AddDomain(ctx, "example.com", "")
	require.NoError(t, err)

	records, err := f.service.RequiredDNSRecords(ctx, domain.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// one A record per edge IP, never a CNAME
	assert.Equal(t, "A", records[0].Type)
	assert.Equal(t, "76.76.21.21", records[0].Value)
	assert.Equal(t, "A", records[1].Type)
	assert.Equal(t, "76.76.21.22", records[1].Value)
	assert.Equal(t, "TXT", records[2].Type)
}
