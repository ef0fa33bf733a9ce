package cron

import (
	"os"
	"testing"

	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"k8s.io/client-go/kubernetes"

	"github.com/storelift/domainstack/config"
	"github.com/storelift/domainstack/internal/logger"
	"github.com/storelift/domainstack/services"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestNewCronManager(t *testing.T) {
	// Arrange
	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
	}
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	// Act
	cm := NewCronManager(cfg, log, k8s, &services.Services{})

	// Assert
	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_StartCron(t *testing.T) {
	// Schedules far enough out that nothing fires during the test
	os.Setenv("CRON_SCHEDULE_VERIFY_PENDING", "0 0 0 1 1 *")
	os.Setenv("CRON_SCHEDULE_RECHECK_VERIFIED", "0 0 0 1 1 *")
	defer os.Unsetenv("CRON_SCHEDULE_VERIFY_PENDING")
	defer os.Unsetenv("CRON_SCHEDULE_RECHECK_VERIFIED")

	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
	}
	cm := NewCronManager(cfg, getLogger(), nil, &services.Services{})

	// Act
	cm.StartCron()
	defer cm.cron.Stop()

	// Assert
	assert.NotNil(t, cm.cron)
	_, ok := cm.jobIDs["heartbeat"]
	assert.True(t, ok)
	_, ok = cm.jobIDs["verify_pending"]
	assert.True(t, ok)
	_, ok = cm.jobIDs["recheck_verified"]
	assert.True(t, ok)
}

func TestRegisterJobs_Schedules(t *testing.T) {
	os.Setenv("CRON_SCHEDULE_VERIFY_PENDING", "0 */5 * * * *")
	os.Setenv("CRON_SCHEDULE_RECHECK_VERIFIED", "0 30 * * * *")
	defer os.Unsetenv("CRON_SCHEDULE_VERIFY_PENDING")
	defer os.Unsetenv("CRON_SCHEDULE_RECHECK_VERIFIED")

	cfg := &config.Config{
		AppConfig: &config.AppConfig{},
	}
	cm := NewCronManager(cfg, getLogger(), nil, &services.Services{})

	c := cronv3.New(cronv3.WithSeconds())
	cm.registerJobs(c)

	assert.Len(t, cm.jobIDs, 3)
	_, ok := cm.jobIDs["verify_pending"]
	assert.True(t, ok)
	_, ok = cm.jobIDs["recheck_verified"]
	assert.True(t, ok)
}
