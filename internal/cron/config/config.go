package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Verification sweep over pending and failed domains, every 10 minutes
	CronScheduleVerifyPending string `env:"CRON_SCHEDULE_VERIFY_PENDING" envDefault:"0 */10 * * * *"`
	// Re-check of verified domains, hourly
	CronScheduleRecheckVerified string `env:"CRON_SCHEDULE_RECHECK_VERIFIED" envDefault:"0 0 * * * *"`
}
