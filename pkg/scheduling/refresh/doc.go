// Package refresh re-runs content loads on cron schedules.
//
// A typical job rebinds a BackedStream to a fresh network stream so every
// listener sees updated content:
//
//	r, _ := refresh.New(exec)
//	_ = r.Schedule("announcements", "@every 10m", announcements.Reload)
//	r.Start()
//	defer r.Stop()
package refresh
