package config

const (
	defaultWorkDir            = "~/.local/share/foldersort/work"
	defaultLogDir             = "~/.local/share/foldersort/logs"
	defaultStateDir           = "~/.local/share/foldersort/state"
	defaultAPIBind            = "127.0.0.1:8765"
	defaultLockTimeoutSeconds = 10
	defaultMaxUploadMiB       = 512
	defaultMaxEntries         = 10000
	defaultMaxUncompressedMiB = 2048
	defaultStaleJobHours      = 24
	defaultPublishPrefix      = "sorted"
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
)

// Default returns a Config populated with repository defaults. Rules are left
// empty so the built-in tables apply.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
			APIBind:  defaultAPIBind,
		},
		Sorting: Sorting{
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
		},
		Archive: Archive{
			MaxUploadMiB:       defaultMaxUploadMiB,
			MaxEntries:         defaultMaxEntries,
			MaxUncompressedMiB: defaultMaxUncompressedMiB,
			StaleJobHours:      defaultStaleJobHours,
		},
		Publish: Publish{
			UseSSL: true,
			Prefix: defaultPublishPrefix,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
			NotifyOnSuccess:       true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
