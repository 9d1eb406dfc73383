package config

const (
	defaultStateDir             = "~/.local/share/lectern/state"
	defaultLogDir               = "~/.local/share/lectern/logs"
	defaultAPIBind              = "127.0.0.1:7512"
	defaultCaptureTimeout       = 30
	defaultCourseSitesTimeout   = 10
	defaultRecordingOffsetStart = 5
	defaultRecordingOffsetEnd   = -5
	defaultApprovalPolicy       = "any"
	defaultPassInterval         = 900
	defaultCallTimeout          = 60
	defaultOutboxInterval       = 120
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultAdminName            = "Course Capture Admin"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Capture: Capture{
			RequestTimeout:     defaultCaptureTimeout,
			RecordingOffsetMin: defaultRecordingOffsetStart,
			RecordingOffsetEnd: defaultRecordingOffsetEnd,
		},
		CourseSites: CourseSites{
			RequestTimeout: defaultCourseSitesTimeout,
		},
		Approvals: Approvals{
			Policy: defaultApprovalPolicy,
		},
		Notifications: Notifications{
			Enabled:   false,
			AdminName: defaultAdminName,
		},
		Reconcile: Reconcile{
			PassInterval:   defaultPassInterval,
			CallTimeout:    defaultCallTimeout,
			OutboxInterval: defaultOutboxInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
