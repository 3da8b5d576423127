package config

// Configuration key constants
// These constants centralize all environment variable and configuration key names.
// Config files use the same names, case-insensitively.

const (
	KeyServerURL = "LENS_SERVER_URL"

	// Polling
	KeyEndPollMs        = "LENS_END_POLL_MS"
	KeyBootstrapRetryMs = "LENS_BOOTSTRAP_RETRY_MS"
	KeyAutoscrollMs     = "LENS_AUTOSCROLL_MS"

	// Fetching
	KeyFrameCount            = "LENS_FRAME_COUNT"
	KeyPrefetchFactor        = "LENS_PREFETCH_FACTOR"
	KeyResponseOrdering      = "LENS_RESPONSE_ORDERING"
	KeyRequestTimeoutSeconds = "LENS_REQUEST_TIMEOUT_SECONDS"

	// Window
	KeyInitialMin   = "LENS_INITIAL_MIN"
	KeyInitialWidth = "LENS_INITIAL_WIDTH"
	KeyAutoscroll   = "LENS_AUTOSCROLL"

	KeyHiddenThreads = "LENS_HIDDEN_THREADS"

	// Runtime
	KeyMetricsAddr   = "LENS_METRICS_ADDR"
	KeyStatusSeconds = "LENS_STATUS_SECONDS"
)

// Response ordering modes
const (
	OrderingGeneration = "generation"
	OrderingArrival    = "arrival"
)

// Default values for configuration
const (
	DefaultServerURL = "http://127.0.0.1:61234"

	DefaultEndPollMs        = 250
	DefaultBootstrapRetryMs = 250
	DefaultAutoscrollMs     = 250

	DefaultFrameCount            = 60
	DefaultPrefetchFactor        = 1.05
	DefaultResponseOrdering      = OrderingGeneration
	DefaultRequestTimeoutSeconds = 0

	DefaultInitialMin   = 0.25
	DefaultInitialWidth = 0.05

	DefaultStatusSeconds = 10
)

// CLI flag name constants
const (
	FlagServerURL             = "server-url"
	FlagEndPollMs             = "end-poll-ms"
	FlagBootstrapRetryMs      = "bootstrap-retry-ms"
	FlagAutoscrollMs          = "autoscroll-ms"
	FlagFrameCount            = "frame-count"
	FlagPrefetchFactor        = "prefetch-factor"
	FlagResponseOrdering      = "response-ordering"
	FlagRequestTimeoutSeconds = "request-timeout-seconds"
	FlagInitialMin            = "initial-min"
	FlagInitialWidth          = "initial-width"
	FlagAutoscroll            = "autoscroll"
	FlagHiddenThreads         = "hidden-threads"
	FlagMetricsAddr           = "metrics-addr"
	FlagStatusSeconds         = "status-seconds"

	// Actions, not configuration values
	FlagConfigFile     = "config"
	FlagPrintConfig    = "print-config"
	FlagExport         = "export"
	FlagShutdownServer = "shutdown-server"
	FlagVersion        = "version"
	FlagHelp           = "help"
)

// Help message constants
const (
	AppName        = "lensview"
	AppDescription = "Headless viewer engine for a profiler trace server"
	UsageFormat    = "lensview [OPTIONS]"

	HelpServerURL             = "Trace server base URL"
	HelpEndPollMs             = "Live end polling interval in milliseconds"
	HelpBootstrapRetryMs      = "Initial data retry interval in milliseconds"
	HelpAutoscrollMs          = "Autoscroll tick in milliseconds"
	HelpFrameCount            = "Frames requested per coarse frame query"
	HelpPrefetchFactor        = "Multiplier applied to the end of zone queries"
	HelpResponseOrdering      = "Stale response handling: generation or arrival"
	HelpRequestTimeoutSeconds = "Per-request timeout in seconds, 0 disables"
	HelpInitialMin            = "Initial window start in seconds"
	HelpInitialWidth          = "Initial window width in seconds"
	HelpAutoscroll            = "Follow the live end of the trace"
	HelpHiddenThreads         = "Comma-separated glob patterns of thread names to hide"
	HelpMetricsAddr           = "Serve Prometheus metrics on this address"
	HelpStatusSeconds         = "Status print interval in seconds"
	HelpConfigFile            = "Path to a YAML config file"
	HelpPrintConfig           = "Print the effective configuration as YAML and exit"
	HelpExport                = "Load the initial window, write it to an .xlsx file and exit"
	HelpShutdownServer        = "Ask the trace server to shut down and exit"
	HelpVersion               = "Print version information and exit"
	HelpShowHelp              = "Show this help message"

	HelpOptions         = "Options:"
	HelpEnvironmentVars = "Environment Variables:"
	HelpUsage           = "Usage:"
	HelpNote            = "Note: CLI options override environment variables, which override the config file"
)
