package config

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerURL string
	Polling   PollingConfig
	Fetch     FetchConfig
	Window    WindowConfig
	Runtime   RuntimeConfig

	// HiddenThreads are doublestar patterns matched against thread names.
	HiddenThreads []string

	// ConfigFile is the file that contributed values, if any.
	ConfigFile string
}

type PollingConfig struct {
	EndPoll        time.Duration
	BootstrapRetry time.Duration
	Autoscroll     time.Duration
}

type FetchConfig struct {
	FrameCount            int
	PrefetchFactor        float64
	ResponseOrdering      string
	RequestTimeoutSeconds int
}

type WindowConfig struct {
	InitialMin   float64
	InitialWidth float64
	Autoscroll   bool
}

type RuntimeConfig struct {
	MetricsAddr   string
	StatusSeconds int
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Fetch.RequestTimeoutSeconds) * time.Second
}

func (c *Config) StatusInterval() time.Duration {
	return time.Duration(c.Runtime.StatusSeconds) * time.Second
}

// Load resolves configuration from CLI args, environment variables and an
// optional config file, in that order of precedence. When --help is given
// the returned Config is nil and Actions.ShowHelp is set.
func Load(args []string, stdout io.Writer) (*Config, Actions, error) {
	flagSource, actions, err := parseCLIFlags(args)
	if err != nil {
		return nil, actions, err
	}

	if actions.ShowHelp {
		printUsage(stdout)
		return nil, actions, nil
	}
	if actions.ShowVersion {
		return nil, actions, nil
	}

	fileSource, err := NewFileSource(actions.ConfigFile)
	if err != nil {
		return nil, actions, err
	}

	cfg := Resolve(NewConfigResolver(flagSource, &EnvSource{}, fileSource))
	cfg.ConfigFile = fileSource.Used()

	if err := cfg.validate(); err != nil {
		return nil, actions, err
	}
	return cfg, actions, nil
}

// Resolve builds a Config from resolver, falling back to defaults.
func Resolve(resolver *ConfigResolver) *Config {
	return &Config{
		ServerURL: resolver.ResolveString(KeyServerURL, DefaultServerURL),
		Polling: PollingConfig{
			EndPoll:        resolver.ResolveMillis(KeyEndPollMs, DefaultEndPollMs),
			BootstrapRetry: resolver.ResolveMillis(KeyBootstrapRetryMs, DefaultBootstrapRetryMs),
			Autoscroll:     resolver.ResolveMillis(KeyAutoscrollMs, DefaultAutoscrollMs),
		},
		Fetch: FetchConfig{
			FrameCount:            resolver.ResolveInt(KeyFrameCount, DefaultFrameCount),
			PrefetchFactor:        resolver.ResolveFloat(KeyPrefetchFactor, DefaultPrefetchFactor),
			ResponseOrdering:      resolver.ResolveString(KeyResponseOrdering, DefaultResponseOrdering),
			RequestTimeoutSeconds: resolver.ResolveInt(KeyRequestTimeoutSeconds, DefaultRequestTimeoutSeconds),
		},
		Window: WindowConfig{
			InitialMin:   resolver.ResolveFloat(KeyInitialMin, DefaultInitialMin),
			InitialWidth: resolver.ResolveFloat(KeyInitialWidth, DefaultInitialWidth),
			Autoscroll:   resolver.ResolveBool(KeyAutoscroll, false),
		},
		Runtime: RuntimeConfig{
			MetricsAddr:   resolver.ResolveString(KeyMetricsAddr, ""),
			StatusSeconds: resolver.ResolveInt(KeyStatusSeconds, DefaultStatusSeconds),
		},
		HiddenThreads: resolver.ResolveList(KeyHiddenThreads),
	}
}

// Default returns the configuration used when no source sets anything.
func Default() *Config {
	return Resolve(NewConfigResolver())
}

// WriteYAML writes the effective configuration in the format NewFileSource
// reads, so the output can be saved and used as a config file.
func (c *Config) WriteYAML(w io.Writer) error {
	doc := map[string]interface{}{
		KeyServerURL:             c.ServerURL,
		KeyEndPollMs:             c.Polling.EndPoll.Milliseconds(),
		KeyBootstrapRetryMs:      c.Polling.BootstrapRetry.Milliseconds(),
		KeyAutoscrollMs:          c.Polling.Autoscroll.Milliseconds(),
		KeyFrameCount:            c.Fetch.FrameCount,
		KeyPrefetchFactor:        c.Fetch.PrefetchFactor,
		KeyResponseOrdering:      c.Fetch.ResponseOrdering,
		KeyRequestTimeoutSeconds: c.Fetch.RequestTimeoutSeconds,
		KeyInitialMin:            c.Window.InitialMin,
		KeyInitialWidth:          c.Window.InitialWidth,
		KeyAutoscroll:            c.Window.Autoscroll,
		KeyMetricsAddr:           c.Runtime.MetricsAddr,
		KeyStatusSeconds:         c.Runtime.StatusSeconds,
	}
	hidden := c.HiddenThreads
	if hidden == nil {
		hidden = []string{}
	}
	doc[KeyHiddenThreads] = hidden

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
