package config

import (
	"flag"
	"fmt"
	"io"
)

// Actions are one-shot requests from the command line that are not part of
// the resolved configuration.
type Actions struct {
	ShowHelp       bool
	ShowVersion    bool
	PrintConfig    bool
	ShutdownServer bool
	ExportPath     string
	ConfigFile     string
}

// flagKeys maps value flags to the configuration key they set.
var flagKeys = map[string]string{
	FlagServerURL:             KeyServerURL,
	FlagEndPollMs:             KeyEndPollMs,
	FlagBootstrapRetryMs:      KeyBootstrapRetryMs,
	FlagAutoscrollMs:          KeyAutoscrollMs,
	FlagFrameCount:            KeyFrameCount,
	FlagPrefetchFactor:        KeyPrefetchFactor,
	FlagResponseOrdering:      KeyResponseOrdering,
	FlagRequestTimeoutSeconds: KeyRequestTimeoutSeconds,
	FlagInitialMin:            KeyInitialMin,
	FlagInitialWidth:          KeyInitialWidth,
	FlagAutoscroll:            KeyAutoscroll,
	FlagHiddenThreads:         KeyHiddenThreads,
	FlagMetricsAddr:           KeyMetricsAddr,
	FlagStatusSeconds:         KeyStatusSeconds,
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.String(FlagServerURL, "", HelpServerURL)
	fs.Int(FlagEndPollMs, 0, HelpEndPollMs)
	fs.Int(FlagBootstrapRetryMs, 0, HelpBootstrapRetryMs)
	fs.Int(FlagAutoscrollMs, 0, HelpAutoscrollMs)
	fs.Int(FlagFrameCount, 0, HelpFrameCount)
	fs.Float64(FlagPrefetchFactor, 0, HelpPrefetchFactor)
	fs.String(FlagResponseOrdering, "", HelpResponseOrdering)
	fs.Int(FlagRequestTimeoutSeconds, 0, HelpRequestTimeoutSeconds)
	fs.Float64(FlagInitialMin, 0, HelpInitialMin)
	fs.Float64(FlagInitialWidth, 0, HelpInitialWidth)
	fs.Bool(FlagAutoscroll, false, HelpAutoscroll)
	fs.String(FlagHiddenThreads, "", HelpHiddenThreads)
	fs.String(FlagMetricsAddr, "", HelpMetricsAddr)
	fs.Int(FlagStatusSeconds, 0, HelpStatusSeconds)

	fs.String(FlagConfigFile, "", HelpConfigFile)
	fs.Bool(FlagPrintConfig, false, HelpPrintConfig)
	fs.String(FlagExport, "", HelpExport)
	fs.Bool(FlagShutdownServer, false, HelpShutdownServer)
	fs.Bool(FlagVersion, false, HelpVersion)
	fs.Bool(FlagHelp, false, HelpShowHelp)
	return fs
}

// parseCLIFlags parses args (without the program name). Only flags that were
// given explicitly end up in the FlagSource, so a zero value on the command
// line still overrides the environment.
func parseCLIFlags(args []string) (*FlagSource, Actions, error) {
	flagSource := NewFlagSource()
	var actions Actions

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			actions.ShowHelp = true
			return flagSource, actions, nil
		}
		return nil, actions, fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() > 0 {
		return nil, actions, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	fs.Visit(func(f *flag.Flag) {
		value := f.Value.(flag.Getter).Get()
		switch f.Name {
		case FlagHelp:
			actions.ShowHelp = value.(bool)
		case FlagVersion:
			actions.ShowVersion = value.(bool)
		case FlagPrintConfig:
			actions.PrintConfig = value.(bool)
		case FlagShutdownServer:
			actions.ShutdownServer = value.(bool)
		case FlagExport:
			actions.ExportPath = value.(string)
		case FlagConfigFile:
			actions.ConfigFile = value.(string)
		default:
			if key, ok := flagKeys[f.Name]; ok {
				flagSource.Set(key, value)
			}
		}
	})

	return flagSource, actions, nil
}

// printUsage prints the usage message
func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%s - %s\n", AppName, AppDescription)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpUsage)
	fmt.Fprintf(w, "  %s\n", UsageFormat)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpOptions)

	fs := newFlagSet()
	fs.VisitAll(func(f *flag.Flag) {
		name, usage := flag.UnquoteUsage(f)
		fmt.Fprintf(w, "  --%-28s %s\n", f.Name+" "+name, usage)
	})

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpEnvironmentVars)
	for _, flagName := range sortedFlagNames() {
		fmt.Fprintf(w, "  %-30s --%s\n", flagKeys[flagName], flagName)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s\n", HelpNote)
}

func sortedFlagNames() []string {
	var names []string
	newFlagSet().VisitAll(func(f *flag.Flag) {
		if _, ok := flagKeys[f.Name]; ok {
			names = append(names, f.Name)
		}
	})
	return names
}
