package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xyproto/env/v2"
	"modernc.org/libqbe"
)

type Feature int

const (
	FeatBuiltin Feature = iota
	FeatStrictTypes
	FeatDeferReturn
	FeatMethodCalls
	FeatFold
	FeatCComments
	FeatCount
)

type Warning int

const (
	WarnType Warning = iota
	WarnOverflow
	WarnShadow
	WarnReimport
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features     map[Feature]Info
	Warnings     map[Warning]Info
	FeatureMap   map[string]Feature
	WarningMap   map[string]Warning
	StdName      string
	TargetArch   string
	QbeTarget    string
	WordSize     int
	IncludePaths []string
	CacheDir     string
	StdRoot      string
	Color        bool
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		WordSize:   8,
		StdName:    "imp",
	}

	features := map[Feature]Info{
		FeatBuiltin:     {"builtin", true, "Implicitly import 'base/builtin.imp' into the root file."},
		FeatStrictTypes: {"strict-types", true, "Treat call-site and assignment type mismatches as errors."},
		FeatDeferReturn: {"defer-return", true, "Replay pending defer blocks before every 'return'."},
		FeatMethodCalls: {"method-calls", true, "Allow 'v.method(args)' calls on struct variables."},
		FeatFold:        {"fold", true, "Fold constant integer-literal arithmetic at parse time."},
		FeatCComments:   {"c-comments", true, "Recognize C-style '//' line comments."},
	}

	warnings := map[Warning]Info{
		WarnType:     {"type", true, "Warn about type mismatches when strict-types is off."},
		WarnOverflow: {"overflow", true, "Warn when a folded integer literal does not fit in a word."},
		WarnShadow:   {"shadow", false, "Warn when a declaration shadows a name from an enclosing block."},
		WarnReimport: {"reimport", false, "Warn when a file is imported more than once."},
		WarnPedantic: {"pedantic", false, "Issue all warnings demanded by the strict profile."},
		WarnExtra:    {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	cfg.loadEnv()
	return cfg
}

// loadEnv picks up IMPULSE_* overrides. Command line flags applied later win.
// The env cache is reloaded so variables set after startup are seen.
func (c *Config) loadEnv() {
	env.Load()
	if paths := env.Str("IMPULSE_PATH"); paths != "" {
		c.IncludePaths = append(c.IncludePaths, filepath.SplitList(paths)...)
	}
	c.CacheDir = env.Str("IMPULSE_CACHE", defaultCacheDir())
	c.StdRoot = env.Str("IMPULSE_STD")
	c.Color = !env.Bool("NO_COLOR")
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "impc")
	}
	return filepath.Join(os.TempDir(), "impc")
}

// SetTarget records the host target. The word size bounds folded integer literals.
func (c *Config) SetTarget(goos, goarch, qbeTarget string) {
	if qbeTarget == "" {
		c.QbeTarget = libqbe.DefaultTarget(goos, goarch)
	} else {
		c.QbeTarget = qbeTarget
	}

	c.TargetArch = goarch

	switch c.QbeTarget {
	case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
		c.WordSize = 8
	case "arm", "rv32":
		c.WordSize = 4
	default:
		fmt.Fprintf(os.Stderr, "impc: warning: unrecognized target '%s', assuming 64-bit words.\n", c.QbeTarget)
		c.WordSize = 8
	}
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

func (c *Config) ApplyStd(stdName string) error {
	c.StdName = stdName
	isPedantic := c.IsWarningEnabled(WarnPedantic)

	type stdSettings struct {
		feature   Feature
		impValue  bool
		strictVal bool
	}

	settings := []stdSettings{
		{FeatStrictTypes, true, true},
		{FeatMethodCalls, !isPedantic, false},
		{FeatDeferReturn, true, true},
		{FeatFold, true, true},
	}

	switch stdName {
	case "imp":
		for _, s := range settings {
			c.SetFeature(s.feature, s.impValue)
		}
	case "imp-strict":
		for _, s := range settings {
			c.SetFeature(s.feature, s.strictVal)
		}
		c.SetWarning(WarnShadow, true)
		c.SetWarning(WarnReimport, true)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'imp', 'imp-strict'", stdName)
	}
	return nil
}
