package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"loom/internal/driver"
)

// runSettings is the merged view of persistent flags and the loom.toml
// manifest for one command invocation.
type runSettings struct {
	jobs    int
	quiet   bool
	timings bool
	// cache is nil when disabled by the manifest or unavailable on this
	// machine; runs then parse from scratch.
	cache *driver.Cache
}

// resolveSettings reads the persistent flags, overlays them on the manifest
// and configures global color output. Flags that the user set explicitly win
// over manifest values.
func resolveSettings(cmd *cobra.Command) (*runSettings, error) {
	flags := cmd.Root().PersistentFlags()

	colorValue, err := flags.GetString("color")
	if err != nil {
		return nil, err
	}
	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return nil, err
	}
	timings, err := flags.GetBool("timings")
	if err != nil {
		return nil, err
	}
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return nil, err
	}

	manifest, found, err := loadProjectManifest(".")
	if err != nil {
		return nil, err
	}
	if found {
		if !flags.Changed("jobs") && manifest.Config.Tool.Jobs > 0 {
			jobs = manifest.Config.Tool.Jobs
		}
		if !flags.Changed("color") && manifest.Config.Tool.Color != "" {
			colorValue = manifest.Config.Tool.Color
		}
	}

	switch colorValue {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	default:
		return nil, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorValue)
	}

	settings := &runSettings{
		jobs:    jobs,
		quiet:   quiet,
		timings: timings,
	}
	if manifest.cacheEnabled() {
		if cache, err := driver.OpenCache("loom"); err == nil {
			settings.cache = cache
		}
		// An unopenable cache directory is not fatal.
	}
	return settings, nil
}
