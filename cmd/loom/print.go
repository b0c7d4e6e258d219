package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/affine"
	"loom/internal/driver"
)

var printCmd = &cobra.Command{
	Use:   "print [flags] [path...]",
	Short: "Print affine maps in canonical form",
	Long:  `Print parses .affine inputs and writes each map back in its canonical rendering`,
	RunE:  runPrint,
}

func init() {
	printCmd.Flags().Bool("distinct", false, "print each canonical map once")
}

func runPrint(cmd *cobra.Command, args []string) error {
	distinct, err := cmd.Flags().GetBool("distinct")
	if err != nil {
		return err
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	files, err := collectInputFiles(args)
	if err != nil {
		return err
	}

	actx := affine.NewContext()
	res, err := driver.ParseFiles(cmd.Context(), actx, files, driver.Options{
		Jobs:  settings.jobs,
		Cache: settings.cache,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if distinct {
		// Handle identity is map identity, so a plain set dedups across
		// files.
		seen := make(map[affine.Map]struct{}, res.Distinct)
		for i := range res.Files {
			for _, mp := range res.Files[i].Maps {
				if _, ok := seen[mp]; ok {
					continue
				}
				seen[mp] = struct{}{}
				fmt.Fprintln(out, mp)
			}
		}
	} else {
		for i := range res.Files {
			f := &res.Files[i]
			if len(res.Files) > 1 && !settings.quiet && len(f.Maps) > 0 {
				fmt.Fprintf(out, "// %s\n", f.Path)
			}
			for _, mp := range f.Maps {
				fmt.Fprintln(out, mp)
			}
		}
	}

	reportFileFaults(os.Stderr, res)
	return faultSummary(res)
}
