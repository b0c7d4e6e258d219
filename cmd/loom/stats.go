package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"loom/internal/affine"
	"loom/internal/driver"
	"loom/internal/observ"
)

var statsCmd = &cobra.Command{
	Use:   "stats [flags] [path...]",
	Short: "Show interner statistics for a set of inputs",
	Long:  `Stats parses .affine inputs and reports how far structural uniquing deduplicated them`,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

type statsPayload struct {
	Files         int            `json:"files"`
	ParsedMaps    int            `json:"parsed_maps"`
	DistinctMaps  int            `json:"distinct_maps"`
	DistinctExprs int            `json:"distinct_exprs"`
	MapHits       uint64         `json:"map_hits"`
	CacheHits     int            `json:"cache_hits"`
	BadLines      int            `json:"bad_lines,omitempty"`
	BadFiles      int            `json:"bad_files,omitempty"`
	Timings       *observ.Report `json:"timings,omitempty"`
}

func runStats(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	switch format {
	case "pretty", "json":
		// supported
	default:
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
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

	timer := observ.NewTimer()
	actx := affine.NewContext()

	endParse := timer.Begin("parse")
	res, err := driver.ParseFiles(cmd.Context(), actx, files, driver.Options{
		Jobs:  settings.jobs,
		Cache: settings.cache,
	})
	endParse(fmt.Sprintf("%d files", len(files)))
	if err != nil {
		return err
	}

	st := actx.Stats()
	payload := statsPayload{
		Files:         len(res.Files),
		ParsedMaps:    res.Parsed,
		DistinctMaps:  st.Maps,
		DistinctExprs: st.Exprs,
		MapHits:       st.MapHits,
		CacheHits:     res.CacheHits,
		BadLines:      res.BadLines,
		BadFiles:      res.BadFiles,
	}
	if settings.timings {
		report := timer.Report()
		payload.Timings = &report
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "%-15s %d\n", "files", payload.Files)
		fmt.Fprintf(out, "%-15s %d\n", "parsed maps", payload.ParsedMaps)
		fmt.Fprintf(out, "%-15s %d\n", "distinct maps", payload.DistinctMaps)
		fmt.Fprintf(out, "%-15s %d\n", "distinct exprs", payload.DistinctExprs)
		fmt.Fprintf(out, "%-15s %d\n", "map hits", payload.MapHits)
		fmt.Fprintf(out, "%-15s %d\n", "cache hits", payload.CacheHits)
		if payload.BadLines > 0 {
			fmt.Fprintf(out, "%-15s %d\n", "bad lines", payload.BadLines)
		}
		if payload.BadFiles > 0 {
			fmt.Fprintf(out, "%-15s %d\n", "bad files", payload.BadFiles)
		}
		if settings.timings {
			fmt.Fprint(out, timer.Summary())
		}
	}

	reportFileFaults(os.Stderr, res)
	return faultSummary(res)
}
