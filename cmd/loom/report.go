package main

import (
	"fmt"
	"io"

	"loom/internal/driver"
)

// reportFileFaults prints every file-level and line-level fault of the run,
// one per line, in file order.
func reportFileFaults(out io.Writer, res *driver.Result) {
	for i := range res.Files {
		f := &res.Files[i]
		if f.Err != nil {
			fmt.Fprintln(out, f.Err)
		}
		for _, le := range f.Errs {
			fmt.Fprintf(out, "%s:%d: %v\n", f.Path, le.Line, le.Err)
		}
	}
}

// faultSummary returns a short error describing the run's faults, or nil when
// the run was clean.
func faultSummary(res *driver.Result) error {
	switch {
	case res.BadFiles > 0 && res.BadLines > 0:
		return fmt.Errorf("%d unreadable files, %d bad lines", res.BadFiles, res.BadLines)
	case res.BadFiles > 0:
		return fmt.Errorf("%d unreadable files", res.BadFiles)
	case res.BadLines > 0:
		return fmt.Errorf("%d bad lines", res.BadLines)
	}
	return nil
}
