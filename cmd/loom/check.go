package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"loom/internal/affine"
	"loom/internal/driver"
	"loom/internal/ir"
	"loom/internal/observ"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path...]",
	Short: "Parse inputs, assemble a module and verify it",
	Long: `Check parses .affine inputs, interns every map into one context,
assembles a module that applies each map and runs the module verifier`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	checkCmd.Flags().String("name", "check", "module name")
	checkCmd.Flags().Bool("emit-module", false, "print the verified module to stdout")
}

// checkOutcome carries everything the reporting tail needs from one pipeline
// run.
type checkOutcome struct {
	result    *driver.Result
	module    *ir.Module
	verifyErr *ir.VerifyError
	timer     *observ.Timer
}

func runCheck(cmd *cobra.Command, args []string) error {
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	moduleName, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}
	emitModule, err := cmd.Flags().GetBool("emit-module")
	if err != nil {
		return err
	}
	settings, err := resolveSettings(cmd)
	if err != nil {
		return err
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	files, err := collectInputFiles(args)
	if err != nil {
		return err
	}

	run := func(sink driver.ProgressSink) (*checkOutcome, error) {
		return runCheckPipeline(cmd.Context(), moduleName, files, settings, sink)
	}

	var outcome *checkOutcome
	if shouldUseTUI(uiModeValue) && len(files) > 0 {
		outcome, err = runCheckWithUI("loom check", files, run)
	} else {
		outcome, err = run(nil)
	}
	if err != nil {
		if settings.timings && outcome != nil {
			fmt.Fprint(os.Stdout, outcome.timer.Summary())
		}
		return err
	}

	res := outcome.result
	reportFileFaults(os.Stderr, res)
	if settings.timings {
		fmt.Fprint(os.Stdout, outcome.timer.Summary())
	}

	if sumErr := faultSummary(res); sumErr != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failTag(), sumErr)
		cmd.SilenceErrors = true
		return sumErr
	}
	if outcome.verifyErr != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failTag(), outcome.verifyErr)
		cmd.SilenceErrors = true
		return fmt.Errorf("module @%s failed verification", moduleName)
	}

	if emitModule {
		outcome.module.Print(cmd.OutOrStdout())
	}
	if !settings.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d files, %d maps (%d distinct), module @%s verified\n",
			okTag(), len(res.Files), res.Parsed, res.Distinct, moduleName)
	}
	return nil
}

// runCheckPipeline runs parse, intern and verify over files, reporting
// progress to sink. Parse faults short-circuit: a module is only assembled
// from fully clean input.
func runCheckPipeline(ctx context.Context, name string, files []string, settings *runSettings, sink driver.ProgressSink) (*checkOutcome, error) {
	timer := observ.NewTimer()
	outcome := &checkOutcome{timer: timer}
	actx := affine.NewContext()

	endParse := timer.Begin("parse")
	res, err := driver.ParseFiles(ctx, actx, files, driver.Options{
		Jobs:  settings.jobs,
		Cache: settings.cache,
		Sink:  sink,
	})
	endParse(fmt.Sprintf("%d files", len(files)))
	outcome.result = res
	if err != nil {
		return outcome, err
	}
	if res.BadLines > 0 || res.BadFiles > 0 {
		return outcome, nil
	}

	notify := func(evt driver.Event) {
		if sink != nil {
			sink.OnEvent(evt)
		}
	}

	endIntern := timer.Begin("intern")
	internStart := time.Now()
	notify(driver.Event{Stage: driver.StageIntern, Status: driver.StatusWorking})
	outcome.module = assembleModule(actx, name, res)
	notify(driver.Event{Stage: driver.StageIntern, Status: driver.StatusDone, Elapsed: time.Since(internStart)})
	endIntern(fmt.Sprintf("%d maps", res.Parsed))

	endVerify := timer.Begin("verify")
	verifyStart := time.Now()
	notify(driver.Event{Stage: driver.StageVerify, Status: driver.StatusWorking})
	outcome.verifyErr = verifyModule(outcome.module)
	evt := driver.Event{Stage: driver.StageVerify, Status: driver.StatusDone, Elapsed: time.Since(verifyStart)}
	if outcome.verifyErr != nil {
		evt.Status = driver.StatusError
		evt.Err = outcome.verifyErr
	}
	notify(evt)
	endVerify(fmt.Sprintf("%d funcs", len(outcome.module.Funcs())))

	return outcome, nil
}

// assembleModule builds one function per input file; each function applies
// the file's maps in line order over freshly materialized constant operands.
func assembleModule(actx *affine.Context, name string, res *driver.Result) *ir.Module {
	mod := ir.NewModule(actx, name)
	bld := ir.NewBuilder(mod)
	used := make(map[string]int)
	for i := range res.Files {
		f := &res.Files[i]
		bld.Func(funcNameFor(f.Path, used), 0)
		for _, mp := range f.Maps {
			dims := make([]ir.ValueID, mp.NumDims())
			for d := range dims {
				dims[d] = bld.Constant(int64(d))
			}
			syms := make([]ir.ValueID, mp.NumSymbols())
			for s := range syms {
				syms[s] = bld.Constant(int64(s))
			}
			bld.Apply(mp, dims, syms)
		}
	}
	return mod
}

// funcNameFor derives a function name from an input path, uniqued across the
// module.
func funcNameFor(path string, used map[string]int) string {
	base := strings.TrimSuffix(filepath.Base(path), ".affine")
	var sb strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	name := sb.String()
	if strings.Trim(name, "_") == "" {
		name = "input"
	}
	used[name]++
	if n := used[name]; n > 1 {
		name = fmt.Sprintf("%s_%d", name, n)
	}
	return name
}

// verifyModule runs the fatal verifier and converts its panic back into a
// value; the CLI is the outermost layer and owns the user-facing report.
func verifyModule(mod *ir.Module) (verr *ir.VerifyError) {
	defer func() {
		if r := recover(); r != nil {
			v, ok := r.(*ir.VerifyError)
			if !ok {
				panic(r)
			}
			verr = v
		}
	}()
	mod.Verify()
	return nil
}

func okTag() string   { return color.New(color.FgGreen, color.Bold).Sprint("ok") }
func failTag() string { return color.New(color.FgRed, color.Bold).Sprint("FAIL") }
