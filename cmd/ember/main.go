// Command ember is the file/REPL driver for the Ember bytecode interpreter.
// It is a thin shell around internal/vm: compile, run, report the exit code.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"

	"github.com/emberlang/ember/internal/config"
	"github.com/emberlang/ember/internal/vm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches to file mode or REPL mode and returns the process exit code
// per §6: 0 on success, 65 on compile error, 70 on runtime error.
func run(args []string) int {
	debugMode := false
	var path string
	for _, arg := range args {
		switch arg {
		case "-debug", "--debug":
			debugMode = true
		default:
			if path == "" {
				path = arg
			}
		}
	}

	if path == "" {
		if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
			return repl(debugMode)
		}
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading stdin: %s\n", err)
			return 1
		}
		return runSource(string(source), ".", debugMode)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %s\n", path, err)
		return 1
	}

	return runSource(string(source), filepath.Dir(path), debugMode)
}

// runSource compiles and interprets source with tuning loaded from an
// optional ember.yaml in scriptDir.
func runSource(source string, scriptDir string, debugMode bool) int {
	machine := newVM(scriptDir, debugMode)
	switch machine.Interpret(source) {
	case vm.InterpretCompileError:
		return 65
	case vm.InterpretRuntimeError:
		return 70
	default:
		return 0
	}
}

// newVM loads ember.yaml (if present) from scriptDir and constructs a VM
// tuned accordingly.
func newVM(scriptDir string, debugMode bool) *vm.VM {
	cfgPath, err := config.FindVMConfig(scriptDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
	}

	cfg := config.DefaultVMConfig()
	if cfgPath != "" {
		cfg, err = config.LoadVMConfig(cfgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", err)
			cfg = config.DefaultVMConfig()
		}
	}

	flags := &vm.DebugFlags{
		PrintCode:      cfg.PrintCode || debugMode,
		TraceExecution: cfg.TraceExecution || debugMode,
		StressGC:       cfg.StressGC,
		LogGC:          cfg.LogGC,
	}
	tuning := vm.Tuning{
		InitialStackSize: cfg.InitialStackSize,
		MaxFrames:        cfg.MaxFrames,
		InitialNextGC:    cfg.InitialNextGC,
		GCGrowthFactor:   cfg.GCGrowthFactor,
	}
	return vm.NewVMWithTuning(flags, tuning)
}

// repl runs an interactive read-eval-print loop, sharing one VM (and so one
// set of globals) across lines, persisting each submitted line to the local
// history database.
func repl(debugMode bool) int {
	machine := newVM(".", debugMode)

	hist, err := openHistory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history unavailable: %s\n", err)
	}
	if hist != nil {
		defer hist.Close()
	}

	fmt.Printf("Ember %s\n", config.Version)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return 0
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		if line == ":history" {
			printHistory(hist)
			continue
		}

		if hist != nil {
			if err := hist.Append(line); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: could not save history: %s\n", err)
			}
		}

		machine.Interpret(line)
	}
}

// printHistory prints the last 10 submitted lines, most recent last, in
// response to the REPL's ":history" meta-command.
func printHistory(hist *History) {
	if hist == nil {
		fmt.Println("history unavailable")
		return
	}
	lines, err := hist.Recent(10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read history: %s\n", err)
		return
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}
