// Command lathe evaluates a lathe script and prints the resulting meshes.
//
// Usage:
//
//	lathe [-json] [-v] [script]
//
// The script is read from standard input when no path is given. By default
// one summary line is printed per part; -json writes the full mesh payload.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chazu/lathe/pkg/kernel"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is main without process globals. It returns the exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lathe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	jsonOut := fs.Bool("json", false, "write meshes as JSON")
	verbose := fs.Bool("v", false, "log debug output to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	kernel.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer kernel.SetLogger(nil)

	source, err := readSource(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "lathe: %v\n", err)
		return 1
	}

	result := NewApp().Evaluate(string(source))
	for _, w := range result.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w.Message)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			if e.Line > 0 {
				fmt.Fprintf(stderr, "error: line %d: %s\n", e.Line, e.Message)
			} else {
				fmt.Fprintf(stderr, "error: %s\n", e.Message)
			}
		}
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(stdout)
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "lathe: %v\n", err)
			return 1
		}
		return 0
	}

	for _, m := range result.Meshes {
		fmt.Fprintf(stdout, "%s\tvertices=%d\ttriangles=%d\tbounds=%.3g..%.3g\n",
			m.PartName, len(m.Vertices)/3, len(m.Indices)/3, m.Min, m.Max)
	}
	return 0
}

// readSource reads the script at path, or stdin when path is empty or "-".
func readSource(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
