// Command littrcheck runs a snippet through the sandbox from the
// command line: either a single file (or stdin) executed once, or, with
// -i, an interactive REPL that keeps one Sandbox's globals alive across
// lines.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/chonkie-inc/littr"
)

func main() {
	interactive := flag.Bool("i", false, "start an interactive REPL instead of running a file")
	describeTools := flag.Bool("tools", false, "print the registered tool documentation and exit")
	instrLimit := flag.Int("max-instructions", 0, "abort after this many executed instructions (0 = unlimited)")
	recursionLimit := flag.Int("max-recursion", 0, "abort past this call-stack depth (0 = unlimited)")
	flag.Parse()

	sb := littr.WithBuiltins()
	if *instrLimit > 0 || *recursionLimit > 0 {
		sb.SetLimits(*instrLimit, *recursionLimit)
	}

	if *describeTools {
		fmt.Println(sb.DescribeTools())
		return
	}

	if *interactive {
		runREPL(sb)
		return
	}

	src, err := readSource(flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if !run(sb, src, true) {
		os.Exit(1)
	}
}

func readSource(args []string) (string, error) {
	if len(args) == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(b), nil
}

// run executes source on sb, printing captured output and the result
// (when printResult is set) to stdout, or a diagnostic to stderr on
// failure. It reports whether execution succeeded.
func run(sb *littr.Sandbox, src string, printResult bool) bool {
	res, err := sb.ExecuteWithOutput(src)
	for _, line := range res.Printed {
		fmt.Println(line)
	}
	if err != nil {
		reportError(err)
		return false
	}
	if printResult && res.Result != nil {
		fmt.Println(res.Result.String())
	}
	return true
}

func reportError(err error) {
	var se *littr.SandboxError
	if errors.As(err, &se) {
		fmt.Fprintln(os.Stderr, gutterRule())
		fmt.Fprintln(os.Stderr, se.Error())
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
}

// gutterRule draws a separator sized to the terminal's width, so a
// diagnostic's line-numbered gutter and source snippet stay visually
// distinct from whatever was printed before it. Falls back to a
// fixed width when stderr isn't a terminal (piped output, CI logs).
func gutterRule() string {
	width := 60
	if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil && w > 0 {
		width = w
	}
	return strings.Repeat("-", width)
}

func runREPL(sb *littr.Sandbox) {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "readline:", err)
		os.Exit(2)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return
		}
		if line == "" {
			continue
		}
		run(sb, line, true)
	}
}
