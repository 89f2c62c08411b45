// Command tio is a serial device terminal program. It connects stdin
// and stdout to a tty device, translating and rendering bytes in
// either direction per the active configuration (internal/config),
// with an in-band prefix-key command plane (internal/command) driving
// the connection engine (internal/engine).
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/tio-term/tio/internal/config"
	"github.com/tio-term/tio/internal/diag"
	"github.com/tio-term/tio/internal/engine"
	"github.com/tio-term/tio/internal/script"
)

func main() {
	os.Exit(run())
}

func run() int {
	result, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "tio: %v\n", err)
		return 1
	}
	if result.ShowHelp {
		return 0
	}
	if result.ShowVersion {
		fmt.Printf("tio %s\n", config.Version)
		return 0
	}
	if result.Opts.CompleteSubConfigs {
		names, err := config.ListSubConfigNames()
		if err != nil {
			fmt.Fprintf(os.Stderr, "tio: %v\n", err)
			return 1
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return 0
	}

	opts := result.Opts
	d := diag.New()
	if opts.Mute {
		d.SetOutput(io.Discard)
	}

	e := engine.New(opts, d)
	defer e.Close()

	if opts.ScriptSource != "" || opts.ScriptFilename != "" {
		e.Script = script.New(e)
		defer e.Script.Close()
	}

	restore := makeRaw()
	defer restore()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return e.Run(ctx)
}

// makeRaw puts stdin into raw mode when it is a terminal, returning a
// function that restores it. On a non-terminal stdin (piped input,
// used by scripted sessions) it is a no-op.
func makeRaw() func() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}
	old, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}
	}
	return func() { term.Restore(fd, old) }
}
