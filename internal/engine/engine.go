// Package engine implements the connection loop (spec.md §4.8): the
// select-driven mediator that multiplexes the tty, the stdin pump and
// an optional mirror socket against the serial device, orchestrating
// reconnect-on-unplug, timestamping, logging, and the in-band command
// plane. The original select(2)-over-fds loop becomes goroutines
// feeding channels, multiplexed with an ordinary Go select (spec.md §9
// design note: preserve the two-thread shape, translate the fd set).
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tio-term/tio/internal/command"
	"github.com/tio-term/tio/internal/config"
	"github.com/tio-term/tio/internal/diag"
	"github.com/tio-term/tio/internal/lines"
	"github.com/tio-term/tio/internal/logtap"
	"github.com/tio-term/tio/internal/mirror"
	"github.com/tio-term/tio/internal/render"
	"github.com/tio-term/tio/internal/script"
	"github.com/tio-term/tio/internal/stdinpump"
	"github.com/tio-term/tio/internal/translate"
	"github.com/tio-term/tio/internal/ttyerr"
	"github.com/tio-term/tio/internal/ttyport"
	"github.com/tio-term/tio/internal/writebuf"
	"github.com/tio-term/tio/internal/xymodem"
)

// BufSiz bounds a single tty read, matching spec.md §4.8's BUFSIZ.
const BufSiz = 8192

// Engine owns one connection's worth of state across reconnects.
type Engine struct {
	Opts   *config.Options
	Diag   *diag.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Script *script.Bridge // optional, set by caller if scripting is wanted

	port     *ttyport.Port
	lineCtl  *lines.Controller
	writer   *writebuf.Buffer
	renderer *render.Renderer
	cmd      *command.Interpreter
	pump     *stdinpump.Pump
	mirror   *mirror.Mirror
	logTap   *logtap.Tap

	hexAcc     translate.HexAccumulator
	lineEditor translate.LineEditor

	rxCount, txCount uint64

	quit      bool
	scriptRan bool
	exitCode  int
}

// New creates an Engine bound to opts. Stdin/Stdout default to
// os.Stdin/os.Stdout when left nil.
func New(opts *config.Options, d *diag.Logger) *Engine {
	e := &Engine{Opts: opts, Diag: d, Stdin: os.Stdin, Stdout: os.Stdout}
	e.cmd = command.New(opts.PrefixCode, (*engineActions)(e))
	if opts.LogFilename != "" {
		e.logTap = logtap.New(opts.LogFilename, opts.LogStrip)
		if opts.LogEnabled {
			e.logTap.Toggle()
		}
	}
	if opts.Socket != "" {
		if m, err := mirror.Listen(opts.Socket); err == nil {
			e.mirror = m
			go m.Serve()
		} else if d != nil {
			d.Warn(fmt.Sprintf("mirror socket: %v", err))
		}
	}
	return e
}

// Close releases the mirror socket and log file, if either was opened.
func (e *Engine) Close() error {
	if e.mirror != nil {
		e.mirror.Close()
	}
	if e.logTap != nil {
		e.logTap.Close()
	}
	return nil
}

// Run executes the connection loop until a fatal error, clean quit,
// or (in piped mode) stdin EOF. It returns the process exit code.
func (e *Engine) Run(ctx context.Context) int {
	e.pump = stdinpump.New(e.Stdin)
	if e.Opts.PrefixEnabled {
		e.pump.PrefixCode = e.Opts.PrefixCode
	}
	e.pump.OnEmergencyQuit = func() { e.quit = true }
	e.pump.OnFlush = func() {
		if e.port != nil {
			e.port.Flush()
		}
	}
	go e.pump.Run()
	e.pump.WaitReady()

	for {
		if err := e.connect(); err != nil {
			if ttyerr.Is(err, ttyerr.DeviceUnavailable) {
				if !e.waitForDevice(ctx) {
					return 0
				}
				continue
			}
			if e.Diag != nil {
				e.Diag.Error(err)
			}
			return 1
		}

		e.runScriptIfDue()

		reason := e.serve(ctx)
		e.port.Restore()
		e.port = nil

		switch reason {
		case reasonQuit, reasonEOF, reasonCancelled:
			return e.exitCode
		case reasonUnplug:
			if e.Diag != nil {
				e.Diag.Warn("Disconnected")
			}
			if !e.waitForDevice(ctx) {
				return 0
			}
		}
	}
}

func (e *Engine) connect() error {
	port, err := ttyport.Open(e.Opts.Device, e.Opts)
	if err != nil {
		return err
	}
	e.port = port
	e.lineCtl = lines.New(port, func(format string, args ...any) {
		if e.Diag != nil {
			e.Diag.Infof(format, args...)
		}
	})
	e.writer = writebuf.New(port)
	e.writer.CharDelay = e.Opts.OutputCharDelay
	e.writer.LineDelay = e.Opts.OutputLineDelay
	e.writer.Drain = port.Drain
	e.renderer = render.New(e.Stdout)
	e.renderer.SetHexMode(e.Opts.OutputMode == config.OutputHex)
	e.renderer.Timestamp = render.NewTimestampFormatter(e.Opts.Timestamp).Format
	if e.Diag != nil {
		e.Diag.Info("Connected")
		e.Diag.ResetOnce()
	}
	return nil
}

func (e *Engine) runScriptIfDue() {
	if e.Script == nil {
		return
	}
	switch e.Opts.ScriptPolicy {
	case config.ScriptOnce, config.ScriptAlways:
		var err error
		if e.Opts.ScriptFilename != "" {
			err = e.Script.RunFile(e.Opts.ScriptFilename)
		} else {
			err = e.Script.RunString(e.Opts.ScriptSource)
		}
		e.handleScriptResult(err)
		if e.Opts.ScriptPolicy == config.ScriptOnce {
			e.Opts.ScriptPolicy = config.ScriptNever
		}
	}
	e.scriptRan = true
}

// handleScriptResult reports a script failure, or, if the script
// called exit(code), ends the session with that code.
func (e *Engine) handleScriptResult(err error) {
	if err == nil {
		return
	}
	var exit *script.ExitError
	if errors.As(err, &exit) {
		e.exitCode = exit.Code
		e.quit = true
		return
	}
	if e.Diag != nil {
		e.Diag.Warn(err.Error())
	}
}

type serveReason int

const (
	reasonUnplug serveReason = iota
	reasonEOF
	reasonQuit
	reasonCancelled
)

// serve runs the select loop for the current connection: reads from
// tty/stdin-pump/mirror are fanned into channels by dedicated
// goroutines and multiplexed by a single select, preserving ordering
// within each direction (spec.md §5).
func (e *Engine) serve(ctx context.Context) serveReason {
	type chunk struct {
		data []byte
		err  error
	}

	ttyCh := make(chan chunk)
	go func() {
		buf := make([]byte, BufSiz)
		for {
			n, err := e.port.Read(buf)
			if n > 0 {
				cp := make([]byte, n)
				copy(cp, buf[:n])
				ttyCh <- chunk{data: cp}
			}
			if err != nil {
				ttyCh <- chunk{err: err}
				return
			}
		}
	}()

	stdinCh := make(chan chunk)
	go func() {
		buf := make([]byte, stdinpump.BufSiz)
		for {
			n, err := e.pump.Reader().Read(buf)
			if n > 0 {
				cp := make([]byte, n)
				copy(cp, buf[:n])
				stdinCh <- chunk{data: cp}
			}
			if err != nil {
				stdinCh <- chunk{err: err}
				return
			}
		}
	}()

	for {
		if e.quit {
			e.writer.Sync()
			return reasonQuit
		}
		select {
		case <-ctx.Done():
			e.writer.Sync()
			return reasonCancelled

		case c := <-ttyCh:
			if c.err != nil {
				return reasonUnplug
			}
			e.handleRX(c.data)

		case c := <-stdinCh:
			if c.err != nil {
				e.writer.Sync()
				return reasonEOF
			}
			e.handleStdin(c.data)
			e.writer.Sync()

		case b := <-e.mirrorIncoming():
			e.forwardToTty([]byte{b})
			e.writer.Sync()
		}
	}
}

func (e *Engine) mirrorIncoming() <-chan byte {
	if e.mirror == nil {
		return nil // a nil channel blocks forever in select, correctly disabling this case
	}
	return e.mirror.Incoming
}

// handleRX implements spec.md §4.8 step 4: per-byte translation,
// rendering, log/socket tee, timestamp bookkeeping.
func (e *Engine) handleRX(data []byte) {
	for _, c := range data {
		e.rxCount++
		out := translate.RX(e.Opts.Map, c)
		for _, ob := range out {
			e.renderer.RenderByte(ob)
		}
		if e.logTap != nil {
			e.logTap.Write(out)
		}
		if e.mirror != nil {
			for _, ob := range out {
				e.mirror.Tee(ob)
			}
		}
	}
}

// handleStdin implements spec.md §4.8 step 5: route through the
// command interpreter, then per-input-mode validation/editing before
// forwarding to the tty.
func (e *Engine) handleStdin(data []byte) {
	for _, c := range data {
		if !e.Opts.PrefixEnabled {
			e.applyInputMode(c)
			continue
		}
		res := e.cmd.Feed(c)
		if !res.Forward {
			continue
		}
		e.applyInputMode(res.Byte)
	}
}

func (e *Engine) applyInputMode(c byte) {
	switch e.Opts.InputMode {
	case config.InputHex:
		r := e.hexAcc.Feed(c)
		if r.Invalid {
			if e.Diag != nil {
				e.Diag.Warn("invalid hex character")
			}
			return
		}
		if r.Echo {
			e.renderer.RenderByte(c)
		}
		if r.Complete {
			eraseCount := 2
			if e.Opts.LocalEcho {
				eraseCount++
			}
			e.eraseEcho(eraseCount)
			time.Sleep(translate.FeedbackDelay)
			e.forwardToTty([]byte{r.Byte})
		}
	case config.InputLine:
		r := e.lineEditor.Feed(c)
		switch r.Action {
		case translate.LineEditEcho:
			e.renderer.RenderByte(c)
		case translate.LineEditErase:
			e.eraseEcho(1)
		case translate.LineEditCommit:
			e.forwardToTty(r.ToPort)
		case translate.LineEditOverflow:
			if e.Diag != nil {
				e.Diag.Warn(r.Warning)
			}
		}
	default:
		e.forwardTX(c)
	}
}

// eraseEcho backs up over n previously echoed characters, matching
// spec.md §4.5's hex-accumulator and line-editor visual erase.
func (e *Engine) eraseEcho(n int) {
	for i := 0; i < n; i++ {
		fmt.Fprint(e.Stdout, "\b \b")
	}
}

// forwardTX applies the configured TX character mapping (spec.md
// §4.5) to a single normal-mode byte before writing it to the port.
func (e *Engine) forwardTX(c byte) {
	res := translate.TX(e.Opts.Map, c)
	if res.SendBreak {
		e.port.SendBreak()
		return
	}
	if e.Opts.Map.OLTU {
		translate.UpperOutput(res.ToPort)
	}
	e.forwardToTty(res.ToPort)
	if e.Opts.LocalEcho {
		echo := res.ToEcho
		if len(echo) == 0 {
			echo = res.ToPort
		}
		for _, b := range echo {
			e.renderer.RenderByte(b)
		}
	}
}

// forwardToTty writes bytes to the port's write buffer and tees them
// to the log sink, independent of the input-mode path that produced
// them (hex, line, or normal).
func (e *Engine) forwardToTty(p []byte) {
	if len(p) == 0 {
		return
	}
	e.txCount += uint64(len(p))
	e.writer.Write(p)
	if e.logTap != nil {
		e.logTap.Write(p)
	}
}

// ReadByte implements script.Device: a single poll-style read with a
// timeout, used by the `expect` builtin.
func (e *Engine) ReadByte(timeout time.Duration) (byte, bool, error) {
	if e.port == nil {
		return 0, false, fmt.Errorf("engine: no active connection")
	}
	type result struct {
		b   byte
		err error
	}
	ch := make(chan result, 1)
	go func() {
		buf := make([]byte, 1)
		_, err := e.port.Read(buf)
		ch <- result{b: buf[0], err: err}
	}()
	select {
	case r := <-ch:
		if r.err != nil {
			return 0, false, r.err
		}
		e.renderer.RenderByte(r.b)
		return r.b, true, nil
	case <-time.After(timeout):
		return 0, false, nil
	}
}

// Write implements script.Device.
func (e *Engine) Write(p []byte) (int, error) {
	e.forwardToTty(p)
	e.writer.Sync()
	return len(p), nil
}

// Lines implements script.Device.
func (e *Engine) Lines() *lines.Controller { return e.lineCtl }

// Transfer implements script.Device, delegating to the XYMODEM
// front-end with the stdin pump's key-hit flag as cancellation.
func (e *Engine) Transfer(filename string, proto xymodem.Protocol) error {
	e.pump.ResetKeyHit()
	return xymodem.Send(e.port, filename, proto, e.pump.KeyHit)
}
