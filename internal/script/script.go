// Package script binds the command-plane functions named in spec.md
// §4.9 to an embedded scripting runtime. The original tio embeds Lua
// via lauxlib/lualib (see original_source/src/script.c); this binds
// the same function surface to github.com/yuin/gopher-lua, the
// idiomatic pure-Go counterpart of that same language.
package script

import (
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/tio-term/tio/internal/lines"
	"github.com/tio-term/tio/internal/xymodem"
)

// Device is the subset of engine state a script can observe and
// drive: the active serial descriptor (implicit in every script
// call, per spec.md §4.9) plus the modem-line controller.
type Device interface {
	Write(p []byte) (int, error)
	ReadByte(timeout time.Duration) (byte, bool, error) // ok=false on timeout
	Lines() *lines.Controller
	Transfer(filename string, proto xymodem.Protocol) error
}

// Bridge owns one Lua state bound to a Device.
type Bridge struct {
	L   *lua.LState
	dev Device
	buf []byte
}

const expectBufferSize = 2000

// New creates a Bridge over dev with all named functions and line/
// protocol constants registered as globals.
func New(dev Device) *Bridge {
	b := &Bridge{L: lua.NewState(), dev: dev}
	b.register()
	return b
}

// Close releases the Lua state.
func (b *Bridge) Close() { b.L.Close() }

// RunString executes an inline script body (Options.ScriptSource).
func (b *Bridge) RunString(src string) (err error) {
	defer b.recoverExit(&err)
	if err := b.L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// RunFile executes a script loaded from disk (Options.ScriptFilename).
func (b *Bridge) RunFile(path string) (err error) {
	defer b.recoverExit(&err)
	if err := b.L.DoFile(path); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// recoverExit turns a Lua `exit(code)` panic into an *ExitError
// return value instead of an unwound Go stack; any other panic is
// re-raised unchanged.
func (b *Bridge) recoverExit(err *error) {
	r := recover()
	if r == nil {
		return
	}
	es, ok := r.(exitSignal)
	if !ok {
		panic(r)
	}
	*err = &ExitError{Code: es.Code}
}

// ExitError signals that the script called exit(code); the caller
// should end the session with that code rather than treat this as a
// script failure.
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return fmt.Sprintf("script: exit(%d)", e.Code) }

func (b *Bridge) register() {
	L := b.L
	reg := func(name string, fn lua.LGFunction) { L.SetGlobal(name, L.NewFunction(fn)) }

	reg("sleep", b.luaSleep)
	reg("msleep", b.luaMsleep)
	reg("high", b.luaHigh)
	reg("low", b.luaLow)
	reg("toggle", b.luaToggle)
	reg("config_high", b.luaConfigHigh)
	reg("config_low", b.luaConfigLow)
	reg("config_apply", b.luaConfigApply)
	reg("modem_send", b.luaModemSend)
	reg("send", b.luaSend)
	reg("expect", b.luaExpect)
	reg("exit", b.luaExit)

	setGlobal := func(name string, v int) { L.SetGlobal(name, lua.LNumber(v)) }
	setGlobal("DTR", lines.DTR.Mask())
	setGlobal("RTS", lines.RTS.Mask())
	setGlobal("CTS", lines.CTS.Mask())
	setGlobal("DSR", lines.DSR.Mask())
	setGlobal("CD", lines.DCD.Mask())
	setGlobal("RI", lines.RI.Mask())
	setGlobal("XMODEM_CRC", int(xymodem.XMODEMCRC))
	setGlobal("XMODEM_1K", int(xymodem.XMODEM1K))
	setGlobal("YMODEM", int(xymodem.YMODEM))
}

func lineFromMask(mask int) (lines.Line, bool) {
	for _, l := range []lines.Line{lines.DTR, lines.RTS, lines.CTS, lines.DSR, lines.DCD, lines.RI} {
		if l.Mask() == mask {
			return l, true
		}
	}
	return 0, false
}

func (b *Bridge) luaSleep(L *lua.LState) int {
	time.Sleep(time.Duration(L.CheckInt64(1)) * time.Second)
	return 0
}

func (b *Bridge) luaMsleep(L *lua.LState) int {
	time.Sleep(time.Duration(L.CheckInt64(1)) * time.Millisecond)
	return 0
}

func (b *Bridge) luaHigh(L *lua.LState) int {
	return b.setLine(L, true)
}

func (b *Bridge) luaLow(L *lua.LState) int {
	return b.setLine(L, false)
}

func (b *Bridge) setLine(L *lua.LState, assert bool) int {
	l, ok := lineFromMask(L.CheckInt(1))
	if !ok {
		return 0
	}
	b.dev.Lines().Set(l, assert)
	return 0
}

func (b *Bridge) luaToggle(L *lua.LState) int {
	if l, ok := lineFromMask(L.CheckInt(1)); ok {
		b.dev.Lines().Toggle(l)
	}
	return 0
}

func (b *Bridge) luaConfigHigh(L *lua.LState) int {
	if l, ok := lineFromMask(L.CheckInt(1)); ok {
		b.dev.Lines().Config(l, true)
	}
	return 0
}

func (b *Bridge) luaConfigLow(L *lua.LState) int {
	if l, ok := lineFromMask(L.CheckInt(1)); ok {
		b.dev.Lines().Config(l, false)
	}
	return 0
}

func (b *Bridge) luaConfigApply(L *lua.LState) int {
	b.dev.Lines().Apply()
	return 0
}

func (b *Bridge) luaModemSend(L *lua.LState) int {
	file := L.CheckString(1)
	proto := xymodem.Protocol(L.CheckInt(2))
	err := b.dev.Transfer(file, proto)
	if err != nil {
		L.Push(lua.LNumber(-1))
		return 1
	}
	L.Push(lua.LNumber(0))
	return 1
}

func (b *Bridge) luaSend(L *lua.LState) int {
	s := L.CheckString(1)
	n, err := b.dev.Write([]byte(s))
	if err != nil {
		L.Push(lua.LNumber(-1))
		return 1
	}
	L.Push(lua.LNumber(n))
	return 1
}

// luaExpect implements `expect(pattern, timeout_ms)`: maintains a
// bounded circular buffer fed by poll-reads, matched against the
// compiled regex on every append, per spec.md §4.9.
func (b *Bridge) luaExpect(L *lua.LState) int {
	pattern := L.CheckString(1)
	timeoutMs := L.CheckInt64(2)

	b.buf = b.buf[:0]

	re, err := compileExtended(pattern)
	if err != nil {
		L.Push(lua.LNumber(-1))
		return 1
	}

	timeout := time.Duration(timeoutMs) * time.Millisecond
	forever := timeoutMs == 0
	deadline := time.Now().Add(timeout)

	for {
		perCall := 200 * time.Millisecond
		if !forever && time.Until(deadline) < perCall {
			perCall = time.Until(deadline)
			if perCall <= 0 {
				L.Push(lua.LNumber(0))
				return 1
			}
		}
		c, ok, rerr := b.dev.ReadByte(perCall)
		if rerr != nil {
			L.Push(lua.LNumber(-1))
			return 1
		}
		if !ok {
			if forever {
				continue
			}
			if time.Now().After(deadline) {
				L.Push(lua.LNumber(0))
				return 1
			}
			continue
		}
		if len(b.buf) >= expectBufferSize {
			b.buf = b.buf[1:]
		}
		b.buf = append(b.buf, c)
		if re.Match(b.buf) {
			L.Push(lua.LNumber(1))
			return 1
		}
	}
}

func (b *Bridge) luaExit(L *lua.LState) int {
	code := L.CheckInt(1)
	panic(exitSignal{code})
}

// exitSignal unwinds the Lua call stack via panic/recover (see
// recoverExit) to turn exit(code) into a clean return instead of
// relying on the real process-exit syscall the C binding used.
type exitSignal struct{ Code int }
