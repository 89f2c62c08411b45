package config

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/tio-term/tio/internal/ttyerr"
)

func ttyerrParse(err error) error {
	return ttyerr.New(ttyerr.Parse, "config", err)
}

// Version is the reported program version, surfaced by the `v` command
// and --version flag.
const Version = "1.0.0"

// cliFlags groups the raw flag destinations for one parse pass.
type cliFlags struct {
	baudrate           *uint
	databits           *int
	flow               *string
	stopbits           *int
	parity             *string
	outputDelay        *int
	outputLineDelay    *int
	linePulseDuration  *string
	noAutoconnect      *bool
	localEcho          *bool
	timestamp          *bool
	timestampFormat    *string
	log                *bool
	logFile            *string
	logStrip           *bool
	socket             *string
	mapFlags           *string
	color              *string
	hexadecimal        *bool
	responseWait       *bool
	responseTimeout    *int
	rs485              *bool
	rs485Config        *string
	alert              *string
	mute               *bool
	noPrefix           *bool
	prefixKey          *string
	script             *string
	scriptFile         *string
	scriptRun          *string
	version            *bool
	help               *bool
	completeSubConfigs *bool
}

func registerFlags(fs *flag.FlagSet) *cliFlags {
	c := &cliFlags{}
	c.baudrate = fs.UintP("baudrate", "b", 115200, "Baud rate")
	c.databits = fs.IntP("databits", "d", 8, "Data bits: 5|6|7|8")
	c.flow = fs.StringP("flow", "f", "none", "Flow control: hard|soft|none")
	c.stopbits = fs.IntP("stopbits", "s", 1, "Stop bits: 1|2")
	c.parity = fs.StringP("parity", "p", "none", "Parity: odd|even|none|mark|space")
	c.outputDelay = fs.IntP("output-delay", "o", 0, "Output character delay (ms)")
	c.outputLineDelay = fs.IntP("output-line-delay", "O", 0, "Output line delay (ms)")
	c.linePulseDuration = fs.String("line-pulse-duration", "", "Set line pulse duration, e.g. DTR=200,RTS=50")
	c.noAutoconnect = fs.BoolP("no-autoconnect", "n", false, "Disable automatic connect (stored and shown by the c command; the engine always reconnects)")
	c.localEcho = fs.BoolP("local-echo", "e", false, "Enable local echo")
	c.timestamp = fs.BoolP("timestamp", "t", false, "Enable line timestamp")
	c.timestampFormat = fs.String("timestamp-format", "", "Timestamp format: 24hour|24hour-start|24hour-delta|iso8601")
	c.log = fs.BoolP("log", "l", false, "Enable log to file")
	c.logFile = fs.String("log-file", "", "Set log filename")
	c.logStrip = fs.Bool("log-strip", false, "Strip non-printable bytes from the log (the printable remainder of an escape sequence is kept)")
	c.socket = fs.StringP("socket", "S", "", "Mirror I/O to unix:<path> or tcp:<host:port>")
	c.mapFlags = fs.StringP("map", "m", "", "Map characters, comma separated")
	c.color = fs.StringP("color", "c", "bold", "Colorize tio text: 0..255|bold|none (stored; output is not colorized)")
	c.hexadecimal = fs.BoolP("hexadecimal", "x", false, "Enable hexadecimal output mode")
	c.responseWait = fs.BoolP("response-wait", "r", false, "Wait for line response then quit (stored; the connection loop ignores it)")
	c.responseTimeout = fs.Int("response-timeout", 100, "Response timeout (ms) (stored; the connection loop ignores it)")
	c.rs485 = fs.Bool("rs-485", false, "Enable RS-485 mode (stored; the port is not switched to RS-485)")
	c.rs485Config = fs.String("rs-485-config", "", "Set RS-485 configuration (stored; not applied to the port)")
	c.alert = fs.String("alert", "none", "Alert on connect/disconnect: bell|blink|none (stored; no alert is emitted)")
	c.mute = fs.Bool("mute", false, "Mute tio")
	c.noPrefix = fs.Bool("no-prefix", false, "Disable the prefix key")
	c.prefixKey = fs.String("prefix-key", "t", "Set prefix key (ctrl-<key>)")
	c.script = fs.String("script", "", "Run an inline script")
	c.scriptFile = fs.String("script-file", "", "Run a script from a file")
	c.scriptRun = fs.String("script-run", "once", "Script run policy: never|once|always")
	c.version = fs.BoolP("version", "v", false, "Display version")
	c.help = fs.BoolP("help", "h", false, "Display help")
	c.completeSubConfigs = fs.Bool("complete-sub-configs", false, "List configured sub-configuration names")
	return c
}

func newFlagSet() (*flag.FlagSet, *cliFlags) {
	fs := flag.NewFlagSet("tio", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.SortFlags = false
	c := registerFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tio [<options>] <tty-device|sub-config>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Connect to a serial TTY device directly or via a named sub-configuration.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Options:")
		fs.PrintDefaults()
	}
	return fs, c
}

// apply copies parsed flag values that were explicitly set onto opts.
// Flags left at their zero/default value do not clobber a value already
// supplied by the config file (this is what makes the two-pass parse
// in Parse below work: first pass populates CLI-only state, config file
// fills gaps, second pass re-applies only the flags actually passed).
func apply(fs *flag.FlagSet, c *cliFlags, opts *Options) error {
	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "baudrate":
			opts.Baudrate = *c.baudrate
		case "databits":
			opts.DataBits = *c.databits
		case "flow":
			opts.Flow, err = ParseFlow(*c.flow)
		case "stopbits":
			opts.StopBits = *c.stopbits
		case "parity":
			opts.Parity, err = ParseParity(*c.parity)
		case "output-delay":
			opts.OutputCharDelay = time.Duration(*c.outputDelay) * time.Millisecond
		case "output-line-delay":
			opts.OutputLineDelay = time.Duration(*c.outputLineDelay) * time.Millisecond
		case "line-pulse-duration":
			err = ParsePulseDurations(*c.linePulseDuration, &opts.Pulse)
		case "no-autoconnect":
			opts.NoAutoconnect = *c.noAutoconnect
		case "local-echo":
			opts.LocalEcho = *c.localEcho
		case "timestamp":
			if *c.timestamp {
				opts.Timestamp = Timestamp24Hour
			}
		case "timestamp-format":
			opts.Timestamp, err = ParseTimestampFormat(*c.timestampFormat)
		case "log":
			opts.LogEnabled = *c.log
		case "log-file":
			opts.LogFilename = *c.logFile
		case "log-strip":
			opts.LogStrip = *c.logStrip
		case "socket":
			opts.Socket = *c.socket
		case "map":
			opts.Map, err = ParseMapFlags(*c.mapFlags)
		case "color":
			opts.Color, err = parseColor(*c.color)
		case "hexadecimal":
			if *c.hexadecimal {
				opts.OutputMode = OutputHex
				opts.HexMode = true
			}
		case "response-wait":
			opts.ResponseWait = *c.responseWait
		case "response-timeout":
			opts.ResponseTimeout = time.Duration(*c.responseTimeout) * time.Millisecond
		case "rs-485":
			opts.RS485 = *c.rs485
		case "rs-485-config":
			opts.RS485Config = *c.rs485Config
		case "alert":
			opts.AlertMode = *c.alert
		case "mute":
			opts.Mute = *c.mute
		case "no-prefix":
			opts.PrefixEnabled = !*c.noPrefix
		case "prefix-key":
			if len(*c.prefixKey) == 1 {
				k := (*c.prefixKey)[0]
				opts.PrefixKey = k
				opts.PrefixCode = toCtrlCode(k)
			} else {
				err = fmt.Errorf("invalid prefix key: %s", *c.prefixKey)
			}
		case "script":
			opts.ScriptSource = *c.script
		case "script-file":
			opts.ScriptFilename = *c.scriptFile
		case "script-run":
			opts.ScriptPolicy, err = parseScriptPolicy(*c.scriptRun)
		case "complete-sub-configs":
			opts.CompleteSubConfigs = *c.completeSubConfigs
		}
	})
	return err
}

func toCtrlCode(key byte) byte {
	k := key
	if k >= 'a' && k <= 'z' {
		k -= 'a' - 'A'
	}
	return k - 'A' + 1
}

func parseColor(s string) (int, error) {
	switch s {
	case "none":
		return -1, nil
	case "bold", "":
		return 256, nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid color: %s", s)
	}
	if n < 0 || n > 255 {
		return 0, fmt.Errorf("invalid color code: %d", n)
	}
	return n, nil
}

func parseScriptPolicy(s string) (ScriptPolicy, error) {
	switch s {
	case "never":
		return ScriptNever, nil
	case "once":
		return ScriptOnce, nil
	case "always":
		return ScriptAlways, nil
	default:
		return ScriptNever, fmt.Errorf("invalid script-run policy: %s", s)
	}
}

// ParseResult is the outcome of Parse: either a ready-to-use Options and
// positional device argument, or a request to print help/version and exit.
type ParseResult struct {
	Opts        *Options
	Positional  string
	ShowHelp    bool
	ShowVersion bool
}

// Parse runs the two-pass CLI/config-file parse described in spec.md §9:
// the first pass finds the positional device/sub-config argument, the
// config file (if any) supplies defaults for the matched sub-config
// section, and a second CLI parse re-applies explicit flags so they win
// over file-supplied values -- except the resolved device path, which
// survives the second pass untouched.
func Parse(args []string) (*ParseResult, error) {
	opts := Defaults()

	fs, c := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return &ParseResult{ShowHelp: true}, nil
		}
		return nil, ttyerrParse(err)
	}
	if *c.help {
		fs.Usage()
		return &ParseResult{ShowHelp: true}, nil
	}
	if *c.version {
		return &ParseResult{ShowVersion: true}, nil
	}

	if err := apply(fs, c, opts); err != nil {
		return nil, ttyerrParse(err)
	}

	positional := ""
	if rest := fs.Args(); len(rest) > 0 {
		positional = rest[0]
	}
	opts.Device = positional

	if opts.CompleteSubConfigs {
		return &ParseResult{Opts: opts, Positional: positional}, nil
	}

	// Resolve and apply a matching sub-configuration from the INI file.
	if positional != "" {
		if err := ApplyConfigFile(opts, positional); err != nil {
			return nil, err
		}
	}

	// Second pass: re-parse so explicit CLI flags win over file values,
	// except the now-resolved device path.
	resolvedDevice := opts.Device
	fs2, c2 := newFlagSet()
	if err := fs2.Parse(args); err != nil {
		return nil, ttyerrParse(err)
	}
	if err := apply(fs2, c2, opts); err != nil {
		return nil, ttyerrParse(err)
	}
	opts.Device = resolvedDevice

	if opts.Device == "" && !opts.CompleteSubConfigs {
		return nil, ttyerrParse(fmt.Errorf("missing tty device or sub-configuration name"))
	}

	return &ParseResult{Opts: opts, Positional: positional}, nil
}
