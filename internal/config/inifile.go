package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/ini.v1"

	"github.com/tio-term/tio/internal/ttyerr"
)

// ResolveConfigPath finds the tiorc file using the search order from
// spec.md §6: $XDG_CONFIG_HOME/tio/tiorc, then $HOME/.config/tio/tiorc,
// then $HOME/.tiorc. Returns "" if none exist.
func ResolveConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		p := filepath.Join(xdg, "tio", "tiorc")
		if fileExists(p) {
			return p
		}
	}
	home := os.Getenv("HOME")
	if home == "" {
		return ""
	}
	if p := filepath.Join(home, ".config", "tio", "tiorc"); fileExists(p) {
		return p
	}
	if p := filepath.Join(home, ".tiorc"); fileExists(p) {
		return p
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ApplyConfigFile locates the tiorc file, finds the section whose
// `pattern` key matches user (literally or as an extended regex), and
// applies that section's keys onto opts. If no config file exists or no
// section matches, this is a silent no-op and the positional argument
// stays the device path; a user value that is itself a device path is
// matched against the patterns like any other.
func ApplyConfigFile(opts *Options, user string) error {
	path := ResolveConfigPath()
	if path == "" {
		return nil
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return ttyerr.New(ttyerr.Parse, "config file", err)
	}

	section, capture := findSection(cfg, user)
	if section == nil {
		return nil
	}
	return applySection(opts, section, capture)
}

// findSection walks every section's `pattern` key looking for a literal
// or extended-regex match against user, exactly as configfile.c's
// section_search_handler/get_match.
func findSection(cfg *ini.File, user string) (*ini.Section, string) {
	for _, sec := range cfg.Sections() {
		if !sec.HasKey("pattern") {
			continue
		}
		pattern := sec.Key("pattern").String()
		if pattern == user {
			return sec, ""
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(user); m != nil {
			capture := ""
			if len(m) > 1 {
				capture = m[1]
			}
			return sec, capture
		}
	}
	return nil, ""
}

func applySection(opts *Options, sec *ini.Section, capture string) error {
	if sec.HasKey("tty") {
		v := sec.Key("tty").String()
		if capture != "" {
			v = fmt.Sprintf(v, capture)
		}
		opts.Device = v
	}
	if sec.HasKey("baudrate") {
		n, err := sec.Key("baudrate").Uint()
		if err != nil {
			return ttyerr.New(ttyerr.Parse, "config file", err)
		}
		opts.Baudrate = uint(n)
	}
	if sec.HasKey("databits") {
		n, err := sec.Key("databits").Int()
		if err != nil {
			return ttyerr.New(ttyerr.Parse, "config file", err)
		}
		opts.DataBits = n
	}
	if sec.HasKey("flow") {
		f, err := ParseFlow(sec.Key("flow").String())
		if err != nil {
			return ttyerr.New(ttyerr.Parse, "config file", err)
		}
		opts.Flow = f
	}
	if sec.HasKey("stopbits") {
		n, err := sec.Key("stopbits").Int()
		if err != nil {
			return ttyerr.New(ttyerr.Parse, "config file", err)
		}
		opts.StopBits = n
	}
	if sec.HasKey("parity") {
		p, err := ParseParity(sec.Key("parity").String())
		if err != nil {
			return ttyerr.New(ttyerr.Parse, "config file", err)
		}
		opts.Parity = p
	}
	if sec.HasKey("output-delay") {
		n, err := sec.Key("output-delay").Int()
		if err != nil {
			return ttyerr.New(ttyerr.Parse, "config file", err)
		}
		opts.OutputCharDelay = msDuration(n)
	}
	if sec.HasKey("no-autoconnect") {
		opts.NoAutoconnect = sec.Key("no-autoconnect").MustBool(false)
	}
	if sec.HasKey("log") {
		opts.LogEnabled = sec.Key("log").MustBool(false)
	}
	if sec.HasKey("local-echo") {
		opts.LocalEcho = sec.Key("local-echo").MustBool(false)
	}
	if sec.HasKey("timestamp") {
		opts.Timestamp = TimestampMode(sec.Key("timestamp").MustInt(0))
	}
	if sec.HasKey("log-filename") {
		opts.LogFilename = sec.Key("log-filename").String()
	}
	if sec.HasKey("map") {
		m, err := ParseMapFlags(sec.Key("map").String())
		if err != nil {
			return ttyerr.New(ttyerr.Parse, "config file", err)
		}
		opts.Map = m
	}
	if sec.HasKey("color") {
		n, err := sec.Key("color").Int()
		if err != nil {
			return ttyerr.New(ttyerr.Parse, "config file", err)
		}
		opts.Color = n
	}
	return nil
}

func msDuration(ms int) (d time.Duration) {
	return time.Duration(ms) * time.Millisecond
}

// ListSubConfigNames returns every section name in the tiorc file that
// declares a `pattern` key, for shell completion of sub-config names
// (--complete-sub-configs).
func ListSubConfigNames() ([]string, error) {
	path := ResolveConfigPath()
	if path == "" {
		return nil, nil
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, ttyerr.New(ttyerr.Parse, "config file", err)
	}
	var names []string
	for _, sec := range cfg.Sections() {
		if sec.HasKey("pattern") {
			names = append(names, sec.Name())
		}
	}
	return names, nil
}
