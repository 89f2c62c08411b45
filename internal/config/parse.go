package config

import (
	"fmt"
	"strings"
)

// ParseParity parses the --parity value.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return ParityNone, nil
	case "odd":
		return ParityOdd, nil
	case "even":
		return ParityEven, nil
	case "mark":
		return ParityMark, nil
	case "space":
		return ParitySpace, nil
	default:
		return ParityNone, fmt.Errorf("invalid parity: %s", s)
	}
}

func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	case ParityMark:
		return "mark"
	case ParitySpace:
		return "space"
	default:
		return "none"
	}
}

// ParseFlow parses the --flow value.
func ParseFlow(s string) (Flow, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return FlowNone, nil
	case "hard":
		return FlowHard, nil
	case "soft":
		return FlowSoft, nil
	default:
		return FlowNone, fmt.Errorf("invalid flow: %s", s)
	}
}

func (f Flow) String() string {
	switch f {
	case FlowHard:
		return "hard"
	case FlowSoft:
		return "soft"
	default:
		return "none"
	}
}

// ParsePulseDurations parses "DTR=200,RTS=50" style line-pulse-duration values.
func ParsePulseDurations(s string, p *PulseDurations) error {
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.SplitN(tok, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid line-pulse-duration token: %s", tok)
		}
		var value int
		if _, err := fmt.Sscanf(parts[1], "%d", &value); err != nil {
			return fmt.Errorf("invalid line-pulse-duration value: %s", tok)
		}
		switch strings.ToUpper(parts[0]) {
		case "DTR":
			p.DTR = value
		case "RTS":
			p.RTS = value
		case "CTS":
			p.CTS = value
		case "DSR":
			p.DSR = value
		case "DCD":
			p.DCD = value
		case "RI":
			p.RI = value
		default:
			return fmt.Errorf("unknown line name: %s", parts[0])
		}
	}
	return nil
}

// ParseTimestampFormat parses the --timestamp-format value.
func ParseTimestampFormat(s string) (TimestampMode, error) {
	switch strings.ToLower(s) {
	case "24hour":
		return Timestamp24Hour, nil
	case "24hour-start":
		return Timestamp24HourStart, nil
	case "24hour-delta":
		return Timestamp24HourDelta, nil
	case "iso8601":
		return TimestampISO8601, nil
	default:
		return TimestampNone, fmt.Errorf("invalid timestamp format: %s", s)
	}
}
