package emu

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/logger"
)

func (m *Machine) traceLine(s string) {
	logger.Log("trace", s)
	if m.traceOut != nil {
		fmt.Fprintln(m.traceOut, s)
	} else if m.cfg.Trace {
		fmt.Fprintln(os.Stdout, s)
	}
}

func (m *Machine) Trace(strPtr uint32) error {
	s, err := m.bus.CString("trace", strPtr)
	if err != nil {
		return m.fail(err)
	}
	m.traceLine(string(s))
	return nil
}

func (m *Machine) TraceUtf8(strPtr, byteLength uint32) error {
	s, err := m.bus.Slice("traceUtf8", strPtr, byteLength)
	if err != nil {
		return m.fail(err)
	}
	m.traceLine(strings.ToValidUTF8(string(s), "�"))
	return nil
}

func (m *Machine) TraceUtf16(strPtr, byteLength uint32) error {
	s, err := m.bus.Slice("traceUtf16", strPtr, byteLength)
	if err != nil {
		return m.fail(err)
	}
	units := make([]uint16, len(s)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(s[2*i:])
	}
	m.traceLine(string(utf16.Decode(units)))
	return nil
}

// Tracef formats the NUL-terminated string at fmtPtr with arguments packed
// at argPtr: %c %d %x take 4 bytes, %s takes a 4 byte string pointer, %f
// takes an 8 byte float. Unknown directives are printed as written.
func (m *Machine) Tracef(fmtPtr, argPtr uint32) error {
	format, err := m.bus.CString("tracef", fmtPtr)
	if err != nil {
		return m.fail(err)
	}
	out, err := m.formatArgs(format, argPtr)
	if err != nil {
		return m.fail(err)
	}
	m.traceLine(out)
	return nil
}

func (m *Machine) formatArgs(format []byte, argPtr uint32) (string, error) {
	var sb strings.Builder
	arg := func(n uint32) ([]byte, error) {
		b, err := m.bus.Slice("tracef", argPtr, n)
		argPtr += n
		return b, err
	}
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i == len(format) {
			break
		}
		switch sym := format[i]; sym {
		case '%':
			sb.WriteByte('%')
		case 'c':
			b, err := arg(4)
			if err != nil {
				return "", err
			}
			sb.WriteByte(b[0])
		case 'd':
			b, err := arg(4)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "%d", int32(binary.LittleEndian.Uint32(b)))
		case 'x':
			b, err := arg(4)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "%x", binary.LittleEndian.Uint32(b))
		case 's':
			b, err := arg(4)
			if err != nil {
				return "", err
			}
			s, err := m.bus.CString("tracef", binary.LittleEndian.Uint32(b))
			if err != nil {
				return "", err
			}
			sb.Write(s)
		case 'f':
			b, err := arg(8)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "%.6g", math.Float64frombits(binary.LittleEndian.Uint64(b)))
		default:
			sb.WriteByte('%')
			sb.WriteByte(sym)
		}
	}
	return sb.String(), nil
}

// TraceString writes a host-side string to the trace stream.
func (m *Machine) TraceString(s string) { m.traceLine(s) }
