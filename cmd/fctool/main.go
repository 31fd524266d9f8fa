package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/cart"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/emu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/storage"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/z85"
)

const usage = `usage: fctool <command> [args]

commands:
  z85 encode|decode [-in file]   convert stdin (or file) to/from Z85 text
  events FILE                    print a recording (.bin, .z85, .json) as JSON
  convert IN OUT                 rewrite a recording in the format OUT's extension names
  persistent FILE                print persistent fields of an exit payload (.json) or state blob
  header CART                    print a cart's header
`

var errUsage = errors.New("bad usage")

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	err := run(os.Args[1], os.Args[2:], os.Stdin, os.Stdout)
	if errors.Is(err, errUsage) {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func run(cmd string, args []string, stdin io.Reader, stdout io.Writer) error {
	switch cmd {
	case "z85":
		return runZ85(args, stdin, stdout)
	case "events":
		if len(args) != 1 {
			return errUsage
		}
		events, err := storage.ReadRecording(args[0])
		if err != nil {
			return err
		}
		return writeJSON(stdout, events)
	case "convert":
		if len(args) != 2 {
			return errUsage
		}
		events, err := storage.ReadRecording(args[0])
		if err != nil {
			return err
		}
		if err := storage.WriteRecording(args[1], events); err != nil {
			return err
		}
		log.Printf("wrote %d events to %s", len(events), args[1])
		return nil
	case "persistent":
		if len(args) != 1 {
			return errUsage
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		fields, err := persistentFields(filepath.Ext(args[0]), data)
		if err != nil {
			return err
		}
		return writeJSON(stdout, fields)
	case "header":
		if len(args) != 1 {
			return errUsage
		}
		c, err := cart.Open(args[0])
		if err != nil {
			return err
		}
		return writeJSON(stdout, c.Header)
	default:
		return errUsage
	}
}

func runZ85(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("z85", flag.ContinueOnError)
	in := fs.String("in", "", "read from file instead of stdin")
	if len(args) < 1 {
		return errUsage
	}
	mode := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}
	r := stdin
	if *in != "" {
		f, err := os.Open(*in)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	switch mode {
	case "encode":
		out, err := z85.EncodeErr(data)
		if err != nil {
			return fmt.Errorf("%w (input is %d bytes)", err, len(data))
		}
		_, err = fmt.Fprintf(stdout, "%s\n", out)
		return err
	case "decode":
		out, err := z85.DecodeErr(bytes.TrimSpace(data))
		if err != nil {
			return err
		}
		_, err = stdout.Write(out)
		return err
	default:
		return errUsage
	}
}

// persistentFields accepts an exit payload in JSON or a raw state blob.
func persistentFields(ext string, data []byte) (cart.Fields, error) {
	if strings.EqualFold(ext, ".json") {
		var p emu.ExitPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return cart.Fields{}, err
		}
		return p.Fields(), nil
	}
	if len(data) != emu.StateSize {
		return cart.Fields{}, fmt.Errorf("%w: %d bytes", emu.ErrStateSize, len(data))
	}
	return cart.DecodeFields(data[bus.AddrPersistent : bus.AddrPersistent+bus.PersistentSize])
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
