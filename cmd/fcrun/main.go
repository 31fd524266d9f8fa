package main

import (
	"errors"
	"flag"
	"fmt"
	"hash/crc32"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/cart"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/emu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/input"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/logger"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/luacart"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/storage"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/ui"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/wavdump"
)

// maxStdinCart bounds a cart piped in on stdin.
const maxStdinCart = 64 << 10

type CLIFlags struct {
	CartPath string
	Scale    int
	Title    string
	Palette  string
	Trace    bool
	Verbose  bool
	DataDir  string
	DiskPath string // sidecar disk file; empty keeps disks in the data dir
	Timeout  time.Duration

	// session
	Mode      uint
	MaxFrames uint
	Seed      uint
	Record    bool
	Replay    string

	// state
	LoadState string
	SaveState string
	ExitJSON  string

	// headless
	Headless bool
	Ticks    int
	PNGOut   string
	PNGScale int
	WAVOut   string
	Expect   string // expected framebuffer CRC32 hex (e.g., "1a2b3c4d")

	set map[string]bool
}

func parseFlags() CLIFlags {
	var f CLIFlags
	flag.StringVar(&f.CartPath, "cart", "", "path to cart (.lua or an archive holding one); - reads stdin")
	flag.IntVar(&f.Scale, "scale", 3, "window scale")
	flag.StringVar(&f.Title, "title", "fcrun", "window title")
	flag.StringVar(&f.Palette, "palette", "", "palette preset ("+strings.Join(emu.PaletteNames(), ", ")+")")
	flag.BoolVar(&f.Trace, "trace", false, "echo guest trace output to stdout")
	flag.BoolVar(&f.Verbose, "v", false, "echo the log to stderr")
	flag.StringVar(&f.DataDir, "data", "", "data directory (default: per-user config dir)")
	flag.StringVar(&f.DiskPath, "disk", "", "keep the cart disk in this file instead of the data dir")
	flag.DurationVar(&f.Timeout, "timeout", time.Second, "abort a start/update call running longer than this; 0 disables")

	flag.UintVar(&f.Mode, "mode", 1, "game_mode session field")
	flag.UintVar(&f.MaxFrames, "maxframes", 600, "max_frames session field")
	flag.UintVar(&f.Seed, "seed", 0, "game_seed session field (0 picks one from the clock)")
	flag.BoolVar(&f.Record, "record", true, "record gamepad input from boot")
	flag.StringVar(&f.Replay, "replay", "", "replay a recording (.bin, .z85 or .json) instead of live input")

	flag.StringVar(&f.LoadState, "loadstate", "", "load a state blob after boot")
	flag.StringVar(&f.SaveState, "savestate", "", "write a state blob on exit")
	flag.StringVar(&f.ExitJSON, "exitjson", "", "write the exit payload as JSON")

	// headless options
	flag.BoolVar(&f.Headless, "headless", false, "run without a window")
	flag.IntVar(&f.Ticks, "ticks", 600, "ticks to run in headless mode")
	flag.StringVar(&f.PNGOut, "outpng", "", "write last framebuffer to PNG at path")
	flag.IntVar(&f.PNGScale, "pngscale", 1, "scale factor for -outpng")
	flag.StringVar(&f.WAVOut, "outwav", "", "write headless audio to a WAV file")
	flag.StringVar(&f.Expect, "expect", "", "assert framebuffer CRC32 (hex)")
	flag.Parse()

	f.set = map[string]bool{}
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f
}

// readCart loads the cart named by path, or stdin for "-".
func readCart(path string) (*cart.Cart, error) {
	if path != "-" {
		return cart.Open(path)
	}
	src, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinCart+1))
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	if len(src) > maxStdinCart {
		return nil, fmt.Errorf("stdin: %w", cart.ErrFileTooLarge)
	}
	return cart.New("stdin.lua", src)
}

func runHeadless(sched *emu.Scheduler, f CLIFlags) error {
	m := sched.Machine()
	ticks := max(f.Ticks, 1)

	var wav *wavdump.Writer
	if f.WAVOut != "" {
		wav = wavdump.New(f.WAVOut, m.APU().SampleRate())
		m.APU().SetTap(wav.Append)
	}

	start := time.Now()
	ran := 0
	var runErr error
	for ran < ticks {
		st, err := sched.Step()
		ran++
		if err != nil {
			runErr = err
			break
		}
		if st == emu.Halt {
			break
		}
	}
	dur := time.Since(start)

	fb := make([]byte, ppu.RGBASize)
	m.Composite(fb)
	crc := crc32.ChecksumIEEE(m.Bus().Framebuffer())
	tps := float64(ran) / max(dur.Seconds(), 1e-9)

	log.Printf("headless: ticks=%d elapsed=%s tps=%.2f fb_crc32=%08x",
		ran, dur.Truncate(time.Millisecond), tps, crc)

	if wav != nil {
		if err := wav.Close(); err != nil {
			return err
		}
		log.Printf("wrote %s", f.WAVOut)
	}
	if f.PNGOut != "" {
		if err := savePNG(fb, f.PNGScale, f.PNGOut); err != nil {
			return fmt.Errorf("write PNG: %w", err)
		}
		log.Printf("wrote %s", f.PNGOut)
	}
	if runErr != nil {
		return runErr
	}

	if f.Expect != "" {
		// normalize expected hex (allow with/without 0x, upper/lowercase)
		want := strings.TrimPrefix(strings.ToLower(f.Expect), "0x")
		got := fmt.Sprintf("%08x", crc)
		if got != want {
			return fmt.Errorf("checksum mismatch: got %s, want %s", got, want)
		}
	}
	return nil
}

func savePNG(rgba []byte, scale int, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	return ppu.WritePNG(out, rgba, scale)
}

// report prints the final persistent fields and writes the optional
// payload and state files.
func report(m *emu.Machine, p emu.ExitPayload, f CLIFlags) {
	fl := p.Fields()
	fmt.Printf("game_mode=%d max_frames=%d game_seed=%d frames=%d score=%d health=%d\n",
		fl.GameMode, fl.MaxFrames, fl.GameSeed, fl.Frames, fl.Score, fl.Health)
	if f.ExitJSON != "" {
		if err := storage.AtomicWriteJSON(f.ExitJSON, p); err != nil {
			log.Printf("exit payload: %v", err)
		} else {
			log.Printf("wrote %s", f.ExitJSON)
		}
	}
	if f.SaveState != "" {
		if err := m.SaveStateToFile(f.SaveState); err != nil {
			log.Printf("save state: %v", err)
		} else {
			log.Printf("wrote %s", f.SaveState)
		}
	}
}

// loadState restores a state blob once the disk store is attached, so the
// disk in the blob is the one the session keeps.
func loadState(m *emu.Machine, path string) {
	if path == "" {
		return
	}
	if err := m.LoadStateFromFile(path); err != nil {
		log.Fatalf("load state: %v", err)
	}
	log.Printf("loaded %s", path)
}

func main() {
	f := parseFlags()
	if f.CartPath == "" {
		log.Fatal("-cart is required")
	}
	if f.LoadState != "" && f.Replay != "" {
		log.Fatal("-loadstate and -replay cannot be combined: a replay starts from boot")
	}
	if f.Verbose {
		logger.SetEcho(os.Stderr)
	}

	root := f.DataDir
	if root == "" {
		var err error
		if root, err = storage.DefaultRoot("fcrun"); err != nil {
			log.Fatalf("data dir: %v", err)
		}
	}
	store, err := storage.New(root)
	if err != nil {
		log.Fatalf("data dir: %v", err)
	}
	settings, err := storage.LoadSettings(store.SettingsPath())
	if err != nil {
		log.Printf("settings: %v, using defaults", err)
		settings = storage.DefaultSettings()
	}

	c, err := readCart(f.CartPath)
	if err != nil {
		log.Fatalf("load cart: %v", err)
	}
	log.Printf("cart: %s", c.Header)

	opts := luacart.Options{UpdateTimeout: f.Timeout}
	factory, err := luacart.Factory(c.Name, c.Source, opts)
	if err != nil {
		log.Fatalf("load cart: %v", err)
	}

	uiCfg := ui.Config{Title: f.Title, Scale: f.Scale, AudioStereo: true}
	uiCfg.ApplySettings(settings)
	if f.set["scale"] {
		uiCfg.Scale = f.Scale
	}
	if f.set["record"] || f.Headless {
		uiCfg.Record = f.Record
	}
	if f.Palette != "" {
		uiCfg.Palette = f.Palette
	} else if name, ok := emu.PaletteFromHeader(c.Header); ok {
		uiCfg.Palette = name
	}
	if c.Header.Title != "" && !f.set["title"] {
		uiCfg.Title = f.Title + " - [" + c.Header.Title + "]"
	}

	seed := uint32(f.Seed)
	if seed == 0 {
		seed = uint32(time.Now().UnixMilli())
	}
	m := emu.New(emu.Config{Trace: f.Trace, Palette: uiCfg.Palette})
	m.SetSession(uint32(f.Mode), uint32(f.MaxFrames), seed)
	if err := m.Boot(factory); err != nil {
		log.Fatalf("boot: %v", err)
	}
	var disk emu.DiskStore = store
	if f.DiskPath != "" {
		disk = storage.FileDisk(f.DiskPath)
	}

	var events []input.Event
	if f.Replay != "" {
		ev, err := storage.ReadRecording(f.Replay)
		if err != nil {
			log.Fatalf("replay: %v", err)
		}
		events = ev
	}

	if f.Headless {
		sched := emu.NewScheduler(m, emu.Collaborators{Disk: disk, CartID: c.ID()})
		if events != nil {
			if err := sched.Replay(events); err != nil {
				log.Fatal(err)
			}
		} else if uiCfg.Record {
			m.Recorder().Start()
		}
		loadState(m, f.LoadState)
		herr := runHeadless(sched, f)
		report(m, m.ExitPayload(), f)
		if uiCfg.Record && m.Recorder().Len() > 0 {
			path := store.RecordingPath(c.ID(), seed, storage.ExtWire)
			if err := storage.WriteRecording(path, m.Recorder().Events()); err != nil {
				log.Printf("recording: %v", err)
			} else {
				log.Printf("wrote %s", path)
			}
		}
		if herr != nil {
			log.Fatal(herr)
		}
		return
	}

	var reload func() (emu.CartFactory, error)
	if f.CartPath != "-" {
		reload = func() (emu.CartFactory, error) {
			nc, err := cart.Open(f.CartPath)
			if err != nil {
				return nil, err
			}
			return luacart.Factory(nc.Name, nc.Source, opts)
		}
	}
	uiCfg.DataDir = root
	app := ui.NewApp(uiCfg, ui.Session{
		Machine: m,
		CartID:  c.ID(),
		Store:   store,
		Disk:    disk,
		Reload:  reload,
		OnExit:  func(p emu.ExitPayload) { report(m, p, f) },
	})
	if events != nil {
		if err := app.Scheduler().Replay(events); err != nil {
			log.Fatal(err)
		}
	}
	loadState(m, f.LoadState)
	if err := app.Run(); err != nil && !errors.Is(err, emu.ErrHalted) {
		log.Fatal(err)
	}
}
