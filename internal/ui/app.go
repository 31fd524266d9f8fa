package ui

import (
	"errors"
	"fmt"
	"image/color"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/emu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/logger"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/storage"
)

// Session is what the window runs.
type Session struct {
	Machine *emu.Machine
	CartID  string
	Store   *storage.Store
	Disk    emu.DiskStore // nil persists through Store

	// Reload rebuilds the cart from its source for hot reload. May be nil.
	Reload func() (emu.CartFactory, error)
	// OnExit receives the final payload once, on halt or window close.
	OnExit func(emu.ExitPayload)
}

// App is the ebiten host. It is the scheduler's input source, presenter
// and exit sink.
type App struct {
	cfg      Config
	sess     Session
	sched    *emu.Scheduler
	store    *storage.Store
	settings *storage.Settings
	cartID   string

	tex     *ebiten.Image
	frame   []byte
	bg      color.RGBA
	curW    int
	curH    int
	paused  bool
	fault   error
	exiting bool
	exitRun bool

	// overlay/menu
	showMenu    bool
	menuMode    string // "main", "slot", "settings", "keys"
	menuIdx     int
	currentSlot int
	keysOff     int
	settingsOff int
	toastMsg    string
	toastUntil  time.Time

	player     *oto.Player
	padIDs     []ebiten.GamepadID
	clipInited bool
	modal      atomic.Bool
	picked     chan string
	lastExport string

	fpsFrames int
	fpsSince  time.Time
}

func NewApp(cfg Config, sess Session) *App {
	cfg.Defaults()
	settings, err := storage.LoadSettings(sess.Store.SettingsPath())
	if err != nil {
		logger.Logf("ui", "settings: %v, using defaults", err)
		settings = storage.DefaultSettings()
	}
	a := &App{
		cfg:         cfg,
		sess:        sess,
		store:       sess.Store,
		settings:    settings,
		cartID:      sess.CartID,
		frame:       make([]byte, ppu.RGBASize),
		curW:        ppu.Width * cfg.Scale,
		curH:        ppu.Height * cfg.Scale,
		currentSlot: settings.Slot,
		menuMode:    "main",
		picked:      make(chan string, 1),
	}
	disk := sess.Disk
	if disk == nil {
		disk = sess.Store
	}
	a.sched = emu.NewScheduler(sess.Machine, emu.Collaborators{
		Input:     a,
		Presenter: a,
		Exit:      a,
		Disk:      disk,
		CartID:    sess.CartID,
	})
	if cfg.Palette != "" && !sess.Machine.SetPalette(cfg.Palette) {
		logger.Logf("ui", "unknown palette %q", cfg.Palette)
	}
	if cfg.Record {
		sess.Machine.Recorder().Start()
	}

	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(ppu.Width*cfg.Scale, ppu.Height*cfg.Scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(cfg.Fullscreen)
	return a
}

// Scheduler exposes the driven scheduler so callers can queue a replay
// before Run.
func (a *App) Scheduler() *emu.Scheduler { return a.sched }

// Run opens the window and blocks until the cart halts or the window is
// closed.
func (a *App) Run() error {
	if err := a.startAudio(); err != nil {
		logger.Logf("audio", "%v", err)
	}
	defer a.stopAudio()
	err := ebiten.RunGame(a)
	a.finish()
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Present implements emu.Presenter.
func (a *App) Present(rgba []byte, palette [4]uint32) {
	copy(a.frame, rgba)
	c := palette[0]
	a.bg = color.RGBA{uint8(c >> 16), uint8(c >> 8), uint8(c), 0xff}
}

// Exit implements emu.ExitSink.
func (a *App) Exit(p emu.ExitPayload) {
	a.exiting = true
	a.deliver(p)
}

func (a *App) deliver(p emu.ExitPayload) {
	if a.exitRun {
		return
	}
	a.exitRun = true
	a.exportOnExit()
	if a.sess.OnExit != nil {
		a.sess.OnExit(p)
	}
}

// finish covers a window closed before the cart halted.
func (a *App) finish() {
	a.saveSettings()
	a.deliver(a.sched.Machine().ExitPayload())
}

func (a *App) Update() error {
	a.pollPicked()
	if a.exiting {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		if a.showMenu && a.menuMode != "main" {
			a.menuMode = "main"
			a.menuIdx = 0
		} else {
			a.showMenu = !a.showMenu
			a.menuMode = "main"
			a.menuIdx = 0
		}
	}
	if a.showMenu {
		switch a.menuMode {
		case "slot":
			a.updateSlotMenu()
		case "settings":
			a.updateSettingsMenu()
		case "keys":
			a.updateKeysMenu()
		default:
			a.updateMainMenu()
		}
	} else {
		a.handleHotkeys()
	}

	a.sched.SetPaused(a.paused || a.showMenu || a.modal.Load() || a.fault != nil)
	if a.fault != nil {
		return nil
	}
	if a.paused && !a.showMenu && inpututil.IsKeyJustPressed(ebiten.KeyN) {
		if _, err := a.sched.Step(); err != nil {
			a.onFault(err)
		}
		return nil
	}
	if _, err := a.sched.Frame(time.Now()); err != nil {
		a.onFault(err)
	}
	return nil
}

func (a *App) onFault(err error) {
	if errors.Is(err, emu.ErrHalted) {
		a.exiting = true
		return
	}
	a.fault = err
	logger.Logf("emu", "halted: %v", err)
	a.toast("Halted: " + err.Error())
}

func (a *App) handleHotkeys() {
	m := a.sched.Machine()
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	ctrl := ebiten.IsKeyPressed(ebiten.KeyControl) || ebiten.IsKeyPressed(ebiten.KeyMeta)

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF1):
		a.restart()
		a.toast("Restarted")
	case inpututil.IsKeyJustPressed(ebiten.KeyF2):
		dir := 1
		if shift {
			dir = -1
		}
		a.cfg.Palette = emu.NextPalette(m.Palette(), dir)
		m.SetPalette(a.cfg.Palette)
		a.saveSettings()
		a.toast("Palette: " + a.cfg.Palette)
	case inpututil.IsKeyJustPressed(ebiten.KeyF3):
		a.hotReload()
	case inpututil.IsKeyJustPressed(ebiten.KeyF4):
		a.cfg.Record = !a.cfg.Record
		a.restart()
		a.saveSettings()
		if a.cfg.Record {
			a.toast("Recording from restart")
		} else {
			a.toast("Recording off")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		if shift {
			a.exportRecording(storage.ExtJSON)
		} else {
			a.exportRecording(storage.ExtWire)
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF6):
		a.toast(a.statusLine())
	case inpututil.IsKeyJustPressed(ebiten.KeyF7):
		a.toggleQuickReplay()
	case inpututil.IsKeyJustPressed(ebiten.KeyF8):
		a.showMenu = true
		a.menuMode = "keys"
		a.keysOff = 0
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		a.pickRecording()
	case inpututil.IsKeyJustPressed(ebiten.KeyF10):
		a.setMuted(!a.cfg.Muted)
		a.saveSettings()
		if a.cfg.Muted {
			a.toast("Muted")
		} else {
			a.toast("Sound on")
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyF11):
		ebiten.SetFullscreen(!ebiten.IsFullscreen())
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		if err := a.saveScreenshot(); err != nil {
			a.toast("Screenshot failed: " + err.Error())
		}
	case ctrl && inpututil.IsKeyJustPressed(ebiten.KeyV):
		a.pasteReplay()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		a.paused = !a.paused
		if a.paused {
			a.toast("Paused (N steps)")
		}
	}
}

// restart reboots the cart, recording if enabled, and clears a fault.
func (a *App) restart() {
	a.fault = nil
	if err := a.sched.Restart(a.cfg.Record); err != nil {
		a.onFault(err)
	}
}

func (a *App) hotReload() {
	if a.sess.Reload == nil {
		a.toast("Hot reload unavailable")
		return
	}
	f, err := a.sess.Reload()
	if err != nil {
		a.toast("Reload failed: " + err.Error())
		return
	}
	if err := a.sched.Machine().Reload(f); err != nil {
		// the running cart is untouched
		a.toast("Reload failed: " + err.Error())
		return
	}
	a.fault = nil
	a.toast("Reloaded")
}

func (a *App) saveSlot(slot int) error {
	return a.store.SaveState(a.cartID, slot, a.sched.Machine().Serialize())
}

func (a *App) loadSlot(slot int) error {
	data, err := a.store.LoadState(a.cartID, slot)
	if err != nil {
		return err
	}
	if err := a.sched.Machine().Unserialize(data); err != nil {
		return err
	}
	a.fault = nil
	return nil
}

func (a *App) saveSettings() {
	a.settings = a.cfg.Settings(a.settings)
	a.settings.Slot = a.currentSlot
	if err := storage.SaveSettings(a.store.SettingsPath(), a.settings); err != nil {
		logger.Logf("ui", "save settings: %v", err)
	}
}

func (a *App) applyWindowSize() {
	if !ebiten.IsFullscreen() {
		ebiten.SetWindowSize(ppu.Width*a.cfg.Scale, ppu.Height*a.cfg.Scale)
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(ppu.Width, ppu.Height)
	}
	screen.Fill(a.bg)
	a.tex.WritePixels(a.frame)
	r := gameRect(a.curW, a.curH)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(r.Dx())/ppu.Width, float64(r.Dy())/ppu.Height)
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	screen.DrawImage(a.tex, op)

	if a.showMenu {
		a.drawShade(screen)
		switch a.menuMode {
		case "slot":
			a.drawSlotMenu(screen)
		case "settings":
			a.drawSettingsMenu(screen)
		case "keys":
			a.drawKeysMenu(screen)
		default:
			a.drawMainMenu(screen)
		}
	} else if a.paused {
		drawText(screen, "PAUSED", 10, 10)
	}
	if a.fault != nil {
		for i, line := range wrapText("Halted: "+a.fault.Error()+" (F1 restarts)", a.maxCharsForText(10)) {
			drawText(screen, line, 10, 10+i*rowHeight)
		}
	}
	a.drawToast(screen)
	a.countFPS()
}

// countFPS logs the draw rate once per second.
func (a *App) countFPS() {
	now := time.Now()
	if a.fpsSince.IsZero() {
		a.fpsSince = now
	}
	a.fpsFrames++
	if d := now.Sub(a.fpsSince); d >= time.Second {
		fps := float64(a.fpsFrames) / d.Seconds()
		a.fpsFrames = 0
		a.fpsSince = now
		if a.cfg.ShowFPS {
			logger.Log("ui", fmt.Sprintf("fps %.1f ticks %d", fps, a.sched.Ticks()))
		}
	}
}

func (a *App) Layout(outW, outH int) (int, int) {
	a.curW, a.curH = outW, outH
	return outW, outH
}
