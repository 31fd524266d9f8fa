package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sqweek/dialog"
	"golang.design/x/clipboard"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/input"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/logger"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/ppu"
	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/storage"
)

// quickReplayFile is read by the replay hotkey when nothing was exported
// this session.
const quickReplayFile = "gamepad-events.bin"

func (a *App) ensureClipboard() bool {
	if !a.clipInited {
		if err := clipboard.Init(); err != nil {
			logger.Logf("ui", "clipboard unavailable: %v", err)
			return false
		}
		a.clipInited = true
	}
	return true
}

// exportRecording writes the current event log into the recordings
// directory and copies its Z85 text to the clipboard.
func (a *App) exportRecording(ext string) {
	events := a.sched.Machine().Recorder().Events()
	if len(events) == 0 {
		a.toast("No events to export")
		return
	}
	name := fmt.Sprintf("gamepad-events-%d%s", time.Now().Unix(), ext)
	path := filepath.Join(a.store.RecordingsDir(), name)
	if err := storage.WriteRecording(path, events); err != nil {
		a.toast("Export failed: " + err.Error())
		return
	}
	a.lastExport = path
	msg := fmt.Sprintf("Exported %d events to %s", len(events), name)
	if a.ensureClipboard() {
		clipboard.Write(clipboard.FmtText, []byte(input.MarshalZ85(events)))
		msg += " (Z85 copied)"
	}
	a.toast(msg)
}

// exportOnExit keeps the session's log in both machine and readable form.
func (a *App) exportOnExit() {
	events := a.sched.Machine().Recorder().Events()
	if len(events) == 0 {
		return
	}
	stamp := time.Now().Unix()
	for _, ext := range []string{storage.ExtWire, storage.ExtJSON} {
		path := filepath.Join(a.store.RecordingsDir(), fmt.Sprintf("gamepad-events-%d%s", stamp, ext))
		if err := storage.WriteRecording(path, events); err != nil {
			logger.Logf("recorder", "export %s: %v", path, err)
			continue
		}
		logger.Logf("recorder", "saved %d events to %s", len(events), path)
	}
}

func (a *App) replayFile(path string) {
	events, err := storage.ReadRecording(path)
	if err != nil {
		a.toast("Replay failed: " + err.Error())
		return
	}
	a.replay(events, filepath.Base(path))
}

func (a *App) replay(events []input.Event, from string) {
	if err := a.sched.Replay(events); err != nil {
		a.toast("Replay failed: " + err.Error())
		return
	}
	a.toast(fmt.Sprintf("Replaying %d events from %s", len(events), from))
}

// toggleQuickReplay stops a running replay, or replays the last export.
func (a *App) toggleQuickReplay() {
	if a.sched.Machine().Recorder().Playing() {
		a.restart()
		a.toast("Replay stopped")
		return
	}
	path := a.lastExport
	if path == "" {
		path = quickReplayFile
	}
	if _, err := os.Stat(path); err != nil {
		a.toast("Nothing to replay: " + filepath.Base(path) + " not found")
		return
	}
	a.replayFile(path)
}

// pasteReplay replays a Z85 recording from the clipboard.
func (a *App) pasteReplay() {
	if !a.ensureClipboard() {
		a.toast("Clipboard unavailable")
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		a.toast("Clipboard is empty")
		return
	}
	events, err := storage.ParseRecording("", data)
	if err != nil {
		a.toast("Clipboard is not a recording: " + err.Error())
		return
	}
	a.replay(events, "clipboard")
}

// pickRecording opens a native file dialog off the game loop. The result
// arrives through a.picked; the session stays paused until then.
func (a *App) pickRecording() {
	if !a.modal.CompareAndSwap(false, true) {
		return
	}
	dir := a.store.RecordingsDir()
	go func() {
		path, err := dialog.File().
			Title("Replay recording").
			Filter("Recordings", "bin", "z85", "json").
			SetStartDir(dir).
			Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				logger.Logf("ui", "file dialog: %v", err)
			}
			path = ""
		}
		a.picked <- path
	}()
}

func (a *App) pollPicked() {
	select {
	case path := <-a.picked:
		a.modal.Store(false)
		if path != "" {
			a.replayFile(path)
		}
	default:
	}
}

func (a *App) saveScreenshot() error {
	dir := a.store.ScreenshotDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405"))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := ppu.WritePNG(f, a.frame, a.cfg.Scale); err != nil {
		return err
	}
	a.toast("Screenshot: " + name)
	return nil
}

// statusLine summarizes the recorder for the status hotkey.
func (a *App) statusLine() string {
	rec := a.sched.Machine().Recorder()
	return fmt.Sprintf("Gamepad Status: %s | Frame: %d | Events: %d",
		rec.Mode(), rec.Frame(), rec.Len())
}
