package cart

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/bus"
)

func TestPersistentFieldsIsolated(t *testing.T) {
	b := bus.New()
	p := NewPersistentData(b)

	for f := GameMode; f < fieldCount; f++ {
		p.Set(f, 0xA0000000|uint32(f))
	}
	p.Set(Score, 0xFFFFFFFF)

	for f := GameMode; f < fieldCount; f++ {
		want := 0xA0000000 | uint32(f)
		if f == Score {
			want = 0xFFFFFFFF
		}
		if got := p.Get(f); got != want {
			t.Fatalf("%v: got %08x want %08x", f, got, want)
		}
	}
	if got := b.Read32(bus.AddrPersistent + 16); got != 0xFFFFFFFF {
		t.Fatalf("score not at offset 16: %08x", got)
	}
	if b.Read(bus.AddrPersistent-1) != 0 || b.Read(bus.AddrFramebuffer) != 0 {
		t.Fatalf("write leaked outside the persistent region")
	}
}

func TestDecodeFields(t *testing.T) {
	b := bus.New()
	p := NewPersistentData(b)
	p.Set(Frames, 1234)
	p.Set(Health, 7)
	snap := p.Snapshot()

	f, err := DecodeFields(snap[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if f.Frames != 1234 || f.Health != 7 || f.Score != 0 {
		t.Fatalf("unexpected fields %+v", f)
	}
	if _, err := DecodeFields(snap[:10]); err == nil {
		t.Fatalf("expected length error")
	}
}

func TestDiskReadWriteClamp(t *testing.T) {
	var d Disk
	src := make([]byte, 2000)
	for i := range src {
		src[i] = byte(i)
	}
	if n := d.Write(src); n != DiskCapacity {
		t.Fatalf("write stored %d, want %d", n, DiskCapacity)
	}
	if d.Size != DiskCapacity {
		t.Fatalf("size %d", d.Size)
	}

	dst := make([]byte, 10)
	if n := d.Read(dst); n != 10 || dst[9] != 9 {
		t.Fatalf("short read n=%d dst=%v", n, dst)
	}
	big := make([]byte, 4096)
	if n := d.Read(big); n != DiskCapacity {
		t.Fatalf("read %d, want %d", n, DiskCapacity)
	}

	d.Write([]byte{1, 2, 3})
	if d.Size != 3 || d.Data[3] != 0 {
		t.Fatalf("write did not replace prior contents: size=%d tail=%d", d.Size, d.Data[3])
	}
	d.Write(nil)
	if d.Size != 0 || d.Read(big) != 0 {
		t.Fatalf("empty write should empty the disk")
	}
}

func TestDiskMarshalRoundTrip(t *testing.T) {
	var d Disk
	d.Write([]byte("hello disk"))
	buf := make([]byte, DiskStateSize)
	d.MarshalTo(buf)

	var got Disk
	got.UnmarshalFrom(buf)
	if got != d {
		t.Fatalf("round trip mismatch")
	}

	buf[0], buf[1] = 0xFF, 0xFF
	got.UnmarshalFrom(buf)
	if got.Size != DiskCapacity {
		t.Fatalf("corrupt size not clamped: %d", got.Size)
	}
}

func TestParseHeader(t *testing.T) {
	src := []byte("-- title: Snake\n-- author: Jo\n-- id: snake-v2\n-- Palette: gb\n\nlocal x = 1\n-- title: ignored\n")
	h, err := ParseHeader(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.Title != "Snake" || h.Author != "Jo" || h.ID != "snake-v2" {
		t.Fatalf("unexpected header %+v", h)
	}
	if h.Extra["palette"] != "gb" {
		t.Fatalf("extra keys not kept: %v", h.Extra)
	}
	if h.Size != len(src) {
		t.Fatalf("size %d", h.Size)
	}
}

func TestParseHeaderDefaultsID(t *testing.T) {
	h, err := ParseHeader([]byte("function update() end\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(h.ID) != 8 || h.Title != "" {
		t.Fatalf("expected crc id, got %+v", h)
	}
	if _, err := ParseHeader([]byte("  \n")); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

const testSource = "-- title: t\nfunction update() end\n"

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestOpenRaw(t *testing.T) {
	c, err := Open(writeFile(t, "game.lua", []byte(testSource)))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if c.Name != "game.lua" || c.Header.Title != "t" {
		t.Fatalf("unexpected cart %+v", c)
	}
}

func TestOpenZip(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if _, err := w.Create("docs/"); err != nil {
		t.Fatalf("zip dir: %v", err)
	}
	readme, _ := w.Create("README.txt")
	readme.Write([]byte("not a cart"))
	fw, err := w.Create("carts/game.lua")
	if err != nil {
		t.Fatalf("zip create: %v", err)
	}
	fw.Write([]byte(testSource))
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}

	c, err := Open(writeFile(t, "bundle.zip", buf.Bytes()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if c.Name != "game.lua" || string(c.Source) != testSource {
		t.Fatalf("unexpected cart %q %q", c.Name, c.Source)
	}
}

func TestOpenGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte(testSource))
	gw.Close()

	c, err := Open(writeFile(t, "game.lua.gz", buf.Bytes()))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if c.Name != "game.lua" {
		t.Fatalf("name %q", c.Name)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, _, err := Load(writeFile(t, "notes.txt", []byte("hi")), Extensions); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, _, err := Load("/nonexistent/game.lua", Extensions); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, _, err := Load(writeFile(t, "fake.7z", []byte("not a 7z file")), Extensions); err == nil {
		t.Fatalf("expected error for invalid 7z")
	}
	if _, _, err := Load(writeFile(t, "fake.rar", []byte("not a rar file")), Extensions); err == nil {
		t.Fatalf("expected error for invalid rar")
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("README.txt")
	fw.Write([]byte("x"))
	w.Close()
	if _, _, err := Load(writeFile(t, "empty.zip", buf.Bytes()), Extensions); !errors.Is(err, ErrNoCartFile) {
		t.Fatalf("expected ErrNoCartFile, got %v", err)
	}
}

func TestLoadSizeCap(t *testing.T) {
	big := bytes.Repeat([]byte("-"), maxCartSize+1)
	if _, _, err := Load(writeFile(t, "big.lua", big), Extensions); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}
