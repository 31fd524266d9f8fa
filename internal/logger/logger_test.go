package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestRepeatsCollapse(t *testing.T) {
	l := newLogger(10)
	l.log("tag", "detail")
	l.log("tag", "detail")
	l.log("tag", "other")

	var b bytes.Buffer
	l.write(&b)
	want := "tag: detail (repeat x2)\ntag: other\n"
	if b.String() != want {
		t.Fatalf("got %q want %q", b.String(), want)
	}
}

func TestMaxEntries(t *testing.T) {
	l := newLogger(3)
	for _, d := range []string{"a", "b", "c", "d", "e"} {
		l.log("t", d)
	}
	var b bytes.Buffer
	l.write(&b)
	if b.String() != "t: c\nt: d\nt: e\n" {
		t.Fatalf("unexpected log %q", b.String())
	}
}

func TestTailAndClear(t *testing.T) {
	l := newLogger(10)
	l.log("t", "one")
	l.log("t", "two\nlines")

	var b bytes.Buffer
	l.tail(&b, 1)
	if b.String() != "t: two lines\n" {
		t.Fatalf("tail %q", b.String())
	}
	b.Reset()
	l.tail(&b, 100)
	if strings.Count(b.String(), "\n") != 2 {
		t.Fatalf("tail over length %q", b.String())
	}

	l.clear()
	if l.write(&b) {
		t.Fatalf("write after clear reported entries")
	}
}

func TestEchoPlainWhenNotTerminal(t *testing.T) {
	l := newLogger(10)
	var b bytes.Buffer
	l.setEcho(&b)
	l.log("emu", "started")
	if b.String() != "emu: started\n" {
		t.Fatalf("echo %q", b.String())
	}
	l.setEcho(nil)
	l.log("emu", "quiet")
	if strings.Contains(b.String(), "quiet") {
		t.Fatalf("echo continued after SetEcho(nil)")
	}
}
