package cart

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"strings"
)

// Header is the metadata block at the top of a script cart:
//
//	-- title: Snake
//	-- author: someone
//	-- id: snake-v2
//
// Parsing stops at the first line that is not a "-- key: value" comment.
type Header struct {
	Title  string
	Author string
	ID     string // disk persistence key
	Extra  map[string]string

	// Decoded helpers (for logs)
	CRC32 uint32
	Size  int
}

var ErrEmptyCart = errors.New("cart source is empty")

func ParseHeader(src []byte) (*Header, error) {
	if len(bytes.TrimSpace(src)) == 0 {
		return nil, ErrEmptyCart
	}

	h := &Header{
		Extra: map[string]string{},
		CRC32: crc32.ChecksumIEEE(src),
		Size:  len(src),
	}

	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rest, ok := strings.CutPrefix(line, "--")
		if !ok {
			break
		}
		key, value, ok := strings.Cut(rest, ":")
		if !ok {
			break
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		switch key {
		case "title":
			h.Title = value
		case "author":
			h.Author = value
		case "id":
			h.ID = value
		default:
			h.Extra[key] = value
		}
	}

	if h.ID == "" {
		h.ID = fmt.Sprintf("%08x", h.CRC32)
	}
	return h, nil
}

func (h *Header) String() string {
	title := h.Title
	if title == "" {
		title = "(untitled)"
	}
	if h.Author != "" {
		return fmt.Sprintf("%s by %s [%s, %d bytes, crc %08x]", title, h.Author, h.ID, h.Size, h.CRC32)
	}
	return fmt.Sprintf("%s [%s, %d bytes, crc %08x]", title, h.ID, h.Size, h.CRC32)
}
