// Package cart holds what a cartridge brings to the console besides its code:
// the persistent data region, the 1KB disk, the source header and loading
// from plain files or archives.
package cart

import "fmt"

// Extensions lists the cart source extensions the loader accepts.
var Extensions = []string{".lua"}

// Cart is a loaded cart source with its parsed header.
type Cart struct {
	Name   string // basename of the file the source came from
	Source []byte
	Header *Header
}

// New wraps an in-memory source.
func New(name string, src []byte) (*Cart, error) {
	h, err := ParseHeader(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Cart{Name: name, Source: src, Header: h}, nil
}

// Open loads a cart from path, extracting it from an archive if needed.
func Open(path string) (*Cart, error) {
	src, name, err := Load(path, Extensions)
	if err != nil {
		return nil, err
	}
	return New(name, src)
}

// ID is the disk persistence key.
func (c *Cart) ID() string { return c.Header.ID }
