// Package luacart runs Lua script carts. A script defines a global update
// function, and optionally start, and drives the console through the host
// functions registered as globals. update returning false halts the cart.
//
// Loading a state rebuilds the interpreter, so a script keeps anything that
// must survive a save or reload in console memory through peek and poke.
package luacart

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/FabianRolfMatthiasNoll/FixedConsole/internal/emu"
)

var ErrNoUpdate = errors.New("script defines no update function")

// Options tunes the script host.
type Options struct {
	// UpdateTimeout bounds one start or update call. Zero means no limit.
	UpdateTimeout time.Duration
}

// Program is a compiled script. It is immutable and may back any number of
// machines.
type Program struct {
	name  string
	proto *lua.FunctionProto
	opts  Options
}

// Compile parses and compiles src once.
func Compile(name string, src []byte, opts Options) (*Program, error) {
	chunk, err := parse.Parse(strings.NewReader(string(src)), name)
	if err != nil {
		return nil, fmt.Errorf("luacart: parse %s: %w", name, err)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, fmt.Errorf("luacart: compile %s: %w", name, err)
	}
	return &Program{name: name, proto: proto, opts: opts}, nil
}

// Factory returns a cart factory that builds a fresh interpreter per boot.
func (p *Program) Factory() emu.CartFactory {
	return func(m *emu.Machine) (emu.Cart, error) {
		return p.instantiate(m)
	}
}

// Factory compiles src and returns a factory for it.
func Factory(name string, src []byte, opts Options) (emu.CartFactory, error) {
	p, err := Compile(name, src, opts)
	if err != nil {
		return nil, err
	}
	return p.Factory(), nil
}

// Cart is one interpreter bound to one machine.
type Cart struct {
	L      *lua.LState
	m      *emu.Machine
	start  *lua.LFunction
	update *lua.LFunction
	opts   Options

	pcg *rand.PCG
	rng *rand.Rand
}

func (p *Program) instantiate(m *emu.Machine) (*Cart, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	c := &Cart{L: L, m: m, opts: p.opts}
	if err := openLibs(L); err != nil {
		L.Close()
		return nil, err
	}
	c.register()

	L.Push(L.NewFunctionFromProto(p.proto))
	if err := c.protect(func() error { return L.PCall(0, lua.MultRet, nil) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("luacart: run %s: %w", p.name, err)
	}
	L.SetTop(0)
	c.storeRNG()

	if fn, ok := L.GetGlobal("start").(*lua.LFunction); ok {
		c.start = fn
	}
	fn, ok := L.GetGlobal("update").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, fmt.Errorf("luacart: %s: %w", p.name, ErrNoUpdate)
	}
	c.update = fn
	return c, nil
}

func openLibs(L *lua.LState) error {
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name))
		if err != nil {
			return fmt.Errorf("luacart: open %s: %w", lib.name, err)
		}
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return nil
}

// Close releases the interpreter.
func (c *Cart) Close() { c.L.Close() }

func (c *Cart) Start() error {
	if c.start == nil {
		return nil
	}
	return c.call(c.start, 0)
}

func (c *Cart) Update() (emu.Status, error) {
	if err := c.call(c.update, 1); err != nil {
		return emu.Halt, err
	}
	ret := c.L.Get(-1)
	c.L.Pop(1)
	if ret == lua.LFalse {
		return emu.Halt, nil
	}
	return emu.Continue, nil
}

func (c *Cart) call(fn *lua.LFunction, nret int) error {
	c.loadRNG()
	err := c.protect(func() error {
		return c.L.CallByParam(lua.P{Fn: fn, NRet: nret, Protect: true})
	})
	c.storeRNG()
	if err == nil {
		return nil
	}
	// a host function that halted the machine carries the real cause
	if c.m.Halted() && c.m.Err() != nil {
		return c.m.Err()
	}
	return err
}

func (c *Cart) protect(run func() error) error {
	if c.opts.UpdateTimeout <= 0 {
		return run()
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.UpdateTimeout)
	defer cancel()
	c.L.SetContext(ctx)
	defer c.L.RemoveContext()
	return run()
}
