// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package platesim emulates the RGB character LCD plate at the terminal
// (stdout) using ANSI color codes.
//
// It implements the same expander surface as the real MCP23017 and
// decodes the 4-bit HD44780 protocol the way the silicon does: a nibble
// is latched on each falling edge of the enable line, and the interface
// stays in 8-bit interpretation until a function-set nibble selects 4-bit
// mode, which is exactly what makes the driver's 0x03/0x03/0x03/0x02
// reset sequence converge.
//
// Useful while you are waiting for your plate to come by mail, and as an
// integration-test target for the full protocol chain.
package platesim

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio"

	"lcdplate/charlcd"
	"lcdplate/mcp23017"
)

// ErrInvalidPin is returned for pin numbers outside 0-15.
var ErrInvalidPin = errors.New("platesim: invalid pin")

var dataPins = [...]uint8{charlcd.PinD4, charlcd.PinD5, charlcd.PinD6, charlcd.PinD7}

var rowOffsets = [...]int{0x00, 0x40, 0x14, 0x54}

// Opts represents the options available for this emulator.
type Opts struct {
	// Cols and Rows default to 16x2.
	Cols int
	Rows int
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// W overrides the output writer; tests point it at a buffer. It
	// defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is a plate emulator. It satisfies charlcd.Expander.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	cols    int
	rows    int

	buf     bytes.Buffer
	painted bool

	modes   [16]mcp23017.PinMode
	levels  [16]gpio.Level
	pullups [16]bool
	inputs  map[uint8]gpio.Level

	// Controller model.
	fourBit   bool
	haveHigh  bool
	high      byte
	addr      int
	entryLeft bool
	displayOn bool
	cells     [][]byte
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	cols, rows := opts.Cols, opts.Rows
	if cols == 0 {
		cols = 16
	}
	if rows == 0 {
		rows = 2
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	d := &Dev{
		w:         w,
		palette:   *p,
		cols:      cols,
		rows:      rows,
		inputs:    map[uint8]gpio.Level{},
		entryLeft: true,
		cells:     make([][]byte, rows),
	}
	for i := range d.cells {
		d.cells[i] = bytes.Repeat([]byte{' '}, cols)
	}
	for i := range d.modes {
		d.modes[i] = mcp23017.Input
	}
	return d
}

func (d *Dev) String() string {
	return fmt.Sprintf("PlateSim %dx%d", d.cols, d.rows)
}

// Halt restores the terminal colors.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// SetPinMode implements charlcd.Expander. Switching the backlight pin's
// mode repaints, since the plate's backlight circuit reads a floating
// line as off.
func (d *Dev) SetPinMode(pin uint8, mode mcp23017.PinMode) error {
	if pin > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	changed := d.modes[pin] != mode
	d.modes[pin] = mode
	if changed && pin == charlcd.PinBacklight {
		return d.refresh()
	}
	return nil
}

// SetPullUp implements charlcd.Expander.
func (d *Dev) SetPullUp(pin uint8, enabled bool) error {
	if pin > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	d.pullups[pin] = enabled
	return nil
}

// DigitalWrite implements charlcd.Expander.
func (d *Dev) DigitalWrite(pin uint8, level gpio.Level) error {
	if pin > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	falling := pin == charlcd.PinE && d.levels[pin] == gpio.High && level == gpio.Low
	d.levels[pin] = level
	if falling {
		return d.latch()
	}
	return nil
}

// DigitalRead implements charlcd.Expander. Levels injected with SetButton
// win; otherwise an input with a pull-up reads high.
func (d *Dev) DigitalRead(pin uint8) (gpio.Level, error) {
	if pin > 15 {
		return gpio.Low, fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	if l, ok := d.inputs[pin]; ok {
		return l, nil
	}
	if d.modes[pin] == mcp23017.Input && d.pullups[pin] {
		return gpio.High, nil
	}
	return d.levels[pin], nil
}

// SetButton presses or releases a button pin. A pressed button pulls the
// line low, matching the plate's pull-up wiring.
func (d *Dev) SetButton(pin uint8, pressed bool) {
	if pressed {
		d.inputs[pin] = gpio.Low
	} else {
		delete(d.inputs, pin)
	}
}

// Text returns the visible cell matrix, one string per row.
func (d *Dev) Text() []string {
	out := make([]string, d.rows)
	for i, row := range d.cells {
		out[i] = string(row)
	}
	return out
}

// latch consumes the nibble currently presented on D4-D7.
func (d *Dev) latch() error {
	var nib byte
	for i, pin := range dataPins {
		if d.levels[pin] {
			nib |= 1 << i
		}
	}
	if !d.fourBit {
		// Only D7-D4 are wired, so an 8-bit-mode controller sees the
		// nibble as the command's high half. 0x2 is function-set with
		// the 4-bit flag; anything else (the 0x3 retries) is ignored.
		if nib == 0x2 {
			d.fourBit = true
		}
		return nil
	}
	if !d.haveHigh {
		d.high = nib
		d.haveHigh = true
		return nil
	}
	b := d.high<<4 | nib
	d.haveHigh = false
	if d.levels[charlcd.PinRS] {
		d.putChar(b)
	} else {
		d.command(b)
	}
	return d.refresh()
}

func (d *Dev) putChar(b byte) {
	if row, col, ok := d.cell(d.addr); ok {
		d.cells[row][col] = b
	}
	if d.entryLeft {
		d.addr++
	} else if d.addr > 0 {
		d.addr--
	}
}

func (d *Dev) command(b byte) {
	switch {
	case b&0x80 != 0: // set DDRAM address
		d.addr = int(b & 0x7f)
	case b&0x40 != 0: // set CGRAM address, no custom glyphs here
	case b&0x20 != 0: // function set
		d.fourBit = b&0x10 == 0
	case b&0x10 != 0: // cursor/display shift, not modeled
	case b&0x08 != 0: // display control
		d.displayOn = b&0x04 != 0
	case b&0x04 != 0: // entry mode set
		d.entryLeft = b&0x02 != 0
	case b&0x02 != 0: // return home
		d.addr = 0
	case b&0x01 != 0: // clear display
		for _, row := range d.cells {
			for i := range row {
				row[i] = ' '
			}
		}
		d.addr = 0
	}
}

// cell maps a DDRAM address to a visible cell, if any. The row windows
// overlap in address space, so the first matching row wins.
func (d *Dev) cell(addr int) (row, col int, ok bool) {
	for r := 0; r < d.rows; r++ {
		c := addr - rowOffsets[r]
		if c >= 0 && c < d.cols {
			return r, c, true
		}
	}
	return 0, 0, false
}

func (d *Dev) backlightColor() color.NRGBA {
	c := color.NRGBA{A: 255}
	if d.modes[charlcd.PinBacklight] == mcp23017.Input {
		// Floating enable line: backlight off.
		return c
	}
	// Common anode: a low channel pin lights the channel.
	if !d.levels[charlcd.PinRed] {
		c.R = 255
	}
	if !d.levels[charlcd.PinGreen] {
		c.G = 255
	}
	if !d.levels[charlcd.PinBlue] {
		c.B = 255
	}
	return c
}

// refresh repaints the plate: a backlight color bar above the character
// rows. This code is designed to minimize the amount of memory allocated
// per call.
func (d *Dev) refresh() (err error) {
	d.buf.Reset()
	if d.painted {
		fmt.Fprintf(&d.buf, "\033[%dA", d.rows+1)
	}
	d.painted = true
	_, _ = d.buf.WriteString("\r\033[0m")
	bl := d.backlightColor()
	for i := 0; i < d.cols+2; i++ {
		_, _ = io.WriteString(&d.buf, d.palette.Block(bl))
	}
	_, _ = d.buf.WriteString("\033[0m\n")
	for _, row := range d.cells {
		_ = d.buf.WriteByte('|')
		if d.displayOn {
			_, _ = d.buf.Write(row)
		} else {
			_, _ = d.buf.Write(bytes.Repeat([]byte{' '}, d.cols))
		}
		_, _ = d.buf.WriteString("|\n")
	}
	_, err = d.buf.WriteTo(d.w)
	return err
}

var _ charlcd.Expander = &Dev{}
var _ fmt.Stringer = &Dev{}
