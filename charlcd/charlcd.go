// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package charlcd controls an HD44780 character LCD plate with an RGB
// backlight and five buttons, wired behind an MCP23017 I2C GPIO expander.
//
// The LCD data bus is driven in 4-bit mode, one expander pin write per
// logical line. The driver keeps write-only shadow copies of the
// controller's function, control and entry-mode flag bytes and writes the
// full byte back on every change; the hardware offers no readback, so the
// shadows are the only source of truth.
//
// Implements periph.io/x/conn/v3/display.TextDisplay,
// display.DisplayBacklight and display.DisplayRGBBacklight.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package charlcd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"

	"lcdplate/mcp23017"
)

const packageName = "charlcd"

// HD44780 command bytes.
const (
	cmdClearDisplay   byte = 0x01
	cmdReturnHome     byte = 0x02
	cmdEntryModeSet   byte = 0x04
	cmdDisplayControl byte = 0x08
	cmdCursorShift    byte = 0x10
	cmdFunctionSet    byte = 0x20
	cmdSetCGRAMAddr   byte = 0x40
	cmdSetDDRAMAddr   byte = 0x80
)

// Entry mode flags.
const (
	entryLeft           byte = 0x02
	entryShiftDecrement byte = 0x00
)

// Display control flags.
const (
	ctlDisplayOn byte = 0x04
	ctlCursorOn  byte = 0x02
	ctlBlinkOn   byte = 0x01
)

// Cursor/display shift flags.
const (
	shiftMoveRight byte = 0x04
)

// Function set flags.
const (
	fn4BitMode byte = 0x00
	fn1Line    byte = 0x00
	fn2Line    byte = 0x08
	fn5x8Dots  byte = 0x00
)

// Controller guard times. The three enable-pulse magnitudes are datasheet
// minimums and must not be shortened.
const (
	powerOnWait     = 50 * time.Millisecond
	resetNibbleWait = 5 * time.Millisecond
	modeSettleWait  = time.Millisecond
	enableEdgeWait  = time.Microsecond
	commandExecWait = 100 * time.Microsecond
	clearHomeWait   = 3 * time.Millisecond
)

// TextDirection selects the entry direction for written characters.
type TextDirection uint8

const (
	LeftToRight TextDirection = iota
	RightToLeft
)

var (
	// ErrRowOutOfRange is returned by SetCursor when the requested row
	// is outside the configured geometry. CursorPosition clamps instead.
	ErrRowOutOfRange = errors.New(packageName + ": row out of range")

	// ErrNotImplemented is returned for TextDisplay features the
	// controller has no equivalent for.
	ErrNotImplemented = fmt.Errorf("%s: %w", packageName, display.ErrNotImplemented)
)

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), packageName) {
		return err
	}
	return fmt.Errorf("%s: %w", packageName, err)
}

// Dev is a handle to the plate. It owns the expander exclusively and is
// not safe for concurrent use; callers needing that must add their own
// mutual exclusion around whole operations.
type Dev struct {
	exp   Expander
	sleep Sleeper
	cols  int
	lines int

	row         int
	col         int
	backlight   bool
	rgb         [3]uint8
	columnAlign bool
	direction   TextDirection

	displayFunction byte
	displayControl  byte
	displayMode     byte
}

// New configures the expander pins and runs the controller's power-on
// initialization before returning. sl may be nil to sleep with
// time.Sleep. cols and lines describe the panel geometry; at most four
// lines are addressable.
func New(exp Expander, sl Sleeper, cols, lines int) (*Dev, error) {
	if cols < 1 || lines < 1 || lines > len(rowOffsets) {
		return nil, fmt.Errorf("%s: unsupported geometry %dx%d", packageName, cols, lines)
	}
	if sl == nil {
		sl = timeSleeper{}
	}
	d := &Dev{exp: exp, sleep: sl, cols: cols, lines: lines, backlight: true}
	if err := d.setupPins(); err != nil {
		return nil, wrap(err)
	}
	if err := d.initialize(); err != nil {
		return nil, wrap(err)
	}
	return d, nil
}

// NewI2C creates an MCP23017 at the given address on the bus and returns
// a plate driver on top of it.
func NewI2C(bus i2c.Bus, address uint16, cols, lines int) (*Dev, error) {
	exp, err := mcp23017.New(bus, address)
	if err != nil {
		return nil, wrap(err)
	}
	return New(exp, nil, cols, lines)
}

func (d *Dev) setupPins() error {
	for _, pin := range controlPins {
		if err := d.exp.SetPinMode(pin, mcp23017.Output); err != nil {
			return err
		}
	}
	for _, pin := range rgbPins {
		if err := d.exp.SetPinMode(pin, mcp23017.Output); err != nil {
			return err
		}
	}
	for _, pin := range buttonPins {
		if err := d.exp.SetPinMode(pin, mcp23017.Input); err != nil {
			return err
		}
		if err := d.exp.SetPullUp(pin, true); err != nil {
			return err
		}
	}
	return nil
}

// initialize performs the documented power-on sequence: wait out the
// controller's own reset, force the control lines low, then send 0x03
// three times before 0x02 to converge the interface into 4-bit mode from
// whatever state power-up left it in.
func (d *Dev) initialize() error {
	d.sleep.Sleep(powerOnWait)
	for _, pin := range [...]uint8{PinRS, PinE, PinRW} {
		if err := d.exp.DigitalWrite(pin, gpio.Low); err != nil {
			return err
		}
	}
	for _, step := range [...]struct {
		nibble byte
		wait   time.Duration
	}{
		{0x03, resetNibbleWait},
		{0x03, resetNibbleWait},
		{0x03, modeSettleWait},
		{0x02, modeSettleWait},
	} {
		if err := d.write4Bits(step.nibble); err != nil {
			return err
		}
		d.sleep.Sleep(step.wait)
	}

	// The plate this driver descends from sets both line-count flags at
	// once. The standard encoding treats them as exclusive, but this is
	// the combination the shipped hardware was validated against.
	d.displayFunction = fn4BitMode | fn1Line | fn2Line | fn5x8Dots
	d.displayControl = ctlDisplayOn
	d.displayMode = entryLeft | entryShiftDecrement

	if err := d.writeCommand(cmdFunctionSet | d.displayFunction); err != nil {
		return err
	}
	if err := d.writeCommand(cmdDisplayControl | d.displayControl); err != nil {
		return err
	}
	if err := d.writeCommand(cmdEntryModeSet | d.displayMode); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	d.columnAlign = false
	d.direction = LeftToRight
	return d.SetColor(0, 0, 0)
}

// write4Bits presents the low 4 bits of value on D4-D7 and strobes the
// enable line once. Each line is its own expander transaction; the first
// failure aborts the call.
func (d *Dev) write4Bits(value byte) error {
	for i, pin := range dataPins {
		if err := d.exp.DigitalWrite(pin, gpio.Level(value&(1<<i) != 0)); err != nil {
			return err
		}
	}
	return d.pulseEnable()
}

// pulseEnable latches the currently presented nibble. The trailing wait
// covers the controller's internal processing time.
func (d *Dev) pulseEnable() error {
	if err := d.exp.DigitalWrite(PinE, gpio.Low); err != nil {
		return err
	}
	d.sleep.Sleep(enableEdgeWait)
	if err := d.exp.DigitalWrite(PinE, gpio.High); err != nil {
		return err
	}
	d.sleep.Sleep(enableEdgeWait)
	if err := d.exp.DigitalWrite(PinE, gpio.Low); err != nil {
		return err
	}
	d.sleep.Sleep(commandExecWait)
	return nil
}

// write8 transfers one byte as two nibbles, high first. data selects the
// character register, otherwise the command register.
func (d *Dev) write8(value byte, data bool) error {
	if err := d.exp.DigitalWrite(PinRS, gpio.Level(data)); err != nil {
		return err
	}
	if err := d.write4Bits(value >> 4); err != nil {
		return err
	}
	return d.write4Bits(value & 0x0f)
}

func (d *Dev) writeCommand(value byte) error {
	return d.write8(value, false)
}

// Clear blanks the display and returns the cursor to the origin.
func (d *Dev) Clear() error {
	if err := d.writeCommand(cmdClearDisplay); err != nil {
		return wrap(err)
	}
	d.sleep.Sleep(clearHomeWait)
	d.row, d.col = 0, 0
	return nil
}

// Home returns the cursor to the origin without clearing.
func (d *Dev) Home() error {
	if err := d.writeCommand(cmdReturnHome); err != nil {
		return wrap(err)
	}
	d.sleep.Sleep(clearHomeWait)
	d.row, d.col = 0, 0
	return nil
}

// SetCursor moves the cursor to (col, row), zero based. A row outside the
// configured line count returns ErrRowOutOfRange before any bus traffic.
// The column is not range checked; out-of-range columns address DDRAM
// beyond the visible window. Callers wanting saturating behavior should
// use CursorPosition.
func (d *Dev) SetCursor(col, row int) error {
	if row < 0 || row >= d.lines {
		return fmt.Errorf("%w: %d with %d lines", ErrRowOutOfRange, row, d.lines)
	}
	if err := d.writeCommand(cmdSetDDRAMAddr | (byte(col) + rowOffsets[row])); err != nil {
		return wrap(err)
	}
	d.row, d.col = row, col
	return nil
}

// CursorPosition moves the cursor to (col, row), zero based, clamping
// both coordinates into the panel geometry. It only fails on bus errors.
func (d *Dev) CursorPosition(col, row int) error {
	if row >= d.lines {
		row = d.lines - 1
	}
	if row < 0 {
		row = 0
	}
	if col >= d.cols {
		col = d.cols - 1
	}
	if col < 0 {
		col = 0
	}
	if err := d.writeCommand(cmdSetDDRAMAddr | (byte(col) + rowOffsets[row])); err != nil {
		return wrap(err)
	}
	d.row, d.col = row, col
	return nil
}

// Message writes text to the display. The first character is placed at
// the tracked column, mirrored when the entry direction is right to left.
// A '\n' advances to the next line; the new column is the tracked column
// when column alignment is on, otherwise the line edge matching the entry
// direction. Characters are written as single-byte code points.
//
// After the write completes, cursor tracking resets to the origin
// regardless of where the text ended, so a following Message always
// starts as if at (0, 0).
func (d *Dev) Message(text string) error {
	line := d.row
	first := true
	for i := 0; i < len(text); i++ {
		if first {
			col := d.col
			if d.displayMode&entryLeft == 0 {
				col = d.cols - 1 - d.col
			}
			if err := d.CursorPosition(col, line); err != nil {
				return err
			}
			first = false
		}
		if text[i] == '\n' {
			line++
			col := 0
			if d.columnAlign {
				col = d.col
			} else if d.displayMode&entryLeft == 0 {
				col = d.cols - 1
			}
			if err := d.CursorPosition(col, line); err != nil {
				return err
			}
		} else {
			if err := d.write8(text[i], true); err != nil {
				return wrap(err)
			}
		}
	}
	d.row, d.col = 0, 0
	return nil
}

// SetColor sets the RGB backlight. The LEDs are common anode and digital
// only: any channel value above 1 drives the pin low (on), 0 and 1 drive
// it high (off). The values are stored as given and reported by Color.
func (d *Dev) SetColor(r, g, b uint8) error {
	for i, v := range [3]uint8{r, g, b} {
		level := gpio.High
		if v > 1 {
			level = gpio.Low
		}
		if err := d.exp.DigitalWrite(rgbPins[i], level); err != nil {
			return wrap(err)
		}
	}
	d.rgb = [3]uint8{r, g, b}
	return nil
}

// Color returns the channel values most recently passed to SetColor.
func (d *Dev) Color() (r, g, b uint8) {
	return d.rgb[0], d.rgb[1], d.rgb[2]
}

// SetBacklight switches the monochrome backlight. The plate's driver
// circuit treats a floating line as off, so this toggles the pin's mode
// between output and input rather than its level; the wiring depends on
// that, a level write would not work.
func (d *Dev) SetBacklight(on bool) error {
	mode := mcp23017.Input
	if on {
		mode = mcp23017.Output
	}
	if err := d.exp.SetPinMode(PinBacklight, mode); err != nil {
		return wrap(err)
	}
	d.backlight = on
	return nil
}

// SetTextDirection sets the entry direction and writes the entry-mode
// byte back to the controller.
func (d *Dev) SetTextDirection(dir TextDirection) error {
	switch dir {
	case LeftToRight:
		d.displayMode |= entryLeft
	case RightToLeft:
		d.displayMode &^= entryLeft
	default:
		return fmt.Errorf("%s: unknown text direction %d", packageName, dir)
	}
	if err := d.writeCommand(cmdEntryModeSet | d.displayMode); err != nil {
		return wrap(err)
	}
	d.direction = dir
	return nil
}

// SetColumnAlign controls whether a '\n' in Message keeps the current
// column instead of returning to the line edge.
func (d *Dev) SetColumnAlign(align bool) {
	d.columnAlign = align
}

// ReadButton returns the raw level on a button's pin. The pins are inputs
// with pull-ups, so the polarity is whatever the wiring yields; this
// layer does not invert it.
func (d *Dev) ReadButton(b Button) (gpio.Level, error) {
	if int(b) >= len(buttonPins) {
		return gpio.Low, fmt.Errorf("%s: unknown button %d", packageName, b)
	}
	l, err := d.exp.DigitalRead(buttonPins[b])
	return l, wrap(err)
}

// Display turns the display on or off without losing its contents.
func (d *Dev) Display(on bool) error {
	if on {
		d.displayControl |= ctlDisplayOn
	} else {
		d.displayControl &^= ctlDisplayOn
	}
	return wrap(d.writeCommand(cmdDisplayControl | d.displayControl))
}

// Cursor sets the cursor style. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	d.displayControl &^= ctlCursorOn | ctlBlinkOn
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
		case display.CursorUnderline:
			d.displayControl |= ctlCursorOn
		case display.CursorBlink, display.CursorBlock:
			d.displayControl |= ctlBlinkOn
		default:
			return fmt.Errorf("%s: unexpected cursor mode %d", packageName, mode)
		}
	}
	return wrap(d.writeCommand(cmdDisplayControl | d.displayControl))
}

// Move shifts the cursor forward or backward one cell. Cursor tracking is
// not adjusted; the controller moves its own address counter.
func (d *Dev) Move(dir display.CursorDirection) error {
	val := cmdCursorShift
	switch dir {
	case display.Backward:
	case display.Forward:
		val |= shiftMoveRight
	default:
		return ErrNotImplemented
	}
	return wrap(d.writeCommand(val))
}

// MoveTo moves the cursor to a one-based (row, col) position, validating
// both coordinates. It exists to satisfy display.TextDisplay; SetCursor
// and CursorPosition are the zero-based native entry points.
func (d *Dev) MoveTo(row, col int) error {
	if row < d.MinRow() || row > d.lines || col < d.MinCol() || col > d.cols {
		return fmt.Errorf("%s: MoveTo(%d,%d) value out of range", packageName, row, col)
	}
	return d.SetCursor(col-1, row-1)
}

// AutoScroll is not supported by this device.
func (d *Dev) AutoScroll(enabled bool) error {
	return ErrNotImplemented
}

// Rows returns the number of lines the display supports.
func (d *Dev) Rows() int {
	return d.lines
}

// Cols returns the number of columns the display supports.
func (d *Dev) Cols() int {
	return d.cols
}

// MinRow returns the minimum row position for MoveTo.
func (d *Dev) MinRow() int {
	return 1
}

// MinCol returns the minimum column position for MoveTo.
func (d *Dev) MinCol() int {
	return 1
}

// Write sends a set of bytes to the display with Message layout rules.
func (d *Dev) Write(p []byte) (int, error) {
	if err := d.Message(string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString writes a string to the display.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// Backlight turns the monochrome backlight on for any non-zero intensity.
// The plate cannot dim.
func (d *Dev) Backlight(intensity display.Intensity) error {
	return d.SetBacklight(intensity > 0)
}

// RGBBacklight sets the backlight color. Intensity is reduced to on/off
// per channel, see SetColor.
func (d *Dev) RGBBacklight(red, green, blue display.Intensity) error {
	return d.SetColor(uint8(red), uint8(green), uint8(blue))
}

// Halt clears the display and turns the backlight and display off.
func (d *Dev) Halt() error {
	_ = d.Clear()
	_ = d.SetBacklight(false)
	return d.Display(false)
}

func (d *Dev) String() string {
	return fmt.Sprintf("CharLCD - Rows: %d, Cols: %d", d.lines, d.cols)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ display.DisplayRGBBacklight = &Dev{}
var _ conn.Resource = &Dev{}
