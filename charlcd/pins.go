// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package charlcd

// Expander pin assignments for the plate. Pins 0-7 are port A of the
// MCP23017, pins 8-15 are port B. The assignment is fixed by the plate's
// PCB routing; it is exported so alternate expander implementations can
// emulate the same wiring.
const (
	PinSelect    uint8 = 0  // A0, select button
	PinRight     uint8 = 1  // A1, right button
	PinDown      uint8 = 2  // A2, down button
	PinUp        uint8 = 3  // A3, up button
	PinLeft      uint8 = 4  // A4, left button
	PinBacklight uint8 = 5  // A5, monochrome backlight enable
	PinRed       uint8 = 6  // A6, red backlight channel
	PinGreen     uint8 = 7  // A7, green backlight channel
	PinBlue      uint8 = 8  // B0, blue backlight channel
	PinD7        uint8 = 9  // B1
	PinD6        uint8 = 10 // B2
	PinD5        uint8 = 11 // B3
	PinD4        uint8 = 12 // B4
	PinE         uint8 = 13 // B5, enable strobe
	PinRW        uint8 = 14 // B6, read/write select, held low
	PinRS        uint8 = 15 // B7, register select
)

// Button identifies one of the five momentary buttons on the plate.
type Button uint8

const (
	ButtonSelect Button = iota
	ButtonRight
	ButtonDown
	ButtonUp
	ButtonLeft
)

func (b Button) String() string {
	switch b {
	case ButtonSelect:
		return "Select"
	case ButtonRight:
		return "Right"
	case ButtonDown:
		return "Down"
	case ButtonUp:
		return "Up"
	case ButtonLeft:
		return "Left"
	}
	return "Unknown"
}

// Pin-to-purpose tables. Kept as data so the driver logic never branches
// on pin identity.
var (
	controlPins = [...]uint8{PinRS, PinE, PinD4, PinD5, PinD6, PinD7, PinRW}
	dataPins    = [...]uint8{PinD4, PinD5, PinD6, PinD7}
	rgbPins     = [...]uint8{PinRed, PinGreen, PinBlue}
	buttonPins  = [...]uint8{PinSelect, PinRight, PinDown, PinUp, PinLeft}
)

// DDRAM start address per row. Row 2 continues row 0's address space and
// row 3 continues row 1's; the layout is not contiguous.
var rowOffsets = [...]byte{0x00, 0x40, 0x14, 0x54}
