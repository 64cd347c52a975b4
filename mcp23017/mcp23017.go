// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp23017 provides a driver for the Microchip MCP23017 16-bit I2C
// GPIO expander.
//
// The driver exposes per-pin operations: direction, pull-up, digital write
// and digital read. Output state is tracked in shadow copies of the IODIR,
// GPPU and OLAT registers, so no register readback is needed for writes.
// Pins 0-7 are port A, pins 8-15 are port B.
//
// Interrupt-on-change and the BANK=1 register layout are not supported.
//
// # Datasheet
//
// https://ww1.microchip.com/downloads/en/DeviceDoc/20001952C.pdf
package mcp23017

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
)

// PinMode is the direction of an expander pin.
type PinMode uint8

const (
	Output PinMode = iota
	Input
)

// DefaultAddress is the device address with A0-A2 grounded.
const DefaultAddress uint16 = 0x20

// Register addresses with BANK=0 (the power-on default, which New
// enforces by clearing IOCON).
const (
	regIODIRA = 0x00
	regIODIRB = 0x01
	regIOCON  = 0x0a
	regGPPUA  = 0x0c
	regGPPUB  = 0x0d
	regGPIOA  = 0x12
	regGPIOB  = 0x13
	regOLATA  = 0x14
	regOLATB  = 0x15
)

// ErrInvalidPin is returned when a pin number is outside 0-15.
var ErrInvalidPin = errors.New("mcp23017: invalid pin")

// Dev is a handle to an MCP23017.
type Dev struct {
	mu    sync.Mutex
	d     *i2c.Dev
	iodir [2]uint8
	gppu  [2]uint8
	olat  [2]uint8
}

// New initializes an MCP23017 on the given bus and returns a handle to it.
// The device is forced into a known state: BANK=0 sequential addressing,
// all pins input, pull-ups disabled, output latches low.
func New(bus i2c.Bus, address uint16) (*Dev, error) {
	dev := &Dev{d: &i2c.Dev{Bus: bus, Addr: address}}
	// IOCON only decodes as expected when the chip is already in BANK=0,
	// which is guaranteed after power-on.
	if err := dev.writeReg(regIOCON, 0x00); err != nil {
		return nil, err
	}
	dev.iodir = [2]uint8{0xff, 0xff}
	for port, reg := range []byte{regIODIRA, regIODIRB} {
		if err := dev.writeReg(reg, dev.iodir[port]); err != nil {
			return nil, err
		}
	}
	for _, reg := range []byte{regGPPUA, regGPPUB, regOLATA, regOLATB} {
		if err := dev.writeReg(reg, 0x00); err != nil {
			return nil, err
		}
	}
	return dev, nil
}

// SetPinMode configures a pin as Input or Output. The write is skipped if
// the direction register already holds the requested direction.
func (dev *Dev) SetPinMode(pin uint8, mode PinMode) error {
	if pin > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	port := pin >> 3
	bit := uint8(1) << (pin & 7)
	updated := dev.iodir[port] &^ bit
	if mode == Input {
		updated |= bit
	}
	if updated == dev.iodir[port] {
		return nil
	}
	err := dev.writeReg(regIODIRA+byte(port), updated)
	if err == nil {
		dev.iodir[port] = updated
	}
	return err
}

// SetPullUp enables or disables the 100k internal pull-up on a pin. Only
// meaningful for pins configured as Input. The write is skipped if the
// pull-up register is unchanged.
func (dev *Dev) SetPullUp(pin uint8, enabled bool) error {
	if pin > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	port := pin >> 3
	bit := uint8(1) << (pin & 7)
	updated := dev.gppu[port] &^ bit
	if enabled {
		updated |= bit
	}
	if updated == dev.gppu[port] {
		return nil
	}
	err := dev.writeReg(regGPPUA+byte(port), updated)
	if err == nil {
		dev.gppu[port] = updated
	}
	return err
}

// DigitalWrite sets the output latch for a pin. Unlike SetPinMode and
// SetPullUp, the latch register is always written, even when it already
// holds the level: timing-sensitive consumers (LCD enable strobes) count
// on every call being a real bus transaction.
func (dev *Dev) DigitalWrite(pin uint8, level gpio.Level) error {
	if pin > 15 {
		return fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	port := pin >> 3
	bit := uint8(1) << (pin & 7)
	updated := dev.olat[port] &^ bit
	if level {
		updated |= bit
	}
	err := dev.writeReg(regOLATA+byte(port), updated)
	if err == nil {
		dev.olat[port] = updated
	}
	return err
}

// DigitalRead returns the level present on a pin.
func (dev *Dev) DigitalRead(pin uint8) (gpio.Level, error) {
	if pin > 15 {
		return gpio.Low, fmt.Errorf("%w: %d", ErrInvalidPin, pin)
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	v, err := dev.readReg(regGPIOA + byte(pin>>3))
	if err != nil {
		return gpio.Low, err
	}
	return gpio.Level(v&(1<<(pin&7)) != 0), nil
}

// Halt returns all pins to inputs, the power-on safe state.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	for port, reg := range []byte{regIODIRA, regIODIRB} {
		if dev.iodir[port] == 0xff {
			continue
		}
		if err := dev.writeReg(reg, 0xff); err != nil {
			return err
		}
		dev.iodir[port] = 0xff
	}
	return nil
}

func (dev *Dev) String() string {
	return fmt.Sprintf("MCP23017_%x", dev.d.Addr)
}

func (dev *Dev) writeReg(reg, value byte) error {
	if err := dev.d.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("mcp23017: %w", err)
	}
	return nil
}

func (dev *Dev) readReg(reg byte) (byte, error) {
	var r [1]byte
	if err := dev.d.Tx([]byte{reg}, r[:]); err != nil {
		return 0, fmt.Errorf("mcp23017: %w", err)
	}
	return r[0], nil
}
