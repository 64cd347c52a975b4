// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package charlcd

import (
	"time"

	"periph.io/x/conn/v3/gpio"

	"lcdplate/mcp23017"
)

// Expander is the slice of GPIO expander functionality the plate needs.
// Every operation can fail with a bus error; the driver propagates such
// errors unchanged and never retries, since a retried half-sent nibble
// would desynchronize the LCD controller.
//
// mcp23017.Dev satisfies this interface. platesim.Dev provides a
// hardware-free implementation.
type Expander interface {
	SetPinMode(pin uint8, mode mcp23017.PinMode) error
	SetPullUp(pin uint8, enabled bool) error
	DigitalWrite(pin uint8, level gpio.Level) error
	DigitalRead(pin uint8) (gpio.Level, error)
}

var _ Expander = &mcp23017.Dev{}

// Sleeper blocks the calling goroutine for at least d. The driver uses it
// for the LCD controller's guard times, which range from one microsecond
// to tens of milliseconds. Passing nil to New selects a time.Sleep backed
// implementation.
type Sleeper interface {
	Sleep(d time.Duration)
}

type timeSleeper struct{}

func (timeSleeper) Sleep(d time.Duration) { time.Sleep(d) }
