// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdplate is a container for the RGB character LCD plate driver
// and its supporting devices.
//
// The interesting packages are:
//
//   - charlcd: an HD44780 character LCD with RGB backlight and buttons,
//     driven through an MCP23017 I2C GPIO expander.
//   - mcp23017: the GPIO expander driver the plate sits behind.
//   - platesim: a terminal emulator of the plate, for development and
//     integration testing without hardware.
//   - envdisplay: a temperature/humidity readout that mirrors its output
//     to an SSD1306 OLED and the plate.
package lcdplate
