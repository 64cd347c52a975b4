// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package example

import (
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"

	"lcdplate/charlcd"
	"lcdplate/envdisplay"
	"lcdplate/mcp23017"
)

// Example polls a BME280 once a second for a minute and shows the
// readings on an SSD1306 OLED and an RGB LCD plate, all on the same I2C
// bus.
func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Use i2creg I²C bus registry to find the first available I²C bus.
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	sensor, err := bmxx80.NewI2C(bus, 0x76, &bmxx80.DefaultOpts)
	if err != nil {
		log.Fatal(err)
	}
	oled, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		log.Fatal(err)
	}
	plate, err := charlcd.NewI2C(bus, mcp23017.DefaultAddress, 16, 2)
	if err != nil {
		log.Fatal(err)
	}

	dash, err := envdisplay.New(sensor, oled, &envdisplay.Opts{Plate: plate})
	if err != nil {
		log.Fatal(err)
	}
	if err := dash.Run(60, time.Second); err != nil {
		log.Fatal(err)
	}
	_ = plate.Halt()
}
