// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package charlcd_test

import (
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"lcdplate/charlcd"
	"lcdplate/mcp23017"
)

// Drive a 16x2 plate on the default I2C bus: write two lines, set the
// backlight color, and poll the buttons for a few seconds.
func ExampleNewI2C() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	// Open default I²C bus.
	bus, err := i2creg.Open("")
	if err != nil {
		log.Fatalf("failed to open I²C: %v", err)
	}
	defer bus.Close()

	lcd, err := charlcd.NewI2C(bus, mcp23017.DefaultAddress, 16, 2)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(lcd.String())

	if err := lcd.Message("Hello\nfrom periph"); err != nil {
		log.Fatal(err)
	}
	if err := lcd.SetColor(255, 0, 128); err != nil {
		log.Fatal(err)
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	stop := time.After(5 * time.Second)
	for {
		select {
		case <-stop:
			_ = lcd.Halt()
			return
		case <-ticker.C:
			for _, b := range []charlcd.Button{
				charlcd.ButtonSelect, charlcd.ButtonRight, charlcd.ButtonDown,
				charlcd.ButtonUp, charlcd.ButtonLeft,
			} {
				l, err := lcd.ReadButton(b)
				if err != nil {
					log.Fatal(err)
				}
				// Pull-ups make an idle button read high.
				if !l {
					fmt.Println("pressed:", b)
				}
			}
		}
	}
}
