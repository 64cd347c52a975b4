// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package platesim_test

import (
	"log"
	"time"

	"lcdplate/charlcd"
	"lcdplate/platesim"
)

// Drive an emulated plate at the terminal: no hardware required.
func Example() {
	sim := platesim.New(&platesim.Opts{})
	lcd, err := charlcd.New(sim, nil, 16, 2)
	if err != nil {
		log.Fatal(err)
	}

	if err := lcd.Message("It works\nwithout wires"); err != nil {
		log.Fatal(err)
	}
	for _, c := range [][3]uint8{{255, 0, 0}, {0, 255, 0}, {0, 0, 255}} {
		if err := lcd.SetColor(c[0], c[1], c[2]); err != nil {
			log.Fatal(err)
		}
		time.Sleep(500 * time.Millisecond)
	}
	_ = lcd.Halt()
}
