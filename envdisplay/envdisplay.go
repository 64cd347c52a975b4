// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package envdisplay periodically reads an environmental sensor and
// renders the measurements, both to a monochrome OLED and, optionally,
// to an RGB character LCD plate.
//
// The plate's buttons are wired too: select toggles the backlight and
// up/down cycle through backlight colors.
package envdisplay

import (
	"fmt"
	"image"
	"image/draw"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"lcdplate/charlcd"
)

func wrap(err error) error {
	return fmt.Errorf("envdisplay: %w", err)
}

// Sensor is the slice of sensor functionality this package needs.
// bmxx80.Dev satisfies it.
type Sensor interface {
	Sense(e *physic.Env) error
}

// Display is a drawable frame sink. ssd1306.Dev satisfies it.
type Display interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// Backlight colors the up/down buttons cycle through.
var colors = [][3]uint8{
	{255, 255, 255},
	{255, 0, 0},
	{255, 255, 0},
	{0, 255, 0},
	{0, 255, 255},
	{0, 0, 255},
	{255, 0, 255},
}

// Opts represents the options available for the dashboard.
type Opts struct {
	// FontSize in points. Defaults to 16.
	FontSize float64
	// Plate optionally mirrors the readings to a character LCD plate and
	// enables its button bindings.
	Plate *charlcd.Dev

	_ struct{}
}

// Dev is an environmental dashboard bound to a sensor and a display.
type Dev struct {
	sensor Sensor
	disp   Display
	plate  *charlcd.Dev
	face   font.Face

	colorIdx    int
	backlightOn bool
	prev        map[charlcd.Button]bool
}

// New returns a Dev polling sensor and drawing to disp.
func New(sensor Sensor, disp Display, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	size := opts.FontSize
	if size == 0 {
		size = 16
	}
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, wrap(err)
	}
	return &Dev{
		sensor:      sensor,
		disp:        disp,
		plate:       opts.Plate,
		face:        truetype.NewFace(f, &truetype.Options{Size: size}),
		backlightOn: true,
		prev:        map[charlcd.Button]bool{},
	}, nil
}

func (d *Dev) String() string {
	return "EnvDisplay"
}

// Step takes one measurement and pushes it to the display(s). A sensor
// failure still produces a frame, so a flaky probe does not leave stale
// readings on screen.
func (d *Dev) Step() error {
	var frame image.Image
	var line1, line2 string
	e := physic.Env{}
	if err := d.sensor.Sense(&e); err != nil {
		line1 = "sensor error"
		line2 = "--"
	} else {
		line1 = fmt.Sprintf("%.1f C", e.Temperature.Celsius())
		line2 = fmt.Sprintf("%.0f%% RH", float64(e.Humidity)/float64(physic.PercentRH))
	}
	frame = d.renderFrame(line1, line2)
	if err := d.disp.Draw(d.disp.Bounds(), frame, image.Point{}); err != nil {
		return wrap(err)
	}
	if d.plate != nil {
		if err := d.plate.Message(line1 + "\n" + line2); err != nil {
			return wrap(err)
		}
		if err := d.handleButtons(); err != nil {
			return wrap(err)
		}
	}
	return nil
}

// Run performs n steps, one every interval. It returns on the first
// failing step.
func (d *Dev) Run(n int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 0; i < n; i++ {
		if err := d.Step(); err != nil {
			return err
		}
		if i < n-1 {
			<-ticker.C
		}
	}
	return nil
}

// renderFrame draws the two text lines into a 1-bit frame matching the
// display geometry.
func (d *Dev) renderFrame(line1, line2 string) image.Image {
	b := d.disp.Bounds()
	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	dc.SetRGB(1, 1, 1)
	dc.SetFontFace(d.face)
	w, h := float64(b.Dx()), float64(b.Dy())
	dc.DrawStringAnchored(line1, w/2, h/3, 0.5, 0.5)
	dc.DrawStringAnchored(line2, w/2, 2*h/3, 0.5, 0.5)
	img := image1bit.NewVerticalLSB(b)
	draw.Draw(img, b, dc.Image(), image.Point{}, draw.Src)
	return img
}

// handleButtons applies one debounced scan of the plate buttons. Actions
// fire on the press edge only.
func (d *Dev) handleButtons() error {
	for _, b := range []charlcd.Button{charlcd.ButtonSelect, charlcd.ButtonUp, charlcd.ButtonDown} {
		l, err := d.plate.ReadButton(b)
		if err != nil {
			return err
		}
		// Pull-ups make a pressed button read low.
		pressed := !bool(l)
		edge := pressed && !d.prev[b]
		d.prev[b] = pressed
		if !edge {
			continue
		}
		switch b {
		case charlcd.ButtonSelect:
			d.backlightOn = !d.backlightOn
			if err := d.plate.SetBacklight(d.backlightOn); err != nil {
				return err
			}
		case charlcd.ButtonUp:
			d.colorIdx = (d.colorIdx + 1) % len(colors)
		case charlcd.ButtonDown:
			d.colorIdx = (d.colorIdx + len(colors) - 1) % len(colors)
		}
		if b == charlcd.ButtonUp || b == charlcd.ButtonDown {
			c := colors[d.colorIdx]
			if err := d.plate.SetColor(c[0], c[1], c[2]); err != nil {
				return err
			}
		}
	}
	return nil
}
