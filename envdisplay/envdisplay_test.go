// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package envdisplay

import (
	"bytes"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"lcdplate/charlcd"
	"lcdplate/platesim"
)

type fakeSensor struct {
	env physic.Env
	err error
}

func (s *fakeSensor) Sense(e *physic.Env) error {
	if s.err != nil {
		return s.err
	}
	*e = s.env
	return nil
}

type fakeDisplay struct {
	last  image.Image
	draws int
}

func (f *fakeDisplay) Bounds() image.Rectangle {
	return image.Rect(0, 0, 128, 64)
}

func (f *fakeDisplay) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	f.last = src
	f.draws++
	return nil
}

func litPixels(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r != 0 {
				n++
			}
		}
	}
	return n
}

type nopSleeper struct{}

func (nopSleeper) Sleep(time.Duration) {}

func newPlate(t *testing.T) (*charlcd.Dev, *platesim.Dev) {
	t.Helper()
	sim := platesim.New(&platesim.Opts{W: &bytes.Buffer{}})
	lcd, err := charlcd.New(sim, nopSleeper{}, 16, 2)
	if err != nil {
		t.Fatal(err)
	}
	return lcd, sim
}

func room() physic.Env {
	return physic.Env{
		Temperature: physic.ZeroCelsius + 22*physic.Celsius + 500*physic.MilliKelvin,
		Humidity:    40 * physic.PercentRH,
	}
}

func TestRenderFrame(t *testing.T) {
	disp := &fakeDisplay{}
	d, err := New(&fakeSensor{}, disp, nil)
	if err != nil {
		t.Fatal(err)
	}
	frame := d.renderFrame("22.5 C", "40% RH")
	if frame.Bounds() != disp.Bounds() {
		t.Fatalf("frame bounds %v, display bounds %v", frame.Bounds(), disp.Bounds())
	}
	if _, ok := frame.(*image1bit.VerticalLSB); !ok {
		t.Fatalf("frame must be 1-bit, got %T", frame)
	}
	lit := litPixels(frame)
	if lit == 0 {
		t.Fatal("frame is all dark, nothing rendered")
	}
	b := frame.Bounds()
	if lit > b.Dx()*b.Dy()/2 {
		t.Fatal("frame is mostly lit, background not cleared")
	}
}

func TestStepMirrorsToPlate(t *testing.T) {
	lcd, sim := newPlate(t)
	disp := &fakeDisplay{}
	d, err := New(&fakeSensor{env: room()}, disp, &Opts{Plate: lcd})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Step(); err != nil {
		t.Fatal(err)
	}
	if disp.draws != 1 {
		t.Fatalf("draws = %d, want 1", disp.draws)
	}
	rows := sim.Text()
	if !strings.Contains(rows[0], "22.5 C") {
		t.Fatalf("row 0 = %q", rows[0])
	}
	if !strings.Contains(rows[1], "40% RH") {
		t.Fatalf("row 1 = %q", rows[1])
	}
}

func TestStepSensorError(t *testing.T) {
	lcd, sim := newPlate(t)
	disp := &fakeDisplay{}
	d, err := New(&fakeSensor{err: errors.New("checksum mismatch")}, disp, &Opts{Plate: lcd})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Step(); err != nil {
		t.Fatal(err)
	}
	if disp.draws != 1 {
		t.Fatal("a sensor failure must still produce a frame")
	}
	if !strings.Contains(sim.Text()[0], "sensor error") {
		t.Fatalf("row 0 = %q", sim.Text()[0])
	}
}

func TestButtonsCycleColors(t *testing.T) {
	lcd, sim := newPlate(t)
	d, err := New(&fakeSensor{env: room()}, &fakeDisplay{}, &Opts{Plate: lcd})
	if err != nil {
		t.Fatal(err)
	}

	sim.SetButton(charlcd.PinUp, true)
	if err := d.Step(); err != nil {
		t.Fatal(err)
	}
	if r, g, b := lcd.Color(); r != 255 || g != 0 || b != 0 {
		t.Fatalf("color after up = %d,%d,%d, want red", r, g, b)
	}

	// Held button: no retrigger.
	if err := d.Step(); err != nil {
		t.Fatal(err)
	}
	if r, g, b := lcd.Color(); r != 255 || g != 0 || b != 0 {
		t.Fatalf("held button retriggered, color = %d,%d,%d", r, g, b)
	}

	// Release, then down steps back to white.
	sim.SetButton(charlcd.PinUp, false)
	sim.SetButton(charlcd.PinDown, true)
	if err := d.Step(); err != nil {
		t.Fatal(err)
	}
	if r, g, b := lcd.Color(); r != 255 || g != 255 || b != 255 {
		t.Fatalf("color after down = %d,%d,%d, want white", r, g, b)
	}
}

func TestRun(t *testing.T) {
	disp := &fakeDisplay{}
	d, err := New(&fakeSensor{env: room()}, disp, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(3, time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if disp.draws != 3 {
		t.Fatalf("draws = %d, want 3", disp.draws)
	}
}
