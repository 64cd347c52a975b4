// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package platesim

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"

	"lcdplate/charlcd"
)

type nopSleeper struct{}

func (nopSleeper) Sleep(time.Duration) {}

func newPlate(t *testing.T) (*charlcd.Dev, *Dev, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	sim := New(&Opts{W: out})
	lcd, err := charlcd.New(sim, nopSleeper{}, 16, 2)
	if err != nil {
		t.Fatal(err)
	}
	return lcd, sim, out
}

func TestInitConverges(t *testing.T) {
	_, sim, out := newPlate(t)
	if !sim.fourBit {
		t.Fatal("reset sequence did not select 4-bit mode")
	}
	if sim.haveHigh {
		t.Fatal("nibble stream out of phase after init")
	}
	if !sim.displayOn {
		t.Fatal("display not enabled after init")
	}
	if !sim.entryLeft {
		t.Fatal("entry mode not left-to-right after init")
	}
	if out.Len() == 0 {
		t.Fatal("nothing painted")
	}
}

func TestMessageEndToEnd(t *testing.T) {
	lcd, sim, _ := newPlate(t)
	if err := lcd.Message("Hello\nWorld"); err != nil {
		t.Fatal(err)
	}
	got := sim.Text()
	want := []string{"Hello           ", "World           "}
	if got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %q, want %q", got, want)
	}

	if err := lcd.Clear(); err != nil {
		t.Fatal(err)
	}
	for i, row := range sim.Text() {
		if strings.TrimSpace(row) != "" {
			t.Fatalf("row %d not cleared: %q", i, row)
		}
	}

	if err := lcd.SetCursor(3, 1); err != nil {
		t.Fatal(err)
	}
	if err := lcd.Message("Hi"); err != nil {
		t.Fatal(err)
	}
	if got := sim.Text()[1]; got != "   Hi           " {
		t.Fatalf("got %q", got)
	}
}

func TestMessageRightToLeft(t *testing.T) {
	lcd, sim, _ := newPlate(t)
	if err := lcd.SetTextDirection(charlcd.RightToLeft); err != nil {
		t.Fatal(err)
	}
	if err := lcd.Message("ab"); err != nil {
		t.Fatal(err)
	}
	if got := sim.Text()[0]; got != "              ba" {
		t.Fatalf("got %q", got)
	}
}

func TestButtons(t *testing.T) {
	lcd, sim, _ := newPlate(t)
	l, err := lcd.ReadButton(charlcd.ButtonUp)
	if err != nil {
		t.Fatal(err)
	}
	if l != gpio.High {
		t.Fatal("idle button must read high through the pull-up")
	}
	sim.SetButton(charlcd.PinUp, true)
	if l, _ = lcd.ReadButton(charlcd.ButtonUp); l != gpio.Low {
		t.Fatal("pressed button must read low")
	}
	sim.SetButton(charlcd.PinUp, false)
	if l, _ = lcd.ReadButton(charlcd.ButtonUp); l != gpio.High {
		t.Fatal("released button must read high again")
	}
}

func TestDisplayOffBlanksRender(t *testing.T) {
	lcd, sim, out := newPlate(t)
	if err := lcd.Message("secret"); err != nil {
		t.Fatal(err)
	}
	if err := lcd.Display(false); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	// Force one more frame.
	if err := lcd.SetCursor(0, 0); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out.String(), "secret") {
		t.Fatal("display off must blank the rendered rows")
	}
	// DDRAM keeps its contents, only the render is blanked.
	if got := sim.Text()[0]; !strings.HasPrefix(got, "secret") {
		t.Fatalf("got %q", got)
	}
}

func TestOffscreenWritesIgnored(t *testing.T) {
	_, sim, _ := newPlate(t)
	// DDRAM address 0x27 is past a 16-wide row 0 and before row 1's
	// window: a write there must not land in any visible cell.
	sim.command(0x80 | 0x27)
	sim.putChar('x')
	for i, row := range sim.Text() {
		if strings.Contains(row, "x") {
			t.Fatalf("row %d shows an offscreen write: %q", i, row)
		}
	}
	// The address counter still advanced; the next visible address after
	// the gap is row 1, column 0.
	for a := 0x28; a <= 0x40; a++ {
		sim.putChar('x')
	}
	if got := sim.Text()[1][0]; got != 'x' {
		t.Fatalf("cell (1,0) = %q, want 'x'", got)
	}
}

func TestInvalidPin(t *testing.T) {
	sim := New(&Opts{W: &bytes.Buffer{}})
	if err := sim.DigitalWrite(16, gpio.High); err == nil {
		t.Fatal("expected error for pin 16")
	}
	if _, err := sim.DigitalRead(200); err == nil {
		t.Fatal("expected error for pin 200")
	}
}
