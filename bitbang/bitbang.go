// Package bitbang implements a write-only SPI mode 0 bus on two GPIO lines.
//
// It is meant for devices wired to pins without a hardware SPI controller,
// or for devices that mix bit orders within a single transaction, like Sharp
// memory LCDs which expect commands MSB first and addresses and pixel data
// LSB first.
//
// The receiving device samples the data line on the rising clock edge. The
// clock idles low between bytes.
package bitbang

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3/cpu"
)

// Bus is a bit-banged, write-only serial bus.
type Bus struct {
	clk  gpio.PinOut
	mosi gpio.PinOut

	// halfPeriod is spun after each clock edge. Zero means as fast as the
	// pins toggle.
	halfPeriod time.Duration
	spin       func(time.Duration)
}

// New returns a Bus clocking clk and driving mosi.
//
// maxHz caps the clock rate; 0 toggles the lines as fast as the host allows,
// which is fine for slow GPIO drivers but may exceed the device limit on
// memory mapped ones.
//
// Both lines are driven low before returning.
func New(clk, mosi gpio.PinOut, maxHz physic.Frequency) (*Bus, error) {
	if clk == nil || mosi == nil {
		return nil, errors.New("bitbang: clk and mosi pins are required")
	}
	if maxHz < 0 {
		return nil, fmt.Errorf("bitbang: invalid frequency %s", maxHz)
	}
	b := &Bus{
		clk:  clk,
		mosi: mosi,
		spin: cpu.Nanospin,
	}
	if maxHz != 0 {
		b.halfPeriod = maxHz.Period() / 2
	}
	if err := b.clk.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("bitbang: failed to idle clk: %w", err)
	}
	if err := b.mosi.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("bitbang: failed to idle mosi: %w", err)
	}
	return b, nil
}

// WriteMSBFirst shifts v out starting with bit 7.
func (b *Bus) WriteMSBFirst(v byte) error {
	for i := 0; i < 8; i++ {
		if err := b.clockBit(v&0x80 != 0); err != nil {
			return err
		}
		v <<= 1
	}
	return b.idle()
}

// WriteLSBFirst shifts v out starting with bit 0.
func (b *Bus) WriteLSBFirst(v byte) error {
	for i := 0; i < 8; i++ {
		if err := b.clockBit(v&0x01 != 0); err != nil {
			return err
		}
		v >>= 1
	}
	return b.idle()
}

// Tx implements conn.Conn.
//
// Every byte of w is written MSB first. The bus has no input line so r must
// be empty.
func (b *Bus) Tx(w, r []byte) error {
	if len(r) != 0 {
		return errors.New("bitbang: read is not supported")
	}
	for _, v := range w {
		if err := b.WriteMSBFirst(v); err != nil {
			return err
		}
	}
	return nil
}

// Duplex implements conn.Conn.
func (b *Bus) Duplex() conn.Duplex {
	return conn.Half
}

func (b *Bus) String() string {
	return fmt.Sprintf("bitbang.Bus{%s, %s}", b.clk, b.mosi)
}

// clockBit drives the clock low, presents bit on the data line, then raises
// the clock so the device latches it.
func (b *Bus) clockBit(bit bool) error {
	if err := b.clk.Out(gpio.Low); err != nil {
		return fmt.Errorf("bitbang: clk: %w", err)
	}
	if err := b.mosi.Out(gpio.Level(bit)); err != nil {
		return fmt.Errorf("bitbang: mosi: %w", err)
	}
	b.wait()
	if err := b.clk.Out(gpio.High); err != nil {
		return fmt.Errorf("bitbang: clk: %w", err)
	}
	b.wait()
	return nil
}

// idle returns the clock to its resting low level.
func (b *Bus) idle() error {
	if err := b.clk.Out(gpio.Low); err != nil {
		return fmt.Errorf("bitbang: clk: %w", err)
	}
	return nil
}

func (b *Bus) wait() {
	if b.halfPeriod > 0 {
		b.spin(b.halfPeriod)
	}
}

var _ conn.Conn = &Bus{}
