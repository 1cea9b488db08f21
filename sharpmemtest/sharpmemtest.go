// Package sharpmemtest emulates a Sharp memory LCD at the pin level.
//
// A Panel hands out gpio.PinOut implementations for the SCLK, SI, SCS,
// EXTCOMIN and DISP lines. While SCS is high, every rising SCLK edge samples
// SI, exactly like the panel's serial interface. When SCS falls the sampled
// bits are kept as a raw trace and decoded as a memory LCD command, updating
// the emulated glass.
//
// The emulated glass has its column driver wired right to left: the first
// data bit of a line lands on the rightmost column.
package sharpmemtest

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/sharpmem/image1bit"
)

// Mode bits of the first byte of a transaction, in the order they are
// clocked in.
const (
	modeWrite = 0x80
	modeVCOM  = 0x40
	modeClear = 0x20
)

type line int

const (
	lineSCLK line = iota
	lineSI
	lineSCS
	lineEXTCOMIN
	lineDISP
)

var lineNames = [...]string{"SCLK", "SI", "SCS", "EXTCOMIN", "DISP"}

// Panel is an emulated memory LCD.
type Panel struct {
	mu     sync.Mutex
	w, h   int
	levels [len(lineNames)]gpio.Level
	pins   [len(lineNames)]*Pin

	bits  []bool
	trace [][]byte
	glass *image1bit.HorizontalLSB
	vcom  bool

	pulses int
	stray  int
	err    error
}

// NewPanel returns an emulated panel of w×h pixels. w must be a multiple of
// 8. The glass starts white, as after power on and an all clear.
func NewPanel(w, h int) *Panel {
	p := &Panel{
		w:     w,
		h:     h,
		glass: image1bit.NewHorizontalLSB(image.Rect(0, 0, w, h)),
	}
	p.glass.Fill(image1bit.On)
	for i := range p.pins {
		p.pins[i] = &Pin{p: p, l: line(i)}
	}
	return p
}

// SCLK returns the serial clock input.
func (p *Panel) SCLK() *Pin { return p.pins[lineSCLK] }

// SI returns the serial data input.
func (p *Panel) SI() *Pin { return p.pins[lineSI] }

// SCS returns the active high chip select input.
func (p *Panel) SCS() *Pin { return p.pins[lineSCS] }

// EXTCOMIN returns the external COM inversion input.
func (p *Panel) EXTCOMIN() *Pin { return p.pins[lineEXTCOMIN] }

// DISP returns the display on/off input.
func (p *Panel) DISP() *Pin { return p.pins[lineDISP] }

// Image returns a copy of what the glass currently shows.
func (p *Panel) Image() *image1bit.HorizontalLSB {
	p.mu.Lock()
	defer p.mu.Unlock()
	img := image1bit.NewHorizontalLSB(p.glass.Rect)
	copy(img.Pix, p.glass.Pix)
	return img
}

// Transactions returns the raw bits of every completed chip select window,
// packed 8 per byte with the first sampled bit in the most significant
// position.
func (p *Panel) Transactions() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.trace))
	for i, t := range p.trace {
		out[i] = append([]byte(nil), t...)
	}
	return out
}

// ResetTrace forgets recorded transactions.
func (p *Panel) ResetTrace() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.trace = nil
}

// VCOMPulses returns the number of rising edges seen on EXTCOMIN.
func (p *Panel) VCOMPulses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pulses
}

// VCOM returns the M1 bit of the last decoded command.
func (p *Panel) VCOM() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vcom
}

// StrayClocks returns the number of rising SCLK edges seen while SCS was
// low. The panel ignores them.
func (p *Panel) StrayClocks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stray
}

// On reports whether DISP is high.
func (p *Panel) On() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return bool(p.levels[lineDISP])
}

// Err returns the first protocol violation seen, if any.
func (p *Panel) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Panel) String() string {
	return fmt.Sprintf("sharpmemtest.Panel{%dx%d}", p.w, p.h)
}

func (p *Panel) drive(l line, level gpio.Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := p.levels[l]
	p.levels[l] = level
	rising := !prev && level
	falling := prev && !level

	switch l {
	case lineSCLK:
		if !rising {
			return
		}
		if !p.levels[lineSCS] {
			p.stray++
			return
		}
		p.bits = append(p.bits, bool(p.levels[lineSI]))
	case lineSCS:
		if rising {
			p.bits = p.bits[:0]
		}
		if falling {
			p.trace = append(p.trace, pack(p.bits))
			p.fail(p.decode(p.bits))
		}
	case lineEXTCOMIN:
		if rising {
			p.pulses++
		}
	}
}

func (p *Panel) fail(err error) {
	if err != nil && p.err == nil {
		p.err = err
	}
}

// decode interprets one chip select window.
func (p *Panel) decode(bits []bool) error {
	if len(bits)%8 != 0 {
		return fmt.Errorf("sharpmemtest: %d bits is not a whole number of bytes", len(bits))
	}
	if len(bits) < 16 {
		return fmt.Errorf("sharpmemtest: transaction too short (%d bits)", len(bits))
	}
	mode := msbFirst(bits[0:8])
	p.vcom = mode&modeVCOM != 0

	switch {
	case mode&modeClear != 0:
		if len(bits) != 16 {
			return fmt.Errorf("sharpmemtest: all clear is 16 bits, got %d", len(bits))
		}
		p.glass.Fill(image1bit.On)
		return nil
	case mode&modeWrite != 0:
		return p.decodeWrite(bits[8:])
	default:
		if len(bits) != 16 {
			return fmt.Errorf("sharpmemtest: display mode is 16 bits, got %d", len(bits))
		}
		return nil
	}
}

// decodeWrite consumes address, data and dummy fields until the all-zero
// address of the trailer.
func (p *Panel) decodeWrite(bits []bool) error {
	lines := 0
	for {
		if len(bits) < 8 {
			return errors.New("sharpmemtest: frame ended without trailer")
		}
		addr := lsbFirst(bits[0:8])
		bits = bits[8:]
		if addr == 0 {
			if lines == 0 {
				return errors.New("sharpmemtest: write command without any line")
			}
			if len(bits) != 0 {
				return fmt.Errorf("sharpmemtest: %d bits after trailer", len(bits))
			}
			return nil
		}
		if addr > p.h {
			return fmt.Errorf("sharpmemtest: line address %d out of range", addr)
		}
		if len(bits) < p.w+8 {
			return fmt.Errorf("sharpmemtest: line %d truncated", addr)
		}
		for i := 0; i < p.w; i++ {
			p.glass.SetBit(p.w-1-i, addr-1, image1bit.Bit(bits[i]))
		}
		if dummy := msbFirst(bits[p.w : p.w+8]); dummy != 0 {
			return fmt.Errorf("sharpmemtest: line %d dummy bits are 0x%02X", addr, dummy)
		}
		bits = bits[p.w+8:]
		lines++
	}
}

func msbFirst(bits []bool) int {
	v := 0
	for _, b := range bits {
		v <<= 1
		if b {
			v |= 1
		}
	}
	return v
}

func lsbFirst(bits []bool) int {
	v := 0
	for i, b := range bits {
		if b {
			v |= 1 << uint(i)
		}
	}
	return v
}

func pack(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b {
			out[i/8] |= 0x80 >> uint(i%8)
		}
	}
	return out
}

// Pin is one input line of a Panel.
type Pin struct {
	p *Panel
	l line
}

// Halt implements conn.Resource.
func (pin *Pin) Halt() error {
	return nil
}

// Name returns the panel connector name of the line.
func (pin *Pin) Name() string {
	return lineNames[pin.l]
}

// Number returns the index of the line.
func (pin *Pin) Number() int {
	return int(pin.l)
}

// Deprecated: returns "Out"
func (pin *Pin) Function() string {
	return "Out"
}

// Out drives the line.
func (pin *Pin) Out(l gpio.Level) error {
	pin.p.drive(pin.l, l)
	return nil
}

// Not implemented.
func (pin *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("sharpmemtest: PWM is not supported")
}

func (pin *Pin) String() string {
	return pin.Name()
}

var _ gpio.PinOut = &Pin{}
