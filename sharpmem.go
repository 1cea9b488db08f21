package sharpmem

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"time"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/sharpmem/bitbang"
	"periph.io/x/devices/v3/sharpmem/image1bit"
	"periph.io/x/host/v3/cpu"
)

// Mode byte bits, sent MSB first.
const (
	writeCmd = 0x80 // M0: data update
	vcomBit  = 0x40 // M1: COM polarity when EXTMODE is low
	clearCmd = 0x20 // M2: all clear
)

// Interface timing, from the LS013B4DN04 datasheet.
const (
	tsSCS      = 3 * time.Microsecond // SCS high to first clock
	thSCS      = 1 * time.Microsecond // last clock to SCS low
	twSCSL     = 1 * time.Microsecond // SCS low width
	twEXTCOMIN = 3 * time.Microsecond // EXTCOMIN high width, 2µs minimum
)

var (
	// ErrUnsupported is returned when reading pixels back. The panel has no
	// read path and the buffer holds rotated, mirrored data.
	ErrUnsupported = errors.New("sharpmem: pixel read back is not supported")
	// ErrNotInitialized is returned by a Dev that was not created with New.
	ErrNotInitialized = errors.New("sharpmem: not initialized")
	// ErrHalted is returned after Halt.
	ErrHalted = errors.New("sharpmem: halted")
)

// Rotation selects one of four 90° orientations.
type Rotation uint8

const (
	NoRotation Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (r Rotation) String() string {
	switch r {
	case NoRotation:
		return "0°"
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	}
	return fmt.Sprintf("Rotation(%d)", uint8(r))
}

// apply maps logical coordinates to physical ones on a w×h panel.
func (r Rotation) apply(x, y, w, h int) (int, int) {
	switch r {
	case Rotate90:
		x, y = y, x
		x = w - 1 - x
	case Rotate180:
		x = w - 1 - x
		y = h - 1 - y
	case Rotate270:
		x, y = y, x
		y = h - 1 - y
	}
	return x, y
}

// Opts is the configuration for the display.
type Opts struct {
	// Panel dimensions in pixels, in the panel's native orientation.
	W int // Width (must be a multiple of 8)
	H int // Height (1 to 255, line addresses are 8 bits)

	// Initial rotation, can be changed later with SetRotation.
	Rotation Rotation

	// MaxHz caps the software serial clock. 0 runs unthrottled.
	MaxHz physic.Frequency

	// Optional DISP pin, driven high on New and low on Halt.
	DISP gpio.PinOut
}

// DefaultOpts matches the 96x96 LS013B4DN04 module.
var DefaultOpts = Opts{
	W:     96,
	H:     96,
	MaxHz: physic.MegaHertz,
}

// transport moves single bytes onto the serial lines.
type transport interface {
	WriteMSBFirst(byte) error
	WriteLSBFirst(byte) error
}

// Dev is the device handle for a memory LCD.
type Dev struct {
	mu sync.Mutex

	// Communication
	bus      transport
	scs      gpio.PinOut
	extcomin gpio.PinOut // nil selects software VCOM
	disp     gpio.PinOut

	// Panel geometry in native orientation.
	w, h     int
	rotation Rotation

	// Pixel buffer, in the panel's line layout.
	buffer *image1bit.HorizontalLSB

	// Current M1 bit when toggling COM in software.
	vcom byte

	delay  func(time.Duration)
	halted bool
}

// New creates a new device on the given lines.
//
// clk and si carry the software serial link, scs is the active high chip
// select. extcomin is the external COM inversion input; pass nil when the
// panel's EXTMODE pin is tied low, in which case ToggleVCOM flips the
// polarity with a serial command instead.
//
// opts can be nil to use DefaultOpts.
func New(clk, si, scs, extcomin gpio.PinOut, opts *Opts) (*Dev, error) {
	if opts == nil {
		o := DefaultOpts
		opts = &o
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if scs == nil {
		return nil, errors.New("sharpmem: scs pin is required")
	}
	bus, err := bitbang.New(clk, si, opts.MaxHz)
	if err != nil {
		return nil, fmt.Errorf("sharpmem: %w", err)
	}
	return newDev(bus, scs, extcomin, opts)
}

func (o *Opts) validate() error {
	if o.W <= 0 || o.W%8 != 0 {
		return errors.New("sharpmem: width must be a positive multiple of 8")
	}
	if o.H <= 0 || o.H > 255 {
		return errors.New("sharpmem: height must be between 1 and 255")
	}
	if o.Rotation > Rotate270 {
		return fmt.Errorf("sharpmem: invalid rotation %d", o.Rotation)
	}
	return nil
}

func newDev(bus transport, scs, extcomin gpio.PinOut, opts *Opts) (*Dev, error) {
	d := &Dev{
		bus:      bus,
		scs:      scs,
		extcomin: extcomin,
		disp:     opts.DISP,
		w:        opts.W,
		h:        opts.H,
		rotation: opts.Rotation,
		buffer:   image1bit.NewHorizontalLSB(image.Rect(0, 0, opts.W, opts.H)),
		delay:    cpu.Nanospin,
	}

	// Deselected and not pulsing until told otherwise.
	if err := d.scs.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("sharpmem: failed to pull SCS low: %w", err)
	}
	if d.extcomin != nil {
		if err := d.extcomin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("sharpmem: failed to pull EXTCOMIN low: %w", err)
		}
	}
	if d.disp != nil {
		if err := d.disp.Out(gpio.High); err != nil {
			return nil, fmt.Errorf("sharpmem: failed to pull DISP high: %w", err)
		}
	}
	return d, nil
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds implements display.Drawer. The size follows the current rotation.
func (d *Dev) Bounds() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bounds()
}

func (d *Dev) bounds() image.Rectangle {
	if d.rotation == Rotate90 || d.rotation == Rotate270 {
		return image.Rect(0, 0, d.h, d.w)
	}
	return image.Rect(0, 0, d.w, d.h)
}

// Rotation returns the current rotation.
func (d *Dev) Rotation() Rotation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rotation
}

// SetRotation changes how later pixel writes are mapped. Pixels already in
// the buffer are left as they are.
func (d *Dev) SetRotation(r Rotation) error {
	if r > Rotate270 {
		return fmt.Errorf("sharpmem: invalid rotation %d", r)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rotation = r
	return nil
}

// SetPixel sets the pixel at (x, y) in logical coordinates. on lights the
// pixel (reflective, white). Coordinates outside Bounds are ignored.
func (d *Dev) SetPixel(x, y int, on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setPixel(x, y, on)
}

func (d *Dev) setPixel(x, y int, on bool) {
	if d.buffer == nil || !(image.Point{X: x, Y: y}.In(d.bounds())) {
		return
	}
	x, y = d.rotation.apply(x, y, d.w, d.h)
	// Column drivers run right to left.
	x = d.w - 1 - x
	d.buffer.SetBit(x, y, image1bit.Bit(on))
}

// Pixel always fails with ErrUnsupported.
func (d *Dev) Pixel(x, y int) (bool, error) {
	return false, ErrUnsupported
}

// ClearBuffer zeroes the pixel buffer without touching the panel.
func (d *Dev) ClearBuffer() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.buffer != nil {
		d.buffer.Fill(image1bit.Off)
	}
}

// Clear zeroes the pixel buffer and sends the all clear command, which
// blanks the panel to white without a data transfer.
func (d *Dev) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	return d.clear()
}

func (d *Dev) clear() error {
	d.buffer.Fill(image1bit.Off)

	eh := errorHandler{d: d}
	eh.selectChip()
	eh.msb(clearCmd | d.vcom)
	eh.msb(0x00)
	eh.deselectChip()
	return eh.err
}

// Refresh sends the whole pixel buffer to the panel.
//
// Every line is addressed and terminated individually; the frame ends with
// 16 dummy bits.
func (d *Dev) Refresh() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	return d.refresh()
}

func (d *Dev) refresh() error {
	bytesPerLine := d.w / 8

	eh := errorHandler{d: d}
	eh.selectChip()
	eh.msb(writeCmd | d.vcom)

	line := 1
	eh.lsb(byte(line))
	atInLine := 0
	for _, b := range d.buffer.Pix {
		eh.lsb(b)
		atInLine++
		if atInLine < bytesPerLine {
			continue
		}
		atInLine = 0
		line++
		eh.msb(0x00)
		if line <= d.h {
			eh.lsb(byte(line))
		}
	}

	// Second half of the 16 bit trailer.
	eh.msb(0x00)
	eh.deselectChip()
	return eh.err
}

// ToggleVCOM inverts the COM polarity once.
//
// The panel must see this at the rate given in its datasheet (typically 1 to
// 60Hz) or DC bias builds up in the liquid crystal and damages it. Maintain
// can drive it from a ticker.
func (d *Dev) ToggleVCOM() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	if d.extcomin != nil {
		if err := d.extcomin.Out(gpio.High); err != nil {
			return fmt.Errorf("sharpmem: failed to pull EXTCOMIN high: %w", err)
		}
		d.delay(twEXTCOMIN)
		if err := d.extcomin.Out(gpio.Low); err != nil {
			return fmt.Errorf("sharpmem: failed to pull EXTCOMIN low: %w", err)
		}
		return nil
	}

	next := d.vcom ^ vcomBit
	eh := errorHandler{d: d}
	eh.selectChip()
	eh.msb(next)
	eh.msb(0x00)
	eh.deselectChip()
	if eh.err == nil {
		d.vcom = next
	}
	return eh.err
}

// Maintain calls ToggleVCOM every interval until ctx is done or a toggle
// fails.
func (d *Dev) Maintain(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("sharpmem: interval must be positive")
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := d.ToggleVCOM(); err != nil {
				return err
			}
		}
	}
}

// Write replaces the pixel buffer with raw data in the panel's line layout
// and refreshes the panel. The data must be exactly W*H/8 bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return 0, err
	}
	if len(pixels) != len(d.buffer.Pix) {
		return 0, errors.New("sharpmem: invalid buffer size")
	}
	copy(d.buffer.Pix, pixels)
	if err := d.refresh(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw implements display.Drawer.
//
// src is converted through image1bit.BitModel and written in logical
// coordinates, then the panel is refreshed.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}

	delta := sp.Sub(dst.Min)
	dst = dst.Intersect(d.bounds())
	if dst.Empty() {
		return nil
	}
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		for x := dst.Min.X; x < dst.Max.X; x++ {
			c := image1bit.BitModel.Convert(src.At(x+delta.X, y+delta.Y)).(image1bit.Bit)
			d.setPixel(x, y, bool(c))
		}
	}
	return d.refresh()
}

// Halt clears the panel and turns it off. Later operations fail with
// ErrHalted.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.ready(); err != nil {
		return err
	}
	err := d.clear()
	if d.disp != nil {
		if derr := d.disp.Out(gpio.Low); err == nil && derr != nil {
			err = fmt.Errorf("sharpmem: failed to pull DISP low: %w", derr)
		}
	}
	d.halted = true
	return err
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("sharpmem.Dev{%dx%d}", d.w, d.h)
}

func (d *Dev) ready() error {
	if d.bus == nil || d.buffer == nil {
		return ErrNotInitialized
	}
	if d.halted {
		return ErrHalted
	}
	return nil
}

var _ display.Drawer = &Dev{}
