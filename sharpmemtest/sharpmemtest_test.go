package sharpmemtest

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/devices/v3/sharpmem/image1bit"
)

// send clocks bits into p inside one chip select window.
func send(p *Panel, bits ...bool) {
	p.SCS().Out(gpio.High)
	for _, b := range bits {
		p.SCLK().Out(gpio.Low)
		p.SI().Out(gpio.Level(b))
		p.SCLK().Out(gpio.High)
	}
	p.SCLK().Out(gpio.Low)
	p.SCS().Out(gpio.Low)
}

func msb(v byte) []bool {
	out := make([]bool, 8)
	for i := range out {
		out[i] = v&(0x80>>uint(i)) != 0
	}
	return out
}

func lsb(v byte) []bool {
	out := make([]bool, 8)
	for i := range out {
		out[i] = v&(1<<uint(i)) != 0
	}
	return out
}

func join(parts ...[]bool) []bool {
	var out []bool
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestNewPanel(t *testing.T) {
	p := NewPanel(16, 4)
	img := p.Image()
	if got := img.Bounds(); got.Dx() != 16 || got.Dy() != 4 {
		t.Errorf("Image().Bounds() = %v, want 16x4", got)
	}
	for i, v := range img.Pix {
		if v != 0xFF {
			t.Errorf("glass[%d] = 0x%02X, want 0xFF", i, v)
		}
	}
	if p.On() {
		t.Error("On() = true before DISP is driven")
	}
	if got := p.String(); got != "sharpmemtest.Panel{16x4}" {
		t.Errorf("String() = %q", got)
	}
}

func TestPinNames(t *testing.T) {
	p := NewPanel(8, 1)
	for _, tt := range []struct {
		pin  *Pin
		want string
	}{
		{p.SCLK(), "SCLK"},
		{p.SI(), "SI"},
		{p.SCS(), "SCS"},
		{p.EXTCOMIN(), "EXTCOMIN"},
		{p.DISP(), "DISP"},
	} {
		if got := tt.pin.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
		if got := tt.pin.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if err := tt.pin.PWM(gpio.DutyHalf, 0); err == nil {
			t.Errorf("%s: PWM() should fail", tt.want)
		}
	}
}

func TestDecodeWrite(t *testing.T) {
	p := NewPanel(16, 2)
	send(p, join(
		msb(0x80),
		lsb(1), lsb(0x01), lsb(0x00), msb(0x00),
		lsb(2), lsb(0x00), lsb(0x80), msb(0x00),
		msb(0x00),
	)...)
	if err := p.Err(); err != nil {
		t.Fatal(err)
	}

	want := image1bit.NewHorizontalLSB(p.Image().Rect)
	// First data bit of a line lands on the rightmost column.
	want.SetBit(15, 0, image1bit.On)
	want.SetBit(0, 1, image1bit.On)
	if diff := cmp.Diff(p.Image().Pix, want.Pix); diff != "" {
		t.Errorf("glass difference (-got +want):\n%s", diff)
	}
	if p.VCOM() {
		t.Error("VCOM() = true for a write without M1")
	}
}

func TestDecodeClearAndVCOM(t *testing.T) {
	p := NewPanel(8, 1)
	send(p, join(msb(0x80), lsb(1), lsb(0x00), msb(0x00), msb(0x00))...)
	send(p, join(msb(0x40), msb(0x00))...)
	if !p.VCOM() {
		t.Error("VCOM() = false after display mode with M1")
	}
	send(p, join(msb(0x20), msb(0x00))...)
	if p.VCOM() {
		t.Error("VCOM() = true after clear without M1")
	}
	if got := p.Image().Pix[0]; got != 0xFF {
		t.Errorf("glass = 0x%02X after clear, want 0xFF", got)
	}
	if err := p.Err(); err != nil {
		t.Fatal(err)
	}

	want := [][]byte{
		{0x80, 0x80, 0x00, 0x00, 0x00},
		{0x40, 0x00},
		{0x20, 0x00},
	}
	if diff := cmp.Diff(p.Transactions(), want); diff != "" {
		t.Errorf("trace difference (-got +want):\n%s", diff)
	}
	p.ResetTrace()
	if len(p.Transactions()) != 0 {
		t.Error("ResetTrace() kept transactions")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		bits []bool
		want string
	}{
		{"partial byte", join(msb(0x20), msb(0x00), []bool{true}), "whole number of bytes"},
		{"too short", msb(0x20), "too short"},
		{"long clear", join(msb(0x20), msb(0x00), msb(0x00)), "all clear is 16 bits"},
		{"long display mode", join(msb(0x00), msb(0x00), msb(0x00)), "display mode is 16 bits"},
		{"no lines", join(msb(0x80), lsb(0), msb(0x00)), "without any line"},
		{"address out of range", join(msb(0x80), lsb(3), lsb(0x00), msb(0x00), msb(0x00)), "out of range"},
		{"truncated line", join(msb(0x80), lsb(1), msb(0x00)), "truncated"},
		{"dirty dummy", join(msb(0x80), lsb(1), lsb(0x00), msb(0x01), msb(0x00)), "dummy bits"},
		{"missing trailer", join(msb(0x80), lsb(1), lsb(0x00), msb(0x00)), "without trailer"},
		{"bits after trailer", join(msb(0x80), lsb(1), lsb(0x00), msb(0x00), msb(0x00), msb(0x00)), "after trailer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPanel(8, 2)
			send(p, tt.bits...)
			err := p.Err()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Err() = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestFirstErrorSticks(t *testing.T) {
	p := NewPanel(8, 1)
	send(p, msb(0x20)...)
	first := p.Err()
	send(p, join(msb(0x00), msb(0x00), msb(0x00))...)
	if p.Err() != first {
		t.Errorf("Err() = %v, want %v", p.Err(), first)
	}
}

func TestStrayClocks(t *testing.T) {
	p := NewPanel(8, 1)
	for i := 0; i < 3; i++ {
		p.SCLK().Out(gpio.High)
		p.SCLK().Out(gpio.Low)
	}
	if got := p.StrayClocks(); got != 3 {
		t.Errorf("StrayClocks() = %d, want 3", got)
	}
	if len(p.Transactions()) != 0 {
		t.Error("clocks without chip select were recorded")
	}
}

func TestLevelsOnly(t *testing.T) {
	p := NewPanel(8, 1)
	ext := p.EXTCOMIN()
	for i := 0; i < 4; i++ {
		ext.Out(gpio.High)
		ext.Out(gpio.High)
		ext.Out(gpio.Low)
	}
	if got := p.VCOMPulses(); got != 4 {
		t.Errorf("VCOMPulses() = %d, want 4", got)
	}
	p.DISP().Out(gpio.High)
	if !p.On() {
		t.Error("On() = false with DISP high")
	}
	p.DISP().Out(gpio.Low)
	if p.On() {
		t.Error("On() = true with DISP low")
	}
}

func TestImageIsACopy(t *testing.T) {
	p := NewPanel(8, 1)
	img := p.Image()
	img.Fill(image1bit.Off)
	if got := p.Image().Pix[0]; got != 0xFF {
		t.Errorf("glass = 0x%02X after editing the copy, want 0xFF", got)
	}
}
