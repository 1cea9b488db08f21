// Package sharpmem controls a Sharp memory LCD over a bit-banged serial link.
//
// Memory LCDs hold a 1-bit image in per-pixel memory and only need serial
// traffic when the image changes. This driver keeps the frame in a local
// buffer and implements the display.Drawer interface from periph.io.
//
// # Display Characteristics
//
// - 1 bit per pixel, white (On) or black (Off)
// - Line addressed writes: every line carries its own 1-based address
// - All clear command that blanks the panel without a data transfer
// - COM polarity must be inverted periodically (EXTCOMIN pin or serial M1 bit)
// - Serial clock up to 1MHz on most modules
//
// # Hardware Connection
//
// Any GPIO pins can be used, no SPI controller is needed:
//
//	Display Pin → System Pin
//	VIN         → 3.3V-5V
//	GND         → GND
//	SCLK        → GPIO (serial clock)
//	SI / MOSI   → GPIO (serial data)
//	SCS / CS    → GPIO (chip select, active high)
//	EXTCOMIN    → GPIO (COM inversion), or nil with EXTMODE tied low
//	DISP        → Optional: GPIO (display on/off)
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/devices/v3/sharpmem"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		dev, _ := sharpmem.New(
//			gpioreg.ByName("GPIO11"), // SCLK
//			gpioreg.ByName("GPIO10"), // SI
//			gpioreg.ByName("GPIO8"),  // SCS
//			gpioreg.ByName("GPIO25"), // EXTCOMIN
//			nil,                      // DefaultOpts, 96x96
//		)
//		defer dev.Halt()
//
//		dev.Clear()
//		for i := 0; i < 96; i++ {
//			dev.SetPixel(i, i, true)
//		}
//		dev.Refresh()
//	}
//
// # Rotation
//
// SetRotation selects one of four orientations for subsequent pixel writes.
// Bounds reports the logical size, swapped for Rotate90 and Rotate270:
//
//	dev.SetRotation(sharpmem.Rotate90)
//
// Pixels already drawn keep their position on the glass.
//
// # COM Inversion
//
// The panel is damaged by DC bias if its COM polarity is never inverted. Call
// ToggleVCOM from a timer at the datasheet rate, or let Maintain do it:
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	go dev.Maintain(ctx, time.Second)
//
// With an EXTCOMIN pin, ToggleVCOM pulses it for 3µs. Without one, it flips
// the M1 bit and sends a display mode command.
//
// # Drawing
//
// Draw accepts any image.Image, converted to black and white:
//
//	dev.Draw(dev.Bounds(), img, image.Point{})
//
// Displayer exposes the device to TinyGo drawing code such as tinyfont:
//
//	tinyfont.WriteLine(dev.Displayer(), &tinyfont.Picopixel, 2, 10, "hello", color.RGBA{A: 255})
//
// Write replaces the buffer with raw line data and refreshes. It takes W*H/8
// bytes, each line stored right to left: bit 0 of a line's first byte is its
// rightmost pixel.
//
// # Datasheet
//
// https://www.sharpsde.com/fileadmin/products/Displays/2016_SDE_App_Note_for_Memory_LCD_programming_V1.3.pdf
package sharpmem
