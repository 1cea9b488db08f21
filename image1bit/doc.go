// Package image1bit provides a 1-bit image format for Sharp memory LCD panels.
//
// Memory LCDs take one bit per pixel. Pixels are stored in horizontal LSB
// packing where each byte contains 8 pixels, lowest column in the lowest bit.
//
// Memory layout example for an 8-pixel row:
//
//	Pixels: 0 1 2 3 4 5 6 7
//	Values: 1 0 0 0 0 0 1 1
//	Byte:   0xC1
//	        (bit 0 = pixel 0, bit 7 = pixel 7)
//
// This package provides:
//
// - Bit: A color type, On (white, reflective) or Off (black)
// - BitModel: A color model converting standard Go colors to Bit
// - HorizontalLSB: An image.Image implementation laid out like the panel's lines
//
// Example usage:
//
//	img := image1bit.NewHorizontalLSB(image.Rect(0, 0, 96, 96))
//
//	img.SetBit(10, 20, image1bit.On)
//	println(img.BitAt(10, 20)) // Output: true
//
//	// Use with standard Go image operations
//	draw.Draw(img, img.Bounds(), image.NewUniform(image1bit.On), image.Point{}, draw.Src)
package image1bit
