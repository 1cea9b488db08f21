package sharpmem

import (
	"image/color"

	"periph.io/x/devices/v3/sharpmem/image1bit"
	"tinygo.org/x/drivers"
)

// Displayer returns an adapter so TinyGo drawing libraries, like tinyfont,
// can paint into the buffer. Colors go through image1bit.BitModel and
// Display refreshes the panel.
func (d *Dev) Displayer() drivers.Displayer {
	return displayer{d: d}
}

type displayer struct {
	d *Dev
}

func (a displayer) Size() (x, y int16) {
	r := a.d.Bounds()
	return int16(r.Dx()), int16(r.Dy())
}

func (a displayer) SetPixel(x, y int16, c color.RGBA) {
	b := image1bit.BitModel.Convert(c).(image1bit.Bit)
	a.d.SetPixel(int(x), int(y), bool(b))
}

func (a displayer) Display() error {
	return a.d.Refresh()
}

var _ drivers.Displayer = displayer{}
