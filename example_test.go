package sharpmem_test

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"log"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/sharpmem"
	"periph.io/x/devices/v3/sharpmem/image1bit"
	"periph.io/x/devices/v3/sharpmem/sharpmemtest"
	"periph.io/x/host/v3"
)

func Example() {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		log.Fatal(err)
	}

	dev, err := sharpmem.New(
		gpioreg.ByName("GPIO11"),
		gpioreg.ByName("GPIO10"),
		gpioreg.ByName("GPIO8"),
		gpioreg.ByName("GPIO25"),
		&sharpmem.Opts{W: 128, H: 128, MaxHz: sharpmem.DefaultOpts.MaxHz},
	)
	if err != nil {
		log.Fatalf("Failed to initialize display: %v", err)
	}
	defer dev.Halt()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dev.Maintain(ctx, time.Second)

	// Draw on it. Black text on a white background.
	img := image1bit.NewHorizontalLSB(dev.Bounds())
	img.Fill(image1bit.On)
	f := basicfont.Face7x13
	drawer := font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.Off},
		Face: f,
		Dot:  fixed.P(0, img.Bounds().Dy()-1-f.Descent),
	}
	drawer.DrawString("Hello from periph!")

	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		log.Fatal(err)
	}
}

func Example_emulated() {
	p := sharpmemtest.NewPanel(8, 2)
	dev, err := sharpmem.New(p.SCLK(), p.SI(), p.SCS(), p.EXTCOMIN(), &sharpmem.Opts{W: 8, H: 2})
	if err != nil {
		log.Fatal(err)
	}

	dev.SetPixel(0, 0, true)
	if err := dev.Refresh(); err != nil {
		log.Fatal(err)
	}
	if err := dev.Clear(); err != nil {
		log.Fatal(err)
	}
	for _, t := range p.Transactions() {
		fmt.Printf("% X\n", t)
	}
	// Output:
	// 80 80 01 00 40 00 00 00
	// 20 00
}

func ExampleDev_SetRotation() {
	p := sharpmemtest.NewPanel(16, 8)
	dev, err := sharpmem.New(p.SCLK(), p.SI(), p.SCS(), nil, &sharpmem.Opts{W: 16, H: 8})
	if err != nil {
		log.Fatal(err)
	}
	if err := dev.SetRotation(sharpmem.Rotate90); err != nil {
		log.Fatal(err)
	}
	fmt.Println(dev.Rotation(), dev.Bounds())

	img := image1bit.NewHorizontalLSB(dev.Bounds())
	draw.Draw(img, image.Rect(0, 0, 1, 1), &image.Uniform{image1bit.On}, image.Point{}, draw.Src)
	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		log.Fatal(err)
	}
	fmt.Println(p.Image().BitAt(15, 0))
	// Output:
	// 90° (0,0)-(8,16)
	// On
}
