package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gyro_heading/internal/config"
	"github.com/relabs-tech/gyro_heading/internal/tracker"
)

const (
	displayWidth  = 128
	displayHeight = 64
)

// DisplayData holds the latest snapshot for the display
type DisplayData struct {
	mu       sync.RWMutex
	snapshot tracker.Snapshot
	haveData bool
}

func (d *DisplayData) set(snap tracker.Snapshot) {
	d.mu.Lock()
	d.snapshot = snap
	d.haveData = true
	d.mu.Unlock()
}

func (d *DisplayData) get() (tracker.Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot, d.haveData
}

func RunDisplay() error {
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus ("" picks the first one)
	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: initialized")

	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	err = subscribe(client, cfg.TopicHeading, func(_ mqtt.Client, msg mqtt.Message) {
		var snap tracker.Snapshot
		if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
			log.Printf("display: heading unmarshal error: %v", err)
			return
		}
		data.set(snap)
	})
	if err != nil {
		return err
	}

	log.Println("display: starting update loop")

	interval := time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond
	runDisplayLoop(ctx, data, interval, func(img *image1bit.VerticalLSB) error {
		return dev.Draw(dev.Bounds(), img, image.Point{})
	})

	log.Println("display: shutting down")
	if err := dev.Halt(); err != nil {
		log.Printf("display: halt error: %v", err)
	}
	return nil
}

// runDisplayLoop redraws the latest snapshot every interval until ctx is
// done.
func runDisplayLoop(ctx context.Context, data *DisplayData, interval time.Duration, draw func(*image1bit.VerticalLSB) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap, ok := data.get()
			if err := draw(renderHeading(snap, ok)); err != nil {
				log.Printf("display: error updating display: %v", err)
			}
		}
	}
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayWidth, displayHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(d *font.Drawer, x, y int, s string) {
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// renderHeading draws the angle and compass bearing of snap.
func renderHeading(snap tracker.Snapshot, haveData bool) *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	if !haveData {
		drawLine(drawer, 0, 26, "Heading")
		drawLine(drawer, 0, 39, "Waiting...")
		return img
	}

	drawLine(drawer, 0, 13, "Heading")
	if snap.AngleDeg == nil {
		drawLine(drawer, 0, 30, "A:    NaN")
	} else {
		drawLine(drawer, 0, 30, fmt.Sprintf("A: %7.1f", *snap.AngleDeg))
	}
	drawLine(drawer, 0, 47, fmt.Sprintf("C: %7.1f", snap.CompassDeg))
	if !snap.Ready {
		drawLine(drawer, 0, 62, "no gravity")
	}
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newCanvas()
	drawLine(drawer, 10, 26, "Gyro Heading")
	drawLine(drawer, 5, 43, "Waiting for")
	drawLine(drawer, 25, 56, "tracker")
	return img
}
