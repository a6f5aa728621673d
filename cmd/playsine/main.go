// Command playsine plays a sine tone through the default (or a named)
// playback device, fading in and out through a ramped gain.
//
// Usage:
//
//	playsine [flags]
//
// Examples:
//
//	playsine -freq 440 -dur 2s
//	playsine -freq 1000 -gain 0.3 -spectrum
//	playsine -list
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-audio/audio/device"
	"github.com/cwbudde/algo-audio/audio/fx"
	"github.com/cwbudde/algo-audio/audio/gen"
	"github.com/cwbudde/algo-audio/audio/graph"
	"github.com/cwbudde/algo-audio/audio/monitor"
	"github.com/cwbudde/algo-audio/internal/log"
)

func main() {
	var (
		freq     = flag.Float64("freq", 440, "tone frequency in Hz")
		dur      = flag.Duration("dur", 2*time.Second, "playback duration")
		gain     = flag.Float64("gain", 0.5, "target gain in [0, 1]")
		devID    = flag.String("device", "", "playback device id (see -list)")
		list     = flag.Bool("list", false, "list playback devices and exit")
		spectrum = flag.Bool("spectrum", false, "print the spectral peak while playing")
	)
	flag.Parse()

	logger := log.New()

	if *list {
		if err := listDevices(); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*freq, *dur, *gain, *devID, *spectrum, logger); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func listDevices() error {
	infos, err := device.Devices(device.Playback)
	if err != nil {
		return err
	}
	for _, info := range infos {
		marker := " "
		if info.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %-40s %s\n", marker, info.Name, info.ID)
	}
	return nil
}

func run(freq float64, dur time.Duration, gain float64, devID string, spectrum bool, logger log.Logger) error {
	ctx := graph.New()

	out := graph.NewOutput(2)
	osc := gen.NewSine(freq)
	amp := fx.NewGain(0)

	for _, n := range []graph.Node{out, osc, amp} {
		if err := ctx.AddNode(n); err != nil {
			return err
		}
	}
	if err := ctx.SetOutput(out); err != nil {
		return err
	}
	if err := ctx.Connect(osc, amp); err != nil {
		return err
	}
	if err := ctx.Connect(amp, out); err != nil {
		return err
	}

	var spec *monitor.Spectral
	if spectrum {
		spec = monitor.NewSpectral(monitor.WithWindowSize(1024))
		if err := ctx.AddNode(spec); err != nil {
			return err
		}
		if err := ctx.Connect(amp, spec); err != nil {
			return err
		}
		if err := ctx.AddAutoPulled(spec); err != nil {
			return err
		}
	}

	if err := ctx.Enable(); err != nil {
		return err
	}

	var opts []device.Option
	if devID != "" {
		opts = append(opts, device.WithDevice(devID))
	}
	opts = append(opts, device.WithLogger(logger))
	line := device.NewLineOut(ctx, opts...)
	if err := line.Start(); err != nil {
		return err
	}
	defer line.Stop()

	// surface asynchronous render faults
	go func() {
		for err := range ctx.Faults() {
			logger.Warnf("fault: %v", err)
		}
	}()

	fade := 200 * time.Millisecond
	amp.Level.ApplyRamp(gain, fade.Seconds())

	hold := dur - 2*fade
	if hold < 0 {
		hold = 0
	}
	deadline := time.Now().Add(fade + hold)
	for time.Now().Before(deadline) {
		time.Sleep(250 * time.Millisecond)
		if spec != nil {
			printPeak(spec)
		}
	}

	amp.Level.ApplyRamp(0, fade.Seconds())
	time.Sleep(fade + 50*time.Millisecond)
	ctx.Disable()
	return nil
}

func printPeak(spec *monitor.Spectral) {
	mags := spec.MagSpectrum()
	peak := 0
	for i, v := range mags {
		if v > mags[peak] {
			peak = i
		}
	}
	fmt.Printf("peak: %7.1f Hz  mag %.4f  volume %.4f\n",
		spec.FreqForBin(peak), mags[peak], spec.Volume())
}
