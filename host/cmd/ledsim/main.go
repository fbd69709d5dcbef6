package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"cyclotron/core"
	"cyclotron/profile"
)

var (
	profilePath = flag.String("profile", "", "Board profile JSON (default: built-in profile)")
	tickMs      = flag.Int("tick", 1, "Engine tick period in milliseconds")
	fps         = flag.Int("fps", 30, "Screen refresh rate")
)

func main() {
	flag.Parse()

	prof := profile.Default()
	if *profilePath != "" {
		var err error
		if prof, err = profile.LoadFile(*profilePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	sim, err := NewSim(prof)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()

	if err := run(screen, sim); err != nil {
		screen.Fini()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(screen tcell.Screen, sim *Sim) error {
	tick := time.NewTicker(time.Duration(max(*tickMs, 1)) * time.Millisecond)
	defer tick.Stop()
	frame := time.NewTicker(time.Second / time.Duration(max(*fps, 1)))
	defer frame.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	start := time.Now()
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
					return nil
				}
				if ev.Key() == tcell.KeyRune && !sim.HandleRune(ev.Rune()) {
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
			}

		case <-tick.C:
			core.SetTime(uint32(time.Since(start).Microseconds()))
			if err := sim.Tick(); err != nil {
				return err
			}

		case <-frame.C:
			screen.Clear()
			w, h := screen.Size()
			sim.Draw(screen, w, h)
			screen.Show()
		}
	}
}
