// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// energenie-ctl is a small command-line tool to flip one Energenie socket
// on or off, or to sit in a loop printing decoded OpenThings sensor
// traffic. It exists mainly to exercise the radio/socket stack against
// real hardware during bring-up, the same role cmd/sx1231-test played
// for the generic sx1231 driver.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/thinking-binaries/pico-energenie/radio"
	"github.com/thinking-binaries/pico-energenie/rfm69"
	"github.com/thinking-binaries/pico-energenie/socket"
	"github.com/thinking-binaries/pico-energenie/spiport"
)

func main() {
	spiName := flag.String("spi", "", "SPI port name or number, e.g. /dev/spidev0.0 (periph spireg name)")
	csPin := flag.String("cs-pin", "", "GPIO pin name driving chip-select")
	resetPin := flag.String("reset-pin", "", "GPIO pin name driving RESET (optional)")
	dio0Pin := flag.String("dio0-pin", "", "GPIO pin name wired to DIO0 (optional)")
	legacyAddr := flag.Uint64("legacy-address", 0xA0170, "20-bit house address for -kind=legacy")
	channel := flag.Int("channel", 0, "channel 0 (All) .. 4 for -kind=legacy")
	sensorID := flag.Uint64("sensor-id", 0, "31-bit sensor ID for -kind=mihome")
	kind := flag.String("kind", "legacy", "socket kind: legacy or mihome")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] on|off|monitor\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	if _, err := host.Init(); err != nil {
		log.Fatalf("host.Init: %s", err)
	}

	bus, err := spireg.Open(*spiName)
	if err != nil {
		log.Fatalf("spireg.Open(%q): %s", *spiName, err)
	}

	cs := gpioreg.ByName(*csPin)
	if cs == nil {
		log.Fatalf("cannot find CS pin %q", *csPin)
	}
	opts := spiport.Options{Bus: bus, CS: cs}
	if *resetPin != "" {
		if p := gpioreg.ByName(*resetPin); p != nil {
			opts.Reset = p
		}
	}
	if *dio0Pin != "" {
		if p := gpioreg.ByName(*dio0Pin); p != nil {
			opts.DIO0 = p
		}
	}

	port, err := spiport.New(opts)
	if err != nil {
		log.Fatalf("spiport.New: %s", err)
	}

	fac := radio.New(port)
	ctx := context.Background()
	if err := fac.On(ctx); err != nil {
		log.Fatalf("radio.On: %s", err)
	}

	var sock socket.Socket
	switch *kind {
	case "legacy":
		sock = socket.NewLegacy(fac, uint32(*legacyAddr), *channel)
	case "mihome":
		sock = socket.NewMiHome(fac, uint32(*sensorID))
	default:
		log.Fatalf("unknown -kind %q, want legacy or mihome", *kind)
	}

	switch cmd := flag.Arg(0); cmd {
	case "on":
		if err := sock.On(ctx); err != nil {
			log.Fatalf("On: %s", err)
		}
	case "off":
		if err := sock.Off(ctx); err != nil {
			log.Fatalf("Off: %s", err)
		}
	case "monitor":
		monitor(ctx, fac)
	default:
		log.Fatalf("unknown command %q, want on, off, or monitor", cmd)
	}
}

// monitor sits in AlwaysReceive mode and prints every decoded OpenThings
// record it sees, until killed.
func monitor(ctx context.Context, fac *radio.Facade) {
	if err := fac.AlwaysReceive(ctx); err != nil {
		log.Fatalf("AlwaysReceive: %s", err)
	}
	rfm69.DumpEvents()
	for {
		msg, err := fac.OTRecv(ctx, time.Second)
		if err != nil {
			log.Printf("OTRecv: %s", err)
			continue
		}
		if msg == nil {
			continue
		}
		log.Printf("sensor %#x (mfr %#x prod %#x):", msg.SensorID, msg.Header.MfrID, msg.Header.ProductID)
		for _, rec := range msg.Records {
			log.Printf("  %s%s = %v %s", rec.ParamName, writeSuffix(rec.Write), rec.Value, rec.Unit)
		}
	}
}

func writeSuffix(write bool) string {
	if write {
		return "(command)"
	}
	return ""
}
