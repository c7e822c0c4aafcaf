// Copyright (c) 2016 by Thorsten von Eicken, see LICENSE file for details

// energenie-gw is an MQTT bridge: it republishes decoded OpenThings
// sensor records as MQTT messages and accepts on/off commands for
// configured sockets over MQTT topics. One RFM69 is shared between the
// sensor poll loop and outbound socket commands, guarded by a mutex since
// neither the radio facade nor the sockets built on it are safe for
// concurrent use on their own.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"

	"github.com/thinking-binaries/pico-energenie/radio"
	"github.com/thinking-binaries/pico-energenie/socket"
	"github.com/thinking-binaries/pico-energenie/spiport"
)

type LogPrintf func(format string, v ...interface{})

type Config struct {
	Debug  bool
	Mqtt   MqttConfig
	Radio  RadioConfig
	Socket []SocketConfig
}

type MqttConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

type RadioConfig struct {
	Spi      string `toml:"spi"`
	CSPin    string `toml:"cs_pin"`
	ResetPin string `toml:"reset_pin"`
	DIO0Pin  string `toml:"dio0_pin"`
}

type SocketConfig struct {
	Name     string // used to build the MQTT topic prefix
	Kind     string // "legacy" or "mihome"
	Address  uint64 // house address (legacy) or sensor ID (mihome)
	Channel  int    // legacy channel, 0 (All) .. 4
	Topic    string // MQTT topic prefix, defaults to "energenie/" + Name
}

// setCommand is the JSON shape accepted on a socket's "<topic>/set" subtopic.
type setCommand struct {
	Topic   string
	Payload struct {
		State bool
	}
}

// safeRadio serializes access to one radio.Facade between the sensor
// poll loop and outbound socket commands.
type safeRadio struct {
	mu sync.Mutex
	*radio.Facade
}

func openRadio(rc RadioConfig) (*radio.Facade, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host.Init: %w", err)
	}
	bus, err := spireg.Open(rc.Spi)
	if err != nil {
		return nil, fmt.Errorf("spireg.Open(%q): %w", rc.Spi, err)
	}
	cs := gpioreg.ByName(rc.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("cannot find CS pin %q", rc.CSPin)
	}
	opts := spiport.Options{Bus: bus, CS: cs}
	if rc.ResetPin != "" {
		if p := gpioreg.ByName(rc.ResetPin); p != nil {
			opts.Reset = p
		}
	}
	if rc.DIO0Pin != "" {
		if p := gpioreg.ByName(rc.DIO0Pin); p != nil {
			opts.DIO0 = p
		}
	}
	port, err := spiport.New(opts)
	if err != nil {
		return nil, fmt.Errorf("spiport.New: %w", err)
	}
	return radio.New(port), nil
}

func main() {
	configFile := flag.String("config", "energenie-gw.toml", "path to config file")
	flag.Parse()

	config := &Config{}
	rawConfig, err := ioutil.ReadFile(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot access config file: %s\n", err)
		os.Exit(1)
	}
	if err := toml.Unmarshal(rawConfig, config); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot parse config file: %s\n", err)
		os.Exit(1)
	}
	if len(config.Socket) == 0 {
		fmt.Fprintf(os.Stderr, "At least one socket must be configured\n")
		os.Exit(1)
	}

	logger := LogPrintf(func(format string, v ...interface{}) {})
	if config.Debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		logger = log.Printf
	}

	mq, err := newMQ(config.Mqtt, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to MQTT broker: %s\n", err)
		os.Exit(2)
	}

	log.Printf("Configuring radio")
	fac, err := openRadio(config.Radio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open radio: %s\n", err)
		os.Exit(1)
	}
	sr := &safeRadio{Facade: fac}

	ctx := context.Background()
	sr.mu.Lock()
	err = sr.Facade.On(ctx)
	sr.mu.Unlock()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to power on radio: %s\n", err)
		os.Exit(1)
	}

	log.Printf("Configuring sockets")
	for _, sc := range config.Socket {
		if err := hookSocket(sc, sr, mq, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to configure socket %s: %s\n", sc.Name, err)
			os.Exit(1)
		}
	}

	go pollSensors(ctx, sr, mq, logger)

	log.Printf("Gateway is ready")
	for {
		time.Sleep(time.Hour)
	}
}

// hookSocket builds the configured socket and subscribes it to its
// "<topic>/set" MQTT subtopic.
func hookSocket(sc SocketConfig, sr *safeRadio, mq *mq, debug LogPrintf) error {
	topic := sc.Topic
	if topic == "" {
		topic = "energenie/" + sc.Name
	}

	var sock socket.Socket
	switch sc.Kind {
	case "legacy":
		sock = socket.NewLegacy(sr.Facade, uint32(sc.Address), sc.Channel)
	case "mihome":
		sock = socket.NewMiHome(sr.Facade, uint32(sc.Address))
	default:
		return fmt.Errorf("unknown socket kind %q", sc.Kind)
	}

	subChan := make(chan setCommand, 4)
	if err := mq.Subscribe(topic+"/set", subChan); err != nil {
		return err
	}

	go func() {
		for cmd := range subChan {
			debug("socket %s: set %v", sc.Name, cmd.Payload.State)
			sr.mu.Lock()
			err := sock.Set(context.Background(), cmd.Payload.State)
			sr.mu.Unlock()
			if err != nil {
				log.Printf("socket %s: Set failed: %s", sc.Name, err)
				continue
			}
			mq.Publish(topic+"/state", cmd.Payload)
		}
	}()
	return nil
}

// pollSensors puts the radio in continuous FSK receive and republishes
// every decoded OpenThings record under energenie/sensor/<id>/<param>.
// It briefly takes sr.mu for each poll so a pending socket command never
// waits more than one poll interval.
func pollSensors(ctx context.Context, sr *safeRadio, mq *mq, debug LogPrintf) {
	sr.mu.Lock()
	err := sr.Facade.AlwaysReceive(ctx)
	sr.mu.Unlock()
	if err != nil {
		log.Printf("pollSensors: AlwaysReceive failed: %s", err)
		return
	}

	for {
		sr.mu.Lock()
		// A legacy socket command in between leaves the OOK table loaded.
		err := sr.Facade.WantConfig(ctx, radio.FSK)
		if err != nil {
			sr.mu.Unlock()
			log.Printf("pollSensors: WantConfig: %s", err)
			continue
		}
		msg, err := sr.Facade.OTRecv(ctx, 200*time.Millisecond)
		sr.mu.Unlock()
		if err != nil {
			log.Printf("pollSensors: OTRecv: %s", err)
			continue
		}
		if msg == nil {
			continue
		}
		for _, rec := range msg.Records {
			topic := fmt.Sprintf("energenie/sensor/%06x/%s", msg.SensorID, rec.ParamName)
			debug("publish %s = %v", topic, rec.Value)
			mq.Publish(topic, struct {
				Value interface{}
				Unit  string
			}{rec.Value, rec.Unit})
		}
	}
}
