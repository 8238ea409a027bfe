package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/generalfuzz/acrn/cmd"
	"github.com/generalfuzz/acrn/oto"
	"github.com/generalfuzz/acrn/player"
	"github.com/generalfuzz/acrn/store"
	"github.com/generalfuzz/acrn/version"
)

var configFile = flag.String("config", "", "read player configuration overrides from `file` (default: config.yml in the user config directory)")
var settingsFile = flag.String("settings", "", "persist frequency, volume and mode in `file` (default: settings.yml in the user config directory)")
var defaultMidiInput = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
var debug = flag.Bool("debug", false, "log every player transition")
var versionFlag = flag.Bool("v", false, "Print version.")

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String("acrn-play"))
		os.Exit(0)
	}
	logger := cmd.NewLogger(os.Stderr, *debug)
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	st, err := openSettings()
	if err != nil {
		log.Fatal(err)
	}
	eng, err := cmd.NewEngine(cfg)
	if err != nil {
		log.Fatal("could not create audio engine: ", err)
	}
	audioContext, err := oto.NewContext(eng.SampleRate())
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext: %v\n", err)
		os.Exit(1)
	}
	defer audioContext.Close()
	broker := player.NewBroker()
	midiContext := cmd.NewMidiContext(broker, cfg)
	defer midiContext.Close()
	if isFlagPassed("midi-input") {
		if err := midiContext.Open(*defaultMidiInput); err != nil {
			logger.Warn("failed to open MIDI input", "prefix", *defaultMidiInput, "err", err)
		}
	}
	rnd := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
	p, err := player.New(cfg, eng, st, rnd, player.WithLogger(logger))
	if err != nil {
		log.Fatal("could not create player: ", err)
	}
	status, err := newStatusPrinter(os.Stdout, terminalWidth)
	if err != nil {
		log.Fatal(err)
	}
	output := audioContext.Play(eng)
	defer output.Close()
	commands := readCommands(os.Stdin)
	sess := &session{player: p, engine: eng, status: status, midi: midiContext, logger: logger, out: os.Stdout, errOut: os.Stderr}
	sess.printStatus()
	for {
		select {
		case e := <-broker.Events:
			sess.event(e)
		case line, ok := <-commands:
			if !ok || !sess.command(line) {
				sess.quit()
				return
			}
		}
	}
}

func loadConfig() (player.Config, error) {
	path := *configFile
	if path == "" {
		var err error
		if path, err = player.DefaultConfigPath(); err != nil {
			return player.DefaultConfig(), nil
		}
	}
	return player.LoadConfig(path)
}

func openSettings() (store.Store, error) {
	path := *settingsFile
	if path == "" {
		var err error
		if path, err = store.DefaultPath(); err != nil {
			return store.NewMemory(), nil
		}
	}
	return store.OpenFile(path)
}

func readCommands(f *os.File) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "acrn-play plays an ACRN tone or pattern. Commands are read from standard input; type help for a list.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
