package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/generalfuzz/acrn"
	"github.com/generalfuzz/acrn/cmd"
	"github.com/generalfuzz/acrn/player"
	"github.com/generalfuzz/acrn/store"
	"github.com/generalfuzz/acrn/version"
)

const renderChunk = 1024

func main() {
	mode := flag.String("mode", "pattern", "What to render: tone or pattern.")
	freq := flag.Int("freq", 0, "Base frequency in Hz (default: the configured default frequency).")
	volume := flag.Float64("volume", 0, "Volume slider value in dB (default: the configured default volume).")
	seconds := flag.Float64("seconds", 10, "Length of the rendering in seconds.")
	seed := flag.Uint64("seed", 1, "Seed of the pattern shuffle; the same seed gives the same rendering.")
	configFile := flag.String("config", "", "Read player configuration overrides from `file`.")
	directory := flag.String("o", "", "Directory where to output all files. The directory and its parents are created if needed. By default, the working directory.")
	rawOut := flag.Bool("r", false, "Output the rendering as .raw file.")
	wavOut := flag.Bool("w", false, "Output the rendering as .wav file (default behaviour when no other output is defined).")
	pcm := flag.Bool("c", false, "Convert audio to 16-bit signed PCM when outputting.")
	debug := flag.Bool("debug", false, "Log every player transition.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String("acrn-render"))
		os.Exit(0)
	}
	if !*rawOut && !*wavOut {
		*wavOut = true
	}
	cfg, err := player.LoadConfig(*configFile)
	if err != nil {
		log.Fatal(err)
	}
	var m player.Mode
	switch *mode {
	case "tone":
		m = player.ToneMode
	case "pattern":
		m = player.SequenceMode
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q, expected tone or pattern\n", *mode)
		os.Exit(2)
	}
	if *seconds <= 0 {
		fmt.Fprintln(os.Stderr, "seconds must be positive")
		os.Exit(2)
	}
	eng, err := cmd.NewEngine(cfg)
	if err != nil {
		log.Fatal("could not create audio engine: ", err)
	}
	p, err := player.New(cfg, eng, store.NewMemory(), rand.New(rand.NewPCG(*seed, *seed)),
		player.WithLogger(cmd.NewLogger(os.Stderr, *debug)))
	if err != nil {
		log.Fatal("could not create player: ", err)
	}
	if err := setup(p, m, *freq, *volume); err != nil {
		log.Fatal(err)
	}
	buffer := make(acrn.AudioBuffer, int(*seconds*float64(eng.SampleRate())))
	if err := buffer.Fill(eng, renderChunk); err != nil {
		log.Fatal("rendering failed: ", err)
	}
	name := fmt.Sprintf("acrn-%s-%d", *mode, int(p.State().Frequency))
	if *rawOut {
		raw, err := buffer.Raw(*pcm)
		if err != nil {
			log.Fatal("could not generate .raw file: ", err)
		}
		if err := output(*directory, name+".raw", raw); err != nil {
			log.Fatal(err)
		}
	}
	if *wavOut {
		wav, err := buffer.Wav(eng.SampleRate(), *pcm)
		if err != nil {
			log.Fatal("could not generate .wav file: ", err)
		}
		if err := output(*directory, name+".wav", wav); err != nil {
			log.Fatal(err)
		}
	}
}

// setup brings the player into the requested state and starts playback.
// Zero frequency and volume keep the configured defaults.
func setup(p *player.Player, mode player.Mode, freq int, volume float64) error {
	if err := p.SetMode(mode); err != nil {
		return err
	}
	if freq != 0 {
		if err := p.SetFrequency(freq); err != nil {
			return err
		}
	}
	if volume != 0 {
		if err := p.SetVolume(volume); err != nil {
			return err
		}
	}
	return p.TogglePlay()
}

func output(dir, name string, contents []byte) error {
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return fmt.Errorf("could not get working directory, specify the output directory explicitly: %w", err)
		}
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not create output directory %v: %w", dir, err)
	}
	f := filepath.Join(dir, name)
	if err := os.WriteFile(f, contents, 0o644); err != nil {
		return fmt.Errorf("could not write file %v: %w", f, err)
	}
	return nil
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "acrn-render renders an ACRN tone or pattern to an audio file.\nUsage: %s [flags]\n", os.Args[0])
	flag.PrintDefaults()
}
