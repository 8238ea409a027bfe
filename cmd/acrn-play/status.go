package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/generalfuzz/acrn/engine"
	"github.com/generalfuzz/acrn/player"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type (
	statusPrinter struct {
		out   io.Writer
		width func() int
		tmpl  *template.Template
		title cases.Caser
		num   *message.Printer
	}

	statusView struct {
		Mode      string
		Status    string
		Frequency string
		Derived   []string
		Volume    float64
		Label     string
		Level     float64
		Slider    bool
		Width     int
	}
)

const statusTemplate = `{{- $line := printf "%-8s %-7s %9s Hz  [%s]  %7.2f dB  peak %6.1f dBFS  %q" .Mode (upper .Status) .Frequency (join ", " .Derived) .Volume .Level .Label -}}
{{- if not .Slider }}{{ $line = print $line "  (frequency locked)" }}{{ end -}}
{{- if gt .Width 0 }}{{ trunc .Width $line }}{{ else }}{{ $line }}{{ end }}`

func newStatusPrinter(out io.Writer, width func() int) (*statusPrinter, error) {
	tmpl, err := template.New("status").Funcs(sprig.TxtFuncMap()).Parse(statusTemplate)
	if err != nil {
		return nil, fmt.Errorf("cannot parse status template: %w", err)
	}
	return &statusPrinter{
		out:   out,
		width: width,
		tmpl:  tmpl,
		title: cases.Title(language.English),
		num:   message.NewPrinter(language.English),
	}, nil
}

// terminalWidth returns the width of stdout, or 0 when it is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return w
}

func (p *statusPrinter) view(s player.State, level engine.Volume) statusView {
	derived := make([]string, len(s.Derived))
	for i, f := range s.Derived {
		derived[i] = p.num.Sprintf("%d", int(f))
	}
	return statusView{
		Mode:      p.title.String(s.Mode.String()),
		Status:    s.Status.String(),
		Frequency: p.num.Sprintf("%d", int(s.Frequency)),
		Derived:   derived,
		Volume:    s.Volume,
		Label:     s.ButtonLabel,
		Level:     max(level[0], level[1]),
		Slider:    s.SliderEnabled,
		Width:     p.width(),
	}
}

func (p *statusPrinter) Print(s player.State, level engine.Volume) error {
	var b strings.Builder
	if err := p.tmpl.Execute(&b, p.view(s, level)); err != nil {
		return fmt.Errorf("cannot render status: %w", err)
	}
	_, err := fmt.Fprintln(p.out, b.String())
	return err
}
