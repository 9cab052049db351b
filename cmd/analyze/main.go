// Command analyze runs one image through the analysis pipeline from the
// terminal and prints the progress log and the final report.
//
//	analyze -type x-ray [-config config.yaml] [-out report.txt] chest.png
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanwahyu/medimage-analyzer/internal/application"
	appanalysis "github.com/bryanwahyu/medimage-analyzer/internal/application/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/config"
	"github.com/bryanwahyu/medimage-analyzer/internal/domain/analysis"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/ai/provider"
	"github.com/bryanwahyu/medimage-analyzer/internal/infra/imaging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	imageType := fs.String("type", "", "image type: x-ray, mri, ct-scan, ecg, ultrasound")
	configPath := fs.String("config", "config.yaml", "path to config.yaml")
	out := fs.String("out", "", "write the report to this file instead of stdout")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: analyze -type <image type> [-config config.yaml] [-out report.txt] <image>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	it, err := analysis.ParseImageType(*imageType)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	// log ke stderr biar stdout bersih untuk report
	logger := cfg.NewLogger(stderr)
	svc := &appanalysis.Service{
		Client:     provider.New(cfg.Model, logger),
		Normalizer: imaging.New(cfg.Imaging.Size, cfg.Imaging.JPEGQuality, cfg.MaxUploadBytes()),
		Clock:      application.SystemClock{},
		Logger:     logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := svc.Run(ctx, appanalysis.Request{Image: data, ImageType: it}, func(e analysis.ProgressEvent) {
		if e.Terminal() {
			fmt.Fprintln(stderr, "=>", e.Label)
			return
		}
		fmt.Fprintf(stderr, "[%d/%d] %s\n", e.Index, len(analysis.Steps), e.Label)
	})
	if st.Err != nil {
		fmt.Fprintf(stderr, "analysis failed (%s): %v\n", analysis.KindOf(st.Err), st.Err)
		return 1
	}
	for _, l := range st.Degraded {
		fmt.Fprintf(stderr, "warning: section %s could not be parsed\n", l)
	}

	if *out == "" {
		fmt.Fprint(stdout, st.FinalReport)
		return 0
	}
	if err := os.WriteFile(*out, []byte(st.FinalReport), 0o644); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintln(stderr, "report written to", *out)
	return 0
}
