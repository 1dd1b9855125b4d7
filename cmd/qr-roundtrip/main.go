// qr-roundtrip checks that binary data survives being shown as a QR code,
// scanned and decoded back.
//
// Usage:
//
//	qr-roundtrip serve                      start the debug HTTP API
//	qr-roundtrip render [--out qr.png]      show the reference QR code
//	qr-roundtrip check [--image scan.png | --text scan.bin]
//
// Configuration is read from the environment (PORT, QR_SIZE, QR_LEVEL,
// LOG_LEVEL, LOG_FORMAT).
//
// @title        QR round-trip API
// @version      1.0
// @description  Debug endpoints checking that binary data survives a QR encode, scan and decode cycle.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/AlexZinkM/qr-roundtrip/internal/api"
	"github.com/AlexZinkM/qr-roundtrip/internal/config"
	"github.com/AlexZinkM/qr-roundtrip/internal/display"
	"github.com/AlexZinkM/qr-roundtrip/internal/logging"
	"github.com/AlexZinkM/qr-roundtrip/internal/scanner"
	"github.com/AlexZinkM/qr-roundtrip/roundtrip"
)

// exitError carries a process exit code without printing an error
type exitError int

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e exitError) ExitCode() int { return int(e) }

func main() {
	if err := run(os.Args[1:]); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}

	if err := config.Init(); err != nil {
		return err
	}
	logger, err := logging.Stderr(config.GetLogLevel(), config.GetLogFormat())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "serve":
		return serve(ctx, logger, args[1:])
	case "render":
		return render(logger, args[1:])
	case "check":
		return check(ctx, logger, args[1:])
	}
	printUsage()
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: qr-roundtrip <command> [flags]

Commands:
  serve    start the debug HTTP API (Swagger UI at /swagger/)
  render   show the reference QR code in the terminal or write it to a PNG
  check    scan a QR code image or raw bytes and compare with the payload
`)
}

func parseFlags(flagSet *pflag.FlagSet, args []string) (bool, error) {
	flagSet.BoolP("help", "h", false, "show help")
	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return false, nil
		}
		return false, err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n%s", flagSet.Name(), flagSet.FlagUsages())
		return false, nil
	}
	return true, nil
}

func serve(ctx context.Context, logger zerolog.Logger, args []string) error {
	var port string
	flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flagSet.StringVar(&port, "port", config.GetPort(), "port to listen on")
	if ok, err := parseFlags(flagSet, args); !ok {
		return err
	}

	router, err := api.SetupRouter(logger)
	if err != nil {
		return fmt.Errorf("failed to set up router: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func render(logger zerolog.Logger, args []string) error {
	var out string
	var terminal bool
	flagSet := pflag.NewFlagSet("render", pflag.ContinueOnError)
	flagSet.StringVarP(&out, "out", "o", "", "write the QR code PNG to this file")
	flagSet.BoolVar(&terminal, "terminal", config.IsInteractive(), "draw the QR code on stdout")
	if ok, err := parseFlags(flagSet, args); !ok {
		return err
	}

	level, err := display.ParseLevel(config.GetQRLevel())
	if err != nil {
		return err
	}

	s := roundtrip.NewVerifier(logger).Arm()

	var renderers []display.Renderer
	if out != "" {
		renderers = append(renderers, &display.FileRenderer{Path: out, Size: config.GetQRSize(), Level: level})
	}
	if terminal {
		renderers = append(renderers, &display.TerminalRenderer{W: os.Stdout, Level: level})
	}
	if len(renderers) == 0 {
		return errors.New("nothing to render: stdout is not a terminal, pass --out or --terminal")
	}

	for _, r := range renderers {
		if err := r.Render(s.Text()); err != nil {
			return err
		}
	}
	logger.Info().Str("fingerprint", s.Fingerprint()).Str("out", out).Msg("rendered reference payload")
	return nil
}

func check(ctx context.Context, logger zerolog.Logger, args []string) error {
	var imagePath, textPath string
	flagSet := pflag.NewFlagSet("check", pflag.ContinueOnError)
	flagSet.StringVar(&imagePath, "image", "", "photo or screenshot of the QR code (PNG or JPEG)")
	flagSet.StringVar(&textPath, "text", "", "file holding the raw bytes a scanner returned")
	if ok, err := parseFlags(flagSet, args); !ok {
		return err
	}
	if imagePath != "" && textPath != "" {
		return errors.New("--image and --text are mutually exclusive")
	}

	verifier := roundtrip.NewVerifier(logger)
	s := verifier.Arm()

	sc, closeFn, err := checkScanner(s, imagePath, textPath)
	if err != nil {
		return err
	}
	defer closeFn()

	report, err := verifier.Run(ctx, s, sc)
	if err != nil {
		return err
	}
	if report == nil {
		fmt.Fprintln(os.Stderr, "no QR code found, nothing verified")
		return exitError(2)
	}

	fmt.Println(s.Toast())
	fmt.Printf("outcome: %s (%d mismatching bytes)\n", report.Outcome, len(report.Mismatches))
	if !report.OK() {
		return exitError(1)
	}
	return nil
}

// checkScanner picks the scan collaborator for check. Without input it
// renders the session's own QR code and scans that, which tests the encoder
// and decoder against each other.
func checkScanner(s *roundtrip.Session, imagePath, textPath string) (scanner.Scanner, func(), error) {
	noop := func() {}
	switch {
	case imagePath != "":
		img, err := os.ReadFile(imagePath)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to read image: %w", err)
		}
		return scanner.NewImageScanner(img), noop, nil
	case textPath != "":
		f, err := os.Open(textPath)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open scan text: %w", err)
		}
		return scanner.NewTextScanner(f), func() { f.Close() }, nil
	}

	level, err := display.ParseLevel(config.GetQRLevel())
	if err != nil {
		return nil, noop, err
	}
	img, err := display.PNG(s.Text(), config.GetQRSize(), level)
	if err != nil {
		return nil, noop, err
	}
	return scanner.NewImageScanner(img), noop, nil
}
