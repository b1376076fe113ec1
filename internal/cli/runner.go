// Package cli is the terminal front end of the quiz: it draws the session
// view and maps single key presses onto session operations.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-cbt/internal/service"
)

const (
	keyCtrlC     = 3
	keyBackspace = 8
	keyEnter     = '\r'
	keyNewline   = '\n'
	keyDelete    = 127

	// ExportFileName is the file written by the export key.
	ExportFileName = "result.json"

	redrawInterval = time.Second
	clearScreen    = "\x1b[H\x1b[2J"
)

// Runner drives one session from a key stream and draws to out.
type Runner struct {
	svc       *service.SessionService
	in        io.Reader
	out       io.Writer
	exportDir string
	log       zerolog.Logger

	status string
}

// NewRunner creates a Runner. Results are exported into exportDir.
func NewRunner(svc *service.SessionService, in io.Reader, out io.Writer, exportDir string, log zerolog.Logger) *Runner {
	return &Runner{
		svc:       svc,
		in:        in,
		out:       out,
		exportDir: exportDir,
		log:       log.With().Str("component", "cli").Logger(),
	}
}

// Run reads keys until quit, input ends or ctx is cancelled. The screen is
// redrawn after every key, every session change and once a second for the
// countdown.
func (r *Runner) Run(ctx context.Context) error {
	keys := make(chan byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go r.readKeys(done, keys, readErr)

	changes, unsubscribe := r.svc.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()

	r.draw(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case k := <-keys:
			quit, err := r.HandleKey(ctx, k)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			r.draw(ctx)
		case <-changes:
			r.draw(ctx)
		case <-ticker.C:
			r.draw(ctx)
		}
	}
}

// readKeys forwards input bytes until a read fails or done is closed. A Read
// already blocked on the terminal returns with the next key press.
func (r *Runner) readKeys(done <-chan struct{}, keys chan<- byte, errs chan<- error) {
	buf := make([]byte, 16)
	for {
		n, err := r.in.Read(buf)
		for _, k := range buf[:n] {
			select {
			case keys <- k:
			case <-done:
				return
			}
		}
		if err != nil {
			select {
			case errs <- err:
			case <-done:
			}
			return
		}
	}
}

// HandleKey applies one key press. It reports whether the runner should quit.
func (r *Runner) HandleKey(ctx context.Context, k byte) (bool, error) {
	view, err := r.svc.View(ctx)
	if err != nil {
		return false, err
	}
	r.status = ""

	switch {
	case k == 'q' || k == keyCtrlC:
		return true, nil

	case view.Result != nil:
		switch k {
		case 'r':
			r.svc.Reset(ctx)
			r.status = "Started a new attempt."
		case 'e':
			path, err := r.Export(ctx)
			if err != nil {
				r.log.Error().Err(err).Msg("Export failed")
				r.status = "Could not save the result: " + err.Error()
				break
			}
			r.status = "Saved " + path
		}

	case k >= '1' && k <= '9':
		if view.Question == nil {
			break
		}
		if _, err := r.svc.RecordAnswer(ctx, view.Question.ID, int(k-'1')); err != nil {
			r.status = fmt.Sprintf("Option %c does not exist.", k)
		}

	case k == keyEnter || k == keyNewline:
		_, err = r.svc.Next(ctx)

	case k == keyBackspace || k == keyDelete || k == 'b':
		_, err = r.svc.Retreat(ctx)
	}

	return false, err
}

// Export writes the result document to exportDir and returns its path.
func (r *Runner) Export(ctx context.Context) (string, error) {
	doc, err := r.svc.Export(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	path := filepath.Join(r.exportDir, ExportFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write result: %w", err)
	}
	r.log.Info().Str("path", path).Msg("Result exported")
	return path, nil
}

func (r *Runner) draw(ctx context.Context) {
	view, err := r.svc.View(ctx)
	if err != nil {
		return
	}
	screen := Render(view, r.status)
	// Raw mode disables output post-processing.
	fmt.Fprint(r.out, clearScreen+strings.ReplaceAll(screen, "\n", "\r\n"))
}
