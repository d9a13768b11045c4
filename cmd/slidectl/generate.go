package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"unicode"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"infographify/internal/batch"
	"infographify/internal/export"
	"infographify/internal/gateway/app"
	runsvc "infographify/internal/gateway/service/run"
	llmclient "infographify/internal/llm/client"
	"infographify/internal/safeio"
	"infographify/internal/slide"
	"infographify/internal/types"
)

func newGenerateCmd(st *cliState) *cobra.Command {
	var (
		outDir   string
		parallel bool
		aspect   string
		model    string
		output   string
		zipPath  string
	)
	cmd := &cobra.Command{
		Use:   "generate FILE",
		Short: "Render every slide of a script to image files",
		Long: `Render every slide of a script ("-" reads stdin) into the --out directory.

Slides are rendered one at a time unless --parallel is set. The first
interrupt stops a sequential run before its next slide; a second one
aborts the requests in flight.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			slides := slide.Parse(text)
			if len(slides) == 0 {
				return errors.New(runsvc.NoSlidesMessage)
			}
			dir, err := safeio.OpenDir(outDir)
			if err != nil {
				return fmt.Errorf("open output dir: %w", err)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			clients, err := app.NewClients(ctx, st.cfg.LLM, st.log)
			if err != nil {
				return err
			}

			flag := &batch.CancelFlag{}
			stopOnSignal(ctx, flag, cancel)

			policy := batch.PolicySequential
			if parallel {
				policy = batch.PolicyParallel
			}
			board := batch.NewBoard(slides)
			gen := fileRenderer{images: clients.Image, dir: dir, model: model, aspect: types.AspectRatio(aspect)}
			sum, runErr := batch.New(st.log).Run(ctx, board, policy, gen, flag)

			final := board.Snapshot()
			if err := writeOutput(cmd.OutOrStdout(), output, final, slideTable(final, func(r slide.Record) string {
				if r.Error != "" {
					return r.Error
				}
				return strings.TrimPrefix(r.ImageURL, "file://")
			})); err != nil {
				return err
			}
			if zipPath != "" {
				if err := writeArchive(ctx, zipPath, dir, final); err != nil {
					return fmt.Errorf("export zip: %w", err)
				}
				st.log.Info().Str("path", zipPath).Msg("archive written")
			}
			st.log.Info().
				Int("completed", sum.Progress.Completed).
				Int("failed", sum.Progress.Failed).
				Bool("cancelled", sum.Cancelled).
				Msg("generation finished")
			if runErr != nil {
				return runErr
			}
			if sum.Progress.Failed > 0 {
				return fmt.Errorf("%d of %d slides failed", sum.Progress.Failed, sum.Progress.Total)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "slides", "directory for rendered images")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "render all slides at once")
	cmd.Flags().StringVar(&aspect, "aspect", string(types.AspectSixteenNine), "aspect ratio: 16:9, 4:3 or 1:1")
	cmd.Flags().StringVar(&model, "model", "", "image model (default from IMAGE_MODEL)")
	cmd.Flags().StringVarP(&output, "output", "o", "table", "output format: table, json or yaml")
	cmd.Flags().StringVar(&zipPath, "zip", "", "also bundle the rendered slides into this ZIP file")
	return cmd
}

// writeArchive bundles the completed slides, read back from dir, into a
// ZIP file at path.
func writeArchive(ctx context.Context, path string, dir *safeio.Dir, list []slide.Record) error {
	entries, err := export.Slides(ctx, list, export.FetcherFunc(func(_ context.Context, url string) ([]byte, string, error) {
		abs, ok := strings.CutPrefix(url, "file://")
		if !ok {
			return nil, "", fmt.Errorf("%w: %.32q", export.ErrUnsupportedURL, url)
		}
		rel, err := filepath.Rel(dir.Root(), filepath.FromSlash(abs))
		if err != nil {
			return nil, "", err
		}
		data, err := dir.ReadFile(rel)
		return data, mime.TypeByExtension(filepath.Ext(rel)), err
	}))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteZip(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// stopOnSignal raises the cancel flag on the first interrupt and cancels
// ctx on the second.
func stopOnSignal(ctx context.Context, flag *batch.CancelFlag, cancel context.CancelFunc) {
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sig)
		select {
		case <-sig:
			flag.Cancel()
		case <-ctx.Done():
			return
		}
		select {
		case <-sig:
			cancel()
		case <-ctx.Done():
		}
	}()
}

// fileRenderer writes each rendered slide into dir and answers with a
// file:// URL.
type fileRenderer struct {
	images llmclient.ImageClient
	dir    *safeio.Dir
	model  string
	aspect types.AspectRatio
}

func (f fileRenderer) Generate(ctx context.Context, rec slide.Record) (string, error) {
	img, err := f.images.GenerateImage(ctx, llmclient.ImageRequest{
		Prompt:      rec.Prompt(),
		Model:       f.model,
		AspectRatio: string(f.aspect),
	})
	if err != nil {
		return "", err
	}
	if len(img.Data) == 0 {
		return "", llmclient.ErrNoImageData
	}
	path, err := f.dir.WriteFile(fileName(rec, img.MIMEType), img.Data)
	if err != nil {
		return "", err
	}
	return "file://" + filepath.ToSlash(path), nil
}

func fileName(rec slide.Record, mimeType string) string {
	ext := "png"
	switch mimeType {
	case "image/jpeg":
		ext = "jpg"
	case "image/webp":
		ext = "webp"
	}
	// Claimed indices may repeat, so every render gets its own suffix.
	return fmt.Sprintf("%03d-%s-%s.%s", rec.Index, slug(rec.Title), uuid.NewString()[:8], ext)
}

func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
		if b.Len() >= 40 {
			break
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		return "slide"
	}
	return s
}
