package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"infographify/internal/gateway/app"
	scriptsvc "infographify/internal/gateway/service/script"
	"infographify/internal/types"
)

func newScriptCmd(st *cliState) *cobra.Command {
	var cfg types.GenerationConfig
	var detail, aspect, language string
	cmd := &cobra.Command{
		Use:   "script SOURCE",
		Short: "Draft a slide script from source material",
		Long:  "Send a text file (\"-\" reads stdin) to the script model and print the drafted script.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return fmt.Errorf("read source: %w", err)
			}
			cfg.DetailLevel = types.DetailLevel(detail)
			cfg.AspectRatio = types.AspectRatio(aspect)
			cfg.Language = types.Language(language)

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()
			clients, err := app.NewClients(ctx, st.cfg.LLM, st.log)
			if err != nil {
				return err
			}
			draft, err := scriptsvc.New(clients.Script, st.log).Draft(ctx, source, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), draft.Text)
			for _, src := range draft.Sources {
				fmt.Fprintf(cmd.ErrOrStderr(), "source: %s %s\n", src.Title, src.URI)
			}
			st.log.Info().Int("slides", draft.SlideCount).Msg("script drafted")
			return nil
		},
	}
	cmd.Flags().IntVarP(&cfg.SlideCount, "slides", "n", types.DefaultSlideCount, "number of slides to ask for")
	cmd.Flags().StringVar(&detail, "detail", string(types.DetailBasic), "detail level")
	cmd.Flags().StringVar(&cfg.Style, "style", "", "visual style description")
	cmd.Flags().StringVar(&aspect, "aspect", string(types.AspectSixteenNine), "aspect ratio: 16:9, 4:3 or 1:1")
	cmd.Flags().StringVar(&language, "language", string(types.LanguageEnglish), "language code: en or it")
	return cmd
}
