// Command slidectl parses slide scripts and renders them from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"infographify/internal/gateway/config"
	"infographify/internal/logging"
)

type cliState struct {
	cfg     *config.Config
	log     zerolog.Logger
	verbose bool
}

func newRootCmd() *cobra.Command {
	st := &cliState{}
	root := &cobra.Command{
		Use:   "slidectl",
		Short: "Parse and render infographic slide scripts",
		Long: `slidectl works on slide scripts: plain text where every slide starts
with a header such as "#### Infographic 2/5: Growth".

Use it to preview how a script splits into slides, draft a script from
source material, or render every slide to image files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			st.cfg = config.FromEnv()
			level := st.cfg.Log.Level
			if st.verbose {
				level = "debug"
			}
			st.log = logging.New(logging.Config{
				Level:       level,
				Format:      "console",
				Output:      cmd.ErrOrStderr(),
				ServiceName: "slidectl",
			})
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newParseCmd())
	root.AddCommand(newScriptCmd(st))
	root.AddCommand(newGenerateCmd(st))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
