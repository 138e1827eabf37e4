package main

import (
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/meikuraledutech/workflow/editor"
	"github.com/meikuraledutech/workflow/internal/config"
	"github.com/meikuraledutech/workflow/internal/observability"
	"github.com/meikuraledutech/workflow/remote"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries what every subcommand needs once the root has been initialised.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	log    *zap.Logger
	svc    *remote.Client
	notify editor.Notifier
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	var cfgFile, envFile string

	root := &cobra.Command{
		Use:           "stackctl",
		Short:         "stackctl edits and runs workflows stored in a workflow service.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine.
			_ = godotenv.Load(envFile)

			cfg, err := config.Load(a.v, cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = observability.NewLogger(cfg.Logger, zapcore.AddSync(cmd.ErrOrStderr()))
			a.svc = remote.New(cfg.Service.BaseURL,
				remote.WithTimeout(cfg.Service.Timeout),
				remote.WithLogger(a.log),
			)
			a.notify = printNotifier{w: cmd.ErrOrStderr()}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	config.SetDefaults(a.v)
	config.BindEnv(a.v)

	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	pf.String("base-url", "", "workflow service base URL")
	pf.Duration("timeout", 0, "per-request timeout")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (console, json)")
	_ = a.v.BindPFlag("service.base_url", pf.Lookup("base-url"))
	_ = a.v.BindPFlag("service.timeout", pf.Lookup("timeout"))
	_ = a.v.BindPFlag("logger.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("logger.format", pf.Lookup("log-format"))

	root.AddCommand(
		newListCmd(a),
		newCreateCmd(a),
		newShowCmd(a),
		newScaffoldCmd(a),
		newRunCmd(a),
	)
	return root
}

// printNotifier writes notifications as plain lines.
type printNotifier struct {
	w io.Writer
}

func (n printNotifier) Success(msg string) {
	fmt.Fprintln(n.w, msg)
}

func (n printNotifier) Error(msg string, retryable bool) {
	if retryable {
		fmt.Fprintln(n.w, "error:", msg, "(retryable)")
		return
	}
	fmt.Fprintln(n.w, "error:", msg)
}
