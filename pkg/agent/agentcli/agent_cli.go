package agentcli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/neuroplastio/neio-draw/pkg/agent"
	"github.com/spf13/cobra"
)

func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	dir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	cmd := NewRootCmd(filepath.Join(dir, "neio-draw"))
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

// agentProvider builds the agent on first use, so offline commands never open the database.
type agentProvider func() (*agent.Agent, error)

func NewRootCmd(configDir string) *cobra.Command {
	cfg := agent.Config{
		DataDir:       filepath.Join(configDir, "data"),
		CaptureConfig: filepath.Join(configDir, "capture.yml"),
		Listener:      "log",
	}
	var listenerConfig string
	rootCmd := &cobra.Command{
		Use:   "neio-draw",
		Short: "Neuroplast.io Draw",
		Long:  `Neuroplast.io Draw captures pointer input, batches it into motion events and delivers them as compact numeric frames.`,
	}
	var a *agent.Agent
	provider := func() (*agent.Agent, error) {
		if a != nil {
			return a, nil
		}
		if listenerConfig != "" {
			cfg.ListenerConfig = []byte(listenerConfig)
		}
		var err error
		a, err = agent.NewAgent(cfg)
		return a, err
	}
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&cfg.CaptureConfig, "capture-config", cfg.CaptureConfig, "capture config file")
	rootCmd.PersistentFlags().StringVar(&cfg.Listener, "listener", cfg.Listener, "touch listener type")
	rootCmd.PersistentFlags().StringVar(&listenerConfig, "listener-config", "", "touch listener config as JSON")
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if a == nil {
			return nil
		}
		return a.Close()
	}

	runCmd := NewRun(provider)
	runCmd.Flags().StringVar(&cfg.ListenAddr, "listen", "", "websocket bridge address, e.g. :8420")
	runCmd.Flags().BoolVar(&cfg.Journal, "journal", false, "journal delivered frames")
	runCmd.Flags().StringVar(&cfg.Script, "script", "", "gesture script to play into the capture service")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(NewDecode())
	rootCmd.AddCommand(NewScript(&cfg))
	rootCmd.AddCommand(NewJournal(provider))
	return rootCmd
}

func NewRun(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the capture pipeline",
		Long:  `Run the capture pipeline and deliver frames from the websocket bridge to the configured listener.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := agent()
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
