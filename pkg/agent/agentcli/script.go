package agentcli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/neuroplastio/neio-draw/internal/capturesvc"
	"github.com/neuroplastio/neio-draw/internal/configsvc"
	"github.com/neuroplastio/neio-draw/internal/gesturedsl"
	"github.com/neuroplastio/neio-draw/internal/touchsvc"
	"github.com/neuroplastio/neio-draw/motion"
	"github.com/neuroplastio/neio-draw/pkg/agent"
	"github.com/spf13/cobra"
)

func loadCaptureConfig(path string) (capturesvc.Config, error) {
	cfg, err := configsvc.Load(path, capturesvc.DefaultConfig())
	if errors.Is(err, fs.ErrNotExist) {
		return capturesvc.DefaultConfig(), nil
	}
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func NewScript(cfg *agent.Config) *cobra.Command {
	var (
		frames      bool
		minDistance float64
	)
	cmd := &cobra.Command{
		Use:   "script <file>",
		Short: "Run a gesture script through the capture adapter",
		Long:  `Run a gesture script through the capture adapter and print the resulting strokes, or the wire frames with --frames.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}
			script, err := gesturedsl.Parse(string(src))
			if err != nil {
				return err
			}
			captureConfig, err := loadCaptureConfig(cfg.CaptureConfig)
			if err != nil {
				return fmt.Errorf("failed to load capture config: %w", err)
			}
			log, err := agent.NewLogger()
			if err != nil {
				return err
			}
			epoch := time.Unix(0, 0)
			inputs, err := script.Inputs(epoch)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			strokes := touchsvc.NewStrokeListener(touchsvc.StrokeConfig{MinDistance: minDistance})
			var emitErr error
			adapter := capturesvc.NewAdapter(log.Named("capture"), captureConfig, epoch, func(event *motion.MotionEvent) {
				if !frames {
					strokes.OnTouch(event)
					return
				}
				frame, err := motion.EncodeEvent(event)
				if err != nil {
					emitErr = errors.Join(emitErr, err)
					return
				}
				b, err := json.Marshal(frame)
				if err != nil {
					emitErr = errors.Join(emitErr, err)
					return
				}
				fmt.Fprintln(out, string(b))
			})
			adapter.Replay(inputs)
			if frames {
				return emitErr
			}
			b, err := json.MarshalIndent(strokes.Strokes(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&frames, "frames", false, "print wire frames instead of strokes")
	cmd.Flags().Float64Var(&minDistance, "min-distance", 0, "drop stroke points closer than this")
	return cmd
}
