package agentcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/neuroplastio/neio-draw/internal/wsbridge"
	"github.com/neuroplastio/neio-draw/motion"
	"github.com/spf13/cobra"
)

type sampleView struct {
	Time float64            `json:"time" yaml:"time"`
	Axes map[string]float64 `json:"axes" yaml:"axes"`
}

type pointerView struct {
	ID       int          `json:"id" yaml:"id"`
	ToolType string       `json:"toolType" yaml:"toolType"`
	Samples  []sampleView `json:"samples" yaml:"samples"`
}

type eventView struct {
	Action      string        `json:"action" yaml:"action"`
	ActionIndex int           `json:"actionIndex" yaml:"actionIndex"`
	EventTime   float64       `json:"eventTime" yaml:"eventTime"`
	OffsetX     float64       `json:"offsetX" yaml:"offsetX"`
	OffsetY     float64       `json:"offsetY" yaml:"offsetY"`
	Pointers    []pointerView `json:"pointers" yaml:"pointers"`
}

func axesOf(coords motion.PointerCoords) map[string]float64 {
	axes := make(map[string]float64, coords.Len())
	coords.Each(func(axis motion.Axis, value float64) bool {
		axes[axis.String()] = value
		return true
	})
	return axes
}

// viewEvent flattens an event into its samples, oldest first.
func viewEvent(e *motion.MotionEvent) eventView {
	view := eventView{
		Action:      motion.ActionString(e.ActionMasked()),
		ActionIndex: e.ActionIndex(),
		EventTime:   e.EventTime(),
		OffsetX:     e.OffsetX(),
		OffsetY:     e.OffsetY(),
		Pointers:    make([]pointerView, e.PointerCount()),
	}
	for p := range view.Pointers {
		pv := pointerView{
			ID:       e.PointerID(p),
			ToolType: e.ToolType(p).String(),
		}
		for h := 0; h < e.HistorySize(); h++ {
			pv.Samples = append(pv.Samples, sampleView{Time: e.HistoricalEventTime(h), Axes: axesOf(e.HistoricalPointerCoords(p, h))})
		}
		pv.Samples = append(pv.Samples, sampleView{Time: e.EventTime(), Axes: axesOf(e.PointerCoords(p))})
		view.Pointers[p] = pv
	}
	return view
}

func NewDecode() *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "decode [frame]",
		Short: "Decode a wire frame",
		Long:  `Decode a wire frame given as a JSON number array, read from stdin when no argument is given.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if len(args) == 1 {
				data = []byte(args[0])
			} else {
				var err error
				data, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read frame: %w", err)
				}
			}
			frame, err := wsbridge.ParseFrame([]byte(strings.TrimSpace(string(data))))
			if err != nil {
				return err
			}
			event, err := motion.DecodeEvent(frame)
			if err != nil {
				return err
			}
			view := viewEvent(event)
			var out []byte
			if asYAML {
				out, err = yaml.Marshal(view)
			} else {
				out, err = json.MarshalIndent(view, "", "  ")
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as YAML")
	return cmd
}
