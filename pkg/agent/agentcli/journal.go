package agentcli

import (
	"encoding/json"
	"fmt"

	"github.com/neuroplastio/neio-draw/internal/touchsvc"
	"github.com/spf13/cobra"
)

func NewJournal(agent agentProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect journaled frames",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List journaled frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := agent()
			if err != nil {
				return err
			}
			entries, err := a.Journal.List()
			if err != nil {
				return err
			}
			for _, entry := range entries {
				b, err := json.Marshal(entry)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "replay",
		Short: "Replay journaled frames to the listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := agent()
			if err != nil {
				return err
			}
			n, err := a.Replay(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "replayed %d frames\n", n)
			if strokes, ok := a.Listener.(*touchsvc.StrokeListener); ok {
				b, err := json.MarshalIndent(strokes.Strokes(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all journaled frames",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := agent()
			if err != nil {
				return err
			}
			return a.Journal.Clear()
		},
	})
	return cmd
}
