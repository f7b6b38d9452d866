package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wiimctl/wiimctl/internal/linkplay"
)

var eqCmd = &cobra.Command{
	Use:   "eq",
	Short: "Control the equalizer",
}

var eqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available equalizer presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			presets, err := c.GetEQPresets(ctx)
			if err != nil {
				return err
			}
			if JSONOutput() {
				return json.NewEncoder(os.Stdout).Encode(presets)
			}
			for _, p := range presets {
				fmt.Println(p)
			}
			return nil
		})
	},
}

var eqSetCmd = &cobra.Command{
	Use:   "set <preset>",
	Short: "Activate an equalizer preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			return c.SetEQPreset(ctx, args[0])
		})
	},
}

var eqOffCmd = &cobra.Command{
	Use:   "off",
	Short: "Disable the equalizer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *linkplay.Client) error {
			return c.DisableEQ(ctx)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{eqListCmd, eqSetCmd, eqOffCmd} {
		c.Flags().StringVarP(&controlDevice, "device", "d", "", "device name, alias, or IP")
		eqCmd.AddCommand(c)
	}
	rootCmd.AddCommand(eqCmd)
}
