package cli

import (
	"fmt"
	"os"

	"github.com/nxarchive/typedstream/archive"
	"github.com/nxarchive/typedstream/internal/display"
	"github.com/nxarchive/typedstream/internal/foundation"
	"github.com/spf13/cobra"
)

var decodeMaxDepth int

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Reconstruct and print the object tree of a typedstream archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := args[0]
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filename)
		}

		f, err := os.Open(filename)
		if err != nil {
			return err
		}
		defer f.Close()

		reg := archive.NewRegistry()
		foundation.Register(reg)

		u, err := archive.NewUnarchiver(f, reg)
		if err != nil {
			return err
		}
		values, err := u.DecodeAll()
		if err != nil {
			return err
		}

		for i, v := range values {
			fmt.Println(display.TitleStyle.Render(fmt.Sprintf("root[%d]", i)))
			for _, line := range display.ValueLines(v, 1, decodeMaxDepth) {
				fmt.Println(line)
			}
		}
		return nil
	},
}

func init() {
	decodeCmd.Flags().IntVar(&decodeMaxDepth, "max-depth", 32,
		"cap how deep nested object contents are printed (0 = unlimited)")
}
