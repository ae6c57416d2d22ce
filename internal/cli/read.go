package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/nxarchive/typedstream/internal/display"
	"github.com/nxarchive/typedstream/wire"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <file>",
	Short: "Dump the raw event stream of a typedstream archive",
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

		sr, err := wire.NewStreamReader(f)
		if err != nil {
			return err
		}

		depth := 0
		for {
			ev, err := sr.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			switch ev.(type) {
			case wire.EndTypedValues, wire.EndObject, wire.EndArray, wire.EndStruct:
				depth--
			}
			fmt.Println(display.EventLine(depth, ev))
			switch ev.(type) {
			case wire.BeginTypedValues, wire.BeginObject, wire.BeginArray, wire.BeginStruct:
				depth++
			}
		}
	},
}
