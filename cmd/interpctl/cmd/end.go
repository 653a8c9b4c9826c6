package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var endCmd = &cobra.Command{
	Use:   "end <room> <booth>",
	Short: "End the binding between a booth and a room",
	Long: `Requests the server to tear down the binding between the given booth
and room. Stale pairs are ignored server-side, so ending an already
ended binding is harmless.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		room, booth, err := parseRoomBooth(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		body := map[string]int{"room": room, "booth": booth}
		if err := callAPI("DELETE", "/api/interpretation", body, nil); err != nil {
			fmt.Fprintf(os.Stderr, "end failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("accepted: booth %d released from room %d\n", booth, room)
	},
}

func init() {
	rootCmd.AddCommand(endCmd)
}
