package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var beginCmd = &cobra.Command{
	Use:   "begin <room> <booth>",
	Short: "Bind an interpreter booth to a meeting room",
	Long: `Requests the server to route the given booth's call state to the given
room. The server accepts the request and applies it asynchronously; a
booth already serving another room is rejected server-side, which shows
up as the booth staying absent from 'booths'.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		room, booth, err := parseRoomBooth(args)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		body := map[string]int{"room": room, "booth": booth}
		if err := callAPI("POST", "/api/interpretation", body, nil); err != nil {
			fmt.Fprintf(os.Stderr, "begin failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("accepted: booth %d -> room %d\n", booth, room)
	},
}

func parseRoomBooth(args []string) (int, int, error) {
	room, err := strconv.Atoi(args[0])
	if err != nil || room < 0 {
		return 0, 0, fmt.Errorf("invalid room id %q", args[0])
	}
	booth, err := strconv.Atoi(args[1])
	if err != nil || booth < 0 {
		return 0, 0, fmt.Errorf("invalid booth id %q", args[1])
	}
	return room, booth, nil
}

func init() {
	rootCmd.AddCommand(beginCmd)
}
