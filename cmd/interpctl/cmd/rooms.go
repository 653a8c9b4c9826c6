package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List rooms with a connected client and no booth bound",
	Run: func(cmd *cobra.Command, args []string) {
		var res struct {
			Rooms []int `json:"rooms"`
		}
		if err := callAPI("GET", "/api/rooms/available", nil, &res); err != nil {
			fmt.Fprintf(os.Stderr, "rooms failed: %v\n", err)
			os.Exit(1)
		}
		if len(res.Rooms) == 0 {
			fmt.Println("no rooms available")
			return
		}
		for _, id := range res.Rooms {
			fmt.Printf("room %d\n", id)
		}
	},
}

func init() {
	rootCmd.AddCommand(roomsCmd)
}
