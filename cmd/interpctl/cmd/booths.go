package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var boothsCmd = &cobra.Command{
	Use:   "booths",
	Short: "List booths not currently bound to any room",
	Run: func(cmd *cobra.Command, args []string) {
		var res struct {
			Booths []int `json:"booths"`
		}
		if err := callAPI("GET", "/api/booths/available", nil, &res); err != nil {
			fmt.Fprintf(os.Stderr, "booths failed: %v\n", err)
			os.Exit(1)
		}
		if len(res.Booths) == 0 {
			fmt.Println("no booths available")
			return
		}
		for _, id := range res.Booths {
			fmt.Printf("booth %d\n", id)
		}
	},
}

func init() {
	rootCmd.AddCommand(boothsCmd)
}
