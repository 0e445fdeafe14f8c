package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the cache of remote places",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [contact-type]",
	Short: "Refetch remote places of a type on next use",
	Long: `Drop the cached listing of remote places of a contact type, so places
created on the instance by other means are seen by the next command.`,
	Args: cobra.ExactArgs(1),
	RunE: runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if placeService == nil {
		return errors.New("place service not configured")
	}

	client, err := currentClient()
	if err != nil {
		return err
	}

	placeService.ClearCache(client, args[0])
	cmd.Printf("Cleared cached %s places.\n", args[0])
	return nil
}
