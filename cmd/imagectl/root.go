package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var flags commandFlags

	ctx := newCommandContext(&flags)

	rootCmd := &cobra.Command{
		Use:           "imagectl",
		Short:         "Manage raffle images from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureClient()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.baseURL, "api-url", "", "Image store API base URL (default $API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&flags.token, "token", "", "Bearer token (default $API_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flags.messages, "messages", "", "TOML file with friendly validation messages")
	rootCmd.PersistentFlags().Int64Var(&flags.raffleID, "raffle", 0, "Edit the images of this raffle instead of your unattached images")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Log editor events")

	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newUploadCommand(ctx))
	rootCmd.AddCommand(newDeleteCommand(ctx))
	rootCmd.AddCommand(newReorderCommand(ctx))

	return rootCmd
}
