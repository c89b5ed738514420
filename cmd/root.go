package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "contentstore",
	Short: "content record management tool",
	Example: `contentstore create -t <title> -d <document>
contentstore get -c <content-id>
contentstore list --category <category>
contentstore update -c <content-id> -d <document> -v <version>
contentstore versions -c <content-id>
contentstore restore -c <content-id> -v <version>
contentstore delete -c <content-id>
contentstore image upload -f <file>
contentstore gc sweep
contentstore stats`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
