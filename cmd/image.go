package cmd

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emrgen/contentstore/internal/upload"
)

var imageCmd = &cobra.Command{
	Use:   "image",
	Short: "image upload commands",
}

func init() {
	rootCmd.AddCommand(imageCmd)
	imageCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	imageCmd.AddCommand(uploadImageCmd())
	imageCmd.AddCommand(attachImageCmd())
}

func renderUploadResult(res *upload.Result) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Path", "URL", "Size", "Reused"})
	table.Append([]string{res.Path, res.URL, formatSize(res.Size), formatBool(res.Reused)})
	table.Render()
}

func uploadImageCmd() *cobra.Command {
	var file string

	var required = []string{"file"}

	command := &cobra.Command{
		Use:     "upload",
		Short:   "upload a cover image into the uploads namespace",
		Example: "contentstore image upload -f cover.png",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			f, err := os.Open(file)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer f.Close()

			e := newEnv()
			defer e.Close()

			res, err := e.uploads.Direct(cmd.Context(), file, f)
			if err != nil {
				logrus.Error(err)
				return
			}

			renderUploadResult(res)
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "image file to upload (required)")

	return command
}

func attachImageCmd() *cobra.Command {
	var file string

	var required = []string{"file"}

	command := &cobra.Command{
		Use:     "attach",
		Short:   "upload an editor image, deduplicated by content hash",
		Example: "contentstore image attach -f figure.png",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			f, err := os.Open(file)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer f.Close()

			e := newEnv()
			defer e.Close()

			res, err := e.uploads.Editor(cmd.Context(), file, f)
			if err != nil {
				logrus.Error(err)
				return
			}

			renderUploadResult(res)
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "image file to upload (required)")

	return command
}
