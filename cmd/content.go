package cmd

import (
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/emrgen/contentstore/internal/service"
)

func init() {
	rootCmd.AddCommand(createContentCmd())
	rootCmd.AddCommand(getContentCmd())
	rootCmd.AddCommand(listContentCmd())
	rootCmd.AddCommand(updateContentCmd())
	rootCmd.AddCommand(deleteContentCmd())
	rootCmd.AddCommand(listVersionsCmd())
	rootCmd.AddCommand(restoreVersionCmd())
}

func checkMissingFlags(cmd *cobra.Command, required []string) bool {
	missing := false
	for _, name := range required {
		if !cmd.Flags().Changed(name) {
			color.Red("missing required flag: --%s", name)
			missing = true
		}
	}

	return missing
}

func renderContentTable(contents ...*service.Content) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Title", "Category", "Active", "Version"})
	for _, c := range contents {
		table.Append([]string{
			c.ID, c.Title, c.Category,
			strconv.FormatBool(c.Active),
			strconv.FormatInt(c.Version, 10),
		})
	}
	table.Render()
}

func createContentCmd() *cobra.Command {
	var contentID string
	var title string
	var document string
	var markup string
	var category string

	var required = []string{"title"}

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a content record",
		Example: "contentstore create -t <title> -d <document> -m <markup> --category <category>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := newEnv()
			defer e.Close()

			req := &service.CreateContentRequest{
				Title:    title,
				Document: document,
				Markup:   markup,
				Category: category,
			}

			if contentID != "" {
				if _, err := uuid.Parse(contentID); err != nil {
					logrus.Error("invalid content id, expected a valid uuid")
					return
				}
				req.ContentID = &contentID
			}

			res, err := e.contents.CreateContent(cmd.Context(), req)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("content created with id: %s", res.ID)
		},
	}

	command.Flags().StringVarP(&contentID, "content-id", "c", "", "content id")
	command.Flags().StringVarP(&title, "title", "t", "", "title of the content (required)")
	command.Flags().StringVarP(&document, "document", "d", "", "document JSON tree")
	command.Flags().StringVarP(&markup, "markup", "m", "", "rendered markup")
	command.Flags().StringVar(&category, "category", "", "category tag")

	command.Flags().SortFlags = false

	return command
}

func getContentCmd() *cobra.Command {
	var contentID string
	var version int64

	var required = []string{"content-id"}

	command := &cobra.Command{
		Use:     "get",
		Short:   "get a content record",
		Example: "contentstore get -c <content-id> -v <version>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := newEnv()
			defer e.Close()

			res, err := e.contents.GetContent(cmd.Context(), contentID, version)
			if err != nil {
				logrus.Error(err)
				return
			}

			renderContentTable(res)
		},
	}

	command.Flags().StringVarP(&contentID, "content-id", "c", "", "content id (required)")
	command.Flags().Int64VarP(&version, "version", "v", 0, "version to fetch, 0 for the live state")

	command.Flags().SortFlags = false

	return command
}

func listContentCmd() *cobra.Command {
	var category string
	var includeInactive bool

	command := &cobra.Command{
		Use:     "list",
		Short:   "list content records",
		Example: "contentstore list --category <category> --all",
		Run: func(cmd *cobra.Command, args []string) {
			e := newEnv()
			defer e.Close()

			contents, total, err := e.contents.ListContents(cmd.Context(), category, includeInactive)
			if err != nil {
				logrus.Error(err)
				return
			}

			renderContentTable(contents...)
			color.Green("total: %d", total)
		},
	}

	command.Flags().StringVar(&category, "category", "", "filter by category")
	command.Flags().BoolVar(&includeInactive, "all", false, "include inactive records")

	command.Flags().SortFlags = false

	return command
}

func updateContentCmd() *cobra.Command {
	var contentID string
	var title string
	var document string
	var markup string
	var category string
	var version int64

	var required = []string{"content-id", "version"}

	command := &cobra.Command{
		Use:     "update",
		Short:   "update a content record",
		Long:    "update a content record, archiving the previous state as a new revision",
		Example: "contentstore update -c <content-id> -d <document> -v <version>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := newEnv()
			defer e.Close()

			req := &service.UpdateContentRequest{
				ContentID: contentID,
				Version:   version,
			}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("document") {
				req.Document = &document
			}
			if cmd.Flags().Changed("markup") {
				req.Markup = &markup
			}
			if cmd.Flags().Changed("category") {
				req.Category = &category
			}

			res, err := e.contents.UpdateContent(cmd.Context(), req)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("content %s updated to version %d", res.ID, res.Version)
		},
	}

	command.Flags().StringVarP(&contentID, "content-id", "c", "", "content id (required)")
	command.Flags().StringVarP(&title, "title", "t", "", "title of the content")
	command.Flags().StringVarP(&document, "document", "d", "", "document JSON tree")
	command.Flags().StringVarP(&markup, "markup", "m", "", "rendered markup")
	command.Flags().StringVar(&category, "category", "", "category tag")
	command.Flags().Int64VarP(&version, "version", "v", 0, "expected new version, -1 to overwrite (required)")

	command.Flags().SortFlags = false

	return command
}

func deleteContentCmd() *cobra.Command {
	var contentID string

	var required = []string{"content-id"}

	command := &cobra.Command{
		Use:     "delete",
		Short:   "delete a content record and its images",
		Example: "contentstore delete -c <content-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := newEnv()
			defer e.Close()

			if err := e.contents.DeleteContent(cmd.Context(), contentID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("content deleted: %s", contentID)
		},
	}

	command.Flags().StringVarP(&contentID, "content-id", "c", "", "content id (required)")

	return command
}

func listVersionsCmd() *cobra.Command {
	var contentID string

	var required = []string{"content-id"}

	command := &cobra.Command{
		Use:     "versions",
		Short:   "list the stored versions of a content record",
		Example: "contentstore versions -c <content-id>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := newEnv()
			defer e.Close()

			versions, err := e.contents.ListVersions(cmd.Context(), contentID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Version", "Saved At"})
			for _, v := range versions {
				table.Append([]string{strconv.FormatInt(v.Version, 10), v.SavedAt.String()})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&contentID, "content-id", "c", "", "content id (required)")

	return command
}

func restoreVersionCmd() *cobra.Command {
	var contentID string
	var version int64

	var required = []string{"content-id", "version"}

	command := &cobra.Command{
		Use:     "restore",
		Short:   "restore a content record to a stored revision",
		Example: "contentstore restore -c <content-id> -v <version>",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			e := newEnv()
			defer e.Close()

			res, err := e.contents.RestoreVersion(cmd.Context(), contentID, version)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("content %s restored to version %d as version %d", res.ID, version, res.Version)
		},
	}

	command.Flags().StringVarP(&contentID, "content-id", "c", "", "content id (required)")
	command.Flags().Int64VarP(&version, "version", "v", 0, "version to restore (required)")

	command.Flags().SortFlags = false

	return command
}
