package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd())
}

func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func formatBool(b bool) string {
	if b {
		return color.GreenString("yes")
	}
	return "no"
}

func statsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:     "stats",
		Short:   "report image storage stats",
		Example: "contentstore stats",
		Run: func(cmd *cobra.Command, args []string) {
			e := newEnv()
			defer e.Close()

			report, err := e.stats.Report(cmd.Context())
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Total", "Referenced", "Orphaned", "Size"})
			table.Append([]string{
				strconv.Itoa(report.TotalImages),
				strconv.Itoa(report.ReferencedImages),
				strconv.Itoa(report.OrphanedImages),
				formatSize(report.TotalSize),
			})
			table.Render()

			if len(report.ImageTypes) == 0 {
				return
			}

			types := make([]string, 0, len(report.ImageTypes))
			for ext := range report.ImageTypes {
				types = append(types, ext)
			}
			sort.Strings(types)

			typeTable := tablewriter.NewWriter(os.Stdout)
			typeTable.SetHeader([]string{"Type", "Count"})
			for _, ext := range types {
				typeTable.Append([]string{ext, strconv.Itoa(report.ImageTypes[ext])})
			}
			typeTable.Render()

			if report.OrphanedImages > 0 {
				color.Yellow("%d orphaned images, run `contentstore gc sweep` to reclaim them", report.OrphanedImages)
			}
		},
	}

	return command
}
