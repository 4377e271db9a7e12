// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-podcast/internal/audio"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage generated audio files",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audio files in the output directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := outputStore()
		if err != nil {
			return err
		}
		list, err := store.List()
		if err != nil {
			return err
		}
		writeFileTable(cmd.OutOrStdout(), list)
		return nil
	},
}

var filesRmCmd = &cobra.Command{
	Use:   "rm [filename]",
	Short: "Delete one audio file, or all of them with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if all == (len(args) == 1) {
			return fmt.Errorf("give either a filename or --all")
		}

		store, err := outputStore()
		if err != nil {
			return err
		}
		if all {
			n, err := store.DeleteAll()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d audio files\n", n)
			return nil
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "File %s deleted successfully\n", args[0])
		return nil
	},
}

func init() {
	filesRmCmd.Flags().Bool("all", false, "delete every audio file")
	filesCmd.AddCommand(filesListCmd, filesRmCmd)
	rootCmd.AddCommand(filesCmd)
}

// outputStore opens the artifact store without wiring the pipeline.
func outputStore() (*audio.Store, error) {
	return audio.NewStore(viper.GetString("audio.output_dir"))
}

func writeFileTable(w io.Writer, list []audio.Artifact) {
	table := newTable(w, []string{"Filename", "Size (MB)", "Modified"})
	for _, a := range list {
		table.Append([]string{a.Name, strconv.FormatFloat(a.SizeMB(), 'f', 2, 64), a.ModTime.Format("2006-01-02 15:04")})
	}
	table.Render()
	fmt.Fprintf(w, "%d audio files\n", len(list))
}

// newTable returns a borderless left-aligned table.
func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
