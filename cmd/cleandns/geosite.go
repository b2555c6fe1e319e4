// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tigerzhang/clean-dns/internal/geosite"
)

var makeGeositeCmd = &cobra.Command{
	Use:   "make-geosite",
	Short: "Compile a v2fly domain-list-community source directory into a GeoSiteList file",
	RunE:  runMakeGeosite,
}

func init() {
	makeGeositeCmd.Flags().String("source", "", "directory of v2fly-format domain list files")
	makeGeositeCmd.Flags().String("output", "", "path to write the compiled GeoSiteList")
	makeGeositeCmd.MarkFlagRequired("source")
	makeGeositeCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(makeGeositeCmd)
}

func runMakeGeosite(cmd *cobra.Command, args []string) error {
	source, _ := cmd.Flags().GetString("source")
	output, _ := cmd.Flags().GetString("output")

	list, err := geosite.Compile(source)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, geosite.Marshal(list), 0o644); err != nil {
		return fmt.Errorf("make-geosite: writing %s: %w", output, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "compiled %d entries to %s\n", len(list.Entry), output)
	return nil
}
