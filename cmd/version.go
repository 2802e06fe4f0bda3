package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tcnksm/go-latest"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "deploy-helper %s\n", version)
		if check, _ := cmd.Flags().GetBool("check"); check {
			checkUpdate(cmd, version)
		}
	},
}

func init() {
	versionCmd.Flags().Bool("check", false, "Check GitHub for a newer release")
}

func checkUpdate(cmd *cobra.Command, currentVer string) {
	githubTag := &latest.GithubTag{
		Owner:      "harshul",
		Repository: "deploy-helper",
	}

	res, err := latest.Check(githubTag, currentVer)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "could not check for updates: %v\n", err)
		return
	}

	if res.Outdated {
		fmt.Fprintf(cmd.OutOrStdout(), "A new version is available: %s (you have %s)\n", res.Current, currentVer)
		fmt.Fprintln(cmd.OutOrStdout(), "Download it from https://github.com/harshul/deploy-helper/releases")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "You are using the latest version: %s\n", currentVer)
	}
}
