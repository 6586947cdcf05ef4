package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("evidence-rag version %s\n", resolveVersion(version, debug.ReadBuildInfo))
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			cmd.Printf("built with %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		}
	},
}

// resolveVersion prefers the -ldflags value and falls back to the module
// version recorded by go install.
func resolveVersion(linked string, info func() (*debug.BuildInfo, bool)) string {
	if linked != "dev" {
		return linked
	}
	bi, ok := info()
	if !ok || bi.Main.Version == "" || bi.Main.Version == "(devel)" {
		return linked
	}
	return bi.Main.Version
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
