package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build metadata, set with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// CurrentBuild returns the metadata baked into this binary.
func CurrentBuild() BuildInfo {
	return BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate, GoVersion: runtime.Version()}
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print build information",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{SkipBootstrap: "true"},
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := CurrentBuild()
		out := cmd.OutOrStdout()
		if versionJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		_, err := fmt.Fprintf(out, "rendezvous %s (commit %s, built %s, %s)\n",
			info.Version, info.Commit, info.BuildDate, info.GoVersion)
		return err
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print as JSON")
	rootCmd.AddCommand(versionCmd)
}
