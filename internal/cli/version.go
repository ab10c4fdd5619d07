package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Player    string `json:"player"`
	Backend   string `json:"backend"`
}

// currentBuild fills in what ldflags left unset from the module's
// embedded build info.
func currentBuild() buildInfo {
	b := buildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if cfg != nil {
		b.Player = cfg.Player.MPVPath
		b.Backend = cfg.API.BaseURL
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && b.Commit == "unknown":
			b.Commit = s.Value
		case s.Key == "vcs.time" && b.BuildDate == "unknown":
			b.BuildDate = s.Value
		}
	}
	return b
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		b := currentBuild()
		if JSONOutput() {
			return printJSON(b)
		}

		fmt.Printf("earshot %s\n", b.Version)
		if Verbose() {
			t := NewTable()
			t.Row("  commit:", b.Commit)
			t.Row("  built:", b.BuildDate)
			t.Row("  go:", b.GoVersion)
			t.Row("  platform:", b.Platform)
			t.Row("  player:", b.Player)
			t.Row("  backend:", b.Backend)
			t.Flush()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
