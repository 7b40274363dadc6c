package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mydoor3520/log-detective/pkg/extract"
)

// VersionInfo is the build metadata shown by the version command.
type VersionInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

// NewVersionCommand creates the version command.
func NewVersionCommand(info VersionInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display logdetective version, build information and the supported log ecosystems.`,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "logdetective v%s\n", info.Version)
			_, _ = fmt.Fprintln(w, "Error log classifier for Java and Python stack traces")
			_, _ = fmt.Fprintf(w, "  commit:     %s\n", orUnknown(info.GitCommit))
			_, _ = fmt.Fprintf(w, "  built:      %s\n", orUnknown(info.BuildDate))
			_, _ = fmt.Fprintf(w, "  ecosystems: %s\n", supportedEcosystems())
		},
	}
}

// supportedEcosystems lists the ecosystems with a registered extractor.
func supportedEcosystems() string {
	ecos := extract.Ecosystems()
	names := make([]string, len(ecos))
	for i, eco := range ecos {
		names[i] = eco.String()
	}
	return strings.Join(names, ", ")
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
