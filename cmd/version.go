package cmd

import (
	"fmt"
	"runtime"

	"github.com/blang/semver"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

const repository = "s0up4200/reelmark"

var (
	version   = "dev"
	buildTime = "unknown"
)

// SetVersion records the build metadata injected by main
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipInit: ""},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reelmark %s (built %s, %s/%s)\n", version, buildTime, runtime.GOOS, runtime.GOARCH)
	},
}

var updateCmd = &cobra.Command{
	Use:         "update",
	Short:       "Update reelmark to the latest release",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipInit: ""},
	RunE:        runUpdate,
}

func init() {
	rootCmd.AddCommand(versionCmd, updateCmd)
}

// releaseVersion parses the build version, rejecting development builds
func releaseVersion(v string) (semver.Version, error) {
	parsed, err := semver.ParseTolerant(v)
	if err != nil {
		return semver.Version{}, fmt.Errorf("cannot update a development build (version %q)", v)
	}
	return parsed, nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	currentVersion, err := releaseVersion(version)
	if err != nil {
		return err
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(repository))
	if err != nil {
		return fmt.Errorf("error occurred while detecting version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest version for %s/%s could not be found", runtime.GOOS, runtime.GOARCH)
	}

	if latest.LessOrEqual(currentVersion.String()) {
		fmt.Fprintf(out, "Current version %s is the latest\n", currentVersion)
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}
	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("error occurred while updating binary: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
