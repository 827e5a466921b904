package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var versionSession string

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"versions", "v"},
	Short:   "Inspect and restore content versions",
	Long: `Each session keeps its last 10 content versions, newest first.

A version is captured automatically when a message is submitted and the
content changed since the newest version. Restoring a version replaces the
content without recording a new version.

Examples:
  promptpad version list
  promptpad version list reviewer.txt
  promptpad version restore 3f2a91c0
  promptpad version capture`,
}

var versionListCmd = &cobra.Command{
	Use:   "list [session]",
	Short: "List versions of a session (active session by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVersionList,
}

var versionRestoreCmd = &cobra.Command{
	Use:   "restore <version>",
	Short: "Restore a version's content (by ID, ID prefix or 1-based position)",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionRestore,
}

var versionCaptureCmd = &cobra.Command{
	Use:   "capture [session]",
	Short: "Record the current content as a version if it changed",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVersionCapture,
}

func init() {
	versionRestoreCmd.Flags().StringVarP(&versionSession, "session", "s", "", "session (active session by default)")
	versionCmd.AddCommand(versionListCmd, versionRestoreCmd, versionCaptureCmd)
}

func runVersionList(cmd *cobra.Command, args []string) error {
	s, err := sessionArg(args, 0)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(s.Versions) == 0 {
		fmt.Fprintln(out, "No versions.")
		return nil
	}
	for i, v := range s.Versions {
		desc := "(no description)"
		if v.Description != nil {
			desc = *v.Description
		}
		ts := time.UnixMilli(v.Timestamp).Local().Format("2006-01-02 15:04:05")
		current := ""
		if v.Content == s.Content {
			current = " " + render(defaultTheme.successStyle(), "[current]")
		}
		fmt.Fprintf(out, "%2d. %s  %s  %s%s\n", i+1,
			render(defaultTheme.hintStyle(), shortID(v.ID)), ts, desc, current)
	}
	return nil
}

func runVersionRestore(cmd *cobra.Command, args []string) error {
	var sargs []string
	if versionSession != "" {
		sargs = []string{versionSession}
	}
	s, err := sessionArg(sargs, 0)
	if err != nil {
		return err
	}

	ref := args[0]
	versionID := ""
	for i, v := range s.Versions {
		if v.ID == ref || strings.HasPrefix(v.ID, ref) || fmt.Sprint(i+1) == ref {
			versionID = v.ID
			break
		}
	}
	if versionID == "" {
		versionID = ref
	}

	restored, err := ws.Sessions.RestoreVersion(context.Background(), s.ID, versionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored %s to version %s\n", restored.Name, shortID(versionID))
	return nil
}

func runVersionCapture(cmd *cobra.Command, args []string) error {
	s, err := sessionArg(args, 0)
	if err != nil {
		return err
	}
	before := len(s.Versions)

	var updated = s
	err = runWaiting("Describing changes...", func(ctx context.Context) error {
		var captureErr error
		updated, captureErr = ws.Orchestrator.Capture(ctx, s.ID)
		return captureErr
	})
	if err != nil {
		return err
	}

	if len(updated.Versions) == before && before > 0 && updated.Versions[0].ID == s.Versions[0].ID {
		fmt.Fprintln(cmd.OutOrStdout(), "Content unchanged since the last version.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Captured version %s\n", shortID(updated.Versions[0].ID))
	return nil
}
