package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/raphaelgruber/promptpad/internal/models"
	"github.com/raphaelgruber/promptpad/internal/parser"
	"github.com/raphaelgruber/promptpad/internal/service"
	"github.com/spf13/cobra"
)

var (
	sessionEditContent string
	sessionEditFile    string
	sessionShowOutline bool
	sessionImportName  string
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"s"},
	Short:   "Manage prompt sessions",
	Long: `Create, select, edit and arrange prompt sessions.

A session can be referenced by ID, unique ID prefix, name, or its 1-based
position in the list.

Examples:
  promptpad session list
  promptpad session add reviewer.txt
  promptpad session select 2
  promptpad session edit --file prompt.md
  promptpad session move reviewer.txt 1`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionList,
}

var sessionAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Create a session and make it active",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionAdd,
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session>",
	Short: "Remove a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionRm,
}

var sessionRenameCmd = &cobra.Command{
	Use:   "rename <session> <name>",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionRename,
}

var sessionSelectCmd = &cobra.Command{
	Use:   "select <session>",
	Short: "Make a session active (resets the conversation)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionSelect,
}

var sessionMoveCmd = &cobra.Command{
	Use:   "move <session> <position>",
	Short: "Move a session to a 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE:  runSessionMove,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [session]",
	Short: "Print a session's content (active session by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSessionShow,
}

var sessionEditCmd = &cobra.Command{
	Use:   "edit [session]",
	Short: "Replace a session's content",
	Long: `Replace a session's content from --content, --file, or stdin.

Editing does not record a version. Versions are captured when a message is
submitted or with 'promptpad version capture'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessionEdit,
}

var sessionImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create a session from a prompt file",
	Long: `Create a session from a Markdown prompt file. A YAML frontmatter "name"
(or "title") sets the session name, otherwise the file name is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionImport,
}

var sessionWriteCmd = &cobra.Command{
	Use:   "write <file> [session]",
	Short: "Write a session to a prompt file with frontmatter",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runSessionWrite,
}

func init() {
	sessionShowCmd.Flags().BoolVar(&sessionShowOutline, "outline", false, "print the heading outline instead of the content")
	sessionEditCmd.Flags().StringVarP(&sessionEditContent, "content", "c", "", "new content")
	sessionEditCmd.Flags().StringVarP(&sessionEditFile, "file", "f", "", "read content from file ('-' for stdin)")
	sessionImportCmd.Flags().StringVarP(&sessionImportName, "name", "n", "", "session name (overrides frontmatter)")

	sessionCmd.AddCommand(sessionListCmd, sessionAddCmd, sessionRmCmd, sessionRenameCmd,
		sessionSelectCmd, sessionMoveCmd, sessionShowCmd, sessionEditCmd,
		sessionImportCmd, sessionWriteCmd)
}

// resolveSession finds a session by ID, name, 1-based position or unique ID prefix.
func resolveSession(ref string) (models.Session, error) {
	sessions := ws.Sessions.List()

	for _, s := range sessions {
		if s.ID == ref {
			return s, nil
		}
	}
	for _, s := range sessions {
		if s.Name == ref {
			return s, nil
		}
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(sessions) {
		return sessions[n-1], nil
	}

	var match *models.Session
	for i := range sessions {
		if strings.HasPrefix(sessions[i].ID, ref) {
			if match != nil {
				return models.Session{}, fmt.Errorf("session reference %q is ambiguous", ref)
			}
			match = &sessions[i]
		}
	}
	if match == nil {
		return models.Session{}, fmt.Errorf("%w: %s", service.ErrSessionNotFound, ref)
	}
	return *match, nil
}

// sessionArg resolves args[i] or falls back to the active session.
func sessionArg(args []string, i int) (models.Session, error) {
	if len(args) > i {
		return resolveSession(args[i])
	}
	active, ok := ws.Sessions.Active()
	if !ok {
		return models.Session{}, service.ErrSessionNotFound
	}
	return active, nil
}

func runSessionList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	for i, s := range ws.Sessions.List() {
		marker := " "
		if s.Active {
			marker = render(defaultTheme.successStyle(), "*")
		}
		fmt.Fprintf(out, "%s %d. %s  %s  %s\n", marker, i+1, s.Name,
			render(defaultTheme.hintStyle(), shortID(s.ID)),
			render(defaultTheme.hintStyle(), fmt.Sprintf("%d versions", len(s.Versions))))
	}
	return nil
}

func runSessionAdd(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	s, err := ws.Sessions.Create(context.Background(), name)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", s.Name, shortID(s.ID))
	return nil
}

func runSessionRm(cmd *cobra.Command, args []string) error {
	s, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	if err := ws.Sessions.Remove(context.Background(), s.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", s.Name)
	return nil
}

func runSessionRename(cmd *cobra.Command, args []string) error {
	s, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	if err := ws.Sessions.Rename(context.Background(), s.ID, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", s.Name, args[1])
	return nil
}

func runSessionSelect(cmd *cobra.Command, args []string) error {
	s, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	if err := ws.Sessions.Select(context.Background(), s.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Active session: %s\n", s.Name)
	return nil
}

func runSessionMove(cmd *cobra.Command, args []string) error {
	s, err := resolveSession(args[0])
	if err != nil {
		return err
	}
	pos, err := strconv.Atoi(args[1])
	if err != nil || pos < 1 {
		return fmt.Errorf("invalid position: %s", args[1])
	}
	if err := ws.Sessions.Move(context.Background(), s.ID, pos-1); err != nil {
		return err
	}
	return runSessionList(cmd, nil)
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	s, err := sessionArg(args, 0)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if sessionShowOutline {
		for _, h := range parser.Outline(s.Content) {
			fmt.Fprintf(out, "%s%s  %s\n", strings.Repeat("  ", h.Level-1), h.Text,
				render(defaultTheme.hintStyle(), fmt.Sprintf("line %d", h.Line)))
		}
		return nil
	}
	fmt.Fprintln(out, s.Content)
	return nil
}

func runSessionEdit(cmd *cobra.Command, args []string) error {
	s, err := sessionArg(args, 0)
	if err != nil {
		return err
	}

	var content string
	switch {
	case cmd.Flags().Changed("content"):
		content = sessionEditContent
	case sessionEditFile != "" && sessionEditFile != "-":
		data, err := os.ReadFile(sessionEditFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", sessionEditFile, err)
		}
		content = string(data)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = string(data)
	}

	if err := ws.Sessions.UpdateContent(context.Background(), s.ID, content); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%d bytes)\n", s.Name, len(content))
	return nil
}

func runSessionImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	pf := parser.Parse(string(data))

	name := sessionImportName
	if name == "" {
		name = pf.Name
	}
	if name == "" {
		name = filepath.Base(args[0])
	}

	ctx := context.Background()
	s, err := ws.Sessions.Create(ctx, name)
	if err != nil {
		return err
	}
	if err := ws.Sessions.UpdateContent(ctx, s.ID, pf.Content); err != nil {
		return err
	}
	if _, err := ws.Orchestrator.Capture(ctx, s.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %s (%s)\n", args[0], name, shortID(s.ID))
	return nil
}

func runSessionWrite(cmd *cobra.Command, args []string) error {
	s, err := sessionArg(args, 1)
	if err != nil {
		return err
	}
	rendered, err := parser.Render(s.Name, s.ID, s.Content)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], []byte(rendered), 0644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s\n", s.Name, args[0])
	return nil
}

// shortID abbreviates an ID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
