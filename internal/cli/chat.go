package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/raphaelgruber/promptpad/internal/models"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"c"},
	Short:   "Run a conversation against the active session's prompt",
	Long: `The conversation always ends with an empty user turn that holds the next
message. Turns are addressed by 0-based index as shown by 'chat show'.

Submitting a turn sends every turn before it as history and drops
everything after it, so editing an earlier question and resubmitting it
branches the conversation from there.

Examples:
  promptpad chat say "Summarize this in one line"
  promptpad chat edit 0 "A better question"
  promptpad chat submit 0
  promptpad chat clear`,
}

var chatShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the conversation",
	Args:  cobra.NoArgs,
	RunE:  runChatShow,
}

var chatEditCmd = &cobra.Command{
	Use:   "edit <index> <content>",
	Short: "Replace the content of a turn",
	Args:  cobra.ExactArgs(2),
	RunE:  runChatEdit,
}

var chatSubmitCmd = &cobra.Command{
	Use:   "submit [index]",
	Short: "Submit a user turn (the last turn by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChatSubmit,
}

var chatSayCmd = &cobra.Command{
	Use:   "say <message>",
	Short: "Write the pending user turn and submit it",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChatSay,
}

var chatClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset the conversation",
	Args:  cobra.NoArgs,
	RunE:  runChatClear,
}

func init() {
	chatCmd.AddCommand(chatShowCmd, chatEditCmd, chatSubmitCmd, chatSayCmd, chatClearCmd)
}

func runChatShow(cmd *cobra.Command, args []string) error {
	printConversation(cmd)
	return nil
}

func printConversation(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	turns := ws.Log.Turns()
	for i, t := range turns {
		if i == len(turns)-1 && t.IsBlank() {
			fmt.Fprintf(out, "[%d] %s\n", i, render(defaultTheme.hintStyle(), "(your next message)"))
			continue
		}
		fmt.Fprintf(out, "[%d] %s\n%s\n\n", i, render(defaultTheme.roleStyle(string(t.Role)), string(t.Role)), t.Content)
	}
	if msg := ws.Log.Err(); msg != "" {
		fmt.Fprintln(out, render(defaultTheme.errorStyle(), "✗ "+msg))
	}
}

func parseTurnIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid turn index: %s", s)
	}
	return i, nil
}

func runChatEdit(cmd *cobra.Command, args []string) error {
	index, err := parseTurnIndex(args[0])
	if err != nil {
		return err
	}
	return ws.Log.Edit(context.Background(), index, args[1])
}

func runChatSubmit(cmd *cobra.Command, args []string) error {
	index := len(ws.Log.Turns()) - 1
	if len(args) > 0 {
		var err error
		if index, err = parseTurnIndex(args[0]); err != nil {
			return err
		}
	}
	return submit(cmd, index)
}

func runChatSay(cmd *cobra.Command, args []string) error {
	turns := ws.Log.Turns()
	last := len(turns) - 1
	if turns[last].Role != models.RoleUser {
		return fmt.Errorf("conversation does not end with a user turn")
	}
	if err := ws.Log.Edit(context.Background(), last, strings.Join(args, " ")); err != nil {
		return err
	}
	return submit(cmd, last)
}

func submit(cmd *cobra.Command, index int) error {
	before := ws.Log.Turns()
	err := runWaiting("Waiting for the model...", func(ctx context.Context) error {
		return ws.Orchestrator.Submit(ctx, index)
	})
	if err != nil {
		return err
	}

	turns := ws.Log.Turns()
	out := cmd.OutOrStdout()
	if slices.Equal(before, turns) && ws.Log.Err() == "" {
		fmt.Fprintln(out, render(defaultTheme.hintStyle(), "Nothing to submit."))
		return nil
	}
	if msg := ws.Log.Err(); msg != "" {
		fmt.Fprintln(out, render(defaultTheme.errorStyle(), "✗ "+msg))
		return nil
	}
	if len(turns) >= 2 && turns[len(turns)-2].Role == models.RoleAssistant {
		fmt.Fprintln(out, turns[len(turns)-2].Content)
	}
	return nil
}

func runChatClear(cmd *cobra.Command, args []string) error {
	if err := ws.Log.Clear(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Conversation cleared.")
	return nil
}
