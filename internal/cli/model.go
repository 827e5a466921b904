package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/raphaelgruber/promptpad/internal/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var modelAddName string

var modelCmd = &cobra.Command{
	Use:     "model",
	Aliases: []string{"models", "m"},
	Short:   "Configure the models used for completions",
	Long: `Configure the chat models and the access token.

When no model is selected the first configured model is used. The global
token applies to every model; a model's own token is used when no global
token is set.

Examples:
  promptpad model add ep-20240101-abcde --name "Doubao Pro"
  promptpad model select ep-20240101-abcde
  promptpad model token`,
}

var modelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured models",
	Args:  cobra.NoArgs,
	RunE:  runModelList,
}

var modelAddCmd = &cobra.Command{
	Use:   "add <model-id>",
	Short: "Add a model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelAdd,
}

var modelRmCmd = &cobra.Command{
	Use:   "rm <model-id>",
	Short: "Remove a model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelRm,
}

var modelSelectCmd = &cobra.Command{
	Use:   "select <model-id>",
	Short: "Select the model used for completions",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelSelect,
}

var modelTokenCmd = &cobra.Command{
	Use:   "token [token]",
	Short: "Set the access token (prompted when omitted)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runModelToken,
}

func init() {
	modelAddCmd.Flags().StringVarP(&modelAddName, "name", "n", "", "display name")
	modelCmd.AddCommand(modelListCmd, modelAddCmd, modelRmCmd, modelSelectCmd, modelTokenCmd)
}

func runModelList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	cfg := ws.Models.List()
	sel := ws.Models.Selection()

	if len(cfg.Models) == 0 {
		fmt.Fprintln(out, "No models configured. Add one with 'promptpad model add <model-id>'.")
	}
	for _, m := range cfg.Models {
		marker := " "
		if sel.Model != nil && sel.Model.ModelID == m.ModelID {
			marker = render(defaultTheme.successStyle(), "*")
		}
		fmt.Fprintf(out, "%s %s  %s\n", marker, m.ModelID, render(defaultTheme.hintStyle(), m.ModelName))
	}

	token := "not set"
	if sel.APIToken != "" {
		token = "set"
	}
	fmt.Fprintf(out, "\nAccess token: %s\n", token)
	return nil
}

func runModelAdd(cmd *cobra.Command, args []string) error {
	m := models.ModelConfig{ModelID: args[0], ModelName: modelAddName}
	if err := ws.Models.Add(context.Background(), m); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", args[0])
	return nil
}

func runModelRm(cmd *cobra.Command, args []string) error {
	if err := ws.Models.Remove(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}

func runModelSelect(cmd *cobra.Command, args []string) error {
	if err := ws.Models.Select(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Selected %s\n", args[0])
	return nil
}

func runModelToken(cmd *cobra.Command, args []string) error {
	var token string
	if len(args) > 0 {
		token = args[0]
	} else {
		var err error
		if token, err = readToken(cmd); err != nil {
			return err
		}
	}

	if err := ws.Models.SetToken(context.Background(), token); err != nil {
		return err
	}
	if strings.TrimSpace(token) == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Access token cleared.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Access token saved.")
	}
	return nil
}

// readToken reads a token without echo from a terminal, or a line from piped stdin.
func readToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(cmd.ErrOrStderr(), "Access token: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
