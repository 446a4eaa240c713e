package commands

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lawrencechen/folio/pkg/folio/assistant"
	"github.com/lawrencechen/folio/pkg/folio/mail"
)

// newChatCmd creates the `folio chat` command for talking to the assistant
// from the terminal, without the HTTP server.
func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant from the terminal",
		Long: `Send a single message or start an interactive session. The full
conversation is replayed on every turn, the same way the web client does it,
so /message and /meeting flows work here too.

Examples:
  folio chat "What has Lawrence been working on?"
  folio chat  # interactive`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().StringP("model", "m", "", "override the configured model")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model = model
	}

	// Quiet logger: the terminal belongs to the conversation.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	provider := assistant.NewLLMClient(cfg, logger)
	mailer := mail.NewHTTPDispatcher(cfg.Mail, logger)
	bot := assistant.New(cfg, provider, mailer, nil, logger)

	if len(args) > 0 {
		reply, err := bot.Respond(cmd.Context(), assistant.ChatRequest{Message: args[0]})
		if err != nil {
			return err
		}
		fmt.Println(reply.Response)
		return nil
	}

	fmt.Printf("%s — type a message, /message, /meeting, or /quit\n\n", cfg.Name)

	var history []assistant.Turn
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		message := strings.TrimSpace(line)
		if message == "" {
			continue
		}
		if message == "/quit" || message == "/exit" {
			return nil
		}

		reply, err := bot.Respond(cmd.Context(), assistant.ChatRequest{
			Message: message,
			History: history,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", reply.Response)

		history = append(history,
			assistant.Turn{Role: assistant.RoleUser, Content: message},
			assistant.Turn{Role: assistant.RoleAssistant, Content: reply.Response},
		)
	}
}
