package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/frantai/folio/pkg/chat"
	"github.com/frantai/folio/pkg/cliui"
	"github.com/frantai/folio/pkg/sse"
)

var (
	userPrompt      = cliui.UserStyle.Render("you> ")
	assistantPrompt = cliui.AssistantStyle.Render("assistant> ")
)

// repl reads questions line by line from in until EOF or /exit.
func repl(ctx context.Context, runner *chat.Runner, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out)
	if greeting, ok := runner.Conversation().Last(); ok {
		fmt.Fprintf(out, "%s%s\n\n", assistantPrompt, greeting.Content)
	}
	printSession(out, runner)
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Type your question and press Enter. /new, /session, /exit or Ctrl+D."))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(out)
			return nil
		case "/session":
			printSession(out, runner)
			continue
		case "/new":
			s, err := runner.NewChat(ctx)
			if err != nil {
				fmt.Fprintf(out, "  %s %v\n\n", cliui.FailMark, err)
				continue
			}
			fmt.Fprintf(out, "  %s New session %s\n\n", cliui.SuccessMark, cliui.ValueStyle.Render(s.SessionID.String()))
			continue
		}

		fmt.Fprint(out, assistantPrompt)
		reply, err := runner.Ask(ctx, input, func(ev sse.Event) {
			if tok, ok := ev.(sse.TokenEvent); ok {
				fmt.Fprint(out, tok.Token)
			}
		})
		if err != nil {
			if reply.Failed {
				fmt.Fprintf(out, "\n  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(chat.FailureText))
			}
			fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render(err.Error()))
			continue
		}

		fmt.Fprintln(out)
		if reply.ResponseTime > 0 {
			fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render(cliui.FormatDuration(reply.ResponseTime)))
		}
		fmt.Fprintln(out)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(out)
	return nil
}

func printSession(out io.Writer, runner *chat.Runner) {
	id, err := runner.SessionID()
	switch {
	case err != nil:
		fmt.Fprintf(out, "  %s %v\n", cliui.FailMark, err)
	case id == uuid.Nil:
		fmt.Fprintf(out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
	default:
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("Session:"), cliui.ValueStyle.Render(id.String()))
	}
}
