package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tanmayyjais/hostelMate-frontend/internal/assistant"
	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
	"github.com/tanmayyjais/hostelMate-frontend/internal/nlu"
	"github.com/tanmayyjais/hostelMate-frontend/internal/transcript"
	"github.com/tanmayyjais/hostelMate-frontend/internal/tui"
)

func newChatCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the college assistant",
		Long: `Open the assistant console. History is kept on this device across runs;
press ctrl+l inside the console to clear it.

With --message a single turn is sent and the reply printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Log records would corrupt the console.
			var logOut io.Writer = io.Discard
			if message != "" {
				logOut = os.Stderr
			}

			a, err := newApp(cmd, logOut)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			st, err := a.requireSession(ctx)
			if err != nil {
				return err
			}

			rec, err := a.recognizer()
			if err != nil {
				return err
			}
			tr, err := transcript.New(transcript.Config{
				Enabled:   a.cfg.Transcript.Enabled,
				Dir:       a.cfg.Transcript.Dir,
				QueueSize: a.cfg.Transcript.QueueSize,
			}, a.log)
			if err != nil {
				return err
			}
			a.closers = append(a.closers, tr.Close)

			conv := a.conversation(rec, tr, st.Profile.String("email"))
			if err := conv.Load(ctx); err != nil {
				return err
			}

			if message != "" {
				return chatOnce(ctx, cmd.OutOrStdout(), conv, message)
			}
			return tui.Run(ctx, conv, tui.WithTitle("College Assistant · "+displayName(st.Profile)))
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Send one message and print the reply")
	return cmd
}

func (a *app) conversation(rec nlu.Recognizer, tr transcript.Logger, user string) *assistant.Conversation {
	ac := a.cfg.Assistant
	return assistant.New(a.store, rec, assistant.Config{
		Bot: nlu.Bot{ID: ac.BotID, AliasID: ac.AliasID, LocaleID: ac.LocaleID},
		Policy: assistant.Policy{
			ThinkTime:       ac.ThinkTime,
			PerCharDelay:    ac.PerCharDelay,
			MinDisplayDelay: ac.MinDisplayDelay,
			MaxDisplayDelay: ac.MaxDisplayDelay,
			FailureDelay:    ac.FailureDelay,
		},
		RequestTimeout: ac.Timeout,
		Logger:         a.log,
		Transcript:     tr,
		User:           user,
	})
}

func chatOnce(ctx context.Context, out io.Writer, conv *assistant.Conversation, text string) error {
	done, err := conv.Submit(ctx, text)
	if err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	msgs := conv.Messages()
	if len(msgs) == 0 || msgs[len(msgs)-1].Sender != domain.SenderBot {
		return errors.New("no reply received")
	}
	_, err = fmt.Fprintln(out, msgs[len(msgs)-1].Text)
	return err
}

func newHistoryCmd() *cobra.Command {
	var wipe bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print or clear the assistant chat history on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, os.Stderr)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			conv := a.conversation(nil, transcript.Nop{}, "")
			out := cmd.OutOrStdout()

			if wipe {
				if err := conv.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintln(out, successStyle.Render("Chat history cleared."))
				return nil
			}

			if err := conv.Load(ctx); err != nil {
				return err
			}
			printHistory(out, conv.Messages(), time.Now(), time.Local)
			return nil
		},
	}

	cmd.Flags().BoolVar(&wipe, "clear", false, "Delete the stored history")
	return cmd
}

func printHistory(w io.Writer, msgs []domain.Message, now time.Time, loc *time.Location) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No messages yet."))
		return
	}
	for _, row := range assistant.Layout(msgs, now, loc) {
		if row.DateLabel != "" {
			fmt.Fprintln(w, titleStyle.Render("── "+row.DateLabel+" ──"))
		}
		who := "Assistant"
		if row.Message.Sender == domain.SenderUser {
			who = "You"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", row.Time, who, row.Message.Text)
	}
}
