package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/career-path/internal/observability"
	"github.com/jonathan/career-path/internal/pdftext"
	"github.com/jonathan/career-path/internal/rag"
	"github.com/jonathan/career-path/internal/session"
	"github.com/jonathan/career-path/internal/types"
)

const chatHelp = `Lines are career questions; commands start with a slash:

  /upload <path|url|s3 uri>       parse a résumé PDF
  /profile                        show the current profile
  /roadmap <target role>          write a learning roadmap from your skills
  /history                        show the conversation
  /clear                          clear the conversation
  /quit                           leave`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive career guidance session",
	Long:  "Start an interactive session in the terminal. " + chatHelp,
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

var (
	chatK    int
	chatSeed bool
)

func init() {
	chatCmd.Flags().IntVarP(&chatK, "top-k", "k", rag.DefaultK, "Number of career descriptions to retrieve per question")
	chatCmd.Flags().BoolVar(&chatSeed, "seed", true, "Ingest the seed catalog when the index is empty")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return withApp(ctx, func(a *app) error {
		if chatSeed {
			if err := a.seedIfEmpty(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not seed the knowledge base: %v\n", err)
			}
		}
		deps, err := a.sessionDeps(ctx, chatK)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}

		c := &chat{
			sess:   session.New(uuid.NewString(), deps),
			loader: pdftext.NewLoader(a.cfg.S3Endpoint),
			out:    cmd.OutOrStdout(),
		}
		return c.run(ctx, cmd.InOrStdin())
	})
}

// chat is a line-oriented front end over one session.
type chat struct {
	sess   *session.Session
	loader *pdftext.Loader
	out    io.Writer
}

//nolint:errcheck // writing to the terminal
func (c *chat) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(c.out, "Career guidance chat. Type /help for commands.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(c.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if c.handle(ctx, line) {
			return nil
		}
	}
}

// handle runs one input line and reports whether the session should end.
//
//nolint:errcheck // writing to the terminal
func (c *chat) handle(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(c.out, chatHelp)
	case "/upload":
		c.upload(ctx, arg)
	case "/profile":
		profile, ok := c.sess.Profile()
		if !ok {
			fmt.Fprintln(c.out, "No résumé uploaded yet. Use /upload <path>.")
			return false
		}
		observability.NewPrinter(c.out).PrintProfile(&profile)
	case "/roadmap":
		markdown, _ := c.sess.MakeRoadmap(ctx, arg)
		fmt.Fprintln(c.out, markdown)
	case "/history":
		for _, m := range c.sess.Messages() {
			fmt.Fprintf(c.out, "[%s] %s\n", m.Role, m.Content)
		}
	case "/clear":
		c.sess.ClearChat()
		fmt.Fprintln(c.out, "Conversation cleared.")
	default:
		if strings.HasPrefix(command, "/") {
			fmt.Fprintf(c.out, "Unknown command %s. Type /help for commands.\n", command)
			return false
		}
		reply, _ := c.sess.Ask(ctx, line)
		fmt.Fprintln(c.out, reply)
	}
	return false
}

//nolint:errcheck // writing to the terminal
func (c *chat) upload(ctx context.Context, location string) {
	data, err := c.loader.Load(ctx, location)
	if err != nil {
		fmt.Fprintln(c.out, types.RenderReply("", err))
		return
	}
	profile, err := c.sess.UploadResume(ctx, data)
	if err != nil {
		fmt.Fprintln(c.out, types.RenderReply("", err))
		return
	}
	if profile.Degraded() {
		fmt.Fprintf(c.out, "Could not structure the résumé: %s\n", profile.Error)
		return
	}
	fmt.Fprintf(c.out, "Profile loaded for %s with %d skills.\n", profile.Name, len(profile.Skills))
}
