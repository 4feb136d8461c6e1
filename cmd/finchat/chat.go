package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"finchat/internal/logging"
	"finchat/internal/tui"
)

var chatLogFile string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat window",
	Args:  cobra.NoArgs,
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// The chat window owns the terminal, so logs go to a file or nowhere.
	var w io.Writer = io.Discard
	if chatLogFile != "" {
		f, err := os.OpenFile(chatLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger := logging.New(level, w)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	stopWatch := a.watch(ctx, cfg, logger)
	defer stopWatch()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runLines(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return runProgram(ctx, a, logger)
}

// runLines answers one question per input line; used when stdin is piped.
func runLines(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		fmt.Fprintf(out, "> %s\n%s\n\n", q, a.svc.Ask(ctx, q))
	}
	return scanner.Err()
}

func runProgram(ctx context.Context, a *app, logger *slog.Logger) error {
	m := tui.New(ctx, a.svc, a.summary, len(a.svc.Documents()))
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		logger.Error("chat window failed", "error", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.PersistentFlags().StringVar(&chatLogFile, "log-file", "", "Write logs to this file while the chat window is open")
}
