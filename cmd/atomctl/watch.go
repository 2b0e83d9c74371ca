package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/atomrx/internal/errors"
	"github.com/vango-dev/atomrx/pkg/bind"
)

func watchCmd() *cobra.Command {
	var (
		count int
		set   string
	)

	cmd := &cobra.Command{
		Use:   "watch <url>",
		Short: "Print values streamed by a watch endpoint",
		Long: `Connect to a watch endpoint and print each frame as a JSON line.

Examples:
  atomctl watch ws://localhost:7070/watch/user/name
  atomctl watch ws://localhost:7070/watch/user --count 1
  atomctl watch ws://localhost:7070/watch/user/name --set '"grace"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, args[0], set, count)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Exit after this many frames (0 = unlimited)")
	cmd.Flags().StringVar(&set, "set", "", "JSON value to send after connecting")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, url, set string, count int) error {
	var send any
	if set != "" {
		if err := json.Unmarshal([]byte(set), &send); err != nil {
			return errors.New(errors.CodeCLIUsage).
				WithSubject("--set").
				WithDetail(err.Error()).
				WithSuggestion("Quote JSON strings, e.g. --set '\"value\"'")
		}
	}

	c, err := bind.Dial[any](ctx, url, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	go func() {
		<-ctx.Done()
		c.Close()
	}()

	if set != "" {
		if err := c.Send(send); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for n := 0; count == 0 || n < count; n++ {
		f, err := c.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		data, err := json.Marshal(f)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	}
	return nil
}
