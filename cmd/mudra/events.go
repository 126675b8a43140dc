package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/store"
)

func newEventsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}
			return ctx.withStore(func(st *store.Store) error {
				events, err := st.Events().List(limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(events) == 0 {
					fmt.Fprintln(out, "No events recorded")
					return nil
				}

				rows := make([][]string, 0, len(events))
				for _, e := range events {
					value := ""
					if e.Channel != "" {
						value = strconv.Itoa(int(e.Value))
					}
					rows = append(rows, []string{
						e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
						string(e.Kind),
						e.Channel,
						value,
						e.Detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Time", "Kind", "Channel", "Value", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", store.DefaultEventLimit, "Number of events to show")
	return cmd
}
