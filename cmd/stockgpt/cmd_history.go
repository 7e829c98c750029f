package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alias1177/stockgpt/internal/history"
	"github.com/Alias1177/stockgpt/internal/render"
)

func newHistoryCmd(a *app) *cobra.Command {
	var clear bool
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear past analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := history.NewStore(a.store)
			if clear {
				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "History cleared")
				return nil
			}

			list, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(a.out, render.History(list))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clear, "clear", false, "delete all stored history")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of messages to show (0 for all)")
	return cmd
}
