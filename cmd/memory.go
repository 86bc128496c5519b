package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/multimodal-travel-agent/agent/contract"
	memoryx "github.com/tanpawarit/multimodal-travel-agent/agent/memory"
)

func memoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and seed long-term traveller memory",
	}
	cmd.AddCommand(memoryPutCmd())
	cmd.AddCommand(memorySearchCmd())
	return cmd
}

func withMemoryStore(ctx context.Context, fn func(store memoryx.Store, memoryID string) error) error {
	store, memoryID, err := openMemory(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("memory is not configured: set BEDROCK_AGENTCORE_MEMORY_ID")
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}
	return fn(store, memoryID)
}

func memoryPutCmd() *cobra.Command {
	var namespace, actorID, text string

	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store a fact or preference for an actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch namespace {
			case memoryx.NamespaceFacts, memoryx.NamespacePreferences:
			default:
				return fmt.Errorf("namespace must be %s or %s", memoryx.NamespaceFacts, memoryx.NamespacePreferences)
			}

			return withMemoryStore(cmd.Context(), func(store memoryx.Store, memoryID string) error {
				rec, err := store.PutRecord(cmd.Context(), memoryx.Record{
					MemoryID:  memoryID,
					Namespace: memoryx.NamespacePath(actorID, namespace),
					Text:      text,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s in %s\n", rec.ID, rec.Namespace)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", memoryx.NamespaceFacts, "facts or preferences")
	cmd.Flags().StringVar(&actorID, "actor", "", "actor id")
	cmd.Flags().StringVar(&text, "text", "", "memory text")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func memorySearchCmd() *cobra.Command {
	var actorID, query string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Show the memories the agent would retrieve for a query",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMemoryStore(cmd.Context(), func(store memoryx.Store, memoryID string) error {
				mgr, err := memoryx.NewSessionManager(memoryx.NewConfig(memoryID, contractx.Identity{
					ActorID:   actorID,
					SessionID: "cli-search",
				}), store)
				if err != nil {
					return err
				}

				matches := mgr.Retrieve(cmd.Context(), query)
				if len(matches) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "no relevant memories")
					return nil
				}
				for _, m := range matches {
					fmt.Fprintf(cmd.OutOrStdout(), "%.2f  %s  %s\n", m.Score, m.Namespace, m.Text)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actorID, "actor", "", "actor id")
	cmd.Flags().StringVar(&query, "query", "", "search text")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}
