package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stevemurr/school-console/collection"
	"github.com/stevemurr/school-console/seed"
)

func newSeedCommand(a *app) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the seed file's collections into storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.SeedFile == "" {
				return errors.New("no seed file: set SEED_FILE or --seed-file")
			}
			set, err := seed.Load(a.cfg.SeedFile)
			if err != nil {
				return err
			}
			return a.withCollections(func(cs *collection.Store[json.RawMessage]) error {
				written, err := seed.Apply(cs, set, overwrite)
				for _, key := range written {
					fmt.Fprintf(cmd.OutOrStdout(), "seeded %s (%d records)\n", key, len(set[key]))
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace collections that already exist")
	return cmd
}

func newKeysCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List stored collection keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCollections(func(cs *collection.Store[json.RawMessage]) error {
				keys, err := cs.Keys()
				if err != nil {
					return err
				}
				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	}
}

func newDumpCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <key>",
		Short: "Print a stored collection as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCollections(func(cs *collection.Store[json.RawMessage]) error {
				c, ok := cs.Lookup(args[0])
				if !ok {
					return fmt.Errorf("no collection under key %q", args[0])
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(c)
			})
		},
	}
}

func newDropCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <key>",
		Short: "Delete a stored collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCollections(func(cs *collection.Store[json.RawMessage]) error {
				existed, err := cs.Drop(args[0])
				if err != nil {
					return err
				}
				if !existed {
					return fmt.Errorf("no collection under key %q", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", args[0])
				return nil
			})
		},
	}
}

func (a *app) withCollections(fn func(cs *collection.Store[json.RawMessage]) error) error {
	kv, closeStore, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	return fn(collection.New[json.RawMessage](kv, collection.WithLogger(a.logger)))
}
