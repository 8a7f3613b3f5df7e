package main

import (
	"github.com/spf13/cobra"

	"github.com/koinonia-app/koinonia/core/seed"
)

func (cli *commandLine) seedCmd() *cobra.Command {
	opts := seed.Options{Members: seed.DefaultMembers, Seed: seed.DefaultSeed}
	cmd := &cobra.Command{
		Use:     "seed",
		Short:   "Fill the database with synthetic members, finance entries & content",
		Args:    cobra.NoArgs,
		PreRunE: cli.requireDB,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := cli.seeder.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			cli.logger.Info("seeded " + res.String())
			cli.printf("seeded %s\n", res)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Members, "members", opts.Members, "Number of members to generate")
	cmd.Flags().Int64Var(&opts.Seed, "seed", opts.Seed, "Random seed. The same seed yields the same data")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "Delete members, finance entries & content first (users are kept)")
	return cmd
}
