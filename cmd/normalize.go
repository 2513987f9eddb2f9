package main

import (
	"context"
	"fmt"

	"domainwatch/internal/config"
	"domainwatch/internal/domainlist"
	"domainwatch/internal/normalize"
	"domainwatch/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func normalizeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Prints the cleaned, validated domain set without querying the API",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			raw, err := domainlist.Read(ctx, cfg.Input)
			if err != nil {
				logger.Fatal(ctx, "could not load domain list", zap.Error(err))
			}

			domains, rejected := normalize.Normalize(ctx, raw)
			for _, d := range domains {
				fmt.Println(d)
			}

			logger.Info(ctx, "domain list normalized",
				zap.Int("raw", len(raw)),
				zap.Int("valid", len(domains)),
				zap.Int("rejected", rejected))
		},
	}

	return cmd
}
