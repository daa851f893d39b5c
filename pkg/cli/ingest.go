package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pitch-lab/pitchcoach/pkg/cli/config"
	"github.com/pitch-lab/pitchcoach/pkg/service/graph"
	"github.com/pitch-lab/pitchcoach/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var knowledgeCfg config.Knowledge

	var flags []cli.Flag
	flags = append(flags, knowledgeCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Build the knowledge graph from a knowledge file",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			file, err := knowledgeCfg.Load()
			if err != nil {
				return err
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure LLM client")
			}

			graphSvc, err := graph.New(repo.Graph(), llmClient)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize graph service")
			}

			stats, err := graphSvc.Ingest(ctx, file)
			if err != nil {
				return goerr.Wrap(err, "failed to ingest knowledge file", goerr.V("path", knowledgeCfg.Path()))
			}

			logger.Info("Ingestion completed",
				"path", knowledgeCfg.Path(),
				"entities", stats.Entities,
				"relationships", stats.Relationships,
			)
			return nil
		},
	}
}
