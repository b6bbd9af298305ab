package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobhunter/internal/logger"
	"github.com/spigell/jobhunter/internal/pipeline"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Search the target roles of the profile and keep the best matches",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		recommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().IntP("limit", "n", pipeline.DefaultRecommendLimit, "maximum number of recommendations")
	recommendCmd.Flags().BoolP("interactive", "i", false, "ask what to do with the results")
}

func recommend(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	profile, err := loadProfile(config, logger)
	if err != nil {
		logger.Fatal("loading profile", zap.Error(err))
	}
	if profile == nil {
		logger.Fatal("profile is required for recommendations",
			zap.String("hint", "set JOBHUNTER_PROFILE_FILE environment variable or the 'profile-file' key in the configuration file"),
		)
	}

	orchestrator, err := newOrchestrator(ctx, config, logger, true)
	if err != nil {
		logger.Fatal("preparing sources", zap.Error(err))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	interactive, _ := cmd.Flags().GetBool("interactive")

	logger.Info("starting recommendations", zap.Strings("target_roles", profile.TargetRoles), zap.String("location", profile.Location))

	result, err := orchestrator.Recommend(ctx, profile, pipeline.RecommendRequest{Limit: limit})
	if err != nil {
		logger.Fatal("recommend failed", zap.Error(err))
	}

	reportResult(logger, result)

	if interactive && result.Postings.Len() > 0 {
		if err := interact(logger, config, result.Postings); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}
