package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobhunter/internal/jobs"
	"github.com/spigell/jobhunter/internal/logger"
	"github.com/spigell/jobhunter/internal/pipeline"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY...",
	Short: "Search every enabled job board and merge the results",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringP("location", "l", "", "location filter, e.g. city or country")
	searchCmd.Flags().BoolP("remote", "r", false, "remote positions only")
	searchCmd.Flags().IntP("limit", "n", pipeline.DefaultSearchLimit, "maximum number of postings to return")
	searchCmd.Flags().BoolP("score", "s", false, "rank postings against the profile")
	searchCmd.Flags().StringSlice("sources", nil, "comma separated connectors to query. Default is every enabled source.")
	searchCmd.Flags().String("level", "", "experience level: entry, mid, senior or executive")
	searchCmd.Flags().BoolP("interactive", "i", false, "ask what to do with the results")
}

func search(cmd *cobra.Command, query string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the search", zap.String("query", query), zap.String("version", buildVersion()))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	flags := cmd.Flags()
	location, _ := flags.GetString("location")
	remote, _ := flags.GetBool("remote")
	limit, _ := flags.GetInt("limit")
	score, _ := flags.GetBool("score")
	selected, _ := flags.GetStringSlice("sources")
	level, _ := flags.GetString("level")
	interactive, _ := flags.GetBool("interactive")

	var profile *jobs.Profile
	if score {
		profile, err = loadProfile(config, logger)
		if err != nil {
			logger.Warn("loading profile", zap.Error(err), zap.String("hint", "set profile-file or JOBHUNTER_PROFILE_FILE"))
		}
	}

	orchestrator, err := newOrchestrator(ctx, config, logger, score && profile != nil)
	if err != nil {
		logger.Fatal("preparing sources", zap.Error(err))
	}

	result, err := orchestrator.Search(ctx, pipeline.SearchRequest{
		Query:           query,
		Location:        location,
		Remote:          remote,
		Sources:         selected,
		ExperienceLevel: level,
		Limit:           limit,
		Score:           score,
	}, profile)
	if err != nil {
		logger.Fatal("search failed", zap.Error(err))
	}

	reportResult(logger, result)

	if interactive && result.Postings.Len() > 0 {
		if err := interact(logger, config, result.Postings); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

// reportResult logs failures, notes and one entry per posting in rank order.
func reportResult(log *zap.Logger, result *pipeline.Result) {
	for _, failure := range result.Failures {
		log.Warn("source unavailable", zap.String("source", failure.Source), zap.Error(failure.Err))
	}
	for _, note := range result.Notes {
		log.Info("note", zap.String("message", note))
	}

	for i, posting := range result.Postings.Items {
		log.Info(fmt.Sprintf("#%d %s", i+1, posting.Title), postingFields(posting, result.Scored)...)
	}

	log.Info("current list of postings", zap.Int("count", result.Postings.Len()))
}

func postingFields(posting *jobs.Posting, scored bool) []zap.Field {
	fields := logger.PostingFields(posting)
	fields = append(fields, zap.String("url", posting.URL))
	if posting.Location != "" {
		fields = append(fields, zap.String("location", posting.Location))
	}
	if posting.WorkType != "" {
		fields = append(fields, zap.String("work_type", string(posting.WorkType)))
	}
	if posting.HasSalary() {
		fields = append(fields, zap.String("salary", fmt.Sprintf("%d-%d %s", posting.SalaryMin, posting.SalaryMax, posting.SalaryCurrency)))
	}
	if scored && posting.Match != nil {
		if posting.Match.Error != "" {
			fields = append(fields, zap.Int(logger.FieldScore, 0), zap.String("match_error", posting.Match.Error))
		} else if posting.Match.Summary != "" {
			fields = append(fields, zap.String("summary", posting.Match.Summary))
		}
	}
	return fields
}
