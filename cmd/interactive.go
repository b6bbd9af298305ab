package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/jobhunter/internal/jobs"
)

const (
	PromptDetails             = "Show posting details"
	PromptReportByCompany     = "Report by company"
	PromptPostingsToFile      = "Dump postings to file"
	PromptExcludePostings     = "Exclude postings in manual mode"
	PromptAppendToExcludeFile = "Append all postings to exclude file"
	PromptExit                = "Exit"
	PromptBack                = "back"
)

var errExit = errors.New("exit requested")

// interact loops over the action prompt until the user exits.
func interact(logger *zap.Logger, config *Config, postings *jobs.Postings) error {
	for {
		items := []string{PromptDetails, PromptReportByCompany, PromptPostingsToFile}
		if config.ExcludeFile != "" {
			items = append(items, PromptExcludePostings, PromptAppendToExcludeFile)
		}

		prompt := promptui.Select{
			Label: "What next?",
			Items: append(items, PromptExit),
		}

		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		logger.Info("current list of postings", zap.Int("count", postings.Len()))

		if err := handleAction(action, logger, config, postings); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}

		if postings.Len() == 0 {
			logger.Info("exiting", zap.String("reason", "no postings left"))
			return nil
		}
	}
}

func handleAction(action string, logger *zap.Logger, config *Config, postings *jobs.Postings) error {
	switch action {
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	case PromptDetails:
		return showDetails(logger, postings)
	case PromptReportByCompany:
		pretty, _ := json.MarshalIndent(postings.ReportByCompany(), "", "  ")
		logger.Info(string(pretty), zap.Int("postings count", postings.Len()))
		return nil
	case PromptPostingsToFile:
		filename, err := postings.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExcludePostings:
		return manualExclude(logger, config.ExcludeFile, postings)
	case PromptAppendToExcludeFile:
		return excludeAll(logger, config.ExcludeFile, postings, "excluded in bulk")
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func postingLabels(postings *jobs.Postings) []string {
	items := make([]string, 0, postings.Len()+1)
	for _, p := range postings.Items {
		label := fmt.Sprintf("%s %s / %s / %s", p.ID, p.Title, p.Company, p.URL)
		if p.IsScored() {
			label = fmt.Sprintf("%s [%d]", label, p.Score())
		}
		items = append(items, label)
	}
	return items
}

func selectPosting(label string, postings *jobs.Postings) (*jobs.Posting, error) {
	selector := promptui.Select{
		Label: label,
		Items: append(postingLabels(postings), PromptBack),
		Size:  10,
	}

	_, selected, err := selector.Run()
	if err != nil {
		return nil, err
	}
	if selected == PromptBack {
		return nil, nil
	}

	id := strings.Split(selected, " ")[0]
	posting := postings.FindByID(id)
	if posting == nil {
		return nil, fmt.Errorf("there is no such posting id %s", id)
	}
	return posting, nil
}

func showDetails(logger *zap.Logger, postings *jobs.Postings) error {
	for {
		posting, err := selectPosting("Choose a posting and press ENTER", postings)
		if err != nil || posting == nil {
			return err
		}

		pretty, _ := json.MarshalIndent(posting, "", "  ")
		logger.Info(string(pretty), zap.String("posting_id", posting.ID))
	}
}

func manualExclude(logger *zap.Logger, excludeFile string, postings *jobs.Postings) error {
	for postings.Len() > 0 {
		posting, err := selectPosting("Choose a posting to exclude and press ENTER", postings)
		if err != nil || posting == nil {
			return err
		}

		single := &jobs.Postings{Items: []*jobs.Posting{posting}}
		if err := excludeAll(logger, excludeFile, single, "excluded manually"); err != nil {
			return err
		}
		postings.Exclude(jobs.PostingIDField, []string{posting.ID})
	}
	return nil
}

// excludeAll appends postings to the exclude file and drops them from the
// slice they came from.
func excludeAll(logger *zap.Logger, excludeFile string, postings *jobs.Postings, reason string) error {
	excluded, err := jobs.GetExcludedPostingsFromFile(excludeFile)
	if err != nil {
		return err
	}

	excluded.Append(postings.ToExcluded(jobs.ExcludeActorUser, reason))

	if err := excluded.ToFile(excludeFile); err != nil {
		return err
	}

	logger.Info("appended to exclude file", zap.String("filename", excludeFile), zap.Int("count", postings.Len()))

	postings.Exclude(jobs.PostingIDField, excluded.IDs())
	return nil
}
