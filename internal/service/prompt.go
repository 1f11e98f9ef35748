package service

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/robostack/relsync/internal/domain"
)

// PromptService collects the release parameters the sync command was not
// given on the command line.
type PromptService interface {
	SelectChannel() (domain.Channel, error)
	SelectStability() (string, error)
	InputBaseVersion() (string, error)
}

type surveyPromptService struct{}

// NewPromptService creates a PromptService backed by interactive terminal
// prompts.
func NewPromptService() PromptService {
	return &surveyPromptService{}
}

func (s *surveyPromptService) SelectChannel() (domain.Channel, error) {
	prompt := &survey.Select{
		Message: "Release channel:",
		Options: []string{string(domain.ChannelExternal), string(domain.ChannelInternal)},
		Default: string(domain.ChannelExternal),
	}
	var answer string
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", fmt.Errorf("select channel: %w", err)
	}
	return domain.ParseChannel(answer)
}

func (s *surveyPromptService) SelectStability() (string, error) {
	prompt := &survey.Select{
		Message: "Stability:",
		Options: []string{"stable", "unstable"},
		Default: "unstable",
	}
	var answer string
	if err := survey.AskOne(prompt, &answer); err != nil {
		return "", fmt.Errorf("select stability: %w", err)
	}
	return answer, nil
}

func (s *surveyPromptService) InputBaseVersion() (string, error) {
	prompt := &survey.Input{
		Message: "Base version:",
		Default: "v8.4.0",
	}
	var answer string
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
		return "", fmt.Errorf("input version: %w", err)
	}
	return answer, nil
}
