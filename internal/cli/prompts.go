package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"github.com/quorumtrade/boardroom/internal/dataflows"
)

// PromptForTicker asks for a ticker symbol interactively.
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbol (e.g., AAPL, MSFT, GOOGL):",
		Help:    "Letters, numbers, dots, and hyphens only",
	}

	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("ticker must be a string")
		}
		return dataflows.ValidateSymbol(str)
	}))
	if err != nil {
		return "", err
	}
	return dataflows.NormalizeSymbol(ticker), nil
}

// PromptForConfirm asks a yes/no question, defaulting to no.
func PromptForConfirm(message string) (bool, error) {
	var confirmed bool
	prompt := &survey.Confirm{
		Message: strings.TrimSpace(message),
		Default: false,
	}
	if err := survey.AskOne(prompt, &confirmed); err != nil {
		return false, err
	}
	return confirmed, nil
}
