package agent

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// NewAnalyst returns the expert that comments a rendered analysis. An empty model
// selects DefaultModel.
func NewAnalyst(model string) *Expert {
	if model == "" {
		model = DefaultModel
	}
	return &Expert{
		Name:        "Analyst",
		Description: "Explains a price forecast and its risk metrics to a retail investor.",
		ModelName:   model,
		Config: &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a market analyst talking to a retail investor.
			You receive a markdown report produced by a forecasting model: the current price,
			the predicted high, a risk score, a volatility label and a table of actual versus
			predicted prices.
			Explain in a few short paragraphs what the report says, how close the predictions
			followed the actual prices, and what the risk score and volatility imply.
			Only use figures present in the report. Do not give investment advice.
			Answer in markdown.
			`}}},
		},
	}
}

// Explain asks the analyst to comment report. The chat is started on first use.
func Explain(ctx context.Context, client *genai.Client, analyst *Expert, report string) (string, error) {
	if analyst.chat == nil {
		if err := analyst.Start(ctx, client); err != nil {
			return "", err
		}
	}
	answer, err := analyst.Ask(ctx, explainPrompt(report))
	if err != nil {
		return "", fmt.Errorf("asking %s: %w", analyst.Name, err)
	}
	return answer, nil
}

func explainPrompt(report string) string {
	return "Here is the forecast report:\n\n" + report + "\n\nWhat does it tell me?"
}
