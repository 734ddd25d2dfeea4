package commands

import (
	"context"
	"fmt"

	"DocPlatform/internal/config"
)

type metricsCmd struct{}

func (metricsCmd) Name() string        { return "metrics" }
func (metricsCmd) Description() string { return "Show dashboard counters" }
func (metricsCmd) Usage() string       { return "metrics" }

func (metricsCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	app, done, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer done()

	m, err := app.Dashboard.Metrics(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(Out, "Reports generated:    %d\n", m.ReportsGenerated)
	fmt.Fprintf(Out, "Chatbot sessions:     %d\n", m.ChatbotSessions)
	fmt.Fprintf(Out, "Companies onboarded:  %d\n", m.CompaniesOnboarded)
	fmt.Fprintf(Out, "Asset analyses:       %d\n", m.AssetAnalysisCount)
	return nil
}

func init() { RegisterCmd(metricsCmd{}) }
