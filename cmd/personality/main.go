// Command personality answers prompts through a persona/referee composite
// agent defined by a YAML roster, against any OpenAI-compatible endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/personalityai/personality/internal/config"
	"github.com/personalityai/personality/internal/llm/providers/openai"
	"github.com/personalityai/personality/internal/persona"
)

func main() {
	var (
		configPath = flag.String("config", "roster.yaml", "path to the roster configuration")
		prompt     = flag.String("prompt", "", "prompt to answer (required)")
		thoughts   = flag.Bool("thoughts", false, "print the full transcript after answering")
		verbose    = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: personality -config roster.yaml -prompt \"...\"")
		os.Exit(2)
	}

	if err := run(*configPath, *prompt, *thoughts, logger); err != nil {
		logger.Fatalf("personality: %v", err)
	}
}

func run(configPath, prompt string, printThoughts bool, logger *logrus.Logger) error {
	roster, err := config.NewLoader(configPath).Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	provider := openai.NewProvider(roster.Endpoint.APIKey, roster.Endpoint.BaseURL, roster.Endpoint.Model, logger)
	if err := provider.HealthCheck(ctx); err != nil {
		return fmt.Errorf("completion endpoint unavailable: %w", err)
	}

	agent, err := persona.NewComposite(roster.Name, roster.Bio, roster.Specs(), persona.Runtime{
		Provider: provider,
		Model:    provider.Model(),
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	logger.Infof("%s", agent.About())

	answer, err := agent.Answer(ctx, prompt)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %s\n", agent.Name(), answer)

	if printThoughts {
		if text, ok := agent.Thoughts(); ok {
			fmt.Println()
			fmt.Print(text)
		}
	}
	return nil
}
