// Command netintel is the console front end: it wires the chat model, the
// Neo4j store and the pipeline together, then answers questions from stdin
// or a single question passed as arguments.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/shazaelmorsh/network-intelligent-platform/internal/config"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/llm"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/logs"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/pipeline"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/store"
)

var capabilities = []string{
	"Provide insights about people and their backgrounds",
	"Find information about organizations and companies",
	"Discover professional relationships and connections",
	"Identify common interests and topics people know about",
	"Find alumni connections and educational backgrounds",
	"Discover event attendance and professional activities",
	"Enhance small talk with relevant conversation starters",
	"Provide networking insights for professional meetings",
}

func main() {
	ctx := context.Background()

	runner, cleanup, err := setup(ctx)
	if err != nil {
		logs.Errorf("startup failed: %v", err)
		os.Exit(1)
	}
	defer cleanup()

	if len(os.Args) > 1 {
		question := strings.Join(os.Args[1:], " ")
		if err := answer(ctx, runner, question); err != nil {
			logs.Errorf("%v", err)
			os.Exit(1)
		}
		return
	}

	runInteractive(ctx, runner)
}

func setup(ctx context.Context) (*pipeline.Runner, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	client, err := store.New(ctx, cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(ctx); err != nil {
			logs.Warnf("closing store: %v", err)
		}
	}

	schema, err := client.RefreshSchema(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	model, err := llm.New(ctx, cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	runner, err := pipeline.New(ctx, pipeline.Deps{
		Model:  model,
		Store:  client,
		Schema: schema,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return runner, cleanup, nil
}

func runInteractive(ctx context.Context, runner *pipeline.Runner) {
	fmt.Println("Network Intelligence Platform")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("Ask questions about people, organizations, and professional relationships.")
	fmt.Println("Type 'help' for examples, 'capabilities' for what I can do, 'quit' to exit.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Your question: ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(question) {
		case "":
			continue
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return
		case "help":
			fmt.Println("\nExample questions:")
			for i, q := range pipeline.ExampleQuestions() {
				fmt.Printf("%d. %s\n", i+1, q)
			}
			fmt.Println()
			continue
		case "capabilities":
			fmt.Println("\nWhat I can do:")
			for i, c := range capabilities {
				fmt.Printf("%d. %s\n", i+1, c)
			}
			fmt.Println()
			continue
		}

		if err := answer(ctx, runner, question); err != nil {
			logs.Errorf("%v", err)
		}
		fmt.Println(strings.Repeat("-", 50))
	}
}

func answer(ctx context.Context, runner *pipeline.Runner, question string) error {
	result, err := runner.Run(ctx, question)
	if err != nil {
		return fmt.Errorf("answering %q: %w", question, err)
	}
	fmt.Printf("\nAnswer: %s\n", result.Answer)
	fmt.Printf("Steps: %s\n", strings.Join(result.Steps, ", "))
	if result.CypherStatement != "" {
		fmt.Printf("Cypher query: %s\n", result.CypherStatement)
	}
	return nil
}
