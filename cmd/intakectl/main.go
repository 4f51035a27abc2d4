package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"docintake/internal/negotiate"
	"docintake/internal/oracle"
	"docintake/internal/summary"
)

// intakectl runs one negotiation over local files from the terminal:
// follow-up questions are printed per category and answers read from stdin.
func main() {
	model := flag.String("model", "gpt-4o-mini", "oracle model id")
	maxDepth := flag.Int("max-depth", 2, "maximum number of answered rounds")
	maxTokens := flag.Int("max-tokens", 2048, "max output tokens per oracle call")
	out := flag.String("out", "", "write the final result JSON here (default stdout)")
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatal("usage: intakectl [flags] <file>...")
	}

	_ = godotenv.Load()
	if os.Getenv("ORACLE_API_KEY") == "" {
		log.Fatal("ORACLE_API_KEY is not set")
	}

	ctx := context.Background()
	inputs := make([]summary.Input, 0, flag.NArg())
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		inputs = append(inputs, summary.Input{Name: filepath.Base(path), Data: data})
	}
	files, err := summary.NewExtractor(4).SummarizeAll(ctx, inputs)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("summarized %d files", len(files))

	cli := oracle.NewOpenAIClient(os.Getenv("ORACLE_BASE_URL"), "", *model)
	ctrl := negotiate.New(oracle.Wrap(cli, oracle.WithLogging(nil)), negotiate.Options{
		Model:           *model,
		MaxDepth:        *maxDepth,
		MaxOutputTokens: *maxTokens,
	})

	outcome, err := ctrl.Start(ctx, files)
	if err != nil {
		log.Fatal(err)
	}

	stdin := bufio.NewReader(os.Stdin)
	for outcome.State == negotiate.StateQuestionsPending {
		if s := strings.TrimSpace(outcome.Summary); s != "" {
			fmt.Println(s)
			fmt.Println()
		}
		answers := make([]negotiate.Answer, 0, len(outcome.Questions))
		for _, cat := range outcome.Questions {
			fmt.Printf("== %s ==\n", cat.Category)
			for _, q := range cat.Questions {
				fmt.Println("  " + q)
			}
			fmt.Print("> ")
			line, err := stdin.ReadString('\n')
			if err != nil {
				log.Fatal(err)
			}
			answers = append(answers, negotiate.Answer{Category: cat.Category, Text: strings.TrimSpace(line)})
		}
		outcome, err = ctrl.Submit(ctx, answers)
		if err != nil {
			log.Fatal(err)
		}
	}

	b, err := json.MarshalIndent(outcome.Result, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if *out == "" {
		fmt.Println(string(b))
		return
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Println("result written to", *out)
}
