package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"go.uber.org/zap"

	"github.com/lexvaani/formfill/catalog"
	"github.com/lexvaani/formfill/command"
	"github.com/lexvaani/formfill/extract"
	"github.com/lexvaani/formfill/langid"
	"github.com/lexvaani/formfill/oracle"
	"github.com/lexvaani/formfill/question"
	"github.com/lexvaani/formfill/session"
	"github.com/lexvaani/formfill/types"
	"github.com/lexvaani/formfill/validate"
)

func main() {
	conf := flag.String("config", "config.json", "path to config file")
	flag.Parse()
	config, err := loadConfig(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := startApp(context.Background(), config); err != nil {
		log.Fatalf("start app: %v", err)
	}
}

func startApp(ctx context.Context, config *Config) error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return err
	}

	cat, err := catalog.BuiltIn()
	if err != nil {
		return err
	}
	adapter := oracle.NewAdapter(oracle.NewChatModel(cm), config.OracleTimeout, logger)
	identifier := langid.NewIdentifier(adapter, logger)
	extractCfg := extract.Config{DefaultSchemaID: "affidavit_general"}
	classifier, err := extract.NewClassifier(cat, adapter, identifier, extractCfg, logger)
	if err != nil {
		return err
	}
	toolParser, err := command.NewToolBasedParser(cm)
	if err != nil {
		return err
	}
	engine := session.NewEngine(
		cat,
		classifier,
		extract.NewFieldExtractor(adapter, extractCfg, logger),
		question.NewGenerator(adapter, logger),
		validate.NewValidator(adapter, logger),
		session.Config{SessionTTL: config.SessionTTL},
		logger,
	).WithCommandParser(command.NewFailbackParser(command.NewLocalParser(), toolParser))

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Tell me which form you need and anything you already know, in any language.")
	fmt.Print("you: ")
	first, err := reader.ReadString('\n')
	if err != nil {
		return err
	}

	start, err := engine.Start(ctx, session.StartRequest{
		FormHint:  config.FormHint,
		Utterance: strings.TrimSpace(first),
		Language:  config.Language,
	})
	if err != nil {
		return err
	}
	fmt.Printf("form: %s (%.0f%% confident, language %s)\n", start.FormTypeID, start.Confidence*100, start.DetectedLanguage)
	if start.Status == session.StatusComplete {
		printFilled(start.FormTypeID, start.Filled)
		return nil
	}
	ask(start.NextQuestion, start.Progress)

	for {
		fmt.Print("you: ")
		input, rErr := reader.ReadString('\n')
		if rErr != nil {
			fmt.Println("input closed, exiting")
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		resp, aErr := engine.Answer(ctx, start.SessionID, input, config.Language)
		if aErr != nil {
			return aErr
		}
		if resp.Message != "" {
			fmt.Println(resp.Message)
		}
		if resp.Report != nil && !resp.Report.Valid && len(resp.Report.Errors) > 0 {
			fmt.Println("some answers need another look:")
			fmt.Println(types.FormatFieldErrors(resp.Report.Errors))
		}
		if resp.Completed != nil {
			printFilled(resp.Completed.FormTypeID, resp.Completed.Filled)
			return nil
		}
		ask(resp.NextQuestion, resp.Progress)
	}
}

func ask(q *types.Question, p session.Progress) {
	if q == nil {
		return
	}
	fmt.Printf("[%d/%d] %s\n", p.Current, p.Total, q.Text)
	if q.Help != "" {
		fmt.Printf("       (%s)\n", q.Help)
	}
}

func printFilled(formTypeID string, filled map[string]any) {
	fmt.Printf("\n%s is complete:\n", formTypeID)
	for key, value := range filled {
		fmt.Printf("  %s: %v\n", key, value)
	}
}
