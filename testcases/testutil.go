// Package testcases runs the whole engine against a real model. The tests
// are skipped unless FORMFILL_RUN_LIVE_TESTS=1 and a config.json with
// credentials sits next to the module root.
package testcases

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/lexvaani/formfill/catalog"
	"github.com/lexvaani/formfill/command"
	"github.com/lexvaani/formfill/extract"
	"github.com/lexvaani/formfill/langid"
	"github.com/lexvaani/formfill/oracle"
	"github.com/lexvaani/formfill/question"
	"github.com/lexvaani/formfill/session"
	"github.com/lexvaani/formfill/validate"
)

type liveConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

func loadLiveConfig() (*liveConfig, error) {
	_ = godotenv.Load("../.env")

	v := viper.New()
	v.SetConfigFile("../config.json")
	v.SetEnvPrefix("FORMFILL")
	v.AutomaticEnv()
	v.SetDefault("model", "gpt-4o-mini")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var conf liveConfig
	if err := v.Unmarshal(&conf); err != nil {
		return nil, err
	}
	if conf.APIKey == "" {
		conf.APIKey = v.GetString("API_KEY")
	}
	return &conf, nil
}

// NewLiveEngine builds a fully wired engine against the configured model, or
// skips the test when live runs are not enabled.
func NewLiveEngine(t *testing.T) *session.Engine {
	t.Helper()
	if os.Getenv("FORMFILL_RUN_LIVE_TESTS") != "1" {
		t.Skip("set FORMFILL_RUN_LIVE_TESTS=1 to run live model tests")
		return nil
	}

	conf, err := loadLiveConfig()
	if err != nil {
		t.Skipf("load live config: %v", err)
		return nil
	}
	if conf.APIKey == "" {
		t.Skip("live config has no api_key")
		return nil
	}

	ctx := context.Background()
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  conf.APIKey,
		Model:   conf.Model,
		BaseURL: conf.BaseURL,
	})
	if err != nil {
		t.Fatalf("init chat model: %v", err)
	}

	logger := zap.NewNop()
	cat, err := catalog.BuiltIn()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	adapter := oracle.NewAdapter(oracle.NewChatModel(cm), 60*time.Second, logger)
	identifier := langid.NewIdentifier(adapter, logger)
	cfg := extract.Config{DefaultSchemaID: "affidavit_general"}
	classifier, err := extract.NewClassifier(cat, adapter, identifier, cfg, logger)
	if err != nil {
		t.Fatalf("init classifier: %v", err)
	}
	toolParser, err := command.NewToolBasedParser(cm)
	if err != nil {
		t.Fatalf("init command parser: %v", err)
	}

	return session.NewEngine(
		cat,
		classifier,
		extract.NewFieldExtractor(adapter, cfg, logger),
		question.NewGenerator(adapter, logger),
		validate.NewValidator(adapter, logger),
		session.Config{SessionTTL: 10 * time.Minute},
		logger,
	).WithCommandParser(command.NewFailbackParser(command.NewLocalParser(), toolParser))
}
