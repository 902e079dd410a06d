package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ubloom/ubloom/backend/internal/config"
	"github.com/ubloom/ubloom/backend/internal/logging"
	"github.com/ubloom/ubloom/backend/internal/service/ai"
	"github.com/ubloom/ubloom/backend/internal/service/reflection"
)

var (
	reflectText    string
	reflectFile    string
	reflectTimeout time.Duration
	reflectStrict  bool
)

func init() {
	reflectCmd.Flags().StringVar(&reflectText, "text", "", "journal entry text")
	reflectCmd.Flags().StringVar(&reflectFile, "file", "", "read the journal entry from a file ('-' for stdin)")
	reflectCmd.Flags().DurationVar(&reflectTimeout, "timeout", 2*time.Minute, "overall request timeout")
	reflectCmd.Flags().BoolVar(&reflectStrict, "strict", false, "reject model output with missing fields or unknown categories")
	reflectCmd.MarkFlagsMutuallyExclusive("text", "file")
}

var reflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Generate a reflection for a journal entry",
	Long: `Send one journal entry through the reflection engine using the model
configured in the environment and print the resulting JSON.

Examples:
  ubloomctl reflect --text "I skipped the gym again and feel stuck."
  ubloomctl reflect --file entry.txt
  cat entry.txt | ubloomctl reflect --file -`,
	Args: cobra.NoArgs,
	RunE: runReflect,
}

func runReflect(cmd *cobra.Command, _ []string) error {
	text, err := readJournal(cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logCfg := cfg.Log
	logCfg.Format = "console"
	logCfg.File = ""
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var completer reflection.Completer
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(cmd.Context(), cfg.AI, logger)
		if err != nil {
			logger.Error("failed to initialize AI service", zap.Error(err))
		} else {
			completer = aiService
		}
	}

	policy := reflection.Permissive
	if reflectStrict || cfg.AI.StrictSchema {
		policy = reflection.Strict
	}
	svc := reflection.NewService(completer, reflection.Options{Policy: policy, Logger: logger})

	ctx, cancel := context.WithTimeout(cmd.Context(), reflectTimeout)
	defer cancel()

	result, err := svc.Reflect(ctx, text)
	if err != nil {
		return errors.New(reflection.PublicMessage(err))
	}

	out, err := json.MarshalIndent(result.Reflection, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	if result.Fallback {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: model output could not be parsed, fallback reflection returned")
	}
	return nil
}

func readJournal(stdin io.Reader) (string, error) {
	switch {
	case reflectText != "":
		return reflectText, nil
	case reflectFile == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case reflectFile != "":
		data, err := os.ReadFile(reflectFile)
		if err != nil {
			return "", fmt.Errorf("read journal file: %w", err)
		}
		return string(data), nil
	}
	return "", errors.New("one of --text or --file is required")
}

