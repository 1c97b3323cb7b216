package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/llm"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect the narration provider",
}

var llmCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show the LLM configuration and optionally send a test request",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		lc := cfg.LLM
		if !lc.Enabled() {
			fmt.Println("No LLM provider configured (set PREPCOACH_LLM_PROVIDER).")
			return nil
		}

		sep := strings.Repeat("─", 48)
		fmt.Println(sep)
		fmt.Printf("Provider:  %s\n", lc.Provider)
		fmt.Printf("Model:     %s\n", llm.ResolveModel(lc.Provider, lc.Model))
		if lc.BaseURL != "" {
			fmt.Printf("Base URL:  %s\n", lc.BaseURL)
		}
		fmt.Printf("API key:   %s\n", maskKey(lc.APIKey))
		fmt.Printf("Retry:     %d attempts, %s initial, %s max\n", lc.Retry.MaxAttempts, lc.Retry.InitialWait, lc.Retry.MaxWait)
		fmt.Printf("Timeout:   %s\n", lc.Timeout)
		fmt.Println(sep)

		if ping, _ := cmd.Flags().GetBool("ping"); !ping {
			return nil
		}

		logger := cfg.Logger(cmd.ErrOrStderr())
		p, err := llm.New(cmd.Context(), lc, logger)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(llm.WithPurpose(cmd.Context(), "check"), lc.Timeout)
		defer cancel()

		start := time.Now()
		resp, err := p.Generate(ctx, llm.Prompt("Reply with the single word: ready", "Are you ready?", nil, 16))
		if err != nil {
			kind, _ := llm.KindOf(err)
			fmt.Printf("Request failed (%s): %v\n", kind, err)
			return err
		}
		fmt.Printf("Reply:     %s\n", strings.TrimSpace(string(resp.Content)))
		fmt.Printf("Tokens:    %d in / %d out\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
		fmt.Printf("Latency:   %dms\n", time.Since(start).Milliseconds())
		return nil
	},
}

func maskKey(k string) string {
	switch {
	case k == "":
		return "(none)"
	case len(k) <= 8:
		return strings.Repeat("*", len(k))
	default:
		return k[:4] + strings.Repeat("*", 4) + k[len(k)-4:]
	}
}

func init() {
	llmCheckCmd.Flags().Bool("ping", false, "Send a short test request")
	llmCmd.AddCommand(llmCheckCmd)
}
