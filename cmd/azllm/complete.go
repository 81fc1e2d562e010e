package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/germanamz/azllm/pkg/engine"
)

func runComplete(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("complete", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	render := fs.Bool("render", false, "render the completion as markdown")
	maxTokens := fs.Int("max-tokens", 0, "completion token budget; -1 fills the context window (default: configured)")
	temperature := fs.Float64("temperature", -1, "sampling temperature (default: configured)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if *maxTokens != 0 {
		cfg.MaxTokens = *maxTokens
	}
	if *temperature >= 0 {
		t := *temperature
		cfg.Temperature = &t
	}

	eng, err := engine.New(cfg, engine.WithLogger(common.logger()))
	if err != nil {
		return err
	}

	prompt, err := readInput(fs.Args(), stdin)
	if err != nil {
		return err
	}
	if strings.TrimSpace(prompt) == "" {
		return errors.New("empty prompt")
	}

	out, err := eng.Complete(ctx, prompt)
	if err != nil {
		return err
	}

	text := strings.TrimLeft(out.Text, "\n")
	if *render {
		text, err = renderMarkdown(text)
		if err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(stdout, strings.TrimRight(text, "\n")); err != nil {
		return err
	}

	if common.verbose {
		st := styler(isTerminal(stdout))
		_, err = fmt.Fprintln(stdout, st.render(dimStyle, fmt.Sprintf("%s prompt + %s completion tokens (%s)",
			fmtTokens(out.Usage.PromptTokens), fmtTokens(out.Usage.CompletionTokens), out.FinishReason)))
	}

	return err
}

func renderMarkdown(text string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}

	return r.Render(text)
}
