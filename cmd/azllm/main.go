// Azllm talks to a completion model deployed on Azure OpenAI. It counts the
// tokens a text consumes under the model's tokenizer and sends prompts to the
// deployment. Credentials come from the environment, optionally loaded from a
// .env file, or from a YAML config file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error

	switch os.Args[1] {
	case "tokens":
		err = runTokens(ctx, os.Args[2:], os.Stdin, os.Stdout)
	case "complete":
		err = runComplete(ctx, os.Args[2:], os.Stdin, os.Stdout)
	case "-h", "-help", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: azllm <command> [flags] [text...]

Commands:
  tokens    Count the tokens of the given text (or stdin)
  complete  Send a prompt to the configured deployment

Environment:
  OPENAI_DEPLOYMENT_NAME  deployment to send completions to
  OPENAI_API_KEY          Azure OpenAI API key
  OPENAI_API_BASE         resource endpoint, e.g. https://my-res.openai.azure.com
  OPENAI_API_VERSION      API version (default 2022-12-01)

Run "azllm <command> -h" for command flags.
`)
}
