package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/germanamz/azllm/pkg/tokens"
)

func runTokens(_ context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("tokens", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	showIDs := fs.Bool("ids", false, "print every token id with its text")
	model := fs.String("model", "", "model whose tokenizer to use (default: configured model)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	if *model != "" {
		cfg.Model = *model
	}

	counter, err := tokens.New(cfg.Model)
	if err != nil {
		return err
	}

	text, err := readInput(fs.Args(), stdin)
	if err != nil {
		return err
	}

	st := styler(isTerminal(stdout))

	if !*showIDs {
		_, n, err := counter.Get(text)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "%s %s\n", st.render(countStyle, strconv.Itoa(n)),
			st.render(dimStyle, fmt.Sprintf("tokens (%s, %s)", counter.Model(), counter.Encoding())))
		return err
	}

	ids, pieces, err := counter.Pieces(text)
	if err != nil {
		return err
	}

	_, err = io.WriteString(stdout, renderTokenTable(ids, pieces, st))
	return err
}

// renderTokenTable lays out one row per token: position, id and the quoted
// token text, followed by a total line.
func renderTokenTable(ids []uint, pieces []string, st styler) string {
	quoted := make([]string, len(pieces))
	width := runewidth.StringWidth("text")
	for i, p := range pieces {
		quoted[i] = strconv.Quote(p)
		if w := runewidth.StringWidth(quoted[i]); w > width {
			width = w
		}
	}

	idWidth := len("id")
	for _, id := range ids {
		if w := len(strconv.FormatUint(uint64(id), 10)); w > idWidth {
			idWidth = w
		}
	}

	posWidth := len(strconv.Itoa(len(ids)))
	if posWidth < 1 {
		posWidth = 1
	}

	var sb strings.Builder
	header := fmt.Sprintf("%*s  %*s  %s", posWidth, "#", idWidth, "id", runewidth.FillRight("text", width))
	sb.WriteString(st.render(headerStyle, strings.TrimRight(header, " ")))
	sb.WriteByte('\n')

	for i, id := range ids {
		piece := ""
		if i < len(quoted) {
			piece = quoted[i]
		}
		fmt.Fprintf(&sb, "%*d  %*d  %s\n", posWidth, i, idWidth, id, st.render(pieceStyle, piece))
	}

	sb.WriteString(st.render(dimStyle, fmt.Sprintf("%s tokens", fmtTokens(len(ids)))))
	sb.WriteByte('\n')

	return sb.String()
}
