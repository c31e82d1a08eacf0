package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/rankline/internal/batch"
	"github.com/rshade/rankline/internal/ordering"
	"github.com/rshade/rankline/internal/store"
)

func newImportCmd() *cobra.Command {
	var batchSize int
	cmd := &cobra.Command{
		Use:   "import LIST [FILE]",
		Short: "Append items from a file or stdin, one title or exported JSON item per line",
		Long: `Appends one item per input line to the end of LIST, in input order.

A line starting with '{' is read as an item written by 'rankline export' and its title is
used; any other non-empty line is taken as the title itself. Reads stdin when FILE is
omitted or '-'.`,
		Example: `  rankline export 01JA... > items.jsonl
  rankline import 01JB... items.jsonl`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return fmt.Errorf("opening import file: %w", err)
				}
				defer f.Close()
				in = f
			}

			titles, err := readTitles(in)
			if err != nil {
				return err
			}
			proc := batch.NewProcessorWithDefaults[string]()
			if cmd.Flags().Changed("batch-size") {
				if proc, err = batch.NewProcessor[string](batchSize); err != nil {
					return err
				}
			}

			return withApp(cmd, func(a *app) error {
				if _, gErr := a.store.GetList(cmd.Context(), args[0]); gErr != nil {
					return gErr
				}
				n, iErr := importTitles(cmd.Context(), a.svc, proc, args[0], titles)
				if iErr != nil {
					return fmt.Errorf("imported %d of %d items: %w", n, len(titles), iErr)
				}
				cmd.Println(printer.Sprintf("Imported %d items", n))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", batch.DefaultBatchSize, "items appended between progress reports")
	return cmd
}

// readTitles extracts one title per non-empty line.
func readTitles(r io.Reader) ([]string, error) {
	var titles []string
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "{") {
			var it store.Item
			if err := json.Unmarshal([]byte(text), &it); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			text = it.Title
		}
		titles = append(titles, text)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading import input: %w", err)
	}
	return titles, nil
}

// importTitles appends titles to the list batch by batch and returns how many made it in.
func importTitles(
	ctx context.Context,
	svc *ordering.Service,
	proc *batch.Processor[string],
	listID string,
	titles []string,
) (int, error) {
	done := 0
	proc.WithProgress(func(p batch.Progress) {
		logger.Info().Ctx(ctx).
			Str("list_id", listID).
			Int("processed", p.ProcessedItems).
			Int("total", p.TotalItems).
			Int("batch_size", proc.BatchSize()).
			Float64("percent", p.PercentComplete()).
			Bool("done", p.IsComplete()).
			Msg("import progress")
	})
	err := proc.Process(ctx, titles, func(ctx context.Context, chunk []string, _ int) error {
		for _, title := range chunk {
			if _, err := svc.Insert(ctx, listID, title, ordering.Position{}); err != nil {
				return err
			}
			done++
		}
		return nil
	})
	return done, err
}
