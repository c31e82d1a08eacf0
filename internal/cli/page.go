package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/rankline/internal/paging"
	"github.com/rshade/rankline/internal/store"
)

type pageFlags struct {
	size    int
	cursor  string
	version string
	total   bool
}

func newPageCmd() *cobra.Command {
	var flags pageFlags
	cmd := &cobra.Command{
		Use:   "page LIST",
		Short: "Print one snapshot-consistent page of a list",
		Long: `Prints one page of a list in rank order.

The first call mints a snapshot version. Pass the printed cursor and version to get the
next page of the same snapshot: items added or changed after the version stay hidden.
Versions expire after paging.snapshot_retention (15 minutes by default).`,
		Example: `  rankline page 01J... --size 2
  rankline page 01J... --size 2 --cursor m --version 2026-05-01T09:00:00.123Z --total`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			return withApp(cmd, func(a *app) error {
				resp, pErr := a.svc.Page(cmd.Context(), args[0], req)
				if pErr != nil {
					return pageError(pErr)
				}
				if outputFormat() == "json" {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				return renderPage(cmd, args[0], resp)
			})
		},
	}

	cmd.Flags().IntVar(&flags.size, "size", 0, "page size (default from config)")
	cmd.Flags().StringVar(&flags.cursor, "cursor", "", "rank of the last item of the previous page")
	cmd.Flags().StringVar(&flags.version, "version", "", "snapshot version (RFC3339) returned by the first page")
	cmd.Flags().BoolVar(&flags.total, "total", false, "also count the items in the snapshot")
	return cmd
}

func (f pageFlags) request() (paging.Request, error) {
	req := paging.Request{PageSize: f.size, Cursor: f.cursor, IncludeTotal: f.total}
	if f.version != "" {
		v, err := time.Parse(time.RFC3339Nano, f.version)
		if err != nil {
			return paging.Request{}, fmt.Errorf("%w: version must be RFC3339: %w", paging.ErrInvalidPageRequest, err)
		}
		req.Version = v
	}
	return req, nil
}

// pageError adds a restart hint to expired snapshots.
func pageError(err error) error {
	var expired *paging.SnapshotExpiredError
	if errors.As(err, &expired) {
		return fmt.Errorf("%w (run again without --cursor and --version to start a new snapshot)", err)
	}
	return err
}

func renderPage(cmd *cobra.Command, listID string, resp *paging.Response[store.Item]) error {
	out := cmd.OutOrStdout()
	if len(resp.Items) == 0 {
		fmt.Fprintln(out, "No items.")
	} else if err := renderItems(out, resp.Items); err != nil {
		return err
	}

	fmt.Fprintln(out)
	summary := printer.Sprintf("%d items", len(resp.Items))
	if resp.TotalCount != nil {
		summary = printer.Sprintf("%d of %d items", len(resp.Items), *resp.TotalCount)
	}
	fmt.Fprintf(out, "%s, version %s\n", summary, formatTime(resp.Version))
	if resp.HasMore {
		fmt.Fprintf(out, "Next page: rankline page %s --size %d --cursor %s --version %s\n",
			listID, resp.PageSize, resp.NextCursor, formatTime(resp.Version))
	}
	return nil
}

func newExportCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "export LIST",
		Short: "Write every item of one snapshot as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(a *app) error {
				if size == 0 {
					size = a.cfg.Paging.MaxPageSize
				}
				w := bufio.NewWriter(cmd.OutOrStdout())
				enc := json.NewEncoder(w)
				count := 0
				err := a.svc.Pager().Walk(cmd.Context(), args[0], size, func(resp *paging.Response[store.Item]) error {
					for _, it := range resp.Items {
						if err := enc.Encode(it); err != nil {
							return err
						}
					}
					count += len(resp.Items)
					return nil
				})
				if err != nil {
					return pageError(err)
				}
				logger.Info().Ctx(cmd.Context()).Str("list_id", args[0]).Int("items", count).Msg("list exported")
				return w.Flush()
			})
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "items fetched per page (default paging.max_page_size)")
	return cmd
}
