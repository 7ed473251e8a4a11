package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/aretw0/mrt/pkg/adapters/file"
	"github.com/aretw0/mrt/pkg/ports"
)

// ListSessions prints every stored session with its progress.
func ListSessions(ctx context.Context, store ports.StateStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No stored sessions.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tIDENTITY\tBLOCK\tPHASE\tRECORDS")
	for _, id := range ids {
		s, err := store.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("session %s: %w", id, err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", id, s.Identity.SeedKey(), s.Block, s.Phase, len(s.Records))
	}
	return tw.Flush()
}

// ExportSession writes the records of a stored session to path and returns
// the path written. An empty path picks the default export name in format.
func ExportSession(ctx context.Context, store ports.StateStore, sessionID, path, format string) (string, error) {
	s, err := store.Load(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if path == "" {
		if format == "" {
			format = "csv"
		}
		path = file.ExportName(s, format)
	}
	if err := file.Export(path, s.Records); err != nil {
		return "", err
	}
	return path, nil
}
