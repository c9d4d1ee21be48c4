// Package load implements a one-shot dataset inspection command.
package load

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tphakala/geopin-go/internal/conf"
	"github.com/tphakala/geopin-go/internal/dataset"
)

// Command creates the load command. It fetches a dataset, reports what it
// contains and exits; useful for validating a source before serving it.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [source]",
		Short: "Load a dataset and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(settings, args[0])
		},
	}

	return cmd
}

func runLoad(settings *conf.Settings, source string) error {
	loader := dataset.NewLoader(settings, nil)

	snapshot, err := loader.Load(context.Background(), source)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", source, err)
	}

	withCoords := 0
	byCategory := make(map[string]int)
	for _, r := range snapshot {
		if r.HasCoords {
			withCoords++
		}
		byCategory[r.Category]++
	}

	fmt.Fprintf(os.Stdout, "%d records (%d with coordinates)\n", len(snapshot), withCoords)

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		label := category
		if label == "" {
			label = "(uncategorized)"
		}
		fmt.Fprintf(os.Stdout, "  %-20s %d\n", label, byCategory[category])
	}

	return nil
}
