package main

import (
	"fmt"

	"github.com/TylerBrock/colorjson"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

func previewCmd() *cobra.Command {
	var (
		source string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Extract and transform without loading, printing the resulting rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipe, err := newPipeline()
			if err != nil {
				return err
			}
			if _, err := pipe.Extract(source); err != nil {
				return err
			}
			table, err := pipe.Transform(nil)
			if err != nil {
				return err
			}

			rows := table.Rows()
			if limit > 0 && limit < len(rows) {
				rows = rows[:limit]
			}
			body, err := sonic.Marshal(rows)
			if err != nil {
				return fmt.Errorf("failed to encode rows: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON(body)))
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "GPX file or directory to extract (overrides the configured location)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of rows to print (0 prints all)")
	return cmd
}

// prettyJSON re-renders body with colorized indentation when it parses,
// falling back to the raw bytes.
func prettyJSON(body []byte) []byte {
	var obj any
	if err := sonic.Unmarshal(body, &obj); err != nil {
		return body
	}
	f := colorjson.NewFormatter()
	f.Indent = 2
	pretty, err := f.Marshal(obj)
	if err != nil {
		return body
	}
	return pretty
}
