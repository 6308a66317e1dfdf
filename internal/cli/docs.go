package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"school-schedule/internal/docs"
	"school-schedule/internal/format"
)

type topicsOut struct {
	Topics []string `json:"topics"`
}

func (t topicsOut) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(t.Topics))
	for _, s := range t.Topics {
		rows = append(rows, []string{s})
	}
	return []string{"TOPIC"}, rows
}

type topicOut struct {
	Topic    string `json:"topic"`
	Markdown string `json:"markdown"`
}

func newDocsCmd(app *App) *cobra.Command {
	var raw bool
	var width int

	cmd := &cobra.Command{
		Use:   "docs [topic]",
		Short: "Show help topics (items, exceptions, summary, images, config)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return writeOut(cmd, app, topicsOut{Topics: docs.Topics()})
			}

			topic := args[0]
			body, ok := docs.Get(topic)
			if !ok {
				return writeErr(cmd, fmt.Errorf("unknown docs topic: %q (run `school-schedule docs` to list topics)", topic))
			}

			switch {
			case raw:
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			case app.Format == "md":
				_, err := fmt.Fprintln(cmd.OutOrStdout(), format.RenderMarkdown(body, markdownStyle(), width))
				return err
			}
			return writeOut(cmd, app, topicOut{Topic: topic, Markdown: body})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw markdown (no envelope)")
	cmd.Flags().IntVar(&width, "width", 80, "Wrap width for --format md")
	return cmd
}
