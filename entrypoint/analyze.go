package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Kuljeet1998/healthcare-nlp/pipeline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "analyze [query...]",
		Short: "Analyze queries given as arguments, or one per line on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := newAnalyzer(v, time.Now)
			if err != nil {
				return err
			}
			text, err := queryText(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return analyze(cmd.OutOrStdout(), pipeline.NewPipeline(analyzer), text, pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func queryText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, "\n"), nil
	}
	var lines []string
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

func analyze(out io.Writer, ppln pipeline.Pipeline, text string, pretty bool) error {
	result, ok := <-ppln(pipeline.Request{Tid: uuid.NewString(), Text: text})
	if !ok {
		return fmt.Errorf("analysis produced no output")
	}
	if pretty {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(result), "", "  "); err != nil {
			return err
		}
		result = buf.String()
	}
	_, err := fmt.Fprintln(out, result)
	return err
}
