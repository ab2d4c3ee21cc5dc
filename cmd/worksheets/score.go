package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mind-engage/worksheets/internal/grading"
)

func newScoreCmd() *cobra.Command {
	var (
		markupPath  string
		answers     []string
		answersFile string
		maxBytes    int
		showItems   bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score answers against worksheet markup and print the JSON result",
		Long: `Score answers against the data-answer attributes of worksheet markup.

Answers are given positionally, either as a comma separated list
(--answers 7,tuesday,"B, C, A" quoted CSV-style for answers that contain
commas) or one per line in --answers-file. Use "-" to read markup from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if markupPath == "" {
				return errors.New("--markup is required")
			}
			markup, err := readSource(cmd, markupPath)
			if err != nil {
				return fmt.Errorf("read markup: %w", err)
			}
			if answersFile != "" {
				if answers, err = readLines(answersFile); err != nil {
					return fmt.Errorf("read answers: %w", err)
				}
			}

			engine := grading.NewEngine(grading.WithMaxMarkupBytes(maxBytes))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if showItems {
				items, err := engine.Extract(markup)
				if err != nil {
					return err
				}
				return enc.Encode(items)
			}
			res, err := engine.Score(markup, answers)
			if err != nil {
				return err
			}
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringVar(&markupPath, "markup", "", "worksheet HTML file, or - for stdin")
	cmd.Flags().StringSliceVar(&answers, "answers", nil, "answers in item order, comma separated")
	cmd.Flags().StringVar(&answersFile, "answers-file", "", "file with one answer per line")
	cmd.Flags().IntVar(&maxBytes, "max-bytes", grading.DefaultMaxMarkupBytes, "reject markup larger than this")
	cmd.Flags().BoolVar(&showItems, "items", false, "print the extracted answer key instead of scoring")
	cmd.MarkFlagsMutuallyExclusive("answers", "answers-file")
	return cmd
}

func readSource(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

// readLines keeps blank lines: an empty line is an unanswered item.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, strings.TrimRight(sc.Text(), "\r"))
	}
	return out, sc.Err()
}
