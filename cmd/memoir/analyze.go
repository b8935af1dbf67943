package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/memoir/internal/dates"
	"github.com/pbaille/memoir/internal/theme"
)

func classifyCmd() *cobra.Command {
	var (
		asJSON  bool
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify text without storing it (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			res := theme.Classify(text)
			score := theme.SentimentScore(text)
			top := theme.ExtractTags(text, theme.DefaultMaxTags)

			var matched map[theme.Chapter][]string
			if explain {
				matched = make(map[theme.Chapter][]string)
				for _, ch := range theme.Chapters() {
					if words := theme.Matched(text, ch); len(words) > 0 {
						matched[ch] = words
					}
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					theme.Result
					SentimentScore float64                    `json:"sentiment_score"`
					TopTags        []string                   `json:"top_tags"`
					Matched        map[theme.Chapter][]string `json:"matched,omitempty"`
				}{res, score, top, matched})
			}

			fmt.Fprintf(out, "Chapter:    %s (%s)\n", res.Chapter.Title(), res.Chapter)
			fmt.Fprintf(out, "Confidence: %.2f\n", res.Confidence)
			fmt.Fprintf(out, "Sentiment:  %s (%+.2f)\n", res.Sentiment, score)
			fmt.Fprintf(out, "Tags:       %s\n", strings.Join(res.Tags, ", "))
			fmt.Fprintf(out, "Top tags:   %s\n", strings.Join(top, ", "))
			fmt.Fprintln(out, "Scores:")
			for _, ch := range theme.Chapters() {
				fmt.Fprintf(out, "  %-28s %d\n", ch, res.Scores[ch])
			}
			if explain {
				fmt.Fprintln(out, "Matched keywords:")
				for _, ch := range theme.Chapters() {
					words, ok := matched[ch]
					if !ok {
						continue
					}
					fmt.Fprintf(out, "  %-28s %s (%d of %d keywords)\n",
						ch, strings.Join(words, ", "), len(words), len(theme.Keywords(ch)))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&explain, "explain", false, "show which keywords each chapter matched")
	return cmd
}

func datesCmd() *cobra.Command {
	var birthYear int

	cmd := &cobra.Command{
		Use:   "dates [text]",
		Short: "List the dates and eras mentioned in text",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("birth-year") {
				birthYear = cfg.BirthYear
			}

			out := cmd.OutOrStdout()
			found := dates.Extract(text, birthYear)
			if len(found) == 0 {
				fmt.Fprintln(out, "No dates found.")
				return nil
			}
			for _, d := range found {
				fmt.Fprintf(out, "%-16s %-6s %-8s %s\n", describe(d), d.Confidence, d.Raw, d.Context)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&birthYear, "birth-year", 0, "resolve \"when I was N\" against this year")
	return cmd
}

func describe(d dates.Date) string {
	switch {
	case d.Month != 0:
		return fmt.Sprintf("%d-%02d", d.Year, d.Month)
	case d.Year != 0:
		return fmt.Sprintf("%d", d.Year)
	default:
		return fmt.Sprintf("%ds", d.Decade)
	}
}

func periodCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "period [text]",
		Short: "Estimate the period a text covers",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, args)
			if err != nil {
				return err
			}

			p := dates.EstimatePeriod(text)
			out := cmd.OutOrStdout()
			if p.IsZero() {
				fmt.Fprintln(out, "undated")
				return nil
			}
			fmt.Fprintf(out, "%s (%d-%d)\n", p.Era, p.Start, p.End)
			return nil
		},
	}
}
