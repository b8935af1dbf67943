package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pbaille/memoir/internal/api"
	"github.com/pbaille/memoir/internal/domain"
	"github.com/pbaille/memoir/internal/importer"
	"github.com/pbaille/memoir/internal/metrics"
	"github.com/pbaille/memoir/internal/stories"
	"github.com/pbaille/memoir/internal/theme"
	"github.com/pbaille/memoir/internal/timeline"
)

func addCmd() *cobra.Command {
	var title, fromURL, fromFile string

	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a new story and classify it",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := storyContent(cmd, args, fromURL, fromFile)
			if err != nil {
				return err
			}

			return withService(func(svc *stories.Service) error {
				st, err := svc.Create(title, content)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Added story: %s\n", shortID(st.ID))
				fmt.Fprintf(out, "Content: %s\n", truncate(st.Content, 80))
				printClassification(cmd, st)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "story title")
	cmd.Flags().StringVar(&fromURL, "url", "", "import the story text from a web page")
	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "read the story from a text or HTML file")
	return cmd
}

func storyContent(cmd *cobra.Command, args []string, fromURL, fromFile string) (string, error) {
	switch {
	case fromURL != "":
		return importer.FetchText(cmd.Context(), nil, fromURL)
	case fromFile != "":
		f, err := os.Open(fromFile)
		if err != nil {
			return "", fmt.Errorf("open story file: %w", err)
		}
		defer f.Close()

		switch strings.ToLower(filepath.Ext(fromFile)) {
		case ".html", ".htm":
			return importer.ReadText(f)
		}
		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("read story file: %w", err)
		}
		return string(data), nil
	case len(args) == 1 && importer.IsURL(args[0]):
		return importer.FetchText(cmd.Context(), nil, args[0])
	default:
		return readText(cmd, args)
	}
}

func printClassification(cmd *cobra.Command, st *domain.Story) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Chapter:   %s (%.0f%%)\n", theme.Chapter(st.Chapter).Title(), st.Confidence*100)
	fmt.Fprintf(out, "Sentiment: %s (%+.2f)\n", st.Sentiment, st.SentimentScore)
	if len(st.Tags) > 0 {
		fmt.Fprintf(out, "Tags:      %s\n", strings.Join(st.Tags, ", "))
	}
}

func listCmd() *cobra.Command {
	var limit int
	var chapter string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent stories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *stories.Service) error {
				list, err := svc.List(limit, 0, chapter)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No stories yet. Use 'memoir add' to create one.")
					return nil
				}

				for _, st := range list {
					fmt.Fprintf(out, "%s  %-26s  %s\n", shortID(st.ID), st.Chapter, truncate(label(st), 50))
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of stories to show")
	cmd.Flags().StringVarP(&chapter, "chapter", "c", "", "only show one chapter")
	return cmd
}

func label(st domain.Story) string {
	if st.Title != "" {
		return st.Title
	}
	return st.Content
}

func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show story details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *stories.Service) error {
				st, err := svc.Get(args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:        %s\n", st.ID)
				if st.Title != "" {
					fmt.Fprintf(out, "Title:     %s\n", st.Title)
				}
				fmt.Fprintf(out, "Created:   %s\n", st.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				printClassification(cmd, st)
				fmt.Fprintf(out, "\n%s\n", st.Content)
				return nil
			})
		},
	}
}

func updateCmd() *cobra.Command {
	var title, content string
	var reclassify bool

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Edit a story, optionally reclassifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in stories.UpdateInput
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("content") {
				in.Content = &content
			}
			in.Reclassify = reclassify

			return withService(func(svc *stories.Service) error {
				st, err := svc.Update(args[0], in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated story: %s\n", shortID(st.ID))
				printClassification(cmd, st)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().BoolVarP(&reclassify, "reclassify", "r", false, "recompute chapter, sentiment and tags")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *stories.Service) error {
				if err := svc.Delete(args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
				return nil
			})
		},
	}
}

func tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List all tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *stories.Service) error {
				tags, err := svc.Tags()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(tags) == 0 {
					fmt.Fprintln(out, "No tags yet. Tags emerge from story classification.")
					return nil
				}
				for _, t := range tags {
					fmt.Fprintf(out, "%4d  %s\n", t.Stories, t.Name)
				}
				return nil
			})
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search stories",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *stories.Service) error {
				found, err := svc.Search(args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(found) == 0 {
					fmt.Fprintln(out, "No matching stories found.")
					return nil
				}
				for _, st := range found {
					fmt.Fprintf(out, "%s  %s\n", shortID(st.ID), truncate(label(st), 60))
				}
				return nil
			})
		},
	}
}

func reclassifyCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Recompute the classification of every story",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Workers
			}
			return withService(func(svc *stories.Service) error {
				changed, err := svc.ReclassifyAll(cmd.Context(), workers)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reclassified; %d stories changed chapter.\n", changed)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "parallel classifiers")
	return cmd
}

func timelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "timeline",
		Short: "Show stories grouped by decade",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(svc *stories.Service) error {
				groups, err := svc.Timeline()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(groups) == 0 {
					fmt.Fprintln(out, "No stories yet.")
					return nil
				}
				for _, g := range groups {
					fmt.Fprintf(out, "%s\n", g.Label)
					for _, e := range g.Entries {
						era := e.Period.Era
						if g.Label == timeline.Undated {
							era = "-"
						}
						fmt.Fprintf(out, "  %s  %-12s  %s\n", shortID(e.Story.ID), era, truncate(label(e.Story), 50))
					}
				}
				return nil
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Addr
			}

			s, err := getStore()
			if err != nil {
				return err
			}
			defer s.Close()

			rec := metrics.New(s, logger)
			svc := stories.New(s, logger, rec)
			server := api.New(svc, rec, logger, addr, cfg.BirthYear)
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "server address")
	return cmd
}
