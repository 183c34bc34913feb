package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/Zachkp/folio/internal/auth"
	"github.com/Zachkp/folio/internal/content"
)

func newSeedCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE",
		Short: "Import a YAML content bundle (use - for stdin)",
		Long: `Import a YAML content bundle into the content store.

Documents keep the ids given in the bundle, so seeding the same file twice
updates documents instead of duplicating them. Missing section settings and
the profile are created with defaults first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open bundle: %w", err)
				}
				defer f.Close()
				in = f
			}
			bundle, err := content.ReadBundle(in)
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := s.repo.EnsureDefaults(cmd.Context()); err != nil {
				return fmt.Errorf("seed defaults: %w", err)
			}
			report, err := s.repo.Import(cmd.Context(), bundle)
			printReport(cmd.OutOrStdout(), report)
			if err != nil {
				return fmt.Errorf("import bundle: %w", err)
			}
			return nil
		},
	}
}

func printReport(w io.Writer, report content.ImportReport) {
	names := make([]string, 0, len(report))
	for name := range report {
		names = append(names, name)
	}
	sort.Strings(names)
	total := 0
	for _, name := range names {
		fmt.Fprintf(w, "%-14s %d\n", name, report[name])
		total += report[name]
	}
	fmt.Fprintf(w, "imported %d documents\n", total)
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all site content as a YAML bundle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			bundle, err := s.repo.Export(cmd.Context())
			if err != nil {
				return fmt.Errorf("export content: %w", err)
			}
			if output == "" || output == "-" {
				return bundle.WriteYAML(cmd.OutOrStdout())
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := bundle.WriteYAML(f); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

func newPreviewCmd(opts *globalOptions) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "preview SLUG",
		Short: "Render a blog post (drafts included) in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.close()

			post, err := s.repo.PostBySlug(cmd.Context(), args[0], true)
			if err != nil {
				if content.IsNotFound(err) {
					return fmt.Errorf("no post with slug %q", args[0])
				}
				return err
			}

			styleOpt := glamour.WithAutoStyle()
			if style != "" {
				styleOpt = glamour.WithStandardStyle(style)
			}
			renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(80))
			if err != nil {
				return fmt.Errorf("create renderer: %w", err)
			}
			out, err := renderer.Render(postMarkdown(post))
			if err != nil {
				return fmt.Errorf("render post: %w", err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&style, "style", "", "glamour style (dark, light, notty); detected from the terminal when empty")
	return cmd
}

func postMarkdown(p content.Post) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	if !p.Published {
		b.WriteString("**Draft**\n\n")
	} else if !p.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "*%s*\n\n", p.PublishedAt.Format("January 2, 2006"))
	}
	if p.Summary != "" {
		fmt.Fprintf(&b, "> %s\n\n", p.Summary)
	}
	b.WriteString(p.Body)
	b.WriteString("\n")
	return b.String()
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [PASSWORD]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Long: `Print a bcrypt hash for the admin.password_hash setting.

Without an argument the password is read from the first line of stdin, which
keeps it out of the shell history.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("password cannot be empty")
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
