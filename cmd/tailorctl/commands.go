package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dgallion1/resumetailor/internal/parser"
	"github.com/dgallion1/resumetailor/internal/rewrite"
	"github.com/dgallion1/resumetailor/internal/segment"
	"github.com/spf13/cobra"
)

type options struct {
	classifierConfig string
	pdftotext        bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "tailorctl",
		Short:         "Classify and rewrite resume documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.classifierConfig, "classifier-config", os.Getenv("CLASSIFIER_CONFIG"), "YAML file with section title vocabulary")
	root.PersistentFlags().BoolVar(&opts.pdftotext, "pdftotext", true, "fall back to pdftotext for PDFs the Go reader cannot parse")

	root.AddCommand(newSectionsCmd(opts), newRebuildCmd(opts))
	return root
}

func (o *options) classifier() (*segment.Classifier, error) {
	cfg := segment.DefaultConfig()
	if o.classifierConfig != "" {
		var err error
		if cfg, err = segment.LoadConfig(o.classifierConfig); err != nil {
			return nil, err
		}
	}
	return segment.New(cfg)
}

func newSectionsCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "sections <file>",
		Short: "Print the category of every paragraph",
		Long:  `Parses a .docx, .pdf, .md, .html or .txt resume and labels each paragraph as empty, header, heading or content.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.classifier()
			if err != nil {
				return err
			}
			path := args[0]
			p, err := parser.ForFile(path, parser.Options{PDFFallbackPdftotext: opts.pdftotext})
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			doc, err := p.Parse(f, filepath.Base(path))
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			sections := c.Sections(doc.Paragraphs)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"sections": sections})
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "INDEX\tTYPE\tTEXT")
			for _, s := range sections {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Index, s.Type, s.Text)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print sections as JSON")
	return cmd
}

func newRebuildCmd(opts *options) *cobra.Command {
	var editsPath, outPath string
	cmd := &cobra.Command{
		Use:   "rebuild <file.docx>",
		Short: "Replace paragraph text in a .docx while keeping its formatting",
		Long: `Reads replacements from a JSON file shaped like [{"index":3,"new_text":"..."}]
and writes the rewritten document. Indices outside the document are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !parser.IsRewritable(args[0]) {
				return fmt.Errorf("only .docx files can be rebuilt: %s", args[0])
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(editsPath)
			if err != nil {
				return err
			}
			var edits []rewrite.Edit
			if err := json.Unmarshal(raw, &edits); err != nil {
				return fmt.Errorf("parse %s: %w", editsPath, err)
			}

			f, err := parser.OpenDOCX(data)
			if err != nil {
				return err
			}
			rewritten, report := rewrite.Apply(f.Paragraphs(), rewrite.EditMap(edits))
			for _, o := range report.Applied {
				if o.ColorErr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: paragraph %d: color not reapplied: %v\n", o.Index, o.ColorErr)
				}
				if err := f.Commit(o.Index, rewritten[o.Index]); err != nil {
					return err
				}
			}

			var buf bytes.Buffer
			if err := f.Save(&buf); err != nil {
				return err
			}
			if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d replaced, %d skipped)\n", outPath, len(report.Applied), len(report.Skipped))
			return nil
		},
	}
	cmd.Flags().StringVar(&editsPath, "edits", "", "JSON file with replacements")
	cmd.Flags().StringVar(&outPath, "out", "tailored_resume.docx", "output path")
	_ = cmd.MarkFlagRequired("edits")
	return cmd
}
