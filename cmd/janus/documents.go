package main

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/janus-erp/janus/internal/documents"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// documentFile is the YAML (or JSON) accepted by "janus totals".
type documentFile struct {
	Type      documents.Type       `yaml:"type"`
	Items     []documents.RawItem  `yaml:"items"`
	OtherFees *documents.OtherFees `yaml:"other_fees"`

	// Payments only.
	AmountReceived float64                        `yaml:"amount_received"`
	Invoices       []documents.OutstandingInvoice `yaml:"invoices"`
}

func newTotalsCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Compute the totals of a sales document",
		Long: `Reads a document from a YAML or JSON file ("-" for stdin) and prints its
subtotal, tax, other fees, total and balance due. Payment documents print
how the amount received is applied to the selected invoices.

Example file:
  type: invoice
  items:
    - description: Steel rods
      quantity: 2
      unit_price: 10
      tax_percent: 10
  other_fees:
    description: Shipping
    amount: 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := a.readDocument(file)
			if err != nil {
				return err
			}
			return writeTotals(a.out, doc)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "document file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) readDocument(path string) (documentFile, error) {
	var r io.Reader = a.in
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return documentFile{}, err
		}
		defer f.Close()
		r = f
	}
	var doc documentFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return documentFile{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if doc.Type == "" {
		doc.Type = documents.TypeInvoice
	}
	if !doc.Type.Valid() {
		return documentFile{}, fmt.Errorf("unknown document type %q", doc.Type)
	}
	return doc, nil
}

func writeTotals(w io.Writer, doc documentFile) error {
	if doc.Type == documents.TypePayment {
		s := documents.ApplyPayment(doc.AmountReceived, doc.Invoices)
		fmt.Fprintf(w, "%-18s %12s\n", "Amount received", documents.FormatCurrency(s.AmountReceived))
		fmt.Fprintf(w, "%-18s %12s\n", "Amount to apply", documents.FormatCurrency(s.AmountToApply))
		fmt.Fprintf(w, "%-18s %12s\n", "Amount to credit", documents.FormatCurrency(s.AmountToCredit))
		return nil
	}
	items, err := documents.NewItems(doc.Items)
	if err != nil {
		return err
	}
	f := documents.Compute(items, doc.OtherFees, doc.Type).Format()
	fees := "Other fees"
	if doc.OtherFees != nil && doc.OtherFees.Description != "" {
		fees = doc.OtherFees.Description
	}
	for _, row := range [][2]string{
		{"Subtotal", f.Subtotal},
		{"Tax", f.Tax},
		{fees, f.OtherFees},
		{"Total", f.Total},
		{f.BalanceDueLabel, f.BalanceDue},
	} {
		fmt.Fprintf(w, "%-18s %12s\n", row[0], row[1])
	}
	return nil
}

func newDueDateCmd(a *app) *cobra.Command {
	var date, terms string
	cmd := &cobra.Command{
		Use:   "due-date",
		Short: "Compute an invoice due date from its payment terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := time.Now()
			if date != "" {
				var err error
				if d, err = time.Parse(time.DateOnly, date); err != nil {
					return fmt.Errorf("invalid --date %q, want YYYY-MM-DD", date)
				}
			}
			if !documents.KnownTerms(terms) {
				return fmt.Errorf("unknown terms %q (one of: %s)", terms, strings.Join(documents.Terms(), ", "))
			}
			fmt.Fprintln(a.out, documents.CalculateDueDate(d, terms).Format(time.DateOnly))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "invoice date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&terms, "terms", documents.TermsNet30, "payment terms")
	return cmd
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
