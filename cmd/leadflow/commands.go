package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"leadflow/internal/client"
	"leadflow/internal/model"
	"leadflow/internal/service"

	"github.com/spf13/cobra"
)

func newLeadsCmd() *cobra.Command {
	var filter model.LeadFilter

	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List leads, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			leads, err := c.ListLeads(cmd.Context(), filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tWHATSAPP\tCOHORT\tVARIANT\tSTAGE\tAPPROVAL")
			for _, l := range leads {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					l.ID, l.Name, l.WhatsApp, l.Cohort, l.MessageVariant, l.Stage, l.ApprovalStatus)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&filter.Cohort, "cohort", "", "filter by cohort")
	cmd.Flags().StringVar(&filter.Stage, "stage", "", "filter by exact stage")
	cmd.Flags().StringVar(&filter.ApprovalStatus, "approval", "", "filter by approval status")
	cmd.Flags().StringVar(&filter.Search, "search", "", "substring match on name")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "max rows (0 = server default)")

	approveCmd := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve an interested lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lead, err := newAPIClient().Approve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Lead %s aprovado (%s)\n", lead.ID, lead.Stage)
			return nil
		},
	}

	rejectCmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an interested lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lead, err := newAPIClient().Reject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Lead %s reprovado (%s)\n", lead.ID, lead.Stage)
			return nil
		},
	}

	cmd.AddCommand(approveCmd, rejectCmd)
	return cmd
}

func newImportCmd() *cobra.Command {
	var kind string
	var wait bool

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import leads from a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			c := newAPIClient()
			jobID, err := c.StartImport(cmd.Context(), model.ImportKind(kind), string(data))
			if err != nil {
				return err
			}
			fmt.Printf("Import agendado: job %s\n", jobID)

			if !wait {
				return nil
			}

			job, err := c.WaitForImport(cmd.Context(), jobID, func(j model.ImportJob) {
				fmt.Printf("\r%s (%d/%d)", j.Message, j.Processed, j.Total)
			})
			fmt.Println()
			if err != nil {
				return err
			}
			fmt.Println(job.Message)
			for _, rowErr := range job.Errors {
				fmt.Printf("  erro: %s\n", rowErr.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", string(model.ImportKindBase), "import kind: base or ativados")
	cmd.Flags().BoolVar(&wait, "wait", true, "poll the job until it finishes")
	return cmd
}

func newExportCmd() *cobra.Command {
	var cohort, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download a CSV snapshot of the lead base",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, filename, err := newAPIClient().ExportCSV(cmd.Context(), model.LeadFilter{Cohort: cohort})
			if err != nil {
				return err
			}
			if out == "" {
				out = filename
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Exportado para %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&cohort, "cohort", "", "restrict export to one cohort")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default "+service.ExportFilename+")")
	return cmd
}

func newKPIsCmd() *cobra.Command {
	var cohort string

	cmd := &cobra.Command{
		Use:   "kpis",
		Short: "Show funnel KPIs and the cohort comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			report := c.LoadAll(cmd.Context(), model.LeadFilter{Cohort: cohort, Limit: -1})
			if err := report.Critical(); err != nil {
				return err
			}
			for _, source := range report.Degraded() {
				fmt.Fprintf(os.Stderr, "aviso: falha ao carregar %s\n", source)
			}

			fmt.Println(client.FormatKPILine(report.KPIs.Value))

			if report.Summaries.Ok() {
				fmt.Println()
				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "COHORT\tTOTAL\tATIVADOS\tRESPOSTAS\tINTERESSADOS\tVENDAS")
				for _, row := range client.CollapseByCohort(report.Summaries.Value) {
					fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n",
						row.Cohort, row.Total, row.Activated, row.Replied, row.Interested, row.Sold)
				}
				w.Flush()
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&cohort, "cohort", "", "restrict KPIs to one cohort")
	return cmd
}

func newVariantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variants",
		Short: "Generate and apply message variants",
	}

	var promptContext string
	generateCmd := &cobra.Command{
		Use:   "generate <cohort>",
		Short: "Ask the AI for candidate messages for a cohort",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			variants, err := newAPIClient().GenerateVariants(cmd.Context(), args[0], promptContext)
			if err != nil {
				return err
			}
			for i, v := range variants {
				fmt.Printf("%c) %s\n", 'A'+i, v)
			}
			return nil
		},
	}
	generateCmd.Flags().StringVar(&promptContext, "context", "", "extra context for the prompt")

	applyCmd := &cobra.Command{
		Use:   "apply <cohort> <letter> <message>",
		Short: "Label every lead in a cohort with a variant",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			updated, err := newAPIClient().ApplyVariant(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Printf("Variante %s aplicada a %d leads do cohort %s\n", args[1], updated, args[0])
			return nil
		},
	}

	cmd.AddCommand(generateCmd, applyCmd)
	return cmd
}

func newSeedCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create mock leads for testing dashboards",
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := newAPIClient().Seed(cmd.Context(), count)
			if err != nil {
				return err
			}
			fmt.Printf("%d leads criados\n", created)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 60, "how many leads to create")
	return cmd
}

func newHealthCmd() *cobra.Command {
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check (or wait for) server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			if wait > 0 {
				if err := c.WaitHealthy(cmd.Context(), wait); err != nil {
					return err
				}
			} else if err := c.Health(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}

	cmd.Flags().DurationVar(&wait, "wait", 0, "poll until healthy for up to this long")
	return cmd
}
