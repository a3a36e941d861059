package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/minwon-api/internal/dto"
	"github.com/noah-isme/minwon-api/internal/models"
	"github.com/noah-isme/minwon-api/internal/service"
	"github.com/noah-isme/minwon-api/pkg/export"
	"github.com/noah-isme/minwon-api/pkg/geocode"
)

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

const listPageSize = 100

func newListCommand() *cobra.Command {
	var category, status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored complaints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			svc := service.NewComplaintService(service.ComplaintServiceParams{Store: env.repo, Logger: env.logger, Persistent: true})
			var (
				items    []models.Complaint
				warnings []models.RowWarning
			)
			for page := 1; ; page++ {
				list, err := svc.List(ctx, dto.ComplaintListFilter{Category: category, Status: status, Page: page, PageSize: listPageSize})
				if err != nil {
					return err
				}
				items = append(items, list.Items...)
				warnings = list.Warnings
				if len(items) >= list.Pagination.TotalCount || len(list.Items) == 0 {
					break
				}
			}
			writeComplaintTable(cmd.OutOrStdout(), items)
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped row %d (%s): %s\n", w.Row, w.ID, w.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list complaints of this category")
	cmd.Flags().StringVar(&status, "status", "", "Only list complaints with this status")
	return cmd
}

func writeComplaintTable(out io.Writer, items []models.Complaint) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tCATEGORY\tSTATUS\tLIKES\tTITLE")
	for _, c := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", c.ID, c.DateString(), c.Category, c.Status, c.LikeCount, c.Title)
	}
	_ = w.Flush()
}

func newResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark a complaint as resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			if err := env.repo.MarkResolved(ctx, args[0]); err != nil {
				if errors.Is(err, models.ErrComplaintNotFound) {
					return fmt.Errorf("no complaint with id %s", args[0])
				}
				return err
			}
			env.logger.Info("complaint resolved from cli", zap.String("id", args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", args[0], models.StatusResolved)
			return nil
		},
	}
}

func newExportCommand() *cobra.Command {
	var (
		format, category, status, output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export complaints as CSV or PDF",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			complaints := service.NewComplaintService(service.ComplaintServiceParams{Store: env.repo, Logger: env.logger, Persistent: true})
			svc := service.NewExportService(complaints, service.ExportConfig{MaxRows: env.cfg.Export.MaxRows}, env.logger,
				export.NewCSVExporter(true), export.NewPDFExporter(env.cfg.Export.PDFFontPath))
			file, err := svc.Export(ctx, dto.ExportRequest{Format: dto.ExportFormat(format), Category: category, Status: status})
			if err != nil {
				return err
			}
			if output == "" {
				output = file.Filename
			}
			if err := os.WriteFile(output, file.Data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", file.Rows, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(dto.ExportFormatCSV), "csv or pdf")
	cmd.Flags().StringVar(&category, "category", "", "Only export complaints of this category")
	cmd.Flags().StringVar(&status, "status", "", "Only export complaints with this status")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path (default: generated file name)")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}

func newBackfillCommand() *cobra.Command {
	var workers, retries int
	cmd := &cobra.Command{
		Use:   "backfill-addresses",
		Short: "Resolve addresses for complaints filed while the geocoder was unavailable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			env, err := openEnv(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			if env.cfg.Geocoder.APIKey == "" {
				return fmt.Errorf("GEOCODER_API_KEY is not set")
			}
			geocoder := geocode.New(geocode.Config{
				BaseURL: env.cfg.Geocoder.BaseURL,
				APIKey:  env.cfg.Geocoder.APIKey,
				Timeout: env.cfg.Geocoder.Timeout,
			})
			svc := service.NewBackfillService(env.repo, geocoder, nil, nil, env.logger, service.BackfillConfig{
				Workers:    workers,
				MaxRetries: retries,
				RetryDelay: time.Second,
			})
			result, err := svc.BackfillAddresses(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "candidates=%d filled=%d skipped=%d failed=%d\n",
				result.Candidates, result.Filled, result.Skipped, result.Failed)
			for id, msg := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", id, msg)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Concurrent geocoder lookups")
	cmd.Flags().IntVar(&retries, "retries", 2, "Retries per complaint for transient geocoder errors")
	return cmd
}
