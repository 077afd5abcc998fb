package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	"github.com/noah-isme/sma-substitution-api/internal/service"
)

func today() string {
	return time.Now().Format("2006-01-02")
}

func slotsCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List lessons needing cover on a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			resp, err := svc.Slots(a.ctx(cmd), date)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ABSENT\tPERIOD\tCLASS\tSUBJECT")
			for _, s := range resp.Slots {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", s.AbsentTeacherName, s.Period, s.ClassName, s.Subject)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "Planning date (YYYY-MM-DD)")
	return cmd
}

func rankCmd(a *app) *cobra.Command {
	var (
		date    string
		teacher string
		period  int
		filter  string
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank substitute candidates for one slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			resp, err := svc.Candidates(a.ctx(cmd), date, teacher, period, filter)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "#\tTEACHER\tSTATUS\tPRIORITY\tRATIONALE")
			for i, c := range resp.Candidates {
				name := c.TeacherName
				if c.External {
					name += " (external)"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i+1, name, c.Status, c.Priority, c.Rationale)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "Planning date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&teacher, "teacher", "", "Absent teacher ID")
	cmd.Flags().IntVar(&period, "period", 0, "Period number")
	cmd.Flags().StringVar(&filter, "filter", "recommended", "recommended or all")
	_ = cmd.MarkFlagRequired("teacher")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func autoCmd(a *app) *cobra.Command {
	var (
		date string
		save bool
	)
	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Fill every open slot with the best eligible candidate",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			ctx := a.ctx(cmd)
			report, err := svc.AutoAssign(ctx, date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "assigned %d, unresolved %d, failed %d\n", len(report.Assigned), len(report.Unresolved), len(report.Failed))
			for _, f := range report.Failed {
				fmt.Fprintf(out, "  %s period %d: %s\n", f.Slot.AbsentTeacherID, f.Slot.Period, f.Message)
			}
			if !save {
				return nil
			}
			saved, err := svc.Save(ctx, date)
			if err != nil {
				return err
			}
			a.logger.Info("substitutions saved", zap.String("date", date), zap.Int("records", len(saved.Saved)))
			fmt.Fprintf(out, "saved %d substitutions for %s\n", len(saved.Saved), saved.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "Planning date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&save, "save", false, "Persist the result after assigning")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	var (
		date   string
		format string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the cover sheet for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			file, err := svc.Export(a.ctx(cmd), date, format)
			if err != nil {
				return err
			}
			if out == "" {
				out = file.Filename
			}
			if err := os.WriteFile(out, file.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(file.Body))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "Planning date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (defaults to the generated file name)")
	return cmd
}

func tokenCmd(a *app) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token for operators and scripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := models.UserRole(strings.ToUpper(role))
			switch r {
			case models.RoleSuperAdmin, models.RoleAdmin, models.RoleTeacher:
			default:
				return fmt.Errorf("unsupported role %q", role)
			}
			if a.cfg.JWT.Secret == "" {
				return fmt.Errorf("JWT_SECRET is not configured")
			}
			token, err := service.NewTokenService(a.cfg.JWT.Secret).Issue(userID, r, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Subject user ID")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "SUPERADMIN, ADMIN or TEACHER")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
