// Command admin provides operator utilities for Careline: bootstrapping the
// first admin, issuing invitations from the shell, the expiry sweep and
// schema migration.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"careline/internal/auth"
	"careline/internal/cache"
	"careline/internal/config"
	"careline/internal/database"
	"careline/internal/models"
	"careline/internal/repository"
	"careline/internal/service"
	"careline/internal/validation"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env is built lazily by the subcommands that need the database.
type env struct {
	cfg *config.Config
	db  *gorm.DB
}

func connect() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:          "admin",
		Short:        "Careline operator utilities",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(createAdminCmd())
	rootCmd.AddCommand(inviteCmd())
	rootCmd.AddCommand(listRequestsCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func createAdminCmd() *cobra.Command {
	var reg service.Registration
	var email string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an ADMIN account directly",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			accounts := repository.NewAccountRepository(e.db, cache.New(nil))
			svc := service.NewAccountService(accounts, auth.NewBcryptHasher(), auth.NewTokenIssuer(e.cfg.JWTSecret))

			account, err := svc.BootstrapAdmin(cmd.Context(), email, reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %q (id %d)\n", account.Username, account.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&email, "email", "", "admin email")
	f.StringVar(&reg.Username, "username", "", "login handle")
	f.StringVar(&reg.Password, "password", "", "initial password")
	f.StringVar(&reg.FirstName, "first-name", "", "given name")
	f.StringVar(&reg.LastName, "last-name", "", "family name")
	for _, name := range []string{"email", "username", "password", "first-name", "last-name"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func inviteCmd() *cobra.Command {
	var adminUsername, email, role string

	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Issue an invitation on behalf of an admin and print the registration link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			accounts := repository.NewAccountRepository(e.db, cache.New(nil))
			admin, err := accounts.GetByUsername(ctx, validation.NormalizeUsername(adminUsername))
			if err != nil {
				return err
			}
			if admin == nil {
				return fmt.Errorf("no account named %q", adminUsername)
			}

			svc := service.NewInvitationService(repository.NewInvitationRepository(e.db), accounts,
				auth.NewBcryptHasher(), service.NoopNotifier{}, service.LifecycleConfigFrom(e.cfg))
			inv, err := svc.CreateInvitation(ctx, admin.ID, email, role)
			if err != nil {
				return err
			}

			link := strings.TrimRight(e.cfg.PublicBaseURL, "/") + "/register?token=" + url.QueryEscape(inv.Token)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Invitation for %s as %s, expires %s\n", inv.Email, inv.Role, inv.ExpiresAt.Format(time.RFC3339))
			fmt.Fprintln(out, link)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&adminUsername, "admin", "", "username of the inviting admin")
	f.StringVar(&email, "email", "", "invitee email")
	f.StringVar(&role, "role", "", "ADMIN, CAREGIVER or RESIDENT")
	for _, name := range []string{"admin", "email", "role"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func listRequestsCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list-requests",
		Short: "List self-service account requests",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			reqs, err := repository.NewAccountRequestRepository(e.db).
				List(cmd.Context(), models.AccountRequestStatus(strings.ToUpper(status)), limit, 0)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tEMAIL\tNAME\tROLE\tSTATUS\tEXPIRES")
			for _, r := range reqs {
				fmt.Fprintf(w, "%d\t%s\t%s %s\t%s\t%s\t%s\n",
					r.ID, r.Email, r.FirstName, r.LastName, r.Role, r.Status, r.ExpiresAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum rows")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark every lapsed invitation and account request EXPIRED",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := connect()
			if err != nil {
				return err
			}
			sweeper := service.NewSweeper(repository.NewInvitationRepository(e.db),
				repository.NewAccountRequestRepository(e.db), service.LifecycleConfigFrom(e.cfg))

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			res, err := sweeper.SweepExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d invitations and %d account requests\n", res.Invitations, res.AccountRequests)
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema to the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			// Connect already migrates outside production.
			db, err := gorm.Open(database.Dialector(cfg), &gorm.Config{})
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
