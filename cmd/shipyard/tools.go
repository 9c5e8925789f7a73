package main

import (
	"context"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/shipyard/internal/auth"
	"github.com/haasonsaas/shipyard/internal/config"
	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/scheduler"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools"
)

func buildToolsCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the registered tool catalog",
		Long: `List every registered tool with its category, risk level and
approval requirement. This is the same catalog the server advertises to the
language model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := catalog()

			defs := registry.All()
			if category != "" {
				defs = registry.ByCategory(tool.Category(category))
			}
			sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCATEGORY\tRISK\tAPPROVAL")
			for _, def := range defs {
				approval := "auto"
				if def.RequiresApproval {
					approval = "required"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", def.Name, def.Category, def.Risk, approval)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Only list tools in this category")

	return cmd
}

// catalog assembles a registry over empty in-memory services, enough to
// describe every tool without touching external systems.
func catalog() *tool.Registry {
	entities := domain.NewMemoryStore()
	svc := &domain.Services{
		Orgs: entities, Projects: entities, Apps: entities,
		Databases: entities, Backups: entities, Mounts: entities,
		Credentials: entities, Schedules: entities, Servers: entities,
		Deployments: entities,
	}
	registry := tool.NewRegistry()
	tools.RegisterAll(registry, svc, noopScheduler{}, config.StripeConfig{})
	return registry
}

type noopScheduler struct{}

func (noopScheduler) Create(ctx context.Context, s *domain.Schedule) error { return nil }
func (noopScheduler) Update(ctx context.Context, s *domain.Schedule) error { return nil }
func (noopScheduler) Remove(ctx context.Context, scheduleID string) error  { return nil }
func (noopScheduler) Run(ctx context.Context, scheduleID string) error     { return nil }

var _ scheduler.Scheduler = noopScheduler{}

func buildTokenCmd() *cobra.Command {
	var (
		userID string
		orgID  string
		email  string
		secret string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a session token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := config.Load("")
				if err != nil {
					return err
				}
				secret = cfg.AuthSecret
			}
			if secret == "" {
				return fmt.Errorf("no signing secret: set AUTH_SECRET or pass --secret")
			}

			svc := auth.NewService(secret, sessionExpiry)
			token, err := svc.Generate(auth.Session{
				UserID:         userID,
				OrganizationID: orgID,
				Email:          email,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User id for the token subject")
	cmd.Flags().StringVar(&orgID, "org", "", "Organization id for the token scope")
	cmd.Flags().StringVar(&email, "email", "", "Optional email claim")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to AUTH_SECRET)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}
