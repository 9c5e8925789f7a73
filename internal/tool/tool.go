// Package tool defines the tool model and the process-wide registry through
// which the language model invokes privileged platform operations.
package tool

import (
	"context"

	"github.com/haasonsaas/shipyard/pkg/models"
)

// Category groups tools for catalog advertising and lookup.
type Category string

const (
	CategoryProject     Category = "project"
	CategoryEnvironment Category = "environment"
	CategoryApplication Category = "application"
	CategoryCompose     Category = "compose"
	CategoryDatabase    Category = "database"
	CategoryPostgres    Category = "postgres"
	CategoryMySQL       Category = "mysql"
	CategoryMariaDB     Category = "mariadb"
	CategoryMongo       Category = "mongo"
	CategoryRedis       Category = "redis"
	CategoryServer      Category = "server"
	CategoryDomain      Category = "domain"
	CategoryCertificate Category = "certificate"
	CategoryBackup      Category = "backup"
	CategoryGithub      Category = "github"
	CategoryDeployment  Category = "deployment"
	CategorySettings    Category = "settings"
	CategoryUser        Category = "user"
	CategoryStripe      Category = "stripe"
)

// Context is the authorized identity a tool executes under. Every
// access-controlled entity a tool touches must be verified to belong to
// OrganizationID before any mutation.
type Context struct {
	UserID         string
	OrganizationID string
	ProjectID      string
	ServerID       string
}

// RunFunc is a tool body. Arguments have already passed schema validation.
type RunFunc func(ctx context.Context, tc Context, args Args) (*models.ToolResult, error)

// Def is a self-describing tool definition. Definitions are immutable after
// registration.
type Def struct {
	Name             string
	Description      string
	Category         Category
	Risk             models.RiskLevel
	RequiresApproval bool

	// MaxOutputChars caps command output echoed by this tool. Zero means
	// the safety default.
	MaxOutputChars int

	// Params validates raw arguments before Run is entered.
	Params *Schema

	Run RunFunc
}
