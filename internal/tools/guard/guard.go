// Package guard holds the access-control gates composed inside tool bodies:
// org membership, owner role, and resource-to-org binding checks.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/pkg/models"
)

// RequireMember loads the caller's membership row. A nil result means the
// caller may proceed.
func RequireMember(ctx context.Context, svc *domain.Services, tc tool.Context) (*domain.User, *models.ToolResult) {
	if tc.OrganizationID == "" || tc.UserID == "" {
		return nil, models.Unauthorized("Missing organization context")
	}
	member, err := svc.Orgs.GetMember(ctx, tc.OrganizationID, tc.UserID)
	if err != nil {
		return nil, models.NotFound("Organization membership not found")
	}
	return member, nil
}

// RequireOwner additionally requires the owner role.
func RequireOwner(ctx context.Context, svc *domain.Services, tc tool.Context) (*domain.User, *models.ToolResult) {
	member, res := RequireMember(ctx, svc, tc)
	if res != nil {
		return nil, res
	}
	if member.Role != domain.RoleOwner {
		return nil, models.Unauthorized("Only organization owner can perform this action")
	}
	return member, nil
}

// CheckOrg rejects entities bound to a different organization without leaking
// any of their fields.
func CheckOrg(entityOrgID string, tc tool.Context) *models.ToolResult {
	if entityOrgID != tc.OrganizationID {
		return models.Unauthorized("Resource does not belong to your organization")
	}
	return nil
}

// NotFoundResult maps service errors onto the result envelope.
func NotFoundResult(err error, what string) *models.ToolResult {
	if errors.Is(err, domain.ErrUnauthorized) {
		return models.Unauthorized("Access denied")
	}
	return models.NotFound(fmt.Sprintf("%s not found", what))
}

// ProjectOrg loads a project and verifies it belongs to the caller's org.
func ProjectOrg(ctx context.Context, svc *domain.Services, tc tool.Context, projectID string) (*domain.Project, *models.ToolResult) {
	p, err := svc.Projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, NotFoundResult(err, "Project")
	}
	if res := CheckOrg(p.OrganizationID, tc); res != nil {
		return nil, res
	}
	return p, nil
}

// EnvironmentOrg resolves an environment through its project to the owning
// organization.
func EnvironmentOrg(ctx context.Context, svc *domain.Services, tc tool.Context, environmentID string) (*domain.Environment, *models.ToolResult) {
	env, err := svc.Projects.GetEnvironment(ctx, environmentID)
	if err != nil {
		return nil, NotFoundResult(err, "Environment")
	}
	if _, res := ProjectOrg(ctx, svc, tc, env.ProjectID); res != nil {
		return nil, res
	}
	return env, nil
}

// ApplicationOrg resolves an application through its environment chain.
func ApplicationOrg(ctx context.Context, svc *domain.Services, tc tool.Context, applicationID string) (*domain.Application, *models.ToolResult) {
	app, err := svc.Apps.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, NotFoundResult(err, "Application")
	}
	if _, res := EnvironmentOrg(ctx, svc, tc, app.EnvironmentID); res != nil {
		return nil, res
	}
	return app, nil
}

// ComposeOrg resolves a compose service through its environment chain.
func ComposeOrg(ctx context.Context, svc *domain.Services, tc tool.Context, composeID string) (*domain.Compose, *models.ToolResult) {
	c, err := svc.Apps.GetCompose(ctx, composeID)
	if err != nil {
		return nil, NotFoundResult(err, "Compose service")
	}
	if _, res := EnvironmentOrg(ctx, svc, tc, c.EnvironmentID); res != nil {
		return nil, res
	}
	return c, nil
}

// DatabaseOrg resolves a managed database through its environment chain.
func DatabaseOrg(ctx context.Context, svc *domain.Services, tc tool.Context, databaseID string) (*domain.Database, *models.ToolResult) {
	db, err := svc.Databases.GetDatabase(ctx, databaseID)
	if err != nil {
		return nil, NotFoundResult(err, "Database")
	}
	if _, res := EnvironmentOrg(ctx, svc, tc, db.EnvironmentID); res != nil {
		return nil, res
	}
	return db, nil
}

// ServiceOrg resolves a (serviceType, serviceId) pair used by mounts,
// volume backups and schedules.
func ServiceOrg(ctx context.Context, svc *domain.Services, tc tool.Context, serviceType, serviceID string) *models.ToolResult {
	switch serviceType {
	case "application":
		_, res := ApplicationOrg(ctx, svc, tc, serviceID)
		return res
	case "compose":
		_, res := ComposeOrg(ctx, svc, tc, serviceID)
		return res
	case "postgres", "mysql", "mariadb", "mongo", "redis", "database":
		_, res := DatabaseOrg(ctx, svc, tc, serviceID)
		return res
	default:
		return models.Fail("Unknown service type: "+serviceType, models.ErrCodeBadRequest)
	}
}

// ServerOrg loads a server and verifies ownership.
func ServerOrg(ctx context.Context, svc *domain.Services, tc tool.Context, serverID string) (*domain.Server, *models.ToolResult) {
	s, err := svc.Servers.GetServer(ctx, serverID)
	if err != nil {
		return nil, NotFoundResult(err, "Server")
	}
	if res := CheckOrg(s.OrganizationID, tc); res != nil {
		return nil, res
	}
	return s, nil
}
