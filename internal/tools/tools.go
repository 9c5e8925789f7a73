// Package tools assembles the full tool catalog.
package tools

import (
	"github.com/haasonsaas/shipyard/internal/config"
	"github.com/haasonsaas/shipyard/internal/domain"
	"github.com/haasonsaas/shipyard/internal/scheduler"
	"github.com/haasonsaas/shipyard/internal/tool"
	"github.com/haasonsaas/shipyard/internal/tools/application"
	"github.com/haasonsaas/shipyard/internal/tools/backup"
	"github.com/haasonsaas/shipyard/internal/tools/compose"
	"github.com/haasonsaas/shipyard/internal/tools/database"
	"github.com/haasonsaas/shipyard/internal/tools/destination"
	"github.com/haasonsaas/shipyard/internal/tools/domaincert"
	"github.com/haasonsaas/shipyard/internal/tools/environment"
	"github.com/haasonsaas/shipyard/internal/tools/gitprovider"
	"github.com/haasonsaas/shipyard/internal/tools/mount"
	"github.com/haasonsaas/shipyard/internal/tools/notification"
	"github.com/haasonsaas/shipyard/internal/tools/org"
	"github.com/haasonsaas/shipyard/internal/tools/port"
	"github.com/haasonsaas/shipyard/internal/tools/project"
	registrytools "github.com/haasonsaas/shipyard/internal/tools/registry"
	"github.com/haasonsaas/shipyard/internal/tools/schedule"
	"github.com/haasonsaas/shipyard/internal/tools/security"
	"github.com/haasonsaas/shipyard/internal/tools/server"
	"github.com/haasonsaas/shipyard/internal/tools/settings"
	"github.com/haasonsaas/shipyard/internal/tools/sshkey"
	"github.com/haasonsaas/shipyard/internal/tools/stripe"
	"github.com/haasonsaas/shipyard/internal/tools/user"
	"github.com/haasonsaas/shipyard/internal/tools/volumebackup"
)

// RegisterAll wires every tool package into the registry.
func RegisterAll(reg *tool.Registry, svc *domain.Services, sched scheduler.Scheduler, stripeCfg config.StripeConfig) {
	project.Register(reg, svc)
	environment.Register(reg, svc)
	application.Register(reg, svc)
	compose.Register(reg, svc)
	database.Register(reg, svc)
	backup.Register(reg, svc)
	volumebackup.Register(reg, svc, sched)
	mount.Register(reg, svc)
	port.Register(reg, svc)
	domaincert.Register(reg, svc)
	destination.Register(reg, svc)
	registrytools.Register(reg, svc)
	gitprovider.Register(reg, svc)
	notification.Register(reg, svc)
	sshkey.Register(reg, svc)
	security.Register(reg, svc)
	schedule.Register(reg, svc, sched)
	server.Register(reg, svc)
	org.Register(reg, svc)
	user.Register(reg, svc)
	stripe.Register(reg, svc, stripeCfg)
	settings.Register(reg, svc)
}
