package domain

import (
	"context"
	"errors"
)

// Sentinel errors returned by services. Tools map them onto the result
// envelope's error codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// OrgService resolves organizations and membership.
type OrgService interface {
	GetOrganization(ctx context.Context, orgID string) (*Organization, error)
	GetMember(ctx context.Context, orgID, userID string) (*User, error)
	ListMembers(ctx context.Context, orgID string) ([]*User, error)
	UpdateBindMountAllowlist(ctx context.Context, orgID string, prefixes []string) (*Organization, error)
}

// ProjectService owns projects and their environments.
type ProjectService interface {
	ListProjects(ctx context.Context, orgID string) ([]*Project, error)
	GetProject(ctx context.Context, projectID string) (*Project, error)
	CreateProject(ctx context.Context, p *Project) (*Project, error)
	UpdateProject(ctx context.Context, p *Project) (*Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	ListEnvironments(ctx context.Context, projectID string) ([]*Environment, error)
	GetEnvironment(ctx context.Context, environmentID string) (*Environment, error)
	CreateEnvironment(ctx context.Context, e *Environment) (*Environment, error)
	DeleteEnvironment(ctx context.Context, environmentID string) error
}

// AppService owns applications, compose services, their ports, domains and
// security records.
type AppService interface {
	ListApplications(ctx context.Context, environmentID string) ([]*Application, error)
	GetApplication(ctx context.Context, applicationID string) (*Application, error)
	CreateApplication(ctx context.Context, a *Application) (*Application, error)
	UpdateApplication(ctx context.Context, a *Application) (*Application, error)
	DeleteApplication(ctx context.Context, applicationID string) error

	ListComposes(ctx context.Context, environmentID string) ([]*Compose, error)
	GetCompose(ctx context.Context, composeID string) (*Compose, error)
	CreateCompose(ctx context.Context, c *Compose) (*Compose, error)
	DeleteCompose(ctx context.Context, composeID string) error

	ListPorts(ctx context.Context, applicationID string) ([]*Port, error)
	CreatePort(ctx context.Context, p *Port) (*Port, error)
	DeletePort(ctx context.Context, portID string) error

	ListDomains(ctx context.Context, applicationID string) ([]*DomainRecord, error)
	CreateDomain(ctx context.Context, d *DomainRecord) (*DomainRecord, error)
	DeleteDomain(ctx context.Context, domainID string) error
	ListCertificates(ctx context.Context, orgID string) ([]*Certificate, error)

	ListSecurity(ctx context.Context, applicationID string) ([]*SecurityRecord, error)
	GetSecurity(ctx context.Context, securityID string) (*SecurityRecord, error)
	DeleteSecurity(ctx context.Context, securityID string) error
}

// DatabaseService owns managed database records across every engine.
type DatabaseService interface {
	ListDatabases(ctx context.Context, environmentID string, engine Engine) ([]*Database, error)
	GetDatabase(ctx context.Context, databaseID string) (*Database, error)
	CreateDatabase(ctx context.Context, d *Database) (*Database, error)
	UpdateDatabaseStatus(ctx context.Context, databaseID string, status ServiceStatus) error
	DeleteDatabase(ctx context.Context, databaseID string) error
}

// BackupService owns database backups and volume backups.
type BackupService interface {
	ListBackups(ctx context.Context, databaseID string) ([]*Backup, error)
	GetBackup(ctx context.Context, backupID string) (*Backup, error)
	CreateBackup(ctx context.Context, b *Backup) (*Backup, error)
	DeleteBackup(ctx context.Context, backupID string) error

	ListVolumeBackups(ctx context.Context, serviceID string) ([]*VolumeBackup, error)
	GetVolumeBackup(ctx context.Context, volumeBackupID string) (*VolumeBackup, error)
	CreateVolumeBackup(ctx context.Context, v *VolumeBackup) (*VolumeBackup, error)
	DeleteVolumeBackup(ctx context.Context, volumeBackupID string) error
}

// MountService owns service mounts.
type MountService interface {
	ListMounts(ctx context.Context, serviceID string) ([]*Mount, error)
	GetMount(ctx context.Context, mountID string) (*Mount, error)
	CreateMount(ctx context.Context, m *Mount) (*Mount, error)
	DeleteMount(ctx context.Context, mountID string) error
}

// CredentialService owns the secret-bearing side resources.
type CredentialService interface {
	ListDestinations(ctx context.Context, orgID string) ([]*Destination, error)
	GetDestination(ctx context.Context, destinationID string) (*Destination, error)
	CreateDestination(ctx context.Context, d *Destination) (*Destination, error)
	DeleteDestination(ctx context.Context, destinationID string) error

	ListRegistries(ctx context.Context, orgID string) ([]*Registry, error)
	CreateRegistry(ctx context.Context, r *Registry) (*Registry, error)
	DeleteRegistry(ctx context.Context, registryID string) error

	ListGitProviders(ctx context.Context, orgID string) ([]*GitProvider, error)
	DeleteGitProvider(ctx context.Context, gitProviderID string) error

	ListNotifications(ctx context.Context, orgID string) ([]*Notification, error)
	GetNotification(ctx context.Context, notificationID string) (*Notification, error)
	CreateNotification(ctx context.Context, n *Notification) (*Notification, error)
	DeleteNotification(ctx context.Context, notificationID string) error

	ListSSHKeys(ctx context.Context, orgID string) ([]*SSHKey, error)
	GetSSHKey(ctx context.Context, sshKeyID string) (*SSHKey, error)
	CreateSSHKey(ctx context.Context, k *SSHKey) (*SSHKey, error)
	DeleteSSHKey(ctx context.Context, sshKeyID string) error
}

// ScheduleService owns cron schedules.
type ScheduleService interface {
	ListSchedules(ctx context.Context, orgID string) ([]*Schedule, error)
	GetSchedule(ctx context.Context, scheduleID string) (*Schedule, error)
	CreateSchedule(ctx context.Context, s *Schedule) (*Schedule, error)
	UpdateSchedule(ctx context.Context, s *Schedule) (*Schedule, error)
	DeleteSchedule(ctx context.Context, scheduleID string) error
}

// ServerService owns remote servers and their settings.
type ServerService interface {
	ListServers(ctx context.Context, orgID string) ([]*Server, error)
	GetServer(ctx context.Context, serverID string) (*Server, error)
	SetMonitoring(ctx context.Context, serverID string, enabled bool) error
	GetSettings(ctx context.Context, orgID string) (*Settings, error)
	UpdateSettings(ctx context.Context, s *Settings) (*Settings, error)
}

// DeploymentService records deployments for log streaming.
type DeploymentService interface {
	CreateDeployment(ctx context.Context, d *Deployment) (*Deployment, error)
	FinishDeployment(ctx context.Context, deploymentID string, status DeploymentStatus) error
	ListDeployments(ctx context.Context, serviceID string) ([]*Deployment, error)
}

// Deployer triggers the external build/deploy machinery for a service.
type Deployer interface {
	Deploy(ctx context.Context, serviceType, serviceID string) error
	Start(ctx context.Context, serviceType, serviceID string) error
	Stop(ctx context.Context, serviceType, serviceID string) error
	Restart(ctx context.Context, serviceType, serviceID string) error
}

// ExecResult carries the output of a remote SQL or shell execution.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// DatabaseExecutor runs a SQL script against a managed database.
type DatabaseExecutor interface {
	RunSQL(ctx context.Context, db *Database, script string) (*ExecResult, error)
}

// DestinationVerifier checks that an S3-compatible destination is reachable
// and lists backup files under a prefix.
type DestinationVerifier interface {
	TestConnection(ctx context.Context, d *Destination) error
	ListBackupFiles(ctx context.Context, d *Destination, prefix string, limit int) ([]string, error)
}

// BackupRunner performs and restores database and volume backups.
type BackupRunner interface {
	RunBackup(ctx context.Context, b *Backup) error
	RestoreBackup(ctx context.Context, b *Backup, backupFile, databaseName string) error
	RunVolumeBackup(ctx context.Context, v *VolumeBackup) error
	RestoreVolumeBackup(ctx context.Context, v *VolumeBackup, backupFile string) error
}

// NotificationSender delivers a test message through a notification channel.
type NotificationSender interface {
	SendTest(ctx context.Context, n *Notification) error
}

// BillingGateway mints externally hosted billing sessions.
type BillingGateway interface {
	CreateCheckoutSession(ctx context.Context, orgID, priceID string, annual bool) (url string, sessionID string, err error)
	CreatePortalSession(ctx context.Context, orgID string) (url string, err error)
}

// SwarmInspector exposes cluster node state for server tools.
type SwarmInspector interface {
	ListNodes(ctx context.Context, serverID string) ([]map[string]any, error)
	InspectNode(ctx context.Context, serverID, nodeID string) (map[string]any, error)
}

// KeyGenerator mints SSH key pairs.
type KeyGenerator interface {
	GenerateKeyPair(ctx context.Context) (publicKey, privateKey string, err error)
}

// Services bundles everything the tool packages depend on. Nil capability
// fields make the corresponding tools report failure instead of panicking.
type Services struct {
	Orgs        OrgService
	Projects    ProjectService
	Apps        AppService
	Databases   DatabaseService
	Backups     BackupService
	Mounts      MountService
	Credentials CredentialService
	Schedules   ScheduleService
	Servers     ServerService
	Deployments DeploymentService

	Deployer      Deployer
	SQLExecutor   DatabaseExecutor
	Destinations  DestinationVerifier
	BackupRunner  BackupRunner
	Notifier      NotificationSender
	Billing       BillingGateway
	Swarm         SwarmInspector
	KeyGenerator  KeyGenerator
}
