// Package domain holds the platform entity model behind the tools: the full
// records kept in storage, the masked projections handed to tools, and the
// service interfaces the tool packages call.
package domain

import "time"

// Role of a user inside an organization.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// AIPolicies is the per-organization safety policy state.
type AIPolicies struct {
	BindMountAllowPrefixes []string `json:"bindMountAllowPrefixes"`
}

type Organization struct {
	OrganizationID string     `json:"organizationId"`
	Name           string     `json:"name"`
	OwnerUserID    string     `json:"ownerUserId"`
	AIPolicies     AIPolicies `json:"aiPolicies"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type User struct {
	UserID         string    `json:"userId"`
	OrganizationID string    `json:"organizationId"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Project struct {
	ProjectID      string    `json:"projectId"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Environment struct {
	EnvironmentID string    `json:"environmentId"`
	ProjectID     string    `json:"projectId"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ServiceStatus tracks a deployable service's lifecycle.
type ServiceStatus string

const (
	StatusIdle      ServiceStatus = "idle"
	StatusRunning   ServiceStatus = "running"
	StatusStopped   ServiceStatus = "stopped"
	StatusDeploying ServiceStatus = "deploying"
	StatusError     ServiceStatus = "error"
)

type Application struct {
	ApplicationID string        `json:"applicationId"`
	EnvironmentID string        `json:"environmentId"`
	Name          string        `json:"name"`
	AppName       string        `json:"appName"`
	Status        ServiceStatus `json:"status"`
	ServerID      string        `json:"serverId,omitempty"`
	SourceType    string        `json:"sourceType,omitempty"`
	DockerImage   string        `json:"dockerImage,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type Compose struct {
	ComposeID     string        `json:"composeId"`
	EnvironmentID string        `json:"environmentId"`
	Name          string        `json:"name"`
	AppName       string        `json:"appName"`
	Status        ServiceStatus `json:"status"`
	ComposeFile   string        `json:"composeFile,omitempty"`
	ServerID      string        `json:"serverId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// Engine names the supported database engines.
type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
	EngineMariaDB  Engine = "mariadb"
	EngineMongo    Engine = "mongo"
	EngineRedis    Engine = "redis"
)

// Engines lists every supported engine in registration order.
var Engines = []Engine{EnginePostgres, EngineMySQL, EngineMariaDB, EngineMongo, EngineRedis}

type Database struct {
	DatabaseID    string        `json:"databaseId"`
	EnvironmentID string        `json:"environmentId"`
	Engine        Engine        `json:"engine"`
	Name          string        `json:"name"`
	AppName       string        `json:"appName"`
	DatabaseName  string        `json:"databaseName,omitempty"`
	DatabaseUser  string        `json:"databaseUser,omitempty"`
	Password      string        `json:"-"`
	ExternalURL   string        `json:"-"`
	Status        ServiceStatus `json:"status"`
	ServerID      string        `json:"serverId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
}

// DatabaseMasked is the tool-facing projection of Database.
type DatabaseMasked struct {
	DatabaseID      string        `json:"databaseId"`
	EnvironmentID   string        `json:"environmentId"`
	Engine          Engine        `json:"engine"`
	Name            string        `json:"name"`
	AppName         string        `json:"appName"`
	DatabaseName    string        `json:"databaseName,omitempty"`
	DatabaseUser    string        `json:"databaseUser,omitempty"`
	PasswordMasked  bool          `json:"passwordMasked"`
	PasswordPresent bool          `json:"passwordPresent"`
	Status          ServiceStatus `json:"status"`
	ServerID        string        `json:"serverId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
}

func (d Database) Masked() DatabaseMasked {
	return DatabaseMasked{
		DatabaseID:      d.DatabaseID,
		EnvironmentID:   d.EnvironmentID,
		Engine:          d.Engine,
		Name:            d.Name,
		AppName:         d.AppName,
		DatabaseName:    d.DatabaseName,
		DatabaseUser:    d.DatabaseUser,
		PasswordMasked:  true,
		PasswordPresent: d.Password != "",
		Status:          d.Status,
		ServerID:        d.ServerID,
		CreatedAt:       d.CreatedAt,
	}
}

type Backup struct {
	BackupID      string    `json:"backupId"`
	DatabaseID    string    `json:"databaseId"`
	DestinationID string    `json:"destinationId"`
	Schedule      string    `json:"schedule,omitempty"`
	Prefix        string    `json:"prefix,omitempty"`
	Enabled       bool      `json:"enabled"`
	CreatedAt     time.Time `json:"createdAt"`
}

type VolumeBackup struct {
	VolumeBackupID string    `json:"volumeBackupId"`
	ServiceType    string    `json:"serviceType"`
	ServiceID      string    `json:"serviceId"`
	VolumeName     string    `json:"volumeName"`
	DestinationID  string    `json:"destinationId"`
	Schedule       string    `json:"cronExpression,omitempty"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MountType distinguishes the three docker mount kinds.
type MountType string

const (
	MountBind   MountType = "bind"
	MountVolume MountType = "volume"
	MountFile   MountType = "file"
)

type Mount struct {
	MountID     string    `json:"mountId"`
	ServiceType string    `json:"serviceType"`
	ServiceID   string    `json:"serviceId"`
	Type        MountType `json:"type"`
	MountPath   string    `json:"mountPath"`
	HostPath    string    `json:"hostPath,omitempty"`
	VolumeName  string    `json:"volumeName,omitempty"`
	FilePath    string    `json:"filePath,omitempty"`
	Content     string    `json:"content,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Port struct {
	PortID        string    `json:"portId"`
	ApplicationID string    `json:"applicationId"`
	PublishedPort int       `json:"publishedPort"`
	TargetPort    int       `json:"targetPort"`
	Protocol      string    `json:"protocol"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Destination is an S3-compatible backup target.
type Destination struct {
	DestinationID  string    `json:"destinationId"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Bucket         string    `json:"bucket"`
	Region         string    `json:"region"`
	Endpoint       string    `json:"endpoint,omitempty"`
	AccessKeyID    string    `json:"-"`
	SecretKey      string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

type DestinationMasked struct {
	DestinationID    string    `json:"destinationId"`
	OrganizationID   string    `json:"organizationId"`
	Name             string    `json:"name"`
	Bucket           string    `json:"bucket"`
	Region           string    `json:"region"`
	Endpoint         string    `json:"endpoint,omitempty"`
	AccessKeyMasked  bool      `json:"accessKeyMasked"`
	AccessKeyPresent bool      `json:"accessKeyPresent"`
	SecretKeyMasked  bool      `json:"secretKeyMasked"`
	SecretKeyPresent bool      `json:"secretKeyPresent"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (d Destination) Masked() DestinationMasked {
	return DestinationMasked{
		DestinationID:    d.DestinationID,
		OrganizationID:   d.OrganizationID,
		Name:             d.Name,
		Bucket:           d.Bucket,
		Region:           d.Region,
		Endpoint:         d.Endpoint,
		AccessKeyMasked:  true,
		AccessKeyPresent: d.AccessKeyID != "",
		SecretKeyMasked:  true,
		SecretKeyPresent: d.SecretKey != "",
		CreatedAt:        d.CreatedAt,
	}
}

// Registry is a docker registry credential record.
type Registry struct {
	RegistryID     string    `json:"registryId"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	URL            string    `json:"url"`
	Username       string    `json:"username"`
	Password       string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

type RegistryMasked struct {
	RegistryID      string    `json:"registryId"`
	OrganizationID  string    `json:"organizationId"`
	Name            string    `json:"name"`
	URL             string    `json:"url"`
	Username        string    `json:"username"`
	PasswordMasked  bool      `json:"passwordMasked"`
	PasswordPresent bool      `json:"passwordPresent"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (r Registry) Masked() RegistryMasked {
	return RegistryMasked{
		RegistryID:      r.RegistryID,
		OrganizationID:  r.OrganizationID,
		Name:            r.Name,
		URL:             r.URL,
		Username:        r.Username,
		PasswordMasked:  true,
		PasswordPresent: r.Password != "",
		CreatedAt:       r.CreatedAt,
	}
}

type GitProvider struct {
	GitProviderID  string    `json:"gitProviderId"`
	OrganizationID string    `json:"organizationId"`
	Provider       string    `json:"provider"`
	Name           string    `json:"name"`
	AccessToken    string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

type GitProviderMasked struct {
	GitProviderID      string    `json:"gitProviderId"`
	OrganizationID     string    `json:"organizationId"`
	Provider           string    `json:"provider"`
	Name               string    `json:"name"`
	AccessTokenMasked  bool      `json:"accessTokenMasked"`
	AccessTokenPresent bool      `json:"accessTokenPresent"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (g GitProvider) Masked() GitProviderMasked {
	return GitProviderMasked{
		GitProviderID:      g.GitProviderID,
		OrganizationID:     g.OrganizationID,
		Provider:           g.Provider,
		Name:               g.Name,
		AccessTokenMasked:  true,
		AccessTokenPresent: g.AccessToken != "",
		CreatedAt:          g.CreatedAt,
	}
}

type Notification struct {
	NotificationID string    `json:"notificationId"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	Channel        string    `json:"channel"`
	WebhookURL     string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

type NotificationMasked struct {
	NotificationID    string    `json:"notificationId"`
	OrganizationID    string    `json:"organizationId"`
	Name              string    `json:"name"`
	Channel           string    `json:"channel"`
	WebhookURLMasked  bool      `json:"webhookUrlMasked"`
	WebhookURLPresent bool      `json:"webhookUrlPresent"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (n Notification) Masked() NotificationMasked {
	return NotificationMasked{
		NotificationID:    n.NotificationID,
		OrganizationID:    n.OrganizationID,
		Name:              n.Name,
		Channel:           n.Channel,
		WebhookURLMasked:  true,
		WebhookURLPresent: n.WebhookURL != "",
		CreatedAt:         n.CreatedAt,
	}
}

type SSHKey struct {
	SSHKeyID       string    `json:"sshKeyId"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	PublicKey      string    `json:"publicKey"`
	PrivateKey     string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

type SSHKeyMasked struct {
	SSHKeyID          string    `json:"sshKeyId"`
	OrganizationID    string    `json:"organizationId"`
	Name              string    `json:"name"`
	PublicKey         string    `json:"publicKey"`
	PrivateKeyMasked  bool      `json:"privateKeyMasked"`
	PrivateKeyPresent bool      `json:"privateKeyPresent"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (k SSHKey) Masked() SSHKeyMasked {
	return SSHKeyMasked{
		SSHKeyID:          k.SSHKeyID,
		OrganizationID:    k.OrganizationID,
		Name:              k.Name,
		PublicKey:         k.PublicKey,
		PrivateKeyMasked:  true,
		PrivateKeyPresent: k.PrivateKey != "",
		CreatedAt:         k.CreatedAt,
	}
}

// SecurityRecord is a basic-auth credential guarding a service.
type SecurityRecord struct {
	SecurityID    string    `json:"securityId"`
	ApplicationID string    `json:"applicationId"`
	Username      string    `json:"username"`
	Password      string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

type SecurityRecordMasked struct {
	SecurityID      string    `json:"securityId"`
	ApplicationID   string    `json:"applicationId"`
	Username        string    `json:"username"`
	PasswordMasked  bool      `json:"passwordMasked"`
	PasswordPresent bool      `json:"passwordPresent"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (s SecurityRecord) Masked() SecurityRecordMasked {
	return SecurityRecordMasked{
		SecurityID:      s.SecurityID,
		ApplicationID:   s.ApplicationID,
		Username:        s.Username,
		PasswordMasked:  true,
		PasswordPresent: s.Password != "",
		CreatedAt:       s.CreatedAt,
	}
}

type Schedule struct {
	ScheduleID     string    `json:"scheduleId"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	CronExpression string    `json:"cronExpression"`
	ServiceType    string    `json:"serviceType"`
	ServiceID      string    `json:"serviceId"`
	Command        string    `json:"command,omitempty"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Server struct {
	ServerID       string    `json:"serverId"`
	OrganizationID string    `json:"organizationId"`
	Name           string    `json:"name"`
	IPAddress      string    `json:"ipAddress"`
	Port           int       `json:"port"`
	Username       string    `json:"username"`
	SSHKeyID       string    `json:"sshKeyId,omitempty"`
	Monitoring     bool      `json:"monitoring"`
	CreatedAt      time.Time `json:"createdAt"`
}

type DeploymentStatus string

const (
	DeploymentRunning DeploymentStatus = "running"
	DeploymentDone    DeploymentStatus = "done"
	DeploymentError   DeploymentStatus = "error"
)

type Deployment struct {
	DeploymentID string           `json:"deploymentId"`
	ServiceType  string           `json:"serviceType"`
	ServiceID    string           `json:"serviceId"`
	Title        string           `json:"title"`
	Status       DeploymentStatus `json:"status"`
	LogPath      string           `json:"logPath,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	FinishedAt   *time.Time       `json:"finishedAt,omitempty"`
}

type DomainRecord struct {
	DomainID      string    `json:"domainId"`
	ApplicationID string    `json:"applicationId"`
	Host          string    `json:"host"`
	Path          string    `json:"path,omitempty"`
	Port          int       `json:"port,omitempty"`
	HTTPS         bool      `json:"https"`
	CertificateID string    `json:"certificateId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Certificate struct {
	CertificateID   string    `json:"certificateId"`
	OrganizationID  string    `json:"organizationId"`
	Name            string    `json:"name"`
	CertificateData string    `json:"-"`
	PrivateKey      string    `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
}

type CertificateMasked struct {
	CertificateID     string    `json:"certificateId"`
	OrganizationID    string    `json:"organizationId"`
	Name              string    `json:"name"`
	PrivateKeyMasked  bool      `json:"privateKeyMasked"`
	PrivateKeyPresent bool      `json:"privateKeyPresent"`
	CreatedAt         time.Time `json:"createdAt"`
}

func (c Certificate) Masked() CertificateMasked {
	return CertificateMasked{
		CertificateID:     c.CertificateID,
		OrganizationID:    c.OrganizationID,
		Name:              c.Name,
		PrivateKeyMasked:  true,
		PrivateKeyPresent: c.PrivateKey != "",
		CreatedAt:         c.CreatedAt,
	}
}

// Settings is per-organization configuration surfaced to owners.
type Settings struct {
	OrganizationID string `json:"organizationId"`
	ServerIP       string `json:"serverIp,omitempty"`
	LetsEncrypt    string `json:"letsEncryptEmail,omitempty"`
}
