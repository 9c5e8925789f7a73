package domain

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory implementation of every domain service. It
// backs the self-hosted single-node mode and the test suites.
type MemoryStore struct {
	mu sync.RWMutex

	orgs          map[string]*Organization
	users         map[string]*User
	projects      map[string]*Project
	environments  map[string]*Environment
	applications  map[string]*Application
	composes      map[string]*Compose
	databases     map[string]*Database
	backups       map[string]*Backup
	volumeBackups map[string]*VolumeBackup
	mounts        map[string]*Mount
	ports         map[string]*Port
	domains       map[string]*DomainRecord
	certificates  map[string]*Certificate
	security      map[string]*SecurityRecord
	destinations  map[string]*Destination
	registries    map[string]*Registry
	gitProviders  map[string]*GitProvider
	notifications map[string]*Notification
	sshKeys       map[string]*SSHKey
	schedules     map[string]*Schedule
	servers       map[string]*Server
	settings      map[string]*Settings
	deployments   map[string]*Deployment
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:          make(map[string]*Organization),
		users:         make(map[string]*User),
		projects:      make(map[string]*Project),
		environments:  make(map[string]*Environment),
		applications:  make(map[string]*Application),
		composes:      make(map[string]*Compose),
		databases:     make(map[string]*Database),
		backups:       make(map[string]*Backup),
		volumeBackups: make(map[string]*VolumeBackup),
		mounts:        make(map[string]*Mount),
		ports:         make(map[string]*Port),
		domains:       make(map[string]*DomainRecord),
		certificates:  make(map[string]*Certificate),
		security:      make(map[string]*SecurityRecord),
		destinations:  make(map[string]*Destination),
		registries:    make(map[string]*Registry),
		gitProviders:  make(map[string]*GitProvider),
		notifications: make(map[string]*Notification),
		sshKeys:       make(map[string]*SSHKey),
		schedules:     make(map[string]*Schedule),
		servers:       make(map[string]*Server),
		settings:      make(map[string]*Settings),
		deployments:   make(map[string]*Deployment),
	}
}

func newID() string { return uuid.NewString() }

// SeedOrganization inserts an organization with its owner, for wiring and
// tests.
func (s *MemoryStore) SeedOrganization(org *Organization, owner *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}
	s.orgs[org.OrganizationID] = org
	if owner != nil {
		owner.OrganizationID = org.OrganizationID
		owner.Role = RoleOwner
		s.users[owner.UserID] = owner
	}
}

// SeedUser inserts a member row.
func (s *MemoryStore) SeedUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.UserID] = u
}

// --- OrgService ---

func (s *MemoryStore) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *org
	cp.AIPolicies.BindMountAllowPrefixes = append([]string(nil), org.AIPolicies.BindMountAllowPrefixes...)
	return &cp, nil
}

func (s *MemoryStore) GetMember(ctx context.Context, orgID, userID string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok || u.OrganizationID != orgID {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *MemoryStore) ListMembers(ctx context.Context, orgID string) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*User
	for _, u := range s.users {
		if u.OrganizationID == orgID {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemoryStore) UpdateBindMountAllowlist(ctx context.Context, orgID string, prefixes []string) (*Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	org, ok := s.orgs[orgID]
	if !ok {
		return nil, ErrNotFound
	}
	org.AIPolicies.BindMountAllowPrefixes = append([]string(nil), prefixes...)
	cp := *org
	return &cp, nil
}

// --- ProjectService ---

func (s *MemoryStore) ListProjects(ctx context.Context, orgID string) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Project
	for _, p := range s.projects {
		if p.OrganizationID == orgID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetProject(ctx context.Context, projectID string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) CreateProject(ctx context.Context, p *Project) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ProjectID == "" {
		p.ProjectID = newID()
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	s.projects[p.ProjectID] = &cp
	return p, nil
}

func (s *MemoryStore) UpdateProject(ctx context.Context, p *Project) (*Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.projects[p.ProjectID]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Name != "" {
		existing.Name = p.Name
	}
	if p.Description != "" {
		existing.Description = p.Description
	}
	cp := *existing
	return &cp, nil
}

func (s *MemoryStore) DeleteProject(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[projectID]; !ok {
		return ErrNotFound
	}
	delete(s.projects, projectID)
	for id, e := range s.environments {
		if e.ProjectID == projectID {
			delete(s.environments, id)
		}
	}
	return nil
}

func (s *MemoryStore) ListEnvironments(ctx context.Context, projectID string) ([]*Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Environment
	for _, e := range s.environments {
		if e.ProjectID == projectID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetEnvironment(ctx context.Context, environmentID string) (*Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.environments[environmentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (s *MemoryStore) CreateEnvironment(ctx context.Context, e *Environment) (*Environment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.EnvironmentID == "" {
		e.EnvironmentID = newID()
	}
	e.CreatedAt = time.Now().UTC()
	cp := *e
	s.environments[e.EnvironmentID] = &cp
	return e, nil
}

func (s *MemoryStore) DeleteEnvironment(ctx context.Context, environmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.environments[environmentID]; !ok {
		return ErrNotFound
	}
	delete(s.environments, environmentID)
	return nil
}

// --- AppService ---

func (s *MemoryStore) ListApplications(ctx context.Context, environmentID string) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Application
	for _, a := range s.applications {
		if environmentID == "" || a.EnvironmentID == environmentID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetApplication(ctx context.Context, applicationID string) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.applications[applicationID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) CreateApplication(ctx context.Context, a *Application) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ApplicationID == "" {
		a.ApplicationID = newID()
	}
	if a.Status == "" {
		a.Status = StatusIdle
	}
	a.CreatedAt = time.Now().UTC()
	cp := *a
	s.applications[a.ApplicationID] = &cp
	return a, nil
}

func (s *MemoryStore) UpdateApplication(ctx context.Context, a *Application) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.applications[a.ApplicationID]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Name != "" {
		existing.Name = a.Name
	}
	if a.DockerImage != "" {
		existing.DockerImage = a.DockerImage
	}
	if a.Status != "" {
		existing.Status = a.Status
	}
	if a.ServerID != "" {
		existing.ServerID = a.ServerID
	}
	cp := *existing
	return &cp, nil
}

func (s *MemoryStore) DeleteApplication(ctx context.Context, applicationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applications[applicationID]; !ok {
		return ErrNotFound
	}
	delete(s.applications, applicationID)
	for id, p := range s.ports {
		if p.ApplicationID == applicationID {
			delete(s.ports, id)
		}
	}
	for id, d := range s.domains {
		if d.ApplicationID == applicationID {
			delete(s.domains, id)
		}
	}
	return nil
}

func (s *MemoryStore) ListComposes(ctx context.Context, environmentID string) ([]*Compose, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Compose
	for _, c := range s.composes {
		if environmentID == "" || c.EnvironmentID == environmentID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetCompose(ctx context.Context, composeID string) (*Compose, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.composes[composeID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) CreateCompose(ctx context.Context, c *Compose) (*Compose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ComposeID == "" {
		c.ComposeID = newID()
	}
	if c.Status == "" {
		c.Status = StatusIdle
	}
	c.CreatedAt = time.Now().UTC()
	cp := *c
	s.composes[c.ComposeID] = &cp
	return c, nil
}

func (s *MemoryStore) DeleteCompose(ctx context.Context, composeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.composes[composeID]; !ok {
		return ErrNotFound
	}
	delete(s.composes, composeID)
	return nil
}

func (s *MemoryStore) ListPorts(ctx context.Context, applicationID string) ([]*Port, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Port
	for _, p := range s.ports {
		if p.ApplicationID == applicationID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishedPort < out[j].PublishedPort })
	return out, nil
}

func (s *MemoryStore) CreatePort(ctx context.Context, p *Port) (*Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.PortID == "" {
		p.PortID = newID()
	}
	p.CreatedAt = time.Now().UTC()
	cp := *p
	s.ports[p.PortID] = &cp
	return p, nil
}

func (s *MemoryStore) DeletePort(ctx context.Context, portID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ports[portID]; !ok {
		return ErrNotFound
	}
	delete(s.ports, portID)
	return nil
}

func (s *MemoryStore) ListDomains(ctx context.Context, applicationID string) ([]*DomainRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*DomainRecord
	for _, d := range s.domains {
		if d.ApplicationID == applicationID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Host < out[j].Host })
	return out, nil
}

func (s *MemoryStore) CreateDomain(ctx context.Context, d *DomainRecord) (*DomainRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.DomainID == "" {
		d.DomainID = newID()
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	s.domains[d.DomainID] = &cp
	return d, nil
}

func (s *MemoryStore) DeleteDomain(ctx context.Context, domainID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.domains[domainID]; !ok {
		return ErrNotFound
	}
	delete(s.domains, domainID)
	return nil
}

func (s *MemoryStore) ListCertificates(ctx context.Context, orgID string) ([]*Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Certificate
	for _, c := range s.certificates {
		if c.OrganizationID == orgID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SeedCertificate inserts a certificate record.
func (s *MemoryStore) SeedCertificate(c *Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CertificateID == "" {
		c.CertificateID = newID()
	}
	s.certificates[c.CertificateID] = c
}

func (s *MemoryStore) ListSecurity(ctx context.Context, applicationID string) ([]*SecurityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*SecurityRecord
	for _, r := range s.security {
		if r.ApplicationID == applicationID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *MemoryStore) GetSecurity(ctx context.Context, securityID string) (*SecurityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.security[securityID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// SeedSecurity inserts a security record.
func (s *MemoryStore) SeedSecurity(r *SecurityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.SecurityID == "" {
		r.SecurityID = newID()
	}
	s.security[r.SecurityID] = r
}

func (s *MemoryStore) DeleteSecurity(ctx context.Context, securityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.security[securityID]; !ok {
		return ErrNotFound
	}
	delete(s.security, securityID)
	return nil
}

// --- DatabaseService ---

func (s *MemoryStore) ListDatabases(ctx context.Context, environmentID string, engine Engine) ([]*Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Database
	for _, d := range s.databases {
		if environmentID != "" && d.EnvironmentID != environmentID {
			continue
		}
		if engine != "" && d.Engine != engine {
			continue
		}
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetDatabase(ctx context.Context, databaseID string) (*Database, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.databases[databaseID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) CreateDatabase(ctx context.Context, d *Database) (*Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.DatabaseID == "" {
		d.DatabaseID = newID()
	}
	if d.Status == "" {
		d.Status = StatusIdle
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	s.databases[d.DatabaseID] = &cp
	return d, nil
}

func (s *MemoryStore) UpdateDatabaseStatus(ctx context.Context, databaseID string, status ServiceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.databases[databaseID]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	return nil
}

func (s *MemoryStore) DeleteDatabase(ctx context.Context, databaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.databases[databaseID]; !ok {
		return ErrNotFound
	}
	delete(s.databases, databaseID)
	for id, b := range s.backups {
		if b.DatabaseID == databaseID {
			delete(s.backups, id)
		}
	}
	return nil
}

// --- BackupService ---

func (s *MemoryStore) ListBackups(ctx context.Context, databaseID string) ([]*Backup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Backup
	for _, b := range s.backups {
		if databaseID == "" || b.DatabaseID == databaseID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetBackup(ctx context.Context, backupID string) (*Backup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.backups[backupID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *MemoryStore) CreateBackup(ctx context.Context, b *Backup) (*Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.BackupID == "" {
		b.BackupID = newID()
	}
	b.CreatedAt = time.Now().UTC()
	cp := *b
	s.backups[b.BackupID] = &cp
	return b, nil
}

func (s *MemoryStore) DeleteBackup(ctx context.Context, backupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.backups[backupID]; !ok {
		return ErrNotFound
	}
	delete(s.backups, backupID)
	return nil
}

func (s *MemoryStore) ListVolumeBackups(ctx context.Context, serviceID string) ([]*VolumeBackup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*VolumeBackup
	for _, v := range s.volumeBackups {
		if serviceID == "" || v.ServiceID == serviceID {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetVolumeBackup(ctx context.Context, volumeBackupID string) (*VolumeBackup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.volumeBackups[volumeBackupID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (s *MemoryStore) CreateVolumeBackup(ctx context.Context, v *VolumeBackup) (*VolumeBackup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.VolumeBackupID == "" {
		v.VolumeBackupID = newID()
	}
	v.CreatedAt = time.Now().UTC()
	cp := *v
	s.volumeBackups[v.VolumeBackupID] = &cp
	return v, nil
}

func (s *MemoryStore) DeleteVolumeBackup(ctx context.Context, volumeBackupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.volumeBackups[volumeBackupID]; !ok {
		return ErrNotFound
	}
	delete(s.volumeBackups, volumeBackupID)
	return nil
}

// --- MountService ---

func (s *MemoryStore) ListMounts(ctx context.Context, serviceID string) ([]*Mount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Mount
	for _, m := range s.mounts {
		if serviceID == "" || m.ServiceID == serviceID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) GetMount(ctx context.Context, mountID string) (*Mount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mounts[mountID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) CreateMount(ctx context.Context, m *Mount) (*Mount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.MountID == "" {
		m.MountID = newID()
	}
	m.CreatedAt = time.Now().UTC()
	cp := *m
	s.mounts[m.MountID] = &cp
	return m, nil
}

func (s *MemoryStore) DeleteMount(ctx context.Context, mountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mounts[mountID]; !ok {
		return ErrNotFound
	}
	delete(s.mounts, mountID)
	return nil
}

// --- CredentialService ---

func (s *MemoryStore) ListDestinations(ctx context.Context, orgID string) ([]*Destination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Destination
	for _, d := range s.destinations {
		if d.OrganizationID == orgID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetDestination(ctx context.Context, destinationID string) (*Destination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.destinations[destinationID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *MemoryStore) CreateDestination(ctx context.Context, d *Destination) (*Destination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.DestinationID == "" {
		d.DestinationID = newID()
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	s.destinations[d.DestinationID] = &cp
	return d, nil
}

func (s *MemoryStore) DeleteDestination(ctx context.Context, destinationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.destinations[destinationID]; !ok {
		return ErrNotFound
	}
	delete(s.destinations, destinationID)
	return nil
}

func (s *MemoryStore) ListRegistries(ctx context.Context, orgID string) ([]*Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Registry
	for _, r := range s.registries {
		if r.OrganizationID == orgID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) CreateRegistry(ctx context.Context, r *Registry) (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.RegistryID == "" {
		r.RegistryID = newID()
	}
	r.CreatedAt = time.Now().UTC()
	cp := *r
	s.registries[r.RegistryID] = &cp
	return r, nil
}

func (s *MemoryStore) DeleteRegistry(ctx context.Context, registryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registries[registryID]; !ok {
		return ErrNotFound
	}
	delete(s.registries, registryID)
	return nil
}

func (s *MemoryStore) ListGitProviders(ctx context.Context, orgID string) ([]*GitProvider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*GitProvider
	for _, g := range s.gitProviders {
		if g.OrganizationID == orgID {
			cp := *g
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SeedGitProvider inserts a git provider record.
func (s *MemoryStore) SeedGitProvider(g *GitProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.GitProviderID == "" {
		g.GitProviderID = newID()
	}
	s.gitProviders[g.GitProviderID] = g
}

func (s *MemoryStore) DeleteGitProvider(ctx context.Context, gitProviderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.gitProviders[gitProviderID]; !ok {
		return ErrNotFound
	}
	delete(s.gitProviders, gitProviderID)
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, orgID string) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Notification
	for _, n := range s.notifications {
		if n.OrganizationID == orgID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetNotification(ctx context.Context, notificationID string) (*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[notificationID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *MemoryStore) CreateNotification(ctx context.Context, n *Notification) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n.NotificationID == "" {
		n.NotificationID = newID()
	}
	n.CreatedAt = time.Now().UTC()
	cp := *n
	s.notifications[n.NotificationID] = &cp
	return n, nil
}

func (s *MemoryStore) DeleteNotification(ctx context.Context, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[notificationID]; !ok {
		return ErrNotFound
	}
	delete(s.notifications, notificationID)
	return nil
}

func (s *MemoryStore) ListSSHKeys(ctx context.Context, orgID string) ([]*SSHKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*SSHKey
	for _, k := range s.sshKeys {
		if k.OrganizationID == orgID {
			cp := *k
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetSSHKey(ctx context.Context, sshKeyID string) (*SSHKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.sshKeys[sshKeyID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *k
	return &cp, nil
}

func (s *MemoryStore) CreateSSHKey(ctx context.Context, k *SSHKey) (*SSHKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k.SSHKeyID == "" {
		k.SSHKeyID = newID()
	}
	k.CreatedAt = time.Now().UTC()
	cp := *k
	s.sshKeys[k.SSHKeyID] = &cp
	return k, nil
}

func (s *MemoryStore) DeleteSSHKey(ctx context.Context, sshKeyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sshKeys[sshKeyID]; !ok {
		return ErrNotFound
	}
	delete(s.sshKeys, sshKeyID)
	return nil
}

// --- ScheduleService ---

func (s *MemoryStore) ListSchedules(ctx context.Context, orgID string) ([]*Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Schedule
	for _, sc := range s.schedules {
		if sc.OrganizationID == orgID {
			cp := *sc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetSchedule(ctx context.Context, scheduleID string) (*Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.schedules[scheduleID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sc
	return &cp, nil
}

func (s *MemoryStore) CreateSchedule(ctx context.Context, sc *Schedule) (*Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc.ScheduleID == "" {
		sc.ScheduleID = newID()
	}
	sc.CreatedAt = time.Now().UTC()
	cp := *sc
	s.schedules[sc.ScheduleID] = &cp
	return sc, nil
}

func (s *MemoryStore) UpdateSchedule(ctx context.Context, sc *Schedule) (*Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.schedules[sc.ScheduleID]
	if !ok {
		return nil, ErrNotFound
	}
	if sc.Name != "" {
		existing.Name = sc.Name
	}
	if sc.CronExpression != "" {
		existing.CronExpression = sc.CronExpression
	}
	if sc.Command != "" {
		existing.Command = sc.Command
	}
	existing.Enabled = sc.Enabled
	cp := *existing
	return &cp, nil
}

func (s *MemoryStore) DeleteSchedule(ctx context.Context, scheduleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[scheduleID]; !ok {
		return ErrNotFound
	}
	delete(s.schedules, scheduleID)
	return nil
}

// --- ServerService ---

func (s *MemoryStore) ListServers(ctx context.Context, orgID string) ([]*Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Server
	for _, sv := range s.servers {
		if sv.OrganizationID == orgID {
			cp := *sv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) GetServer(ctx context.Context, serverID string) (*Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sv, ok := s.servers[serverID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sv
	return &cp, nil
}

// SeedServer inserts a server record.
func (s *MemoryStore) SeedServer(sv *Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sv.ServerID == "" {
		sv.ServerID = newID()
	}
	s.servers[sv.ServerID] = sv
}

func (s *MemoryStore) SetMonitoring(ctx context.Context, serverID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.servers[serverID]
	if !ok {
		return ErrNotFound
	}
	sv.Monitoring = enabled
	return nil
}

func (s *MemoryStore) GetSettings(ctx context.Context, orgID string) (*Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.settings[orgID]
	if !ok {
		return &Settings{OrganizationID: orgID}, nil
	}
	cp := *st
	return &cp, nil
}

func (s *MemoryStore) UpdateSettings(ctx context.Context, st *Settings) (*Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *st
	s.settings[st.OrganizationID] = &cp
	out := cp
	return &out, nil
}

// --- DeploymentService ---

func (s *MemoryStore) CreateDeployment(ctx context.Context, d *Deployment) (*Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.DeploymentID == "" {
		d.DeploymentID = newID()
	}
	if d.Status == "" {
		d.Status = DeploymentRunning
	}
	d.CreatedAt = time.Now().UTC()
	cp := *d
	s.deployments[d.DeploymentID] = &cp
	return d, nil
}

func (s *MemoryStore) FinishDeployment(ctx context.Context, deploymentID string, status DeploymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deployments[deploymentID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	d.Status = status
	d.FinishedAt = &now
	return nil
}

func (s *MemoryStore) ListDeployments(ctx context.Context, serviceID string) ([]*Deployment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Deployment
	for _, d := range s.deployments {
		if serviceID == "" || d.ServiceID == serviceID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
