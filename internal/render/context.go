package render

import (
	"fmt"

	"github.com/sourceplane/stackgen/internal/expand"
	"github.com/sourceplane/stackgen/internal/model"
)

// SchemaView identifies the schema being rendered
type SchemaView struct {
	Name    string
	Version string
}

// ServiceView is the read-only view of a service exposed to templates
type ServiceView struct {
	ID            string
	Name          string
	Description   string
	Image         string
	Version       string
	ImageRef      string
	Port          int
	PublishedPort int
	BindAddress   string
	Requires      []string
	HealthCheck   *model.HealthCheck
	Routing       *model.Routing
	Config        map[string]any
}

// Context is the data an artifact template is evaluated against
type Context struct {
	Schema  SchemaView
	Service ServiceView
	// Config is the service's own merged configuration
	Config map[string]any
	// Order lists every active service in startup order
	Order []string
	// Secrets lists the secret names this service references, never values
	Secrets []string

	topology *model.ResolvedTopology
	service  *model.NormalizedService
}

// NewContext builds the rendering context of an active service
func NewContext(topology *model.ResolvedTopology, serviceID string, secrets []string) (*Context, error) {
	svc, ok := topology.Schema.Service(serviceID)
	if !ok || !topology.IsActive(serviceID) {
		return nil, fmt.Errorf("%w: service %q is not an active service of the topology", model.ErrInternal, serviceID)
	}

	return &Context{
		Schema: SchemaView{
			Name:    topology.Schema.Name,
			Version: topology.Schema.Version,
		},
		Service:  newServiceView(svc, topology.Config[serviceID]),
		Config:   topology.Config[serviceID],
		Order:    append([]string{}, topology.Order...),
		Secrets:  secrets,
		topology: topology,
		service:  svc,
	}, nil
}

func newServiceView(svc *model.NormalizedService, config map[string]any) ServiceView {
	def := svc.Definition
	view := ServiceView{
		ID:          def.ID,
		Name:        def.Name(),
		Description: def.Description,
		Image:       def.Image,
		Version:     def.Version,
		ImageRef:    def.ImageRef(),
		Port:        def.Port,
		BindAddress: def.BindAddress,
		Requires:    def.Requires,
		HealthCheck: def.HealthCheck,
		Routing:     def.Routing,
		Config:      config,
	}
	if def.PublishedPort != nil {
		view.PublishedPort = *def.PublishedPort
	}
	return view
}

// IsActive reports whether a service is part of the active set
func (c *Context) IsActive(serviceID string) bool {
	return c.topology.IsActive(serviceID)
}

// Peer returns the view of another active service
func (c *Context) Peer(serviceID string) (ServiceView, error) {
	if !c.topology.IsActive(serviceID) {
		return ServiceView{}, fmt.Errorf("service %q is not active", serviceID)
	}
	svc, _ := c.topology.Schema.Service(serviceID)
	return newServiceView(svc, c.topology.Config[serviceID]), nil
}

// Field returns the merged value of a field of an active service.
// Inactive services and unset fields are errors.
func (c *Context) Field(serviceID, name string) (any, error) {
	if !c.topology.IsActive(serviceID) {
		return nil, fmt.Errorf("service %q is not active", serviceID)
	}
	value, ok := c.topology.Config[serviceID][name]
	if !ok || value == nil {
		return nil, fmt.Errorf("field %s has no value", model.FieldKey{Service: serviceID, Field: name})
	}
	return value, nil
}

// Value returns the merged value of one of the service's own fields
func (c *Context) Value(name string) (any, error) {
	return c.Field(c.Service.ID, name)
}

// Visible reports whether a field of the service is currently visible
func (c *Context) Visible(name string) bool {
	field, ok := c.service.Fields[name]
	return ok && expand.IsVisible(field, c.topology.Config)
}
