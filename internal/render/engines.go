package render

import (
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/compose-spec/compose-go/v2/types"
	"github.com/ettle/strcase"
	"github.com/traefik/genconf/dynamic"
	"gopkg.in/yaml.v3"
)

// envKey maps a dotted field name to an environment variable name
func envKey(field string) string {
	return strcase.ToSNAKE(strings.NewReplacer(".", "_", "-", "_").Replace(field))
}

// envEntries returns the environment of a service: every visible field with a
// value, secret-backed fields as placeholders
func envEntries(ctx *Context) (map[string]string, error) {
	entries := make(map[string]string)

	for _, name := range ctx.service.FieldOrder {
		if !ctx.Visible(name) {
			continue
		}

		def := ctx.service.Fields[name].Definition
		if def.SecretRef != "" {
			entries[envKey(name)] = secretPlaceholder(def.SecretRef)
			continue
		}

		value := ctx.Config[name]
		if value == nil {
			continue
		}
		s, err := envValue(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", name, err)
		}
		entries[envKey(name)] = s
	}

	return entries, nil
}

func envValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		if strings.ContainsAny(v, " \t\n\"'#$") {
			return strconv.Quote(v), nil
		}
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to encode value: %w", err)
		}
		return string(data), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// renderEnv renders an environment file with sorted keys
func renderEnv(ctx *Context) (string, error) {
	entries, err := envEntries(ctx)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k + "=" + entries[k] + "\n")
	}
	return sb.String(), nil
}

// renderCompose renders the service as a compose project holding a single service
func renderCompose(ctx *Context) (string, error) {
	def := ctx.service.Definition

	entries, err := envEntries(ctx)
	if err != nil {
		return "", err
	}
	environment := types.MappingWithEquals{}
	for k, v := range entries {
		environment[k] = &v
	}

	svc := types.ServiceConfig{
		Name:          def.ID,
		Image:         def.ImageRef(),
		ContainerName: def.Name(),
		Environment:   environment,
		Restart:       types.RestartPolicyUnlessStopped,
	}

	if def.Port > 0 {
		if def.PublishedPort != nil {
			svc.Ports = []types.ServicePortConfig{{
				Target:    uint32(def.Port),
				Published: strconv.Itoa(*def.PublishedPort),
				HostIP:    def.BindAddress,
				Protocol:  "tcp",
			}}
		} else {
			svc.Expose = types.StringOrNumberList{strconv.Itoa(def.Port)}
		}
	}

	for _, dep := range def.Requires {
		if !ctx.IsActive(dep) {
			continue
		}
		if svc.DependsOn == nil {
			svc.DependsOn = types.DependsOnConfig{}
		}
		condition := types.ServiceConditionStarted
		if peer, _ := ctx.topology.Schema.Service(dep); peer.Definition.HealthCheck != nil {
			condition = types.ServiceConditionHealthy
		}
		svc.DependsOn[dep] = types.ServiceDependency{Condition: condition, Required: true}
	}

	if hc := def.HealthCheck; hc != nil {
		check, err := composeHealthCheck(hc.Test, hc.Interval, hc.Timeout, hc.Retries)
		if err != nil {
			return "", err
		}
		svc.HealthCheck = check
	}

	project := &types.Project{
		Name:     ctx.Schema.Name,
		Services: types.Services{def.ID: svc},
	}
	out, err := project.MarshalYAML()
	if err != nil {
		return "", fmt.Errorf("failed to marshal compose project: %w", err)
	}
	return string(out), nil
}

func composeHealthCheck(test []string, interval, timeout string, retries int) (*types.HealthCheckConfig, error) {
	check := &types.HealthCheckConfig{Test: types.HealthCheckTest(test)}

	for _, d := range []struct {
		raw    string
		target **types.Duration
	}{{interval, &check.Interval}, {timeout, &check.Timeout}} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid health check duration %q: %w", d.raw, err)
		}
		duration := types.Duration(parsed)
		*d.target = &duration
	}

	if retries > 0 {
		r := uint64(retries)
		check.Retries = &r
	}
	return check, nil
}

// renderTraefik renders the routing block as a Traefik dynamic configuration fragment
func renderTraefik(ctx *Context) (string, error) {
	def := ctx.service.Definition
	routing := def.Routing
	if routing == nil {
		return "", fmt.Errorf("service %q declares no routing", def.ID)
	}
	if def.Port == 0 {
		return "", fmt.Errorf("service %q declares no port to route to", def.ID)
	}

	var rules []string
	if routing.Host != "" {
		rules = append(rules, fmt.Sprintf("Host(`%s`)", routing.Host))
	}
	if routing.PathPrefix != "" {
		rules = append(rules, fmt.Sprintf("PathPrefix(`%s`)", routing.PathPrefix))
	}
	if len(rules) == 0 {
		rules = append(rules, "PathPrefix(`/`)")
	}

	router := &dynamic.Router{
		EntryPoints: routing.EntryPoints,
		Middlewares: routing.Middlewares,
		Service:     def.ID,
		Rule:        strings.Join(rules, " && "),
	}
	if routing.TLS {
		router.TLS = &dynamic.RouterTLSConfig{}
	}

	cfg := &dynamic.Configuration{
		HTTP: &dynamic.HTTPConfiguration{
			Routers: map[string]*dynamic.Router{def.ID: router},
			Services: map[string]*dynamic.Service{
				def.ID: {
					LoadBalancer: &dynamic.ServersLoadBalancer{
						Servers: []dynamic.Server{
							{URL: "http://" + net.JoinHostPort(def.Name(), strconv.Itoa(def.Port))},
						},
					},
				},
			},
		},
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal routing configuration: %w", err)
	}
	return string(out), nil
}
