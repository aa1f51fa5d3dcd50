package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sourceplane/stackgen/internal/expand"
	"github.com/sourceplane/stackgen/internal/model"
)

// ServiceInfo holds everything shown about a service
type ServiceInfo struct {
	Summary     *expand.ServiceSummary
	Description string
	Port        int
	Published   string
	Fields      []FieldInfo
	Artifacts   []string
}

// FieldInfo holds the displayed metadata of a configuration field
type FieldInfo struct {
	Name        string
	Type        string
	Description string
	Category    string
	Default     any
	Value       any
	Required    bool
	Secret      string
	Order       int
}

// ExtractServiceInfo combines a service summary with its schema definition
func ExtractServiceInfo(ns *model.NormalizedSchema, summary *expand.ServiceSummary) *ServiceInfo {
	svc := ns.Services[summary.ID]
	def := svc.Definition

	info := &ServiceInfo{
		Summary:     summary,
		Description: def.Description,
		Port:        def.Port,
	}
	if def.PublishedPort != nil {
		bind := def.BindAddress
		if bind == "" {
			bind = "0.0.0.0"
		}
		info.Published = fmt.Sprintf("%s:%d", bind, *def.PublishedPort)
	}

	for _, artifact := range def.Artifacts {
		info.Artifacts = append(info.Artifacts, fmt.Sprintf("%s (%s)", artifact.Path, artifact.EngineName()))
	}

	for i, name := range svc.FieldOrder {
		field := svc.Fields[name].Definition
		order := field.Order
		if order == 0 {
			order = i
		}
		info.Fields = append(info.Fields, FieldInfo{
			Name:        name,
			Type:        field.Type,
			Description: field.Description,
			Category:    field.Category,
			Default:     field.Default,
			Value:       summary.Config[name],
			Required:    field.Required,
			Secret:      field.SecretRef,
			Order:       order,
		})
	}

	// Form order: category, then declared order
	sort.SliceStable(info.Fields, func(i, j int) bool {
		if info.Fields[i].Category != info.Fields[j].Category {
			return info.Fields[i].Category < info.Fields[j].Category
		}
		return info.Fields[i].Order < info.Fields[j].Order
	})

	return info
}

// PrintShortFormat prints a service in one line
func PrintShortFormat(w io.Writer, info *ServiceInfo) {
	state := "inactive"
	if info.Summary.Active {
		state = "active"
	}
	fmt.Fprintf(w, "%-20s  %-8s  %s\n", info.Summary.ID, state, info.Summary.Image)
}

// PrintLongFormat prints a service with its activation reasons, dependencies and fields
func PrintLongFormat(w io.Writer, info *ServiceInfo) {
	s := info.Summary

	fmt.Fprintf(w, "\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(w, "Service: %s\n", s.ID)
	fmt.Fprintf(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	if info.Description != "" {
		fmt.Fprintf(w, "Description:\n  %s\n\n", info.Description)
	}

	fmt.Fprintf(w, "Image:    %s\n", s.Image)
	if info.Port > 0 {
		fmt.Fprintf(w, "Port:     %d\n", info.Port)
	}
	if info.Published != "" {
		fmt.Fprintf(w, "Published: %s\n", info.Published)
	}
	fmt.Fprintf(w, "\n")

	if s.Active {
		fmt.Fprintf(w, "Active because:\n")
		for _, reason := range s.Reasons {
			fmt.Fprintf(w, "  • %s\n", reason)
		}
	} else {
		fmt.Fprintf(w, "Inactive\n")
	}
	fmt.Fprintf(w, "\n")

	if len(s.Dependencies) > 0 {
		fmt.Fprintf(w, "Requires:     %s\n", strings.Join(s.Dependencies, ", "))
	}
	if len(s.AllDependencies) > len(s.Dependencies) {
		fmt.Fprintf(w, "Starts after: %s\n", strings.Join(s.AllDependencies, ", "))
	}
	if len(s.Dependents) > 0 {
		fmt.Fprintf(w, "Required by:  %s\n", strings.Join(s.Dependents, ", "))
	}
	if len(s.AllDependents) > len(s.Dependents) {
		fmt.Fprintf(w, "Affects:      %s\n", strings.Join(s.AllDependents, ", "))
	}
	if len(s.Secrets) > 0 {
		fmt.Fprintf(w, "Secrets:      %s\n", strings.Join(s.Secrets, ", "))
	}
	if len(s.Dependencies) > 0 || len(s.Dependents) > 0 || len(s.Secrets) > 0 {
		fmt.Fprintf(w, "\n")
	}

	if len(info.Fields) > 0 {
		fmt.Fprintf(w, "Configuration:\n")
		category := ""
		for _, field := range info.Fields {
			if field.Category != category {
				category = field.Category
				fmt.Fprintf(w, "  [%s]\n", category)
			}

			line := fmt.Sprintf("  • %-24s %-8s", field.Name, field.Type)
			if field.Secret != "" {
				line += fmt.Sprintf(" = ${%s}", field.Secret)
			} else if field.Value != nil {
				line += fmt.Sprintf(" = %v", field.Value)
			}
			if field.Required {
				line += " (required)"
			}
			fmt.Fprintln(w, line)
			if field.Description != "" {
				fmt.Fprintf(w, "      %s\n", field.Description)
			}
		}
		fmt.Fprintf(w, "\n")
	}

	if len(info.Artifacts) > 0 {
		fmt.Fprintf(w, "Artifacts:\n")
		for _, artifact := range info.Artifacts {
			fmt.Fprintf(w, "  • %s\n", artifact)
		}
		fmt.Fprintf(w, "\n")
	}
}
