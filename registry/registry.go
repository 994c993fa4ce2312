package registry

import (
	consulapi "github.com/hashicorp/consul/api"
)

// ServiceRegistry registers instances of this service.
type ServiceRegistry interface {
	// Register registers one instance. id must be unique per instance; name is the logical
	// service name shared by all instances.
	Register(id, name, address string, port int, tags []string, check *consulapi.AgentServiceCheck) error

	// Deregister removes the instance registered under id.
	Deregister(id string) error
}
