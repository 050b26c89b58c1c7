// Package config loads upstream configuration from YAML into the server
// descriptors upstream.PoolBuilder consumes, and resolves dynamic hosts.
package config
