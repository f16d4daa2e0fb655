package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/rkv/riakhttp"
	"github.com/rkv/riakhttp/rest"
)

// fileConfig is the YAML shape of a cluster configuration file.
type fileConfig struct {
	Nodes   []nodeConfig  `yaml:"nodes"`
	Pool    poolConfig    `yaml:"pool"`
	Breaker breakerConfig `yaml:"breaker"`
}

type nodeConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`
}

type poolConfig struct {
	MaxSize             int32    `yaml:"max_size"`
	MaxConnLifetime     duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime     duration `yaml:"max_conn_idle_time"`
	HealthCheckInterval duration `yaml:"health_check_interval"`
}

type breakerConfig struct {
	Enabled     bool     `yaml:"enabled"`
	MaxRequests uint32   `yaml:"max_requests"`
	Interval    duration `yaml:"interval"`
	Timeout     duration `yaml:"timeout"`
}

// duration accepts Go duration strings like "30s" in YAML.
type duration time.Duration

func (d *duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = duration(parsed)
	return nil
}

// loadConfigFile reads and parses a YAML cluster configuration.
func loadConfigFile(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.Nodes) == 0 {
		return nil, fmt.Errorf("config %s lists no nodes", path)
	}
	return &cfg, nil
}

// parseNodeList parses a comma-separated host:port list.
func parseNodeList(list string, tls bool) ([]rest.Node, error) {
	var nodes []rest.Node
	for _, addr := range strings.Split(list, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		host, portStr, ok := strings.Cut(addr, ":")
		if !ok {
			return nil, fmt.Errorf("invalid node address %q, want host:port", addr)
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port in %q: %w", addr, err)
		}
		nodes = append(nodes, rest.Node{Host: host, Port: port, TLS: tls})
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no nodes in %q", list)
	}
	return nodes, nil
}

// buildClient assembles the client from either a config file or the
// -nodes flag.
func buildClient(configPath, nodeList string, tls bool) (*riakhttp.Client, error) {
	if configPath != "" {
		cfg, err := loadConfigFile(configPath)
		if err != nil {
			return nil, err
		}

		nodes := make([]rest.Node, len(cfg.Nodes))
		for i, n := range cfg.Nodes {
			nodes[i] = rest.Node{Host: n.Host, Port: n.Port, TLS: n.TLS}
		}

		clientConfig := riakhttp.Config{
			MaxSize:             cfg.Pool.MaxSize,
			MaxConnLifetime:     time.Duration(cfg.Pool.MaxConnLifetime),
			MaxConnIdleTime:     time.Duration(cfg.Pool.MaxConnIdleTime),
			HealthCheckInterval: time.Duration(cfg.Pool.HealthCheckInterval),
		}
		if cfg.Breaker.Enabled {
			clientConfig.NewCircuitBreaker = riakhttp.NewCircuitBreakerConfig(
				cfg.Breaker.MaxRequests,
				time.Duration(cfg.Breaker.Interval),
				time.Duration(cfg.Breaker.Timeout))
		}

		return riakhttp.NewClient(riakhttp.StaticNodes(nodes...), clientConfig)
	}

	nodes, err := parseNodeList(nodeList, tls)
	if err != nil {
		return nil, err
	}
	return riakhttp.NewClient(riakhttp.StaticNodes(nodes...), riakhttp.Config{})
}
