// Package bridgecfg loads bridge.ProviderOptions / bridge.ConsumerOptions
// from YAML, for deployments that configure a peer from a file instead of
// constructing options in code.
package bridgecfg

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zoobzio/bridge"
)

type providerFile struct {
	Name           string   `yaml:"name"`
	HandleTTL      string   `yaml:"handle_ttl"`
	SweepInterval  string   `yaml:"sweep_interval"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	TargetOrigin   string   `yaml:"target_origin"`
}

type consumerFile struct {
	Timeout           string   `yaml:"timeout"`
	GCSweepInterval   string   `yaml:"gc_sweep_interval"`
	ReleaseOnPageHide string   `yaml:"release_on_page_hide"`
	HideStructure     bool     `yaml:"hide_structure"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	TargetOrigin      string   `yaml:"target_origin"`
}

// LoadProviderOptions reads a YAML file and returns the bridge.ProviderOptions
// it describes. Durations are parsed with time.ParseDuration ("10m", "30s");
// an absent duration field leaves the corresponding option at its zero
// value, and a zero handle_ttl or sweep_interval disables the Provider's
// handle TTL sweeper; no default duration is substituted.
func LoadProviderOptions(path string) (bridge.ProviderOptions, error) {
	var f providerFile
	if err := readYAML(path, &f); err != nil {
		return bridge.ProviderOptions{}, err
	}

	opts := bridge.ProviderOptions{Name: f.Name, TargetOrigin: f.TargetOrigin}
	var err error
	if opts.HandleTTL, err = parseDuration("handle_ttl", f.HandleTTL); err != nil {
		return bridge.ProviderOptions{}, err
	}
	if opts.SweepInterval, err = parseDuration("sweep_interval", f.SweepInterval); err != nil {
		return bridge.ProviderOptions{}, err
	}
	if len(f.AllowedOrigins) > 0 {
		opts.AllowedOrigins = bridge.AllowOrigins(f.AllowedOrigins...)
	}
	return opts, nil
}

// LoadConsumerOptions reads a YAML file and returns the bridge.ConsumerOptions
// it describes. An absent "timeout" leaves Timeout at
// its zero value, which ConsumerOptions treats as "reject immediately" — set
// it explicitly in the file to get a real handshake window.
func LoadConsumerOptions(path string) (bridge.ConsumerOptions, error) {
	var f consumerFile
	if err := readYAML(path, &f); err != nil {
		return bridge.ConsumerOptions{}, err
	}

	opts := bridge.ConsumerOptions{
		ReleaseOnPageHide: bridge.PageHidePolicy(f.ReleaseOnPageHide),
		HideStructure:     f.HideStructure,
		TargetOrigin:      f.TargetOrigin,
	}
	var err error
	if opts.Timeout, err = parseDuration("timeout", f.Timeout); err != nil {
		return bridge.ConsumerOptions{}, err
	}
	if opts.GCSweepInterval, err = parseDuration("gc_sweep_interval", f.GCSweepInterval); err != nil {
		return bridge.ConsumerOptions{}, err
	}
	if len(f.AllowedOrigins) > 0 {
		opts.AllowedOrigins = bridge.AllowOrigins(f.AllowedOrigins...)
	}
	return opts, nil
}

func readYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("bridgecfg: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("bridgecfg: %s: %w", path, err)
	}
	return nil
}

func parseDuration(field, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("bridgecfg: %s: %w", field, err)
	}
	return d, nil
}
