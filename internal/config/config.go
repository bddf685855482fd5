// Package config reads binary configuration from flags, a config file,
// and the environment, generalized from the teacher's root config.go/
// main.go pair to cover both the Agent and Controller binaries.
package config

import (
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/kubelet/pkg/apis/deviceplugin/v1beta1"

	"github.com/akri-sh/akri/internal/logging"
)

const defaultDomain = "akri.sh"

// Agent holds the Agent binary's runtime configuration.
type Agent struct {
	Domain             string
	NodeName           string
	PluginDirectory    string
	PodResourcesSocket string
	RegistrationSocket string
	LogLevel           string
	Listen             string
}

// Controller holds the Controller binary's runtime configuration.
type Controller struct {
	LogLevel             string
	Listen               string
	MetricsBindAddress   string
	LeaderElection       bool
	LeaderElectionID     string
}

// bindCommon registers the flags shared by both binaries and parses
// them, binding viper to the resulting flag set, a config file, and
// the environment - matching the teacher's initConfig.
func bindCommon(cfgFileDefaultName string) (*viper.Viper, error) {
	cfgFile := flag.String("config", "", "Path to the config file.")
	flag.String("log-level", logging.LevelInfo, fmt.Sprintf("Log level to use. Possible values: %s", logging.AvailableLevels))
	flag.String("listen", ":8080", "The address at which to listen for health and metrics.")
	flag.Parse()

	v := viper.New()
	if err := v.BindPFlags(flag.CommandLine); err != nil {
		return nil, fmt.Errorf("failed to bind config: %w", err)
	}

	if *cfgFile != "" {
		v.SetConfigFile(*cfgFile)
	} else {
		v.SetConfigName(cfgFileDefaultName)
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/akri/")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// LoadAgent defines the Agent's flags, reads them together with any
// config file and environment overrides, and validates the result.
func LoadAgent() (Agent, error) {
	flag.String("domain", defaultDomain, "The domain to use when declaring devices.")
	flag.String("node-name", "", "The name of the node this Agent is running on (defaults to $NODE_NAME).")
	flag.String("plugin-directory", v1beta1.DevicePluginPath, "The directory in which to create device plugin sockets.")
	flag.String("pod-resources-socket", "/var/lib/kubelet/pod-resources/kubelet.sock", "The path to the kubelet pod-resources socket.")
	flag.String("registration-socket", "/var/lib/akri/agent-registration.sock", "The path at which to host the Discovery Handler registration service.")

	v, err := bindCommon("agent")
	if err != nil {
		return Agent{}, err
	}

	cfg := Agent{
		Domain:             v.GetString("domain"),
		NodeName:           v.GetString("node-name"),
		PluginDirectory:    v.GetString("plugin-directory"),
		PodResourcesSocket: v.GetString("pod-resources-socket"),
		RegistrationSocket: v.GetString("registration-socket"),
		LogLevel:           v.GetString("log-level"),
		Listen:             v.GetString("listen"),
	}
	if cfg.NodeName == "" {
		return cfg, fmt.Errorf("node-name must be set (flag, config file, or NODE_NAME env var)")
	}
	if errs := validation.IsDNS1123Subdomain(cfg.Domain); len(errs) > 0 {
		return cfg, fmt.Errorf("failed to parse domain %q: %s", cfg.Domain, strings.Join(errs, ", "))
	}
	return cfg, nil
}

// LoadController defines the Controller's flags and reads them the
// same way LoadAgent does.
func LoadController() (Controller, error) {
	flag.String("metrics-bind-address", ":8443", "The address the metrics endpoint binds to.")
	flag.Bool("leader-elect", false, "Enable leader election for the controller manager.")
	flag.String("leader-election-id", "akri-controller-leader", "The resource lock used for leader election.")

	v, err := bindCommon("controller")
	if err != nil {
		return Controller{}, err
	}

	return Controller{
		LogLevel:           v.GetString("log-level"),
		Listen:             v.GetString("listen"),
		MetricsBindAddress: v.GetString("metrics-bind-address"),
		LeaderElection:     v.GetBool("leader-elect"),
		LeaderElectionID:   v.GetString("leader-election-id"),
	}, nil
}
