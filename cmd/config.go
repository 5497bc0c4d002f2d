package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/strangelove-ventures/cctp-payroll/ethereum"
	"github.com/strangelove-ventures/cctp-payroll/registry"
	"github.com/strangelove-ventures/cctp-payroll/solana"
	"github.com/strangelove-ventures/cctp-payroll/types"
)

const (
	envCircleAPIKey       = "CIRCLE_API_KEY"
	envCircleEntitySecret = "CIRCLE_ENTITY_SECRET"
	envMongoURI           = "MONGO_URI"
)

// Command for printing current configuration
func configShowCmd(a *AppState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "showConfig",
		Aliases: []string{"sc"},
		Short:   "Prints current configuration. By default it prints in yaml",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.InitAppState()
			return nil
		},
		Example: strings.TrimSpace(fmt.Sprintf(`
$ %s showConfig --config %s
$ %s sc`, appName, defaultConfigPath, appName)),
		RunE: func(cmd *cobra.Command, args []string) error {

			jsn, err := cmd.Flags().GetBool(flagJSON)
			if err != nil {
				return err
			}

			switch {
			case jsn:
				out, err := json.Marshal(a.Config)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			default:
				out, err := yaml.Marshal(redacted(a.Config))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
		},
	}
	addJsonFlag(cmd)
	return cmd
}

// LoadConfig parses the app config file and applies secrets from the environment.
func LoadConfig(file string) (*types.Config, error) {
	cfg, err := ParseConfig(file)
	if err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg, os.Getenv)
	return cfg, nil
}

// ParseConfig parses the app config file. Each chain entry is decoded into the
// config type of its family: the registry family for built-in symbols, or the
// entry's family key for chains the registry does not know.
func ParseConfig(file string) (*types.Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %w", err)
	}

	var cfg types.ConfigWrapper
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	c := types.Config{
		EnabledChains: cfg.EnabledChains,
		Treasury:      cfg.Treasury,
		Circle:        cfg.Circle,
		Payroll:       cfg.Payroll,
		Mongo:         cfg.Mongo,
		Api:           cfg.Api,
		Chains:        make(map[string]types.ChainConfig),
	}

	builtins := registry.New(registry.Defaults()...)
	for name, chain := range cfg.Chains {
		yamlbz, err := yaml.Marshal(chain)
		if err != nil {
			return nil, err
		}

		family, err := chainFamily(builtins, name, chain)
		if err != nil {
			return nil, err
		}

		switch family {
		case types.FamilySolana:
			var cc solana.Config
			if err := yaml.Unmarshal(yamlbz, &cc); err != nil {
				return nil, fmt.Errorf("error unmarshalling chain %s: %w", name, err)
			}
			c.Chains[name] = &cc
		case types.FamilyEVM:
			var cc ethereum.ChainConfig
			if err := yaml.Unmarshal(yamlbz, &cc); err != nil {
				return nil, fmt.Errorf("error unmarshalling chain %s: %w", name, err)
			}
			c.Chains[name] = &cc
		default:
			return nil, fmt.Errorf("%w: chain %s has family %q", types.ErrUnsupportedChain, name, family)
		}
	}
	return &c, nil
}

func chainFamily(builtins *registry.Registry, name string, chain map[string]any) (types.Family, error) {
	if info, err := builtins.Resolve(name); err == nil {
		return info.Family, nil
	}
	family, ok := chain["family"].(string)
	if !ok || family == "" {
		return "", fmt.Errorf("family must be set for chain %s", name)
	}
	return types.Family(family), nil
}

// applyEnvOverrides replaces secrets in cfg with values found in the environment.
// Chain keys are read from <SYMBOL>_PRIV_KEY, with dashes in the symbol replaced by underscores.
func applyEnvOverrides(cfg *types.Config, getenv func(string) string) {
	if v := getenv(envCircleAPIKey); v != "" {
		cfg.Circle.APIKey = v
	}
	if v := getenv(envCircleEntitySecret); v != "" {
		cfg.Circle.EntitySecret = v
	}
	if v := getenv(envMongoURI); v != "" {
		cfg.Mongo.URI = v
	}

	for name, chain := range cfg.Chains {
		key := getenv(privKeyEnv(name))
		if key == "" {
			continue
		}
		switch cc := chain.(type) {
		case *solana.Config:
			cc.PrivateKey = key
		case *ethereum.ChainConfig:
			cc.MinterPrivateKey = key
		}
	}
}

func privKeyEnv(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "-", "_")) + "_PRIV_KEY"
}

// redacted returns a copy of cfg without secrets, for printing.
func redacted(cfg *types.Config) *types.Config {
	cp := *cfg
	cp.Circle.APIKey = ""
	cp.Circle.EntitySecret = ""
	cp.Mongo.URI = ""
	cp.Chains = make(map[string]types.ChainConfig, len(cfg.Chains))
	for name, chain := range cfg.Chains {
		switch cc := chain.(type) {
		case *solana.Config:
			c := *cc
			c.PrivateKey = ""
			cp.Chains[name] = &c
		case *ethereum.ChainConfig:
			c := *cc
			c.MinterPrivateKey = ""
			cp.Chains[name] = &c
		default:
			cp.Chains[name] = chain
		}
	}
	return &cp
}
