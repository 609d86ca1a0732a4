package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "MONARGENT_"

type Application struct {
	Host       string     `koanf:"host"`
	Storage    Storage    `koanf:"storage"`
	Ledger     Ledger     `koanf:"ledger"`
	Categories Categories `koanf:"categories"`
}

type Storage struct {
	// Backend is one of "memory", "file" or "sqlite".
	Backend string `koanf:"backend"`
	// Path is the data directory for "file" and the database file for "sqlite".
	Path string `koanf:"path"`
}

type Ledger struct {
	// InitialBalance is the starting balance of budgets that never set one.
	InitialBalance string `koanf:"initialbalance"`
}

type Categories struct {
	Rules []KeywordRule `koanf:"rules"`
}

// KeywordRule maps description keywords to a category id. Configured rules
// are checked before the built-in ones.
type KeywordRule struct {
	CategoryID string   `koanf:"category"`
	Keywords   []string `koanf:"keywords"`
}

func Default() Application {
	return Application{
		Host: "127.0.0.1:8181",
		Storage: Storage{
			Backend: "sqlite",
			Path:    "./data/monargent.db",
		},
		Ledger: Ledger{
			InitialBalance: "0",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, envPrefix)), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}
	return app, nil
}

// Path returns the config file location, honouring MONARGENT_CONFIG.
func Path() string {
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p
	}
	return "./config/application.yaml"
}
