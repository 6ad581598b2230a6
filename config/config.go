package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig controla el paper trading por estrategia.
type EngineConfig struct {
	IntervalSeconds    int     `yaml:"interval_seconds"`
	StartingCapital    float64 `yaml:"starting_capital"`
	BetFraction        float64 `yaml:"bet_fraction"`         // fracción del equity por bracket
	MaxSetCost         float64 `yaml:"max_set_cost"`         // coste total del set por encima del cual no hay edge
	TakeProfitBid      float64 `yaml:"take_profit_bid"`      // best bid que dispara la venta anticipada
	MaxDepthFraction   float64 `yaml:"max_depth_fraction"`   // profundidad máxima consumible del book
	QualifyMinAsk      float64 `yaml:"qualify_min_ask"`      // banda de asks baratos
	QualifyMaxAsk      float64 `yaml:"qualify_max_ask"`
	MinVolumeUSD       float64 `yaml:"min_volume_usd"`
	MinDepthUSD        float64 `yaml:"min_depth_usd"`
	RequireBothFilters bool    `yaml:"require_both_filters"` // volumen AND liquidez en vez de OR
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	GammaBase    string `yaml:"gamma_base"`
	CLOBBase     string `yaml:"clob_base"`
	XTrackerBase string `yaml:"xtracker_base"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si
// existe. Los valores del .env sobreescriben los del YAML para las keys que
// correspondan. Si el archivo no existe, devuelve una config con defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	case os.IsNotExist(err):
		// sin archivo: solo defaults y env
	default:
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Engine.IntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("BRACKETBOT_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.IntervalSeconds <= 0 {
		cfg.Engine.IntervalSeconds = 300
	}
	if cfg.Engine.StartingCapital <= 0 {
		cfg.Engine.StartingCapital = 1000
	}
	if cfg.Engine.BetFraction <= 0 {
		cfg.Engine.BetFraction = 0.01
	}
	if cfg.Engine.MaxSetCost <= 0 {
		cfg.Engine.MaxSetCost = 0.95
	}
	if cfg.Engine.TakeProfitBid <= 0 {
		cfg.Engine.TakeProfitBid = 0.30
	}
	if cfg.Engine.MaxDepthFraction <= 0 {
		cfg.Engine.MaxDepthFraction = 0.10
	}
	if cfg.Engine.QualifyMinAsk <= 0 {
		cfg.Engine.QualifyMinAsk = 0.01
	}
	if cfg.Engine.QualifyMaxAsk <= 0 {
		cfg.Engine.QualifyMaxAsk = 0.10
	}
	if cfg.Engine.MinVolumeUSD <= 0 {
		cfg.Engine.MinVolumeUSD = 1000
	}
	if cfg.Engine.MinDepthUSD <= 0 {
		cfg.Engine.MinDepthUSD = 1000
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.XTrackerBase == "" {
		cfg.API.XTrackerBase = "https://xtracker.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "bracketbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
