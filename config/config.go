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
	Trading TradingConfig `yaml:"trading"`
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// TradingConfig controla el bucle de trading.
type TradingConfig struct {
	IntervalSeconds      int      `yaml:"interval_seconds"`
	EntryUSD             float64  `yaml:"entry_usd"`              // monto por orden de entrada
	GraceMinutes         int      `yaml:"grace_minutes"`          // ventana de admisión tras entry_time
	ExpiryHorizonMinutes int      `yaml:"expiry_horizon_minutes"` // limpieza de cola tras el inicio
	EntryLeadMinutes     int      `yaml:"entry_lead_minutes"`     // entrada antes del inicio del partido
	CacheWindowMinutes   int      `yaml:"cache_window_minutes"`   // ventana de snapshot pre-partido
	DisappearThreshold   int      `yaml:"disappear_threshold"`    // ausencias consecutivas antes de reconciliar
	ExcludedMarkets      []string `yaml:"excluded_markets"`       // slugs gestionados a mano
}

// APIConfig contiene los base URLs de las APIs y el RPC de Polygon.
type APIConfig struct {
	CLOBBase  string `yaml:"clob_base"`
	GammaBase string `yaml:"gamma_base"`
	DataBase  string `yaml:"data_base"`
	RPCURL    string `yaml:"rpc_url"`
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

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// TickInterval devuelve el intervalo del bucle como time.Duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Trading.IntervalSeconds) * time.Second
}

// Grace devuelve la ventana de admisión como time.Duration.
func (c *Config) Grace() time.Duration {
	return time.Duration(c.Trading.GraceMinutes) * time.Minute
}

// ExpiryHorizon devuelve el horizonte de expiración de la cola.
func (c *Config) ExpiryHorizon() time.Duration {
	return time.Duration(c.Trading.ExpiryHorizonMinutes) * time.Minute
}

// EntryLead devuelve la antelación de la ventana de entrada.
func (c *Config) EntryLead() time.Duration {
	return time.Duration(c.Trading.EntryLeadMinutes) * time.Minute
}

// CacheWindow devuelve la ventana de snapshot pre-partido.
func (c *Config) CacheWindow() time.Duration {
	return time.Duration(c.Trading.CacheWindowMinutes) * time.Minute
}

// PrivateKey devuelve la clave privada de la wallet desde el entorno.
// Nunca se lee del YAML para que no acabe en un repo.
func (c *Config) PrivateKey() (string, error) {
	key := os.Getenv("PRIVATE_KEY")
	if key == "" {
		return "", fmt.Errorf("config.PrivateKey: PRIVATE_KEY no está definida")
	}
	return key, nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.API.RPCURL = v
	}
	if v := os.Getenv("SQLITE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Trading.IntervalSeconds <= 0 {
		cfg.Trading.IntervalSeconds = 60
	}
	if cfg.Trading.EntryUSD <= 0 {
		cfg.Trading.EntryUSD = 3.50
	}
	if cfg.Trading.GraceMinutes <= 0 {
		cfg.Trading.GraceMinutes = 2
	}
	if cfg.Trading.ExpiryHorizonMinutes <= 0 {
		cfg.Trading.ExpiryHorizonMinutes = 60
	}
	if cfg.Trading.EntryLeadMinutes <= 0 {
		cfg.Trading.EntryLeadMinutes = 60
	}
	if cfg.Trading.CacheWindowMinutes <= 0 {
		cfg.Trading.CacheWindowMinutes = 180
	}
	if cfg.Trading.DisappearThreshold <= 0 {
		cfg.Trading.DisappearThreshold = 1
	}
	if cfg.API.CLOBBase == "" {
		cfg.API.CLOBBase = "https://clob.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.RPCURL == "" {
		cfg.API.RPCURL = "https://polygon-rpc.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "lolbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
