package config

// Store configures the local durable store.
type Store struct {
	Path string `env:"STORE_PATH" envDefault:"stockalerte.db"`
}
