package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio. Se construye una sola
// vez al arranque y se pasa explícitamente; nunca es un singleton mutable.
type Config struct {
	HTTPPort      string   `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL   string   `env:"DATABASE_URL,required"`
	JWTSecret     string   `env:"JWT_SECRET,required"`
	JWTTTLHours   int      `env:"JWT_TTL_HOURS" envDefault:"24"`
	CORSOrigins   []string `env:"CORS_ORIGINS,required" envSeparator:","`
	RedisAddr     string   `env:"REDIS_ADDR"`
	RedisPassword string   `env:"REDIS_PASSWORD"`
	RedisDB       int      `env:"REDIS_DB" envDefault:"0"`
}

// LoadConfig carga la configuración desde variables de entorno. La ausencia
// de una variable requerida es un error fatal de arranque.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
