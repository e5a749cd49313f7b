package config

// RedisConfig holds the connection settings for the optional read-through
// cache in front of the query engine's pipeline listing and cost-breakdown
// paths. Absent a host, the cache is simply never constructed and those
// paths fall straight through to Postgres.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}
