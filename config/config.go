package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Discord    DiscordConfig    `mapstructure:"discord"`
	Dictionary DictionaryConfig `mapstructure:"dictionary"`
	Game       GameConfig       `mapstructure:"game"`
	Help       HelpConfig       `mapstructure:"help"`
}

type ServerConfig struct {
	HTTPAddress string `mapstructure:"http_address"`
	RPCAddress  string `mapstructure:"rpc_address"`
	// RoomSweepInterval 清理没人的 websocket 房间的间隔, 0 表示不清理
	RoomSweepInterval time.Duration `mapstructure:"room_sweep_interval"`
}

type DatabaseConfig struct {
	// Driver 可选 gorm / postgres / memory
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type DiscordConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Token    string   `mapstructure:"token"`
	OwnerIDs []string `mapstructure:"owner_ids"`
}

type DictionaryConfig struct {
	Dir string `mapstructure:"dir"`
}

// GameConfig holds the defaults every new room starts with.
type GameConfig struct {
	CooldownSeconds int  `mapstructure:"cooldown_seconds"`
	CheckDuplicates bool `mapstructure:"check_duplicates"`
}

type HelpConfig struct {
	MaxPerDay     int    `mapstructure:"max_per_day"`
	Timezone      string `mapstructure:"timezone"`
	RetentionDays int    `mapstructure:"retention_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":8081")
	v.SetDefault("server.room_sweep_interval", "10m")
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "wordchain")
	v.SetDefault("discord.enabled", false)
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.owner_ids", []string{})
	v.SetDefault("dictionary.dir", "tudien")
	v.SetDefault("game.cooldown_seconds", 3)
	v.SetDefault("game.check_duplicates", true)
	v.SetDefault("help.max_per_day", 5)
	v.SetDefault("help.timezone", "Asia/Ho_Chi_Minh")
	v.SetDefault("help.retention_days", 30)
}

// LoadConfig 读取 path 目录下的 config.yaml，环境变量优先 (DISCORD_TOKEN, GAME_COOLDOWN_SECONDS ...)
// 配置文件不存在时只使用默认值和环境变量
func LoadConfig(path string) (config *Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

// IsOwner reports whether userID is listed in discord.owner_ids.
func (c *Config) IsOwner(userID string) bool {
	for _, id := range c.Discord.OwnerIDs {
		if strings.TrimSpace(id) == userID {
			return true
		}
	}
	return false
}
