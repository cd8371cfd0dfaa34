// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config 是进程的全量配置树，从 YAML 文件加载，文件路径可用
// CONFIG_PATH 环境变量覆盖。缺省值面向本地单机运行。
type Config struct {
	Service struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	} `yaml:"service"`

	MySQL struct {
		// Enabled 为 false 时使用进程内实体仓库（参考实现）。
		Enabled bool   `yaml:"enabled"`
		DSN     string `yaml:"dsn"`
	} `yaml:"mysql"`

	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`

	Kafka struct {
		Brokers          []string `yaml:"brokers"`
		RestockTopic     string   `yaml:"restockTopic"`
		OrderEventsTopic string   `yaml:"orderEventsTopic"`
	} `yaml:"kafka"`

	Zookeeper struct {
		// Enabled 为 true 时库存锁走 ZooKeeper 分布式锁，
		// 供多进程部署使用；默认用进程内互斥表。
		Enabled bool     `yaml:"enabled"`
		Addrs   []string `yaml:"addrs"`
	} `yaml:"zookeeper"`

	Nacos struct {
		Enabled   bool   `yaml:"enabled"`
		Addrs     string `yaml:"addrs"`
		Namespace string `yaml:"namespace"`
		Group     string `yaml:"group"`
	} `yaml:"nacos"`

	Jaeger struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"jaeger"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Service.Name = "storefront-service"
	cfg.Service.Port = 8080
	cfg.Redis.Addr = "localhost:6379"
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.RestockTopic = "restock-notifications"
	cfg.Kafka.OrderEventsTopic = "order-events"
	cfg.Nacos.Addrs = "localhost:8848"
	cfg.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	return cfg
}

// LoadConfig 读取配置文件并套用到缺省值之上。
// 文件不存在时直接使用缺省值，方便零配置起步。
func LoadConfig(path string) (*Config, error) {
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		path = env
	}

	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}
