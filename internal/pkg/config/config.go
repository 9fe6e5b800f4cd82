package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration 让 yaml.v3 能解析 "3s" 这样的时长字面量。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std 转换回标准库的 time.Duration。
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config 是所有服务共享的配置结构。每个服务只读取自己关心的部分。
type Config struct {
	Infra InfraConfig `yaml:"infra"`
	App   AppConfig   `yaml:"app"`
}

type InfraConfig struct {
	Mysql struct {
		DSN string `yaml:"dsn"`
	} `yaml:"mysql"`
	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
	} `yaml:"kafka"`
	Jaeger struct {
		Endpoint string `yaml:"endpoint"`
	} `yaml:"jaeger"`
	Nacos struct {
		ServerAddrs string `yaml:"serverAddrs"`
		Namespace   string `yaml:"namespace"`
		Group       string `yaml:"group"`
	} `yaml:"nacos"`
	Zookeeper struct {
		Servers []string `yaml:"servers"`
	} `yaml:"zookeeper"`
}

type AppConfig struct {
	// Services 是各下游服务的静态地址，Nacos 不可用时的兜底
	Services map[string]string `yaml:"services"`

	// RemoteCallTimeout 约束每一次出站调用（定价、库存查询、扣减）
	RemoteCallTimeout Duration `yaml:"remoteCallTimeout"`

	// PlacementPolicy 是下单策略的 CEL 表达式，为空则不启用
	PlacementPolicy string `yaml:"placementPolicy"`

	// DeductMaxRetries 是库存扣减在版本冲突下的最大重试次数
	DeductMaxRetries int `yaml:"deductMaxRetries"`

	Topics struct {
		OrderEvents string `yaml:"orderEvents"`
		LowStock    string `yaml:"lowStock"`
	} `yaml:"topics"`
}

// Load 从 CONFIG_PATH 指定的 YAML 文件加载配置；文件缺失时退回默认值，
// 方便本地起单个服务做调试。
func Load() (*Config, error) {
	cfg := defaults()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	return cfg, nil
}

func defaults() *Config {
	cfg := &Config{}
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/bookstore?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Infra.Nacos.ServerAddrs = "localhost:8848"
	cfg.Infra.Nacos.Group = "DEFAULT_GROUP"
	cfg.Infra.Zookeeper.Servers = []string{"localhost:2181"}
	cfg.App.Services = map[string]string{
		"catalog-service":   "http://localhost:8082",
		"inventory-service": "http://localhost:8083",
	}
	cfg.App.RemoteCallTimeout = Duration(3 * time.Second)
	cfg.App.DeductMaxRetries = 3
	cfg.App.Topics.OrderEvents = "order-events"
	cfg.App.Topics.LowStock = "inventory-low-stock"
	return cfg
}
