package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath 是未设置 MINDGRAPH_CONFIG 时使用的配置文件路径。
const DefaultPath = "config/config.yaml"

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// ServerConfig 定义了 HTTP 服务的监听地址和跨域设置。
type ServerConfig struct {
	Address        string   `yaml:"address"`        // 监听地址，例如 ":8000"
	AllowedOrigins []string `yaml:"allowedOrigins"` // 允许跨域访问的来源
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// AuthConfig 用于配置管理接口的 JWT 认证。
type AuthConfig struct {
	JwtSecret string `yaml:"jwtSecret"` // JWT 密钥，为空时管理接口全部拒绝
	TokenTTL  int    `yaml:"tokenTTL"`  // 签发令牌的有效期（秒）
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// Neo4jConfig 定义了 Neo4j 图数据库的连接配置。
type Neo4jConfig struct {
	Uri      string `yaml:"uri"`      // Neo4j 数据库URI (例如: "bolt://localhost:7687")
	Username string `yaml:"username"` // 用户名
	Password string `yaml:"password"` // 密码
	Database string `yaml:"database"` // 数据库名称
}

// RedisConfig 定义了 Redis 数据库的连接配置。地址为空表示不启用统计缓存。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
	TTL      int    `yaml:"ttl"`      // 统计结果缓存时间（秒）
}

// MongoConfig 定义了 MongoDB 的连接配置。地址为空表示不记录预测审计。
type MongoConfig struct {
	Address    string `yaml:"address"`    // MongoDB 连接 URI
	Username   string `yaml:"username"`   // 用户名
	Password   string `yaml:"password"`   // 密码
	Database   string `yaml:"database"`   // 数据库名称
	Collection string `yaml:"collection"` // 预测审计集合名称
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。端点为空表示只保存本地模型文件。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 模型文件所在的存储桶
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// KafkaConfig 定义了 Kafka 的连接配置。brokers 为空表示不发布领域事件。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topic   string   `yaml:"topic"`   // 领域事件主题
}

// EtcdConfig 定义了 Etcd 服务注册的连接配置。endpoints 为空表示不注册。
type EtcdConfig struct {
	Endpoints []string `yaml:"endpoints"` // Etcd 节点地址列表
	LeaseTTL  int64    `yaml:"leaseTTL"`  // 注册租约时长（秒）
}

// DatabaseConfigs 包含所有外部存储的配置。
type DatabaseConfigs struct {
	MySQL   MySQLConfig `yaml:"mysql"`
	Neo4j   Neo4jConfig `yaml:"neo4j"`
	Redis   RedisConfig `yaml:"redis"`
	MongoDB MongoConfig `yaml:"mongodb"`
	MinIO   MinIOConfig `yaml:"minio"`
	Kafka   KafkaConfig `yaml:"kafka"`
	Etcd    EtcdConfig  `yaml:"etcd"`
}

// SearchConfig 定义了 TF-IDF 文献检索的参数。
type SearchConfig struct {
	MaxFeatures   int `yaml:"maxFeatures"`   // 词表上限
	PreviewLength int `yaml:"previewLength"` // 摘要预览的最大字符数
	CacheSize     int `yaml:"cacheSize"`     // 查询结果缓存条数，0 表示不缓存
}

// ClassifierConfig 定义了抑郁预测模型的训练与持久化参数。
type ClassifierConfig struct {
	ModelPath string  `yaml:"modelPath"` // 模型文件路径
	Seed      int64   `yaml:"seed"`      // 训练/测试集划分的随机种子
	TestRatio float64 `yaml:"testRatio"` // 测试集比例
}

// MiddlewareConfig 包含所有中间件的配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了限流器的配置。
type RateLimiterConfig struct {
	Enabled     bool              `yaml:"enabled"`
	Algorithm   string            `yaml:"algorithm"` // 支持: "tokenBucket", "fixedWindow"
	FixedWindow FixedWindowConfig `yaml:"fixedWindow"`
	TokenBucket TokenBucketConfig `yaml:"tokenBucket"`
}

// FixedWindowConfig 定义了固定窗口计数器算法的配置。
type FixedWindowConfig struct {
	Limit  int    `yaml:"limit"`
	Window string `yaml:"window"` // 例如: "1m", "30s"
}

// TokenBucketConfig 定义了令牌桶算法的配置。
type TokenBucketConfig struct {
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Logger     LoggerConfig     `yaml:"logger"`
	Auth       AuthConfig       `yaml:"auth"`
	Databases  DatabaseConfigs  `yaml:"databases"`
	Search     SearchConfig     `yaml:"search"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Middleware MiddlewareConfig `yaml:"middleware"`
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
// 解析后依次应用默认值和环境变量覆盖。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	return Parse(yamlFile)
}

// Parse 解析 YAML 内容。
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// PathFromEnv 返回 MINDGRAPH_CONFIG 指定的配置路径，未设置时返回 DefaultPath。
func PathFromEnv() string {
	if p := os.Getenv("MINDGRAPH_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

func (c *AppConfig) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "MindGraphDB API"
	}
	if c.App.Version == "" {
		c.App.Version = "1.0.0"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 3600
	}
	if c.Databases.Redis.TTL <= 0 {
		c.Databases.Redis.TTL = 60
	}
	if c.Databases.MongoDB.Collection == "" {
		c.Databases.MongoDB.Collection = "predictions"
	}
	if c.Databases.Kafka.Topic == "" {
		c.Databases.Kafka.Topic = "mindgraph_events"
	}
	if c.Databases.Etcd.LeaseTTL <= 0 {
		c.Databases.Etcd.LeaseTTL = 10
	}
	if c.Search.MaxFeatures <= 0 {
		c.Search.MaxFeatures = 1000
	}
	if c.Search.PreviewLength <= 0 {
		c.Search.PreviewLength = 300
	}
	if c.Classifier.ModelPath == "" {
		c.Classifier.ModelPath = "./models/depression_model.json"
	}
	if c.Classifier.Seed == 0 {
		c.Classifier.Seed = 42
	}
	if c.Classifier.TestRatio <= 0 || c.Classifier.TestRatio >= 1 {
		c.Classifier.TestRatio = 0.2
	}
}

func (c *AppConfig) applyEnv() {
	if v := os.Getenv("MINDGRAPH_JWT_SECRET"); v != "" {
		c.Auth.JwtSecret = v
	}
	if v := os.Getenv("MINDGRAPH_MYSQL_PASSWORD"); v != "" {
		c.Databases.MySQL.Password = v
	}
	if v := os.Getenv("MINDGRAPH_NEO4J_PASSWORD"); v != "" {
		c.Databases.Neo4j.Password = v
	}
}
