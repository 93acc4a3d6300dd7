package config

import (
	"context"
	"strings"
	"time"

	mgoutil "RZProject/data/database/mgo/mongoutil"
	"RZProject/logger"
	mgoSrv "RZProject/service/mgo"
	redis "RZProject/service/storage/redis"
	"RZProject/tools"
	ids "RZProject/tools/ids"
)

// AppConfig 节点配置，全部可被环境变量覆盖
type AppConfig struct {
	NodeId int64
	Port   int

	SweepInterval time.Duration // 会话清扫周期

	NatsEnable  bool
	NatsServers []string
	NatsName    string

	KafkaEnable  bool
	KafkaBrokers []string
	KafkaTopic   string
}

var Global = AppConfig{
	NodeId:        100,
	Port:          8080,
	SweepInterval: time.Hour,
	NatsName:      "rz-sync-node",
	KafkaTopic:    "rz_sync_events",
}

// ConfigAll 按依赖顺序初始化各组件
func ConfigAll() error {
	loadEnv()
	ConfigIds()
	if err := ConfigRedis(); err != nil {
		return err
	}
	if err := ConfigMgo(); err != nil {
		return err
	}
	return nil
}

func loadEnv() {
	Global.NodeId = int64(tools.GetEnvInt("NODE_ID", int(Global.NodeId)))
	Global.Port = tools.GetEnvInt("PORT", Global.Port)
	Global.SweepInterval = time.Duration(tools.GetEnvInt("SWEEP_INTERVAL_SEC", 3600)) * time.Second

	Global.NatsEnable = tools.GetEnvBool("NATS_ENABLE", false)
	Global.NatsServers = strings.Split(tools.GetEnv("NATS_SERVERS", "nats://127.0.0.1:4222"), ",")
	Global.NatsName = tools.GetEnv("NATS_NAME", Global.NatsName)

	Global.KafkaEnable = tools.GetEnvBool("KAFKA_ENABLE", false)
	Global.KafkaBrokers = strings.Split(tools.GetEnv("KAFKA_BROKERS", "127.0.0.1:9092"), ",")
	Global.KafkaTopic = tools.GetEnv("KAFKA_TOPIC", Global.KafkaTopic)
}

func ConfigIds() {
	logger.Infof("配置id生成 nodeId=%d", Global.NodeId)
	ids.SetNodeID(Global.NodeId)
}

func ConfigRedis() error {
	cfg := redis.Config{
		Addr:     tools.GetEnv("REDIS_ADDR", "127.0.0.1:6379"),
		Password: tools.GetEnv("REDIS_PASSWORD", ""),
		DB:       tools.GetEnvInt("REDIS_DB", 0),
		PoolSize: tools.GetEnvInt("REDIS_POOL_SIZE", 64),
	}
	logger.Infof("配置 Redis addr=%s db=%d", cfg.Addr, cfg.DB)
	return redis.InitRedis(cfg)
}

func ConfigMgo() error {
	cfg := &mgoutil.Config{
		Uri:         tools.GetEnv("MONGO_URI", ""),
		Address:     strings.Split(tools.GetEnv("MONGO_ADDRESS", "127.0.0.1:27017"), ","),
		Database:    tools.GetEnv("MONGO_DATABASE", "ruzhi"),
		Username:    tools.GetEnv("MONGO_USERNAME", ""),
		Password:    tools.GetEnv("MONGO_PASSWORD", ""),
		MaxPoolSize: tools.GetEnvInt("MONGO_MAX_POOL_SIZE", 100),
	}
	logger.Infof("配置 MongoDB database=%s", cfg.Database)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return mgoSrv.Init(ctx, cfg)
}
