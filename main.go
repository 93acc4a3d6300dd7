package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"RZProject/global/config"
	"RZProject/logger"
	"RZProject/middleware"
	syncapi "RZProject/module/sync"
	"RZProject/module/sync/gateway"
	"RZProject/module/sync/resolver"
	"RZProject/module/sync/service"
	"RZProject/module/sync/store"
	kafkax "RZProject/service/dispatcher/kafka"
	mgoSrv "RZProject/service/mgo"
	"RZProject/service/natsx"
	storager "RZProject/service/storage/redis"
)

func main() {
	if err := config.ConfigAll(); err != nil {
		logger.Errorf("[boot] init failed err=%v", err)
		return
	}
	defer func() { _ = storager.CloseRedis() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 同步引擎装配：显式注入，不走包级单例
	gw := store.NewMongoGateway(mgoSrv.GetDB())
	sessions := store.NewRedisSessionStore(storager.GetRedis())
	svc := service.NewSyncService(gw, sessions, resolver.NewRegistry())

	if config.Global.NatsEnable {
		nm, err := natsx.NewNatsManager(natsx.NatsxConfig{
			Servers: config.Global.NatsServers,
			Name:    config.Global.NatsName,
		})
		if err != nil {
			logger.Errorf("[boot] nats init failed err=%v", err)
			return
		}
		defer nm.Close()
		svc.AddMirror(natsx.NewSyncEventPublisher(nm))
	}
	if config.Global.KafkaEnable {
		kp, err := kafkax.NewProducer(kafkax.Config{
			Brokers: config.Global.KafkaBrokers,
			Topic:   config.Global.KafkaTopic,
		})
		if err != nil {
			logger.Errorf("[boot] kafka init failed err=%v", err)
			return
		}
		defer func() { _ = kp.Close() }()
		svc.AddMirror(kp)
	}

	svc.StartSweeper(ctx, config.Global.SweepInterval)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Cors(), middleware.AccessLog())
	syncapi.NewHandler(svc).RegisterRoutes(r)
	r.GET("/ws", gateway.NewWSGateway(sessions).Handle)

	addr := fmt.Sprintf(":%d", config.Global.Port)
	logger.Infof("[boot] rz-sync listening on %s", addr)

	srvErr := make(chan error, 1)
	go func() { srvErr <- r.Run(addr) }()

	select {
	case <-ctx.Done():
		logger.Infof("[boot] shutting down")
	case err := <-srvErr:
		logger.Errorf("[boot] http server exited err=%v", err)
	}
}
