package mgo

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	mgo "RZProject/data/database/mgo/mongoutil"
)

var (
	once sync.Once
	cli  *mgo.Client
)

// Init 同步建连（单例）；失败直接返回错误，由 main 决定退出
func Init(ctx context.Context, cfg *mgo.Config) error {
	var initErr error
	once.Do(func() {
		c, err := mgo.NewMongoDB(ctx, cfg)
		if err != nil {
			initErr = err
			return
		}
		cli = c
	})
	return initErr
}

// GetDB 获取数据库句柄
func GetDB() *mongo.Database {
	if cli == nil {
		panic("Mongo not initialized, call Init first")
	}
	return cli.GetDB()
}
