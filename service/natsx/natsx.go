package natsx

import (
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"RZProject/logger"
	"RZProject/tools/errs"
)

// NatsxConfig NATS 连接配置
type NatsxConfig struct {
	Servers []string
	Name    string
}

// NatsxManager 持有单个 NATS 连接，core 模式发布
type NatsxManager struct {
	nc *nats.Conn
}

func NewNatsManager(cfg NatsxConfig) (*NatsxManager, error) {
	if len(cfg.Servers) == 0 {
		return nil, errs.New("nats servers required")
	}
	nc, err := nats.Connect(strings.Join(cfg.Servers, ","),
		nats.Name(cfg.Name),
		nats.Timeout(3*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warnf("[natsx] disconnected err=%v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Infof("[natsx] reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errs.WrapMsg(err, "connect nats", "servers", cfg.Servers)
	}
	return &NatsxManager{nc: nc}, nil
}

// Publish core 发布，失败交给调用方决定是否忽略
func (m *NatsxManager) Publish(subject string, payload []byte) error {
	if err := m.nc.Publish(subject, payload); err != nil {
		return errs.WrapMsg(err, "nats publish", "subject", subject)
	}
	return nil
}

func (m *NatsxManager) Close() {
	if m.nc != nil {
		m.nc.Close()
	}
}
