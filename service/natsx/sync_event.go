package natsx

import (
	"context"
	"encoding/json"

	"RZProject/module/sync/service"
	"RZProject/tools/errs"
)

const defaultSubjectPrefix = "rz.sync.update"

// SyncEventPublisher 把扇出事件镜像到 NATS，主题按用户分：rz.sync.update.{userId}。
// core 模式即发即忘，与会话频道的至多一次语义一致。
type SyncEventPublisher struct {
	mgr           *NatsxManager
	subjectPrefix string
}

func NewSyncEventPublisher(mgr *NatsxManager) *SyncEventPublisher {
	return &SyncEventPublisher{mgr: mgr, subjectPrefix: defaultSubjectPrefix}
}

var _ service.EventPublisher = (*SyncEventPublisher)(nil)

func (p *SyncEventPublisher) Name() string { return "nats" }

func (p *SyncEventPublisher) Publish(_ context.Context, ev *service.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return errs.Wrap(err)
	}
	return p.mgr.Publish(p.subjectPrefix+"."+ev.UserID, payload)
}
