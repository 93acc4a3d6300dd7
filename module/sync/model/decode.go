package model

import (
	"github.com/mitchellh/mapstructure"

	"RZProject/tools/errs"
)

// DecodeUserRecord 把客户端上传的松散 JSON 载荷（map）解码为类型化的 UserRecord。
// 弱类型解码：数字/字符串互转由 mapstructure 兜底（小程序端的数字ID会转成字符串）。
// 四类已知数据类型之外的键在这里直接丢弃，不会进入合并流程。
func DecodeUserRecord(payload map[string]any) (*UserRecord, error) {
	if payload == nil {
		return &UserRecord{}, nil
	}
	var rec UserRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	if err := dec.Decode(payload); err != nil {
		return nil, errs.ErrArgs.WrapMsg("decode local data", "err", err)
	}
	return &rec, nil
}
