package idgen

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/sonyflake"
)

// flakeEpoch 之前的时间无法编码
var flakeEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type flakeGenerator struct {
	sf *sonyflake.Sonyflake
}

// NewSonyflake 创建按时间递增的 ID 生成器，多实例部署时 machineID 必须互不相同
func NewSonyflake(machineID uint16) (Generator, error) {
	sf := sonyflake.NewSonyflake(sonyflake.Settings{
		StartTime: flakeEpoch,
		MachineID: func() (uint16, error) { return machineID, nil },
	})
	if sf == nil {
		return nil, errors.Newf("sonyflake: invalid settings for machine %d", machineID)
	}
	return &flakeGenerator{sf: sf}, nil
}

func (g *flakeGenerator) NextID() (int64, error) {
	id, err := g.sf.NextID()
	if err != nil {
		return 0, errors.Wrap(err, "next sonyflake id")
	}
	return int64(id), nil
}
