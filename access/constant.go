package access

import (
	"errors"

	"git.fiblab.net/sim/accessibility/network"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "access")

const (
	// 边负载属性名
	LoadAttr = "load"

	DefaultK        = 5
	DefaultBatchCap = 1000
	DefaultWeight   = "length"

	// 负载计算中每个worker的进度日志间隔
	progressEvery = 1000
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrResolution is returned when a sample or POI cannot be snapped to a node.
	ErrResolution = network.ErrResolution
)
