package network

import (
	"errors"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "network")

var (
	// 错误：图中不存在该节点
	ErrNodeNotFound = errors.New("node not found")
	// 错误：图中不存在该边
	ErrEdgeNotFound = errors.New("edge not found")
	// 错误：节点ID重复
	ErrDuplicateNode = errors.New("duplicate node id")
	// 错误：边(u,v,key)重复
	ErrDuplicateEdge = errors.New("duplicate edge key")
	// 错误：坐标无法匹配到图中的节点
	ErrResolution = errors.New("point cannot be resolved to a node")
)
