package infrastructure

import (
	"bookstore/internal/pkg/zookeeper"
)

// ZkAdminLocker 用 ZooKeeper 分布式锁串行化多实例间的库存行上架/下架。
type ZkAdminLocker struct {
	conn *zookeeper.Conn
}

func NewZkAdminLocker(conn *zookeeper.Conn) *ZkAdminLocker {
	return &ZkAdminLocker{conn: conn}
}

func (l *ZkAdminLocker) WithLock(resource string, fn func() error) error {
	lock, err := zookeeper.NewDistributedLock(l.conn, resource)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}
