package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 包装 zk.Conn，统一连接参数。
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接。
func Connect(servers []string) (*Conn, error) {
	conn, _, err := zk.Connect(servers, 10*time.Second)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}
