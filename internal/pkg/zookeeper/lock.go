package zookeeper

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/bookstore_locks"

// DistributedLock 基于临时顺序节点实现的分布式互斥锁。
// 同一把锁对象不可并发使用。
type DistributedLock struct {
	conn     *Conn
	path     string // 锁目录，例如 /bookstore_locks/stock-admin-101
	lockNode string // 成功排队后自己创建的节点路径
}

// NewDistributedLock 为 resourceID 创建锁对象，并保证锁目录存在。
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	if err := ensurePath(conn, lockRoot); err != nil {
		return nil, err
	}
	lockPath := lockRoot + "/" + resourceID
	if err := ensurePath(conn, lockPath); err != nil {
		return nil, err
	}
	return &DistributedLock{conn: conn, path: lockPath}, nil
}

func ensurePath(conn *Conn, path string) error {
	exists, _, err := conn.Exists(path)
	if err != nil {
		return fmt.Errorf("failed to check lock path %s: %w", path, err)
	}
	if exists {
		return nil
	}
	if _, err := conn.Create(path, []byte{}, 0, zk.WorldACL(zk.PermAll)); err != nil && err != zk.ErrNodeExists {
		return fmt.Errorf("failed to create lock path %s: %w", path, err)
	}
	return nil
}

// Lock 排队获取锁，未轮到时阻塞等待，最长等 30s。
func (l *DistributedLock) Lock() error {
	// 普通临时顺序节点：节点名以零填充的序号结尾，字典序即排队顺序
	nodePath, err := l.conn.Create(l.path+"/lock-", []byte{}, zk.FlagEphemeral|zk.FlagSequence, zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to get children nodes: %w", err)
		}
		sort.Strings(children)

		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myNodeName == children[0] {
			// 序号最小，锁到手
			return nil
		}

		// 只监听自己前一个节点，避免惊群
		prevNodeIndex := -1
		for i, child := range children {
			if child == myNodeName {
				prevNodeIndex = i - 1
				break
			}
		}
		if prevNodeIndex < 0 {
			return errors.New("own lock node missing from children list")
		}
		prevNodePath := l.path + "/" + children[prevNodeIndex]

		_, _, eventChan, err := l.conn.ExistsW(prevNodePath)
		if err != nil {
			// 前一个节点恰好在此刻被删除，回去重新竞争
			if err == zk.ErrNoNode {
				continue
			}
			return fmt.Errorf("failed to watch previous node: %w", err)
		}

		select {
		case event := <-eventChan:
			if event.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(30 * time.Second):
			return errors.New("timeout waiting for lock")
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("no lock to unlock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	l.lockNode = ""
	return nil
}
