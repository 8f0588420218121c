package etcd

import (
	"context"
	"fmt"
	"path"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	// KeyPrefix 是所有注册键的公共前缀。
	KeyPrefix = "/mindgraph/services"
	// APIService 是 HTTP API 实例注册使用的服务名。
	APIService = "mindgraph_api"
)

// ServiceDiscovery 通过带租约的键把 API 实例注册到 etcd，并按服务名查找实例地址。
type ServiceDiscovery struct {
	cli *clientv3.Client
}

// NewServiceDiscovery 连接到 etcd 集群。
func NewServiceDiscovery(endpoints []string) (*ServiceDiscovery, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("未配置 etcd endpoints")
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接到 etcd: %w", err)
	}
	return &ServiceDiscovery{cli: cli}, nil
}

// ServiceKey 返回某个实例的注册键。
func ServiceKey(serviceName, addr string) string {
	return path.Join(KeyPrefix, serviceName, addr)
}

// Register 以 ttl 秒的租约注册实例并持续续约。
// 返回的 stop 函数会停止续约并删除注册键。
func (s *ServiceDiscovery) Register(ctx context.Context, serviceName, addr string, ttl int64) (func(), error) {
	lease, err := s.cli.Grant(ctx, ttl)
	if err != nil {
		return nil, fmt.Errorf("申请 etcd 租约失败: %w", err)
	}

	key := ServiceKey(serviceName, addr)
	if _, err := s.cli.Put(ctx, key, addr, clientv3.WithLease(lease.ID)); err != nil {
		return nil, fmt.Errorf("注册服务 %s 失败: %w", key, err)
	}

	keepCtx, cancel := context.WithCancel(context.Background())
	keepAlive, err := s.cli.KeepAlive(keepCtx, lease.ID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("续约 etcd 租约失败: %w", err)
	}

	// 消费续约响应，防止 channel 写满。
	go func() {
		for range keepAlive {
		}
	}()

	stop := func() {
		cancel()
		revokeCtx, done := context.WithTimeout(context.Background(), 3*time.Second)
		defer done()
		_, _ = s.cli.Revoke(revokeCtx, lease.ID)
	}
	return stop, nil
}

// Discover 返回某个服务当前注册的所有实例地址。
func (s *ServiceDiscovery) Discover(ctx context.Context, serviceName string) ([]string, error) {
	resp, err := s.cli.Get(ctx, path.Join(KeyPrefix, serviceName)+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("查询服务 %s 失败: %w", serviceName, err)
	}

	addrs := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		addrs = append(addrs, string(kv.Value))
	}
	return addrs, nil
}

// Close 关闭 etcd 客户端。
func (s *ServiceDiscovery) Close() error {
	return s.cli.Close()
}
