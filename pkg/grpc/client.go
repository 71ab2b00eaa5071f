package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/discovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Resolver finds registered instances of a service.
type Resolver interface {
	Discover(ctx context.Context, serviceName string) ([]*discovery.ServiceInstance, error)
}

// HealthClient checks the health service of a storefront instance.
type HealthClient struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

func NewHealthClient(target string, opts ...grpc.DialOption) (*HealthClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", target, err)
	}
	return &HealthClient{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

// ResolveTarget picks the first registered instance of service, falling
// back to fallback when discovery is unavailable or empty.
func ResolveTarget(ctx context.Context, resolver Resolver, service, fallback string, logger *zap.Logger) string {
	if resolver == nil {
		return fallback
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	instances, err := resolver.Discover(ctx, service)
	if err != nil || len(instances) == 0 {
		logger.Info("Using default address", zap.String("service", service), zap.String("address", fallback), zap.Error(err))
		return fallback
	}
	target := instances[0].Addr()
	logger.Info("Discovered service", zap.String("service", service), zap.String("address", target))
	return target
}

// Check returns nil when service reports SERVING.
func (c *HealthClient) Check(ctx context.Context, service string) error {
	resp, err := c.client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("service %q is %s", service, resp.GetStatus())
	}
	return nil
}

func (c *HealthClient) Close() error {
	return c.conn.Close()
}
