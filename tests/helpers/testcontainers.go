package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	dbName     = "teamline"
	dbPassword = "integration-secret"
)

// MySQLContainer is a disposable MySQL instance for integration tests.
type MySQLContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

// SkipUnlessIntegration skips the test unless INTEGRATION_TESTS is set, so
// the unit suite stays independent of a Docker daemon.
func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run container-backed tests")
	}
}

// StartMySQL launches a MySQL container and waits until it accepts
// connections. The container is terminated when the test finishes.
func StartMySQL(t *testing.T) *MySQLContainer {
	t.Helper()
	ctx := context.Background()

	image := os.Getenv("DB_IMAGE")
	if image == "" {
		image = "mysql:8.4"
	}

	tcpPort, err := nat.NewPort("tcp", "3306")
	if err != nil {
		t.Fatalf("failed to build port: %v", err)
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(tcpPort)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": dbPassword,
				"MYSQL_DATABASE":      dbName,
			},
			WaitingFor: wait.ForListeningPort(tcpPort).WithStartupTimeout(120 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start MySQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate MySQL container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to resolve container host: %v", err)
	}
	mapped, err := container.MappedPort(ctx, tcpPort)
	if err != nil {
		t.Fatalf("failed to resolve mapped port: %v", err)
	}

	c := &MySQLContainer{Container: container, Host: host, Port: mapped.Port()}
	c.waitForPing(t)
	return c
}

// waitForPing retries a raw ping until the server really answers queries;
// the listening port comes up before authentication does.
func (c *MySQLContainer) waitForPing(t *testing.T) {
	t.Helper()

	dsn := fmt.Sprintf("root:%s@tcp(%s:%s)/%s", dbPassword, c.Host, c.Port, dbName)
	deadline := time.Now().Add(60 * time.Second)
	for {
		db, err := sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			db.Close()
		}
		if err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("MySQL never became ready: %v", err)
		}
		time.Sleep(2 * time.Second)
	}
}

// Configure points the application environment at the container.
func (c *MySQLContainer) Configure(t *testing.T) {
	t.Helper()
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_HOST", c.Host)
	t.Setenv("DB_PORT", c.Port)
	t.Setenv("DB_DATABASE", dbName)
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", dbPassword)
	t.Setenv("STORAGE_TYPE", "memory")
}
