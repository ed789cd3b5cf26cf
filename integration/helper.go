package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	httpAPI "github.com/iyhunko/affiliate-catalog/internal/http"
	"github.com/iyhunko/affiliate-catalog/internal/http/api"
	"github.com/iyhunko/affiliate-catalog/internal/http/controller"
	"github.com/iyhunko/affiliate-catalog/internal/metadata"
	"github.com/iyhunko/affiliate-catalog/internal/service"
	sqspkg "github.com/iyhunko/affiliate-catalog/internal/sqs"
	"github.com/iyhunko/affiliate-catalog/internal/store"
	"github.com/iyhunko/affiliate-catalog/internal/store/githubtest"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

const (
	adminPassword = "integration-secret"
	queueName     = "catalog-notifications"
	awsRegion     = "us-east-1"
)

// CatalogStack is the catalog service wired against an in-memory content host.
type CatalogStack struct {
	Host   *githubtest.Server
	Router *gin.Engine
	Server *httptest.Server
}

// NewCatalogStack starts the full HTTP stack. notifier may be nil.
func NewCatalogStack(t *testing.T, notifier service.Notifier) *CatalogStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	host := githubtest.NewServer()
	t.Cleanup(host.Close)

	catalogStore, err := store.NewGitHubStore(host.Config(), 5*time.Second)
	if err != nil {
		t.Fatalf("Could not create catalog store: %s", err)
	}
	svc := service.NewCatalogService(catalogStore, metadata.NewFetcher(5*time.Second), notifier, adminPassword)
	router := httpAPI.InitRouter(gin.New(), controller.New(), controller.NewCatalogController(svc))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &CatalogStack{Host: host, Router: router, Server: server}
}

// TestQueue holds a LocalStack container with one SQS queue.
type TestQueue struct {
	Client   *sqs.Client
	QueueURL string
	Pool     *dockertest.Pool
	Resource *dockertest.Resource
}

// SetupTestQueue starts LocalStack using dockertest and creates the catalog
// notifications queue. The test is skipped when Docker is unavailable.
func SetupTestQueue(t *testing.T) *TestQueue {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping Docker backed test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("Could not connect to docker: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("Docker is not reachable: %s", err)
	}
	pool.MaxWait = 120 * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "localstack/localstack",
		Tag:        "3",
		Env: []string{
			"SERVICES=sqs",
			"AWS_DEFAULT_REGION=" + awsRegion,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("Could not start resource: %s", err)
	}

	// Set container to expire after 2 minutes to avoid orphaned containers
	if err := resource.Expire(120); err != nil {
		t.Fatalf("Could not set expiration: %s", err)
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	endpoint := fmt.Sprintf("http://%s", resource.GetHostPort("4566/tcp"))
	log.Println("Connecting to LocalStack on url: ", endpoint)

	ctx := context.Background()
	client, err := sqspkg.NewClient(ctx, awsRegion, endpoint)
	if err != nil {
		t.Fatalf("Could not create SQS client: %s", err)
	}

	var queueURL string
	if err = pool.Retry(func() error {
		out, err := client.CreateQueue(ctx, &sqs.CreateQueueInput{QueueName: aws.String(queueName)})
		if err != nil {
			return err
		}
		queueURL = aws.ToString(out.QueueUrl)
		return nil
	}); err != nil {
		t.Fatalf("Could not create queue: %s", err)
	}

	return &TestQueue{
		Client:   client,
		QueueURL: queueURL,
		Pool:     pool,
		Resource: resource,
	}
}

// Cleanup purges the LocalStack container.
func (tq *TestQueue) Cleanup(t *testing.T) {
	t.Helper()

	if tq.Pool != nil && tq.Resource != nil {
		if err := tq.Pool.Purge(tq.Resource); err != nil {
			t.Errorf("Could not purge resource: %s", err)
		}
	}
}

// postCatalog writes body through the API and returns the new revision.
func postCatalog(t *testing.T, stack *CatalogStack, body string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, stack.Server.URL+"/api/update-products", strings.NewReader(body))
	if err != nil {
		t.Fatalf("Could not build request: %s", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.AdminPasswordHeader, adminPassword)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Could not write catalog: %s", err)
	}
	defer resp.Body.Close()

	var out api.UpdateProductsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || !out.OK {
		t.Fatalf("Catalog write failed with status %d", resp.StatusCode)
	}
	return out.Result.Revision
}
