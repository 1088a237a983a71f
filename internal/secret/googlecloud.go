package secret

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// secretAccessor is the part of the Secret Manager client this package uses.
type secretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// GoogleCloud serves the latest version of secrets stored in Google Cloud
// Secret Manager. Application default credentials are used.
type GoogleCloud struct {
	project string
	client  secretAccessor
}

// NewGoogleCloud connects to Secret Manager for project.
func NewGoogleCloud(ctx context.Context, project string) (*GoogleCloud, error) {
	if strings.TrimSpace(project) == "" {
		return nil, &ConfigurationError{
			Provider: string(TypeGoogleCloud),
			Reason:   "project is required",
		}
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &GoogleCloud{project: project, client: client}, nil
}

func (p *GoogleCloud) Name() string { return string(TypeGoogleCloud) }

// Lookup accepts a bare secret name or a full resource name
// ("projects/<p>/secrets/<s>/versions/<v>").
func (p *GoogleCloud) Lookup(ctx context.Context, name string) (string, bool, error) {
	resp, err := p.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: p.versionName(name),
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to access secret %q: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), true, nil
}

func (p *GoogleCloud) versionName(name string) string {
	if strings.HasPrefix(name, "projects/") {
		return name
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", p.project, name)
}

func (p *GoogleCloud) Close() error {
	return p.client.Close()
}
