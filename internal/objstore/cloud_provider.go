// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package objstore

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

// CloudProvider creates clients for real storage services. file:// locations
// are served from the local filesystem. AWS and Azure credentials are
// loaded lazily on first use so a process writing only to one cloud never
// needs credentials for the other.
type CloudProvider struct {
	sessionName string
	local       *FileProvider

	sync.Mutex
	awsCfg    *aws.Config
	stsClient *sts.Client
	azureCred *azidentity.DefaultAzureCredential
	clients   map[clientKey]Client
}

var _ Provider = (*CloudProvider)(nil)

type clientKey struct {
	scheme  string
	bucket  string
	profile Profile
}

// NewCloudProvider returns a provider that assumes roles under sessionName.
func NewCloudProvider(sessionName string) *CloudProvider {
	if sessionName == "" {
		sessionName = "lakesink"
	}
	return &CloudProvider{
		sessionName: sessionName,
		local:       NewFileProvider("/"),
		clients:     make(map[clientKey]Client),
	}
}

// ClientFor returns a cached client for the location's scheme and profile.
func (p *CloudProvider) ClientFor(ctx context.Context, loc Location, profile Profile) (Client, error) {
	if loc.Scheme == SchemeFile {
		return p.local.ClientFor(ctx, loc, profile)
	}

	key := clientKey{scheme: loc.Scheme, profile: profile}
	if loc.Scheme == SchemeAzure {
		key.bucket = loc.Bucket
	}

	p.Lock()
	defer p.Unlock()

	if c, ok := p.clients[key]; ok {
		return c, nil
	}

	var (
		c   Client
		err error
	)
	switch loc.Scheme {
	case SchemeS3, SchemeGCS:
		c, err = p.newS3Client(ctx, loc.Scheme, profile)
	case SchemeAzure:
		c, err = p.newAzureClient(profile)
	default:
		err = fmt.Errorf("objstore: unsupported location scheme %q", loc.Scheme)
	}
	if err != nil {
		return nil, err
	}
	p.clients[key] = c
	return c, nil
}

// must hold p's lock
func (p *CloudProvider) newS3Client(ctx context.Context, scheme string, profile Profile) (Client, error) {
	if p.awsCfg == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		otelaws.AppendMiddlewares(&cfg.APIOptions)
		p.awsCfg = &cfg
		p.stsClient = sts.NewFromConfig(cfg)
	}

	cfg := p.awsCfg.Copy()
	if profile.Region != "" {
		cfg.Region = profile.Region
	}
	if profile.Role != "" {
		provider := stscreds.NewAssumeRoleProvider(p.stsClient, profile.Role, func(o *stscreds.AssumeRoleOptions) {
			o.RoleSessionName = p.sessionName
		})
		cfg.Credentials = aws.NewCredentialsCache(provider)
	}
	if profile.InsecureTLS {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		cfg.HTTPClient = &http.Client{Transport: tr}
	}

	var opts []func(*s3.Options)
	endpoint := profile.Endpoint
	if scheme == SchemeGCS {
		if endpoint == "" {
			endpoint = "https://storage.googleapis.com"
		}
		cfg.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		cfg.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		opts = append(opts, signForGCS)
	}
	if endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if profile.UsePathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return &s3Client{client: s3.NewFromConfig(cfg, opts...), scheme: scheme}, nil
}

// must hold p's lock
func (p *CloudProvider) newAzureClient(profile Profile) (Client, error) {
	endpoint := profile.Endpoint
	if endpoint == "" {
		if profile.StorageAccount == "" {
			return nil, fmt.Errorf("objstore: azure locations need a storage account or endpoint")
		}
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net/", profile.StorageAccount)
	}

	if p.azureCred == nil {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("loading Azure credentials: %w", err)
		}
		p.azureCred = cred
	}

	client, err := azblob.NewClient(endpoint, p.azureCred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}
	return &azureClient{client: client}, nil
}
