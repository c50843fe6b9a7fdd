package targets

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/route53"

	"github.com/hamed0406/probeexporter/internal/domain"
)

// HostedZoneLister is the slice of the Route53 API used for discovery.
type HostedZoneLister interface {
	ListHostedZones(ctx context.Context, in *route53.ListHostedZonesInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesOutput, error)
}

// Route53 discovers public hosted zones and offers them as domain and ssl
// targets. Other kinds get nothing.
type Route53 struct {
	Client HostedZoneLister
}

func NewRoute53(ctx context.Context, region string) (*Route53, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Route53{Client: route53.NewFromConfig(cfg)}, nil
}

func (r *Route53) Targets(ctx context.Context, kind domain.Kind) ([]string, error) {
	if kind != domain.KindDomain && kind != domain.KindSSL {
		return nil, nil
	}
	var (
		out    []string
		marker *string
	)
	for {
		page, err := r.Client.ListHostedZones(ctx, &route53.ListHostedZonesInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("list hosted zones: %w", err)
		}
		for _, z := range page.HostedZones {
			if z.Config != nil && z.Config.PrivateZone {
				continue
			}
			if name := strings.TrimSuffix(aws.ToString(z.Name), "."); name != "" {
				out = append(out, name)
			}
		}
		if aws.ToString(page.NextMarker) == "" {
			return out, nil
		}
		marker = page.NextMarker
	}
}
