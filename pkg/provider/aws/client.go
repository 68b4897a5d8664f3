// Package aws is the AWS Provider Adapter: the concrete implementation of
// provider.Adapter backed by aws-sdk-go-v2 (§4.2, §3's provider concretion
// decision in SPEC_FULL.md §1).
package aws

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go/middleware"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/wastescan/detector/pkg/detect"
	"github.com/wastescan/detector/pkg/provider"
)

const userAgentSuffix = "wastescan/1.0"

// Client wraps one region-agnostic aws.Config plus the per-region service
// clients scenarios need, constructed lazily as each region is scanned.
type Client struct {
	cfg     aws.Config
	sts     *sts.Client
	iam     *iam.Client
	log     *slog.Logger
	verbose bool
}

// Options configures a new Client.
type Options struct {
	Region  string // seed region used only to resolve STS/partition; regional clients are built per-region afterward
	Profile string
	Verbose bool // log every outbound AWS API call at debug level
	Logger  *slog.Logger
}

// New loads AWS SDK credentials/config the same way the AWS CLI does
// (env vars, shared config, SSO, IMDS), tags every outbound request with a
// distinguishing user agent, and optionally logs each API call.
func New(ctx context.Context, opts Options) (*Client, error) {
	loadOpts := []func(*config.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	cfg.APIOptions = append(cfg.APIOptions, func(stack *middleware.Stack) error {
		return stack.Build.Add(middleware.BuildMiddlewareFunc("WastescanUserAgent", func(
			ctx context.Context, in middleware.BuildInput, next middleware.BuildHandler,
		) (middleware.BuildOutput, middleware.Metadata, error) {
			if req, ok := in.Request.(*smithyhttp.Request); ok {
				ua := req.Header.Get("User-Agent")
				req.Header.Set("User-Agent", fmt.Sprintf("%s (%s)", ua, userAgentSuffix))
			}
			return next.HandleBuild(ctx, in)
		}), middleware.After)
	})

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Verbose {
		cfg.APIOptions = append(cfg.APIOptions, func(stack *middleware.Stack) error {
			return stack.Initialize.Add(middleware.InitializeMiddlewareFunc("WastescanAPICallLog", func(
				ctx context.Context, in middleware.InitializeInput, next middleware.InitializeHandler,
			) (middleware.InitializeOutput, middleware.Metadata, error) {
				logger.DebugContext(ctx, "aws api call", "operation", middleware.GetOperationName(ctx))
				return next.HandleInitialize(ctx, in)
			}), middleware.Before)
		})
	}

	return &Client{
		cfg:     cfg,
		sts:     sts.NewFromConfig(cfg),
		iam:     iam.NewFromConfig(cfg),
		log:     logger,
		verbose: opts.Verbose,
	}, nil
}

// ValidateCredentials implements provider.Adapter.
func (c *Client) ValidateCredentials(ctx context.Context) (provider.AccountIdentity, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return provider.AccountIdentity{}, detect.NewAuthError(
			detect.ErrorKindAuthentication, "sts:GetCallerIdentity", err)
	}

	identity := provider.AccountIdentity{
		AccountID: aws.ToString(out.Account),
		Principal: aws.ToString(out.Arn),
		Provider:  "aws",
	}

	// Account alias is a reporting nicety, not a credential requirement:
	// many scan roles are deliberately scoped without iam:ListAccountAliases,
	// so a denial here is swallowed rather than failing validation.
	if aliasOut, err := c.iam.ListAccountAliases(ctx, &iam.ListAccountAliasesInput{}); err == nil && len(aliasOut.AccountAliases) > 0 {
		identity.Alias = aliasOut.AccountAliases[0]
	}

	return identity, nil
}

// ListRegions implements provider.Adapter. It enumerates every region
// enabled for the account (opted-in or default-enabled), via EC2, which is
// available in every partition without an extra IAM permission beyond
// what every other scan step already needs.
func (c *Client) ListRegions(ctx context.Context) ([]provider.RegionCode, error) {
	ec2Client := ec2.NewFromConfig(c.cfg)
	out, err := ec2Client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{
		AllRegions: aws.Bool(false),
	})
	if err != nil {
		return nil, detect.NewScopedError(detect.ErrorKindAuthorization, "ec2:DescribeRegions", err)
	}

	regions := make([]provider.RegionCode, 0, len(out.Regions))
	for _, r := range out.Regions {
		regions = append(regions, aws.ToString(r.RegionName))
	}
	return regions, nil
}

// regionalConfig returns a copy of the base config pinned to region, used
// by every per-service file to build its regional client on demand.
func (c *Client) regionalConfig(region string) aws.Config {
	cfg := c.cfg.Copy()
	cfg.Region = region
	return cfg
}
