package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ec2"
	"github.com/aws/aws-sdk-go/service/ec2/ec2iface"
)

// ErrRegionNotEnabled is returned by ValidateRegion for a region the account
// cannot use
var ErrRegionNotEnabled = errors.New("region not enabled")

// GetAvailableRegions returns a list of regions that are enabled for the account
func GetAvailableRegions(ctx context.Context, client ec2iface.EC2API) ([]string, error) {
	result, err := client.DescribeRegionsWithContext(ctx, &ec2.DescribeRegionsInput{
		AllRegions: aws.Bool(false), // Only get enabled regions
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe regions: %w", err)
	}

	regions := make([]string, 0, len(result.Regions))
	for _, region := range result.Regions {
		regions = append(regions, aws.StringValue(region.RegionName))
	}
	sort.Strings(regions)

	return regions, nil
}

// ValidateRegion checks that region is enabled for the account
func ValidateRegion(ctx context.Context, client ec2iface.EC2API, region string) error {
	available, err := GetAvailableRegions(ctx, client)
	if err != nil {
		return err
	}

	for _, r := range available {
		if r == region {
			return nil
		}
	}

	return fmt.Errorf("%w: '%s' is not available in this account. Available regions: %s",
		ErrRegionNotEnabled, region, strings.Join(available, ", "))
}

// NewRegionClient returns an EC2 client for region discovery. DescribeRegions
// is answered by any enabled region, so us-east-1 is used.
func NewRegionClient(sess *session.Session) ec2iface.EC2API {
	return ec2.New(sess, aws.NewConfig().WithRegion("us-east-1"))
}
