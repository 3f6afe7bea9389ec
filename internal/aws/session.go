package aws

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials/stscreds"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sts"

	"ddbreport/internal/aws/utils"
	"ddbreport/internal/logging"
)

// httpTimeout bounds a single AWS API request
const httpTimeout = 30 * time.Second

// NewSession creates a new AWS session with the specified profile and region
func NewSession(profile string, region string) (*session.Session, error) {
	cfg := aws.NewConfig().WithHTTPClient(&http.Client{Timeout: httpTimeout})
	if region != "" {
		cfg = cfg.WithRegion(region)
	}

	opts := session.Options{
		Config:            *cfg,
		Profile:           profile,
		SharedConfigState: session.SharedConfigEnable,
	}

	sess, err := session.NewSessionWithOptions(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return sess, nil
}

// GetSessionInRegion creates a new session in the specified region using credentials from an existing session
func GetSessionInRegion(sess *session.Session, region string) (*session.Session, error) {
	if region == "" || aws.StringValue(sess.Config.Region) == region {
		return sess, nil
	}

	newSess, err := session.NewSession(sess.Config.Copy().WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return newSess, nil
}

// RoleARN returns role as an ARN. A bare role name is resolved in account.
func RoleARN(role, account string) string {
	if strings.HasPrefix(role, "arn:") {
		return role
	}
	return fmt.Sprintf("arn:aws:iam::%s:role/%s", account, role)
}

// AssumeRole creates a new session by assuming role, given as an ARN or as a
// role name in the caller's account
func AssumeRole(ctx context.Context, sess *session.Session, role string) (*session.Session, error) {
	if role == "" {
		return sess, nil
	}

	roleARN := role
	if !strings.HasPrefix(role, "arn:") {
		account, err := utils.GetAccountID(ctx, sts.New(sess))
		if err != nil {
			return nil, err
		}
		roleARN = RoleARN(role, account)
	}

	logging.Debug("Attempting role assumption", map[string]interface{}{
		"role_arn": roleARN,
	})

	creds := stscreds.NewCredentials(sess, roleARN)
	assumedSession, err := session.NewSession(sess.Config.Copy().WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to assume role %s: %w", roleARN, err)
	}

	identity, err := utils.GetIdentity(ctx, sts.New(assumedSession))
	if err != nil {
		return nil, fmt.Errorf("failed to verify role assumption: %w", err)
	}
	logging.Debug("Assumed role", map[string]interface{}{
		"role_arn": identity.ARN,
	})

	return assumedSession, nil
}
