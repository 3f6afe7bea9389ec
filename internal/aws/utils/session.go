package utils

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/cloudwatch/cloudwatchiface"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/aws/aws-sdk-go/service/sts/stsiface"
)

// ServiceClients holds the AWS service clients a report run uses
type ServiceClients struct {
	DynamoDB   dynamodbiface.DynamoDBAPI
	CloudWatch cloudwatchiface.CloudWatchAPI
	STS        stsiface.STSAPI
}

// Identity is the caller identity of a session
type Identity struct {
	Account string
	ARN     string
}

// GetIdentity retrieves the account ID and ARN of the caller
func GetIdentity(ctx context.Context, client stsiface.STSAPI) (Identity, error) {
	identity, err := client.GetCallerIdentityWithContext(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to get caller identity: %w", err)
	}
	if identity.Account == nil {
		return Identity{}, fmt.Errorf("account ID is nil")
	}
	id := Identity{Account: *identity.Account}
	if identity.Arn != nil {
		id.ARN = *identity.Arn
	}
	return id, nil
}

// GetAccountID retrieves the AWS account ID for the current session
func GetAccountID(ctx context.Context, client stsiface.STSAPI) (string, error) {
	id, err := GetIdentity(ctx, client)
	if err != nil {
		return "", err
	}
	return id.Account, nil
}

// CreateServiceClients creates the report's AWS service clients from a session
func CreateServiceClients(sess *session.Session) *ServiceClients {
	return &ServiceClients{
		DynamoDB:   dynamodb.New(sess),
		CloudWatch: cloudwatch.New(sess),
		STS:        sts.New(sess),
	}
}
