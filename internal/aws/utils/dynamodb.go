package utils

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// ListTableNames returns every table name starting with one of prefixes,
// sorted. No prefixes lists every table.
func ListTableNames(ctx context.Context, client dynamodbiface.DynamoDBAPI, prefixes []string) ([]string, error) {
	var names []string
	err := client.ListTablesPagesWithContext(ctx, &dynamodb.ListTablesInput{},
		func(page *dynamodb.ListTablesOutput, lastPage bool) bool {
			for _, name := range page.TableNames {
				if n := aws.StringValue(name); hasAnyPrefix(n, prefixes) {
					names = append(names, n)
				}
			}
			return true
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	sort.Strings(names)
	return names, nil
}

func hasAnyPrefix(name string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// DescribeTableSize returns the stored bytes and item count of a table as
// reported by DescribeTable. DynamoDB refreshes both roughly every six hours.
func DescribeTableSize(ctx context.Context, client dynamodbiface.DynamoDBAPI, table string) (int64, int64, error) {
	output, err := client.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(table),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to describe table: %w", err)
	}
	if output.Table == nil {
		return 0, 0, nil
	}
	return aws.Int64Value(output.Table.TableSizeBytes), aws.Int64Value(output.Table.ItemCount), nil
}
