// Package cwlogs implements relay.LogSink over Amazon CloudWatch Logs.
package cwlogs

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/pithecene-io/cmdrelay/awsx"
	"github.com/pithecene-io/cmdrelay/relay"
	"github.com/pithecene-io/cmdrelay/types"
)

// API is the subset of the CloudWatch Logs client used by Sink.
type API interface {
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	CreateLogStream(ctx context.Context, params *cloudwatchlogs.CreateLogStreamInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error)
	PutLogEvents(ctx context.Context, params *cloudwatchlogs.PutLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error)
}

// Sink writes relay entries to CloudWatch Logs.
type Sink struct {
	api API
}

// New creates a Sink.
func New(api API) (*Sink, error) {
	if api == nil {
		return nil, errors.New("cwlogs sink requires a CloudWatch Logs client")
	}
	return &Sink{api: api}, nil
}

// ListStreams returns stream names in group starting with namePrefix.
// Only the first page is read; one match is enough to skip creation.
func (s *Sink) ListStreams(ctx context.Context, group, namePrefix string) ([]string, error) {
	out, err := s.api.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName:        aws.String(group),
		LogStreamNamePrefix: aws.String(namePrefix),
	})
	if err != nil {
		return nil, awsx.Wrap("logs", "DescribeLogStreams", err)
	}

	names := make([]string, 0, len(out.LogStreams))
	for _, ls := range out.LogStreams {
		names = append(names, aws.ToString(ls.LogStreamName))
	}
	return names, nil
}

// CreateStream creates the stream. A concurrent creator winning the race
// surfaces as ResourceAlreadyExistsException, which is not an error here.
func (s *Sink) CreateStream(ctx context.Context, group, name string) error {
	_, err := s.api.CreateLogStream(ctx, &cloudwatchlogs.CreateLogStreamInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(name),
	})
	var exists *logstypes.ResourceAlreadyExistsException
	if errors.As(err, &exists) {
		return nil
	}
	return awsx.Wrap("logs", "CreateLogStream", err)
}

// AppendEvent puts a single event. Partial rejection reported in the
// response is returned as relay.ErrRejected.
func (s *Sink) AppendEvent(ctx context.Context, group, name string, entry types.LogEntry) error {
	out, err := s.api.PutLogEvents(ctx, &cloudwatchlogs.PutLogEventsInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(name),
		LogEvents: []logstypes.InputLogEvent{{
			Timestamp: aws.Int64(entry.Timestamp),
			Message:   aws.String(entry.Message),
		}},
	})
	if err != nil {
		return awsx.Wrap("logs", "PutLogEvents", err)
	}
	if reason := rejection(out.RejectedLogEventsInfo); reason != "" {
		return &relay.ServiceError{
			Kind:    relay.ErrRejected,
			Service: "logs",
			Op:      "PutLogEvents",
			Err:     fmt.Errorf("event %s", reason),
		}
	}
	return nil
}

func rejection(info *logstypes.RejectedLogEventsInfo) string {
	if info == nil {
		return ""
	}
	switch {
	case info.TooOldLogEventEndIndex != nil:
		return "too old"
	case info.TooNewLogEventStartIndex != nil:
		return "too new"
	case info.ExpiredLogEventEndIndex != nil:
		return "expired"
	}
	return ""
}

// Verify Sink implements the relay sink interface.
var _ relay.LogSink = (*Sink)(nil)
