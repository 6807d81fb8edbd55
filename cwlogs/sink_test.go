package cwlogs

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	logstypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/pithecene-io/cmdrelay/relay"
	"github.com/pithecene-io/cmdrelay/types"
)

type fakeLogs struct {
	streams   []string
	describe  *cloudwatchlogs.DescribeLogStreamsInput
	create    *cloudwatchlogs.CreateLogStreamInput
	put       *cloudwatchlogs.PutLogEventsInput
	createErr error
	putErr    error
	putOut    *cloudwatchlogs.PutLogEventsOutput
}

func (f *fakeLogs) DescribeLogStreams(_ context.Context, in *cloudwatchlogs.DescribeLogStreamsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	f.describe = in
	out := &cloudwatchlogs.DescribeLogStreamsOutput{}
	for _, name := range f.streams {
		out.LogStreams = append(out.LogStreams, logstypes.LogStream{LogStreamName: aws.String(name)})
	}
	return out, nil
}

func (f *fakeLogs) CreateLogStream(_ context.Context, in *cloudwatchlogs.CreateLogStreamInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	f.create = in
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogs) PutLogEvents(_ context.Context, in *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.put = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	if f.putOut != nil {
		return f.putOut, nil
	}
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func newSink(t *testing.T, api API) *Sink {
	t.Helper()
	s, err := New(api)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestListStreams(t *testing.T) {
	api := &fakeLogs{streams: []string{"i-abc", "i-abc-old"}}
	s := newSink(t, api)

	names, err := s.ListStreams(context.Background(), "ops", "i-abc")
	if err != nil {
		t.Fatalf("ListStreams: %v", err)
	}
	if len(names) != 2 || names[0] != "i-abc" || names[1] != "i-abc-old" {
		t.Errorf("names = %v", names)
	}
	if aws.ToString(api.describe.LogGroupName) != "ops" || aws.ToString(api.describe.LogStreamNamePrefix) != "i-abc" {
		t.Errorf("unexpected describe input: %+v", api.describe)
	}
}

func TestListStreams_Empty(t *testing.T) {
	s := newSink(t, &fakeLogs{})
	names, err := s.ListStreams(context.Background(), "ops", "i-abc")
	if err != nil {
		t.Fatalf("ListStreams: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v, want empty", names)
	}
}

func TestCreateStream(t *testing.T) {
	api := &fakeLogs{}
	s := newSink(t, api)

	if err := s.CreateStream(context.Background(), "ops", "i-abc"); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	if aws.ToString(api.create.LogGroupName) != "ops" || aws.ToString(api.create.LogStreamName) != "i-abc" {
		t.Errorf("unexpected create input: %+v", api.create)
	}
}

func TestCreateStream_AlreadyExistsIsNotAnError(t *testing.T) {
	api := &fakeLogs{createErr: &logstypes.ResourceAlreadyExistsException{Message: aws.String("exists")}}
	s := newSink(t, api)

	if err := s.CreateStream(context.Background(), "ops", "i-abc"); err != nil {
		t.Errorf("already exists should be tolerated, got %v", err)
	}
}

func TestCreateStream_GroupMissing(t *testing.T) {
	api := &fakeLogs{createErr: &logstypes.ResourceNotFoundException{Message: aws.String("group")}}
	s := newSink(t, api)

	err := s.CreateStream(context.Background(), "ops", "i-abc")
	if !errors.Is(err, relay.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendEvent(t *testing.T) {
	api := &fakeLogs{}
	s := newSink(t, api)

	entry := types.LogEntry{Timestamp: 1680344130500, Message: "done"}
	if err := s.AppendEvent(context.Background(), "ops", "i-abc", entry); err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}
	if len(api.put.LogEvents) != 1 {
		t.Fatalf("events = %d, want 1", len(api.put.LogEvents))
	}
	ev := api.put.LogEvents[0]
	if aws.ToInt64(ev.Timestamp) != 1680344130500 || aws.ToString(ev.Message) != "done" {
		t.Errorf("unexpected event: ts=%d msg=%q", aws.ToInt64(ev.Timestamp), aws.ToString(ev.Message))
	}
	if aws.ToString(api.put.LogGroupName) != "ops" || aws.ToString(api.put.LogStreamName) != "i-abc" {
		t.Errorf("unexpected target %s/%s", aws.ToString(api.put.LogGroupName), aws.ToString(api.put.LogStreamName))
	}
}

func TestAppendEvent_Failures(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeLogs
		want error
	}{
		{
			name: "throttled",
			api:  &fakeLogs{putErr: &logstypes.ThrottlingException{Message: aws.String("slow down")}},
			want: relay.ErrThrottled,
		},
		{
			name: "sequence token",
			api:  &fakeLogs{putErr: &logstypes.InvalidSequenceTokenException{Message: aws.String("bad token")}},
			want: relay.ErrRejected,
		},
		{
			name: "stream missing",
			api:  &fakeLogs{putErr: &logstypes.ResourceNotFoundException{Message: aws.String("stream")}},
			want: relay.ErrNotFound,
		},
		{
			name: "too old",
			api: &fakeLogs{putOut: &cloudwatchlogs.PutLogEventsOutput{
				RejectedLogEventsInfo: &logstypes.RejectedLogEventsInfo{TooOldLogEventEndIndex: aws.Int32(0)},
			}},
			want: relay.ErrRejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSink(t, tt.api)
			err := s.AppendEvent(context.Background(), "ops", "i-abc", types.LogEntry{Timestamp: 1, Message: "m"})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNew_NilAPI(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("expected error for nil client")
	}
}
