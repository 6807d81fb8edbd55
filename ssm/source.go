// Package ssm implements relay.ExecutionResultSource over AWS Systems
// Manager Run Command.
//
// Inline output returned by GetCommandInvocation is capped at
// InlineOutputLimit characters. When FetchFullOutput is set and the command
// wrote its output to S3, the full object is read instead.
package ssm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"

	"github.com/pithecene-io/cmdrelay/awsx"
	"github.com/pithecene-io/cmdrelay/iox"
	"github.com/pithecene-io/cmdrelay/log"
	"github.com/pithecene-io/cmdrelay/relay"
	"github.com/pithecene-io/cmdrelay/types"
)

// InlineOutputLimit is the character cap SSM applies to StandardOutputContent.
const InlineOutputLimit = 24000

// MaxEventMessageBytes is the largest message CloudWatch Logs accepts in one
// event: 256 KiB less the 26 bytes of per-event overhead.
const MaxEventMessageBytes = 256*1024 - 26

// DefaultMaxOutputBytes bounds a full output fetch from S3.
const DefaultMaxOutputBytes = MaxEventMessageBytes

// API is the subset of the SSM client used by Source.
type API interface {
	GetCommandInvocation(ctx context.Context, params *awsssm.GetCommandInvocationInput, optFns ...func(*awsssm.Options)) (*awsssm.GetCommandInvocationOutput, error)
}

// ObjectAPI is the subset of the S3 client used for full output fetches.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config configures a Source.
type Config struct {
	// FetchFullOutput reads the S3 copy of truncated output.
	FetchFullOutput bool
	// MaxOutputBytes bounds the S3 read. Zero or anything above
	// MaxEventMessageBytes means MaxEventMessageBytes.
	MaxOutputBytes int64
}

// Source fetches command invocation results from SSM.
type Source struct {
	api     API
	objects ObjectAPI
	config  Config
	logger  *log.Logger
}

// New creates a Source. objects may be nil when FetchFullOutput is off.
func New(api API, objects ObjectAPI, cfg Config, logger *log.Logger) (*Source, error) {
	if api == nil {
		return nil, errors.New("ssm source requires an SSM client")
	}
	if cfg.FetchFullOutput && objects == nil {
		return nil, errors.New("ssm source: full output fetch requires an S3 client")
	}
	if cfg.MaxOutputBytes <= 0 || cfg.MaxOutputBytes > MaxEventMessageBytes {
		cfg.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Source{api: api, objects: objects, config: cfg, logger: logger}, nil
}

// GetInvocation implements relay.ExecutionResultSource.
func (s *Source) GetInvocation(ctx context.Context, commandID, instanceID string) (*types.InvocationResult, error) {
	out, err := s.api.GetCommandInvocation(ctx, &awsssm.GetCommandInvocationInput{
		CommandId:  aws.String(commandID),
		InstanceId: aws.String(instanceID),
	})
	if err != nil {
		return nil, awsx.Wrap("ssm", "GetCommandInvocation", err)
	}

	result := &types.InvocationResult{
		Output:         aws.ToString(out.StandardOutputContent),
		CompletionTime: aws.ToString(out.ExecutionEndDateTime),
		Status:         string(out.Status),
		OutputURL:      aws.ToString(out.StandardOutputUrl),
	}

	if isPending(out.Status) || result.CompletionTime == "" {
		return nil, &relay.ServiceError{
			Kind:    relay.ErrIncomplete,
			Service: "ssm",
			Op:      "GetCommandInvocation",
			Err:     fmt.Errorf("status %q", out.Status),
		}
	}

	if s.shouldFetchFull(result) {
		full, err := s.fetchFull(ctx, result.OutputURL)
		if err != nil {
			s.logger.Warn("full output fetch failed, using inline output", map[string]any{
				"output_url": result.OutputURL,
				"error":      err.Error(),
			})
		} else {
			result.Output = full
		}
	}

	return result, nil
}

func isPending(status ssmtypes.CommandInvocationStatus) bool {
	switch status {
	case ssmtypes.CommandInvocationStatusPending,
		ssmtypes.CommandInvocationStatusInProgress,
		ssmtypes.CommandInvocationStatusDelayed,
		ssmtypes.CommandInvocationStatusCancelling:
		return true
	}
	return false
}

func (s *Source) shouldFetchFull(r *types.InvocationResult) bool {
	return s.config.FetchFullOutput &&
		r.OutputURL != "" &&
		utf8.RuneCountInString(r.Output) >= InlineOutputLimit
}

func (s *Source) fetchFull(ctx context.Context, rawURL string) (string, error) {
	bucket, key, err := ParseObjectURL(rawURL)
	if err != nil {
		return "", err
	}

	out, err := s.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", awsx.Wrap("s3", "GetObject", err)
	}
	defer iox.DiscardClose(out.Body)

	data, err := io.ReadAll(io.LimitReader(out.Body, s.config.MaxOutputBytes))
	if err != nil {
		return "", fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	return string(trimPartialRune(data)), nil
}

// trimPartialRune drops an incomplete UTF-8 sequence left at the end of data
// by a byte-bounded read.
func trimPartialRune(data []byte) []byte {
	for i := len(data) - 1; i >= 0 && i >= len(data)-utf8.UTFMax; i-- {
		if utf8.RuneStart(data[i]) {
			if !utf8.FullRune(data[i:]) {
				return data[:i]
			}
			break
		}
	}
	return data
}

// ParseObjectURL extracts bucket and key from an S3 output URL.
// Accepted forms:
//
//	s3://bucket/key
//	https://s3.region.amazonaws.com/bucket/key     (path style)
//	https://bucket.s3.region.amazonaws.com/key     (virtual hosted)
func ParseObjectURL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid output url %q: %w", raw, err)
	}

	path := strings.TrimPrefix(u.Path, "/")
	switch {
	case u.Scheme == "s3":
		bucket, key = u.Host, path
	case strings.HasPrefix(u.Host, "s3.") || strings.HasPrefix(u.Host, "s3-"):
		bucket, key, _ = strings.Cut(path, "/")
	case strings.Contains(u.Host, ".s3."), strings.Contains(u.Host, ".s3-"):
		bucket, _, _ = strings.Cut(u.Host, ".s3")
		key = path
	default:
		return "", "", fmt.Errorf("not an s3 url: %q", raw)
	}

	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("output url %q has no bucket or key", raw)
	}
	return bucket, key, nil
}

// Verify Source implements the relay source interface.
var _ relay.ExecutionResultSource = (*Source)(nil)
