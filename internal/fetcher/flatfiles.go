package fetcher

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// FlatFilesOptions parameterise the S3 flat-file store client.
type FlatFilesOptions struct {
	Endpoint        string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	DayAggsPrefix   string
	TradesPrefix    string
	Timeout         time.Duration
}

// FlatFiles reads historical options data from an S3-compatible flat-file
// store. Files are daily gzipped CSVs laid out as <prefix>/YYYY/MM/<date>.csv.gz.
type FlatFiles struct {
	opts   FlatFilesOptions
	logger zerolog.Logger
	client *s3.Client
}

// NewFlatFiles constructs the store client. Credentials are required here so
// a misconfigured deployment fails at construction rather than on first use.
func NewFlatFiles(opts FlatFilesOptions, logger zerolog.Logger) (*FlatFiles, error) {
	if opts.AccessKeyID == "" || opts.SecretAccessKey == "" {
		return nil, errors.New("flatfiles: access key id and secret access key required")
	}
	if opts.Bucket == "" {
		return nil, errors.New("flatfiles: bucket required")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = "https://files.massive.com"
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if opts.DayAggsPrefix == "" {
		opts.DayAggsPrefix = "us_options_opra/day_aggs_v1"
	}
	if opts.TradesPrefix == "" {
		opts.TradesPrefix = "us_options_opra/trades_v1"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	client := s3.New(s3.Options{
		Region:       opts.Region,
		BaseEndpoint: aws.String(opts.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		UsePathStyle: true,
	})

	return &FlatFiles{
		opts:   opts,
		logger: logger.With().Str("component", "flatfiles_fetcher").Logger(),
		client: client,
	}, nil
}

// ListFiles lists object keys under a prefix, optionally narrowed to a
// YYYY-MM month, up to max keys.
func (f *FlatFiles) ListFiles(ctx context.Context, prefix, monthFilter string, max int) ([]string, error) {
	if max <= 0 {
		max = 100
	}
	if monthFilter != "" {
		parts := strings.SplitN(monthFilter, "-", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("flatfiles: month filter must be YYYY-MM, got %q", monthFilter)
		}
		prefix = fmt.Sprintf("%s/%s/%s", strings.TrimRight(prefix, "/"), parts[0], parts[1])
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	keys := make([]string, 0, max)
	paginator := s3.NewListObjectsV2Paginator(f.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(f.opts.Bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() && len(keys) < max {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("flatfiles: list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, *obj.Key)
			if len(keys) == max {
				break
			}
		}
	}
	return keys, nil
}

// PutCallRatioForDate computes the put/call volume ratio for one trading day
// from the daily aggregates file, filtered to an underlying when given.
func (f *FlatFiles) PutCallRatioForDate(ctx context.Context, date time.Time, underlying string) (PutCallRatio, error) {
	key := f.dayAggsKey(date)

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return PutCallRatio{}, fmt.Errorf("flatfiles: get %s: %w", key, err)
	}
	defer out.Body.Close()

	ratio, err := f.sumPutCall(out.Body, underlying)
	if err != nil {
		return PutCallRatio{}, fmt.Errorf("flatfiles: %s: %w", key, err)
	}
	ratio.AsOf = date
	ratio.Underlying = underlying

	f.logger.Debug().Str("key", key).
		Int64("put_volume", ratio.PutVolume).
		Int64("call_volume", ratio.CallVolume).
		Msg("computed put/call ratio from flat file")
	return ratio, nil
}

func (f *FlatFiles) dayAggsKey(date time.Time) string {
	date = date.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%s.csv.gz",
		strings.TrimRight(f.opts.DayAggsPrefix, "/"), date.Year(), int(date.Month()), date.Format("2006-01-02"))
}

func (f *FlatFiles) sumPutCall(body io.Reader, underlying string) (PutCallRatio, error) {
	gz, err := gzip.NewReader(body)
	if err != nil {
		return PutCallRatio{}, fmt.Errorf("gunzip: %w", err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return PutCallRatio{}, fmt.Errorf("read header: %w", err)
	}
	schema, err := resolveOptionsSchema(header)
	if err != nil {
		return PutCallRatio{}, err
	}

	var ratio PutCallRatio
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return PutCallRatio{}, fmt.Errorf("read record: %w", err)
		}

		if underlying != "" && !strings.EqualFold(record[schema.underlyingCol], underlying) {
			continue
		}

		volume, err := parseVolume(record[schema.volumeCol])
		if err != nil {
			return PutCallRatio{}, err
		}

		switch strings.ToLower(record[schema.typeCol]) {
		case "put", "p":
			ratio.PutVolume += volume
		case "call", "c":
			ratio.CallVolume += volume
		default:
			continue
		}
		ratio.Contracts++
	}

	if ratio.Contracts == 0 {
		return PutCallRatio{}, errors.New("no matching contracts in file")
	}

	ratio.VolumeRatio = ratioOf(ratio.PutVolume, ratio.CallVolume)
	return ratio, nil
}

var _ FlatFileFetcher = (*FlatFiles)(nil)
