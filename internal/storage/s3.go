package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"catalog-api/internal/domain"
)

// S3Service stores product images in an S3-compatible bucket fronted by a
// delivery host. Objects are keyed by public id plus extension; the version
// segment in delivery URLs is presentation only.
type S3Service struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	baseHost string
}

func NewS3Service(client *s3.Client, bucket, baseHost string) *S3Service {
	return &S3Service{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		baseHost: strings.TrimSuffix(stripScheme(baseHost), "/"),
	}
}

func (s *S3Service) Upload(ctx context.Context, file File, folder, publicID string) (domain.UploadedImage, error) {
	if s.bucket == "" {
		return domain.UploadedImage{}, fmt.Errorf("storage bucket is required")
	}
	if len(file.Data) == 0 {
		return domain.UploadedImage{}, fmt.Errorf("file is empty")
	}

	if publicID == "" {
		publicID = fmt.Sprintf("product_%d_0", time.Now().UnixMilli())
	}
	fullID := strings.Trim(publicID, "/")
	if folder = strings.Trim(folder, "/"); folder != "" && !strings.HasPrefix(fullID, folder+"/") {
		fullID = folder + "/" + fullID
	}

	ext := imageExtension(file.Name)
	key := fullID + "." + ext

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file.Data),
		ContentType: aws.String(contentTypeFor(ext)),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return domain.UploadedImage{}, fmt.Errorf("upload %s: %w", key, err)
	}

	width, height := imageDimensions(file.Data)
	version := time.Now().Unix()
	return domain.UploadedImage{
		URL:       s.deliveryURL("http", version, fullID, ext),
		SecureURL: s.deliveryURL("https", version, fullID, ext),
		PublicID:  fullID,
		Width:     width,
		Height:    height,
	}, nil
}

// UploadBatch uploads every file concurrently, each under a generated public id.
// If any member fails the whole batch fails and already stored objects are
// removed best-effort so no partial list survives.
func (s *S3Service) UploadBatch(ctx context.Context, files []File, folder string) ([]domain.UploadedImage, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("at least one file is required")
	}

	batchID := time.Now().UnixMilli()
	results := make([]domain.UploadedImage, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			image, err := s.Upload(gctx, file, folder, fmt.Sprintf("product_%d_%d", batchID, i))
			if err != nil {
				return err
			}
			results[i] = image
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, image := range results {
			if image.PublicID != "" {
				s.Delete(ctx, image.PublicID)
			}
		}
		return nil, fmt.Errorf("upload batch: %w", err)
	}
	return results, nil
}

// Delete removes the object stored under the public id. The extension is not
// part of the id, so matching objects are found by prefix listing. Returns
// false when nothing matched or the host could not be reached.
func (s *S3Service) Delete(ctx context.Context, publicID string) bool {
	publicID = strings.Trim(publicID, "/")
	if s.bucket == "" || publicID == "" {
		return false
	}

	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(publicID + "."),
	}

	deleted := false
	for {
		output, err := s.client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return false
		}

		if len(output.Contents) > 0 {
			identifiers := make([]types.ObjectIdentifier, 0, len(output.Contents))
			for _, obj := range output.Contents {
				identifiers = append(identifiers, types.ObjectIdentifier{Key: obj.Key})
			}
			_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.bucket),
				Delete: &types.Delete{
					Objects: identifiers,
					Quiet:   aws.Bool(true),
				},
			})
			if err != nil {
				return false
			}
			deleted = true
		}

		if !aws.ToBool(output.IsTruncated) || output.NextContinuationToken == nil {
			break
		}
		listInput.ContinuationToken = output.NextContinuationToken
	}

	return deleted
}

func (s *S3Service) deliveryURL(scheme string, version int64, publicID, ext string) string {
	return fmt.Sprintf("%s://%s/%s/v%d/%s.%s", scheme, s.baseHost, s.bucket, version, publicID, ext)
}

func stripScheme(host string) string {
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(host, prefix) {
			return strings.TrimPrefix(host, prefix)
		}
	}
	return host
}

var _ Service = (*S3Service)(nil)
